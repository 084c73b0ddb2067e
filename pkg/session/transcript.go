package session

import "github.com/papercomputeco/docent/pkg/export"

// Transcript converts turns to an exportable transcript. The summary is that
// of the last documents-mode turn.
func Transcript(turns []*Turn) export.Transcript {
	t := export.Transcript{Turns: make([]export.Turn, 0, len(turns))}
	for _, turn := range turns {
		t.Turns = append(t.Turns, export.Turn{Question: turn.Question, Answer: turn.Answer})
		if turn.Mode == ModeDocuments && len(turn.Summary) > 0 {
			t.Summary = turn.Summary
		}
	}
	return t
}
