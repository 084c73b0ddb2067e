package export

import (
	"bufio"
	"fmt"
	"io"
)

// WriteText renders "Q{i}: ...\nA{i}: ...\n\n" per turn, then the summary.
func WriteText(t Transcript, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, turn := range t.Turns {
		fmt.Fprintf(bw, "Q%d: %s\nA%d: %s\n\n", i+1, turn.Question, i+1, turn.Answer)
	}

	if len(t.Summary) > 0 {
		fmt.Fprintln(bw, "Summary:")
		for _, line := range t.Summary {
			fmt.Fprintf(bw, "- %s\n", line)
		}
	}

	return bw.Flush()
}
