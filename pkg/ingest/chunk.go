package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// A window end looks back over this fraction of the window for
	// whitespace to break on.
	breakSearchFraction = 0.2
)

// Chunk is a contiguous span of a document's text.
type Chunk struct {
	ID       string
	Source   string
	Position int
	Text     string
}

// Chunker splits text into overlapping windows of runes.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window size and overlap. A zero size uses
// DefaultChunkSize.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size == 0 {
		size = DefaultChunkSize
	}
	if size < 0 || overlap < 0 {
		return nil, errors.New("chunk size and overlap must not be negative")
	}
	if overlap >= size {
		return nil, errors.New("chunk overlap must be smaller than chunk size")
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks. The same input always yields the same chunks
// with the same IDs.
func (c *Chunker) Split(source, text string) []Chunk {
	runes := []rune(text)
	n := len(runes)

	var chunks []Chunk
	start := 0
	for start < n {
		end := min(start+c.size, n)
		if end < n {
			end = c.breakPoint(runes, start, end)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pos := len(chunks)
			chunks = append(chunks, Chunk{
				ID:       ChunkID(source, pos, piece),
				Source:   source,
				Position: pos,
				Text:     piece,
			})
		}

		if end == n {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// breakPoint moves end back to just after the last whitespace in the final
// part of the window so words are not split. Without whitespace there it
// keeps the hard cut.
func (c *Chunker) breakPoint(runes []rune, start, end int) int {
	floor := end - int(float64(end-start)*breakSearchFraction)
	for i := end - 1; i >= floor && i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

// ChunkID derives a stable identifier from a chunk's source, position and text.
func ChunkID(source string, position int, text string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(position)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
