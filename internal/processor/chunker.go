package processor

import (
	"strings"
	"unicode/utf8"

	"asistente-rag/internal/models"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 200
)

// Chunker splits raw document text into overlapping segments, preferring
// paragraph and sentence boundaries over hard character cuts. Splitting is
// deterministic: the same text and parameters always produce the same
// boundaries.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a chunker, falling back to defaults on invalid values.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split cuts text into chunks of at most c.Size characters (runes) with
// c.Overlap characters shared between consecutive chunks. Empty or
// whitespace-only input yields no chunks; any other input yields at least
// one. Every cut lands on a rune boundary, so multi-byte text never splits
// into invalid UTF-8.
func (c *Chunker) Split(text, sourceID string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []models.Chunk
	start := 0
	index := 0

	for start < len(text) {
		end := advanceRunes(text, start, c.Size)
		if end < len(text) {
			end = c.breakPoint(text, start, end)
		}

		segment := strings.TrimSpace(text[start:end])
		if segment != "" {
			chunks = append(chunks, models.Chunk{
				Text:          segment,
				SourceID:      sourceID,
				SequenceIndex: index,
				CharStart:     start,
				CharEnd:       end,
			})
			index++
		}

		if end == len(text) {
			break
		}
		next := retreatRunes(text, end, c.Overlap)
		if next <= start {
			// Overlap must never stall the scan on short segments.
			next = end
		}
		start = next
	}

	return chunks
}

// advanceRunes returns the byte offset n runes after start, capped at the
// end of s.
func advanceRunes(s string, start, n int) int {
	i := start
	for n > 0 && i < len(s) {
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
		n--
	}
	return i
}

// retreatRunes returns the byte offset n runes before end, capped at the
// start of s.
func retreatRunes(s string, end, n int) int {
	i := end
	for n > 0 && i > 0 {
		_, w := utf8.DecodeLastRuneInString(s[:i])
		i -= w
		n--
	}
	return i
}

// breakPoint finds the best cut position in text[start:limit], searching the
// last third of the window for a paragraph break, then a sentence end, then
// any whitespace. Falls back to a hard cut at limit. The separators are all
// ASCII and limit arrives on a rune boundary, so every cut stays on one.
func (c *Chunker) breakPoint(text string, start, limit int) int {
	window := text[start:limit]
	floor := len(window) * 2 / 3

	if i := strings.LastIndex(window, "\n\n"); i > floor {
		return start + i
	}
	for _, sep := range []string{". ", "? ", "! ", ".\n", "?\n", "!\n"} {
		if i := strings.LastIndex(window, sep); i > floor {
			return start + i + 1
		}
	}
	if i := strings.LastIndexAny(window, " \t\n"); i > floor {
		return start + i
	}
	return limit
}
