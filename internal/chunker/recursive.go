package chunker

import (
	"fmt"

	"ai_tutor/internal/domain"
)

// separators are tried in order when looking for a break point inside a window.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(" "),
}

// Validate checks the splitting parameters.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be > 0, got %d", domain.ErrConfiguration, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must be >= 0 and < chunk size (%d), got %d",
			domain.ErrConfiguration, c.ChunkSize, c.Overlap)
	}
	return nil
}

// Split cuts text into chunks of at most chunkSize runes. Each chunk after the
// first starts with the last overlap runes of its predecessor, so dropping
// that prefix and concatenating restores the input exactly.
//
// Inside every window the last paragraph break is preferred, then the last
// line break, then the last space; without any of them the window is cut
// hard at chunkSize.
func Split(text string, chunkSize, overlap int, sourceID string) ([]Chunk, error) {
	cfg := Config{ChunkSize: chunkSize, Overlap: overlap}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	start := 0
	for {
		end := len(runes)
		if start+chunkSize < len(runes) {
			end = breakPoint(runes, start, start+chunkSize, minEnd(start, chunkSize, overlap))
		}

		span := string(runes[start:end])
		seq := len(chunks)
		chunks = append(chunks, Chunk{
			ID:       chunkID(sourceID, seq, span),
			Text:     span,
			SourceID: sourceID,
			Sequence: seq,
			Start:    start,
			End:      end,
		})

		if end == len(runes) {
			break
		}
		start = end - overlap
	}

	return chunks, nil
}

// minEnd is the earliest acceptable end of a window. The chunk must be longer
// than the overlap so the next window advances, and at least half a window so
// an early separator does not produce a run of tiny chunks.
func minEnd(start, chunkSize, overlap int) int {
	floor := overlap + 1
	if half := chunkSize / 2; half > floor {
		floor = half
	}
	return start + floor
}

// breakPoint returns the end offset for the window [start, limit).
func breakPoint(runes []rune, start, limit, earliest int) int {
	for _, sep := range separators {
		for pos := limit - len(sep); pos >= start && pos+len(sep) >= earliest; pos-- {
			if hasPrefixAt(runes, pos, sep) {
				return pos + len(sep)
			}
		}
	}
	return limit
}

func hasPrefixAt(runes []rune, pos int, sep []rune) bool {
	if pos+len(sep) > len(runes) {
		return false
	}
	for i, r := range sep {
		if runes[pos+i] != r {
			return false
		}
	}
	return true
}
