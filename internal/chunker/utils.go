package chunker

import (
	"crypto/sha256"
	"fmt"
	"strconv"
)

// chunkID hashes the source, position and text into a stable identifier.
func chunkID(source string, seq int, text string) string {
	hash := sha256.Sum256([]byte(source + "\x00" + strconv.Itoa(seq) + "\x00" + text))
	return fmt.Sprintf("%x", hash[:8])
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// Atoi parses an integer metadata value, returning 0 for malformed input.
func Atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// FromMetadata rebuilds a chunk from its stored text and metadata.
func FromMetadata(id, text string, meta map[string]string) Chunk {
	return Chunk{
		ID:       id,
		Text:     text,
		SourceID: meta[MetaSource],
		Sequence: Atoi(meta[MetaSequence]),
		Start:    Atoi(meta[MetaStart]),
		End:      Atoi(meta[MetaEnd]),
	}
}
