package chunker

// Chunk is a contiguous span of a source text prepared for embedding.
// Chunks are immutable once stored.
type Chunk struct {
	ID       string // content hash
	Text     string // raw span, not trimmed
	SourceID string // document the span belongs to
	Sequence int    // position in the source, contiguous from 0
	Start    int    // rune offset of the first rune
	End      int    // rune offset one past the last rune
}

// Metadata returns the chunk's store metadata.
func (c Chunk) Metadata() map[string]string {
	return map[string]string{
		MetaSource:   c.SourceID,
		MetaSequence: itoa(c.Sequence),
		MetaStart:    itoa(c.Start),
		MetaEnd:      itoa(c.End),
	}
}

// Metadata keys stored alongside each vector.
const (
	MetaSource   = "source_id"
	MetaSequence = "sequence_index"
	MetaStart    = "start"
	MetaEnd      = "end"
)

// Config holds the splitting parameters, in runes.
type Config struct {
	ChunkSize int
	Overlap   int
}
