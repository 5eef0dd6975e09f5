package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_tutor/internal/domain"
)

// reassemble drops the overlap prefix of every chunk after the first.
func reassemble(chunks []Chunk, overlap int) string {
	var buf strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i > 0 {
			runes = runes[overlap:]
		}
		buf.WriteString(string(runes))
	}
	return buf.String()
}

const lecture = `Photosynthesis converts light into chemical energy.

Plants capture photons in chlorophyll and use them to split water.
The released oxygen leaves through the stomata.

The Calvin cycle then fixes carbon dioxide into sugars, which the plant
uses for growth and stores as starch. Respiration later releases that energy.`

func TestSplitReconstructsText(t *testing.T) {
	inputs := []string{
		lecture,
		strings.Repeat("abcdefghij", 37),
		strings.Repeat("word ", 101),
		"line one\nline two\nline three\nline four\nline five",
		"ünïcödé текст 漢字 " + strings.Repeat("λ", 53),
	}
	params := []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {16, 15}, {40, 8}, {100, 20}, {1000, 200},
	}

	for _, in := range inputs {
		for _, p := range params {
			chunks, err := Split(in, p.size, p.overlap, "src")
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			assert.Equal(t, in, reassemble(chunks, p.overlap), "size=%d overlap=%d", p.size, p.overlap)
			for i, ch := range chunks {
				assert.LessOrEqual(t, len([]rune(ch.Text)), p.size)
				assert.Equal(t, i, ch.Sequence)
				assert.Equal(t, "src", ch.SourceID)
				if i > 0 {
					prev := []rune(chunks[i-1].Text)
					head := []rune(ch.Text)[:p.overlap]
					assert.Equal(t, string(prev[len(prev)-p.overlap:]), string(head))
				}
			}
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	first, err := Split(lecture, 60, 12, "bio101")
	require.NoError(t, err)
	second, err := Split(lecture, 60, 12, "bio101")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30) + "\n" + strings.Repeat("c", 10)

	chunks, err := Split(text, 50, 0, "p")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 30)+"\n\n", chunks[0].Text)
}

func TestSplitFallsBackToSpacesThenHardCut(t *testing.T) {
	spaced := strings.Repeat("x", 7) + " " + strings.Repeat("y", 7)
	chunks, err := Split(spaced, 10, 0, "s")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 7)+" ", chunks[0].Text)

	solid := strings.Repeat("z", 25)
	chunks, err = Split(solid, 10, 2, "h")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0].Text))
	assert.Equal(t, 8, chunks[1].Start)
}

func TestSplitShortAndEmptyInput(t *testing.T) {
	chunks, err := Split("tiny", 100, 10, "t")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Text)

	chunks, err = Split("", 100, 10, "t")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitRejectsBadConfig(t *testing.T) {
	cases := []struct{ size, overlap int }{
		{0, 0}, {-5, 0}, {10, 10}, {10, 11}, {10, -1},
	}
	for _, c := range cases {
		_, err := Split("some text", c.size, c.overlap, "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	}
}

func TestChunkMetadataRoundTrip(t *testing.T) {
	chunks, err := Split(lecture, 80, 10, "bio101")
	require.NoError(t, err)

	ch := chunks[1]
	back := FromMetadata(ch.ID, ch.Text, ch.Metadata())
	assert.Equal(t, ch, back)
}

func TestNormalizeMarkdown(t *testing.T) {
	md := "# Cells\n\nThe *cell* is the `basic` unit.\n\n- nucleus\n- membrane\n\n```\ncode line\n```\n"

	out := NormalizeMarkdown(md)
	assert.Contains(t, out, "Cells\n\nThe cell is the basic unit.")
	assert.Contains(t, out, "nucleus")
	assert.Contains(t, out, "membrane")
	assert.Contains(t, out, "code line")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "*")
}

func TestFactoryNormalizesMarkdownSources(t *testing.T) {
	f, err := NewFactory(Config{ChunkSize: 200, Overlap: 20})
	require.NoError(t, err)

	chunks, err := f.Chunk("## Heading\n\nBody text here.", "notes.md", "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Heading\n\nBody text here.", chunks[0].Text)
	assert.Equal(t, "doc-1", chunks[0].SourceID)

	chunks, err = f.Chunk("## Heading", "notes.txt", "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "## Heading", chunks[0].Text)

	_, err = NewFactory(Config{ChunkSize: 5, Overlap: 5})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
