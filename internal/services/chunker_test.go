package services

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovanglig/aigeniusresume/internal/models"
)

func repeatTo(s string, n int) string {
	return strings.Repeat(s, n/len(s)+1)[:n]
}

func TestChunk_EmptyDocument(t *testing.T) {
	chunker := NewTextChunker()

	assert.Empty(t, chunker.Chunk("", 1000, 200))
	assert.Empty(t, chunker.Chunk("\n\n  \n\n", 1000, 200))
}

func TestChunk_SingleChunk(t *testing.T) {
	chunks := NewTextChunker().Chunk("Jane Doe\n\nData Engineer", 1000, 200)

	require.Len(t, chunks, 1)
	assert.Equal(t, models.TextChunk{Content: "Jane Doe\n\nData Engineer", Order: 0}, chunks[0])
}

func TestChunk_GreedyPackingWithOverlap(t *testing.T) {
	p1 := repeatTo("a", 400)
	p2 := repeatTo("0123456789", 400)
	p3 := repeatTo("c", 400)

	chunks := NewTextChunker().Chunk(p1+"\n\n"+p2+"\n\n"+p3, 1000, 200)

	require.Len(t, chunks, 2)
	assert.Equal(t, p1+"\n\n"+p2, chunks[0].Content)
	assert.Equal(t, p2[200:]+"\n\n"+p3, chunks[1].Content)
	assert.Equal(t, 1, chunks[1].Order)
}

func TestChunk_HardSplitsLongParagraph(t *testing.T) {
	para := repeatTo("abcdefghijklmnopqrstuvwxyz", 2500)

	chunks := NewTextChunker().Chunk(para, 1000, 200)

	require.Len(t, chunks, 3)
	assert.Equal(t, para[0:1000], chunks[0].Content)
	assert.Equal(t, para[800:1800], chunks[1].Content)
	assert.Equal(t, para[1600:2500], chunks[2].Content)
}

func TestChunk_ShrinksSeedInsteadOfSplittingParagraph(t *testing.T) {
	p1 := repeatTo("x", 900)
	p2 := repeatTo("y", 900)

	chunks := NewTextChunker().Chunk(p1+"\n\n"+p2, 1000, 200)

	require.Len(t, chunks, 2)
	assert.Equal(t, p1, chunks[0].Content)
	assert.Equal(t, repeatTo("x", 98)+"\n\n"+p2, chunks[1].Content)
}

func TestChunk_OverlapClampedAndDefaults(t *testing.T) {
	para := repeatTo("q", 30)

	// overlap >= max falls back to max/4
	chunks := NewTextChunker().Chunk(para, 10, 50)
	require.NotEmpty(t, chunks)
	assert.Equal(t, para[0:10], chunks[0].Content)
	assert.Equal(t, para[8:18], chunks[1].Content)

	// max <= 0 falls back to the default size
	chunks = NewTextChunker().Chunk(para, 0, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, para, chunks[0].Content)
}

func TestChunk_CountsRunes(t *testing.T) {
	para := repeatTo("é", 10*len("é"))
	require.Equal(t, 10, utf8.RuneCountInString(para))

	chunks := NewTextChunker().Chunk(para, 10, 2)
	require.Len(t, chunks, 1)
	assert.Equal(t, para, chunks[0].Content)
}

func TestChunk_Properties(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 40; i++ {
		size := 50 + (i*137)%700
		if i%13 == 0 {
			size = 1800
		}
		word := fmt.Sprintf("p%02d-", i)
		paragraphs = append(paragraphs, repeatTo(word, size))
	}
	doc := strings.Join(paragraphs, "\n\n")

	chunker := NewTextChunker()
	chunks := chunker.Chunk(doc, 1000, 200)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, i, c.Order)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 1000, "chunk %d too long", i)
	}

	joined := Rejoin(chunks)
	last := -1
	for i, p := range paragraphs {
		if len(p) > 1000 {
			// Hard-split; see TestChunk_HardSplitCoversParagraph.
			continue
		}
		idx := strings.Index(joined, p)
		require.GreaterOrEqual(t, idx, 0, "paragraph %d lost or split", i)
		assert.Greater(t, idx, last, "paragraph %d out of order", i)
		last = idx
	}

	for i := 1; i < len(chunks); i++ {
		assert.True(t, seededFrom(chunks[i-1].Content, chunks[i].Content, 200),
			"chunk %d is not seeded from chunk %d", i, i-1)
	}

	assert.Equal(t, chunks, chunker.Chunk(doc, 1000, 200), "chunking must be deterministic")
}

// uniqueText returns n ASCII characters of numbered tokens, so any substring
// longer than a token occurs once. It never ends in whitespace.
func uniqueText(prefix string, n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "%s%05d ", prefix, i)
	}
	out := b.String()[:n]
	if strings.HasSuffix(out, " ") {
		out = out[:n-1] + "x"
	}
	return out
}

func TestChunk_HardSplitCoversParagraph(t *testing.T) {
	chunker := NewTextChunker()

	for _, size := range []int{1001, 1799, 1800, 1801, 2650, 4321} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			para := uniqueText("w", size)
			chunks := chunker.Chunk(para, 1000, 200)
			require.Greater(t, len(chunks), 1)

			prevEnd := 0
			for i, c := range chunks {
				idx := strings.Index(para, c.Content)
				require.GreaterOrEqual(t, idx, 0, "chunk %d is not a piece of the paragraph", i)
				if i == 0 {
					assert.Equal(t, 0, idx)
				} else {
					assert.LessOrEqual(t, idx, prevEnd, "gap before chunk %d", i)
					assert.GreaterOrEqual(t, idx, prevEnd-200, "chunk %d repeats more than the overlap", i)
				}
				prevEnd = idx + len(c.Content)
			}
			assert.Equal(t, len(para), prevEnd)
		})
	}

	t.Run("seeds stripped rebuild the document", func(t *testing.T) {
		intro := uniqueText("i", 100)
		long := uniqueText("w", 2198)
		outro := uniqueText("o", 100)
		doc := intro + "\n\n" + long + "\n\n" + outro

		chunks := chunker.Chunk(doc, 1000, 200)
		require.Len(t, chunks, 3)

		rebuilt := chunks[0].Content
		for i := 1; i < len(chunks); i++ {
			seed := min(200, utf8.RuneCountInString(chunks[i-1].Content))
			rebuilt += string([]rune(chunks[i].Content)[seed:])
		}
		assert.Equal(t, doc, rebuilt)
	})
}

// seededFrom reports whether next starts with a non-empty tail of prev no
// longer than overlap runes.
func seededFrom(prev, next string, overlap int) bool {
	p := []rune(prev)
	for k := 1; k <= overlap && k <= len(p); k++ {
		if strings.HasPrefix(next, string(p[len(p)-k:])) {
			return true
		}
	}
	return false
}

func TestRejoin(t *testing.T) {
	chunks := []models.TextChunk{{Content: "one", Order: 0}, {Content: "two", Order: 1}}
	assert.Equal(t, "one\n\ntwo", Rejoin(chunks))
	assert.Equal(t, "", Rejoin(nil))
}
