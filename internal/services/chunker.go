package services

import (
	"strings"

	"github.com/jovanglig/aigeniusresume/internal/models"
)

const (
	DefaultMaxChunkChars = 1000
	DefaultOverlapChars  = 200

	paragraphSeparator = "\n\n"
)

type TextChunker interface {
	Chunk(text string, maxChunkChars int, overlapChars int) []models.TextChunk
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// Chunk implements TextChunker. Lengths are counted in runes. Paragraphs are
// packed greedily; a paragraph longer than maxChunkChars is hard-split. Every
// chunk after the first starts with up to overlapChars trailing runes of the
// previous chunk.
func (tc *textChunker) Chunk(text string, maxChunkChars int, overlapChars int) []models.TextChunk {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChunkChars {
		overlapChars = maxChunkChars / 4
	}

	b := &chunkBuilder{max: maxChunkChars, overlap: overlapChars}
	for _, para := range strings.Split(text, paragraphSeparator) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.add([]rune(para))
	}
	b.flush()

	return b.chunks
}

// Rejoin glues chunks back together with blank lines, in order.
func Rejoin(chunks []models.TextChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, paragraphSeparator)
}

type chunkBuilder struct {
	max     int
	overlap int
	chunks  []models.TextChunk
	buf     []rune
	// seedLen is how much of buf was carried over from the previous chunk.
	seedLen int
}

func (b *chunkBuilder) add(para []rune) {
	continued := false

	for len(para) > 0 {
		var sep []rune
		if len(b.buf) > 0 && !continued {
			sep = []rune(paragraphSeparator)
		}

		if len(b.buf)+len(sep)+len(para) <= b.max {
			b.buf = append(b.buf, sep...)
			b.buf = append(b.buf, para...)
			return
		}

		if len(b.buf) > b.seedLen {
			b.flush()
			continue
		}

		// Only the seed is buffered. Shrink it so a paragraph that fits on
		// its own is never split.
		if len(para) <= b.max {
			keep := b.max - len(para) - len(sep)
			if keep <= 0 {
				b.buf = b.buf[:0]
			} else {
				b.buf = b.buf[len(b.buf)-keep:]
			}
			b.seedLen = len(b.buf)
			continue
		}

		room := b.max - len(b.buf) - len(sep)
		if room <= 0 {
			b.buf = b.buf[:0]
			b.seedLen = 0
			sep = nil
			room = b.max
		}
		b.buf = append(b.buf, sep...)
		b.buf = append(b.buf, para[:room]...)
		para = para[room:]
		b.flush()

		// The rest of a hard-split paragraph continues the seed directly.
		continued = true
	}
}

func (b *chunkBuilder) flush() {
	if len(b.buf) <= b.seedLen {
		return
	}

	b.chunks = append(b.chunks, models.TextChunk{
		Content: string(b.buf),
		Order:   len(b.chunks),
	})

	seed := getLastNRunes(b.buf, b.overlap)
	b.buf = append(make([]rune, 0, b.max), seed...)
	b.seedLen = len(b.buf)
}

func getLastNRunes(r []rune, n int) []rune {
	if n <= 0 {
		return nil
	}
	if len(r) <= n {
		return r
	}
	return r[len(r)-n:]
}
