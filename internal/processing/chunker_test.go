package processing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkSplitsOnBlankLines(t *testing.T) {
	c := NewChunker(1000, 200, 10)
	text := "First paragraph with enough text to keep.\n\nSecond paragraph, also long enough to survive."
	chunks := c.Chunk(text)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph with enough text to keep.", chunks[0])
}

func TestChunkSplitsLongParagraphsWithOverlap(t *testing.T) {
	c := NewChunker(100, 20, 10)
	text := strings.Repeat("abcdefghij", 30) // 300 chars, no blank lines
	chunks := c.Chunk(text)
	assert.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), 100)
	}
	// consecutive chunks share the overlap region
	assert.Equal(t, chunks[0][80:], chunks[1][:20])
}

func TestChunkDropsNoise(t *testing.T) {
	c := NewChunker(1000, 200, 50)
	text := "42\n\nA real paragraph that is comfortably longer than the fifty character noise threshold."
	chunks := c.Chunk(text)
	assert.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "real paragraph")
}

func TestChunkEmptyInput(t *testing.T) {
	c := NewChunker(1000, 200, 50)
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("\n\n\n"))
}

func TestCleanTextCollapsesSpaces(t *testing.T) {
	got := CleanText("a   b\t\tc  \n\n  next   para")
	assert.Equal(t, "a b c\n\nnext para", got)
}
