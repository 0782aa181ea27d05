package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa/agent/internal/domain"
	"github.com/docqa/agent/internal/processing"
	"github.com/docqa/agent/internal/vectorstore/memory"
)

type fakeExtractor struct {
	texts  map[string]string
	failOn string
}

func (f fakeExtractor) Extract(ctx context.Context, path string) (string, error) {
	if filepath.Base(path) == f.failOn {
		return "", fmt.Errorf("%w: unreadable", domain.ErrExtraction)
	}
	return f.texts[filepath.Base(path)], nil
}

type countingEmbedder struct {
	calls  int
	cancel context.CancelFunc
	after  int
}

func (e *countingEmbedder) Dimension() int { return 2 }

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.cancel != nil && e.calls == e.after {
		e.cancel()
	}
	return []float32{1, 0}, nil
}

func newPipeline(ex domain.Extractor, emb domain.Embedder, store domain.VectorStore) *Pipeline {
	return &Pipeline{
		Extractor: ex,
		Chunker:   processing.NewChunker(1000, 200, 10),
		Embedder:  emb,
		Store:     store,
		Source:    "local",
	}
}

func TestPipelineIndexesDocuments(t *testing.T) {
	ctx := context.Background()
	store := memory.New(2)
	require.NoError(t, store.Init(ctx))

	ex := fakeExtractor{texts: map[string]string{
		"a.txt": "First paragraph of document a.\n\nSecond paragraph of document a.",
		"b.txt": "Only paragraph of document b.",
	}}
	p := newPipeline(ex, &countingEmbedder{}, store)

	res, err := p.Run(ctx, []string{"/docs/a.txt", "/docs/b.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.Chunks)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPipelineSkipsFailedExtraction(t *testing.T) {
	ctx := context.Background()
	store := memory.New(2)
	require.NoError(t, store.Init(ctx))

	ex := fakeExtractor{
		texts:  map[string]string{"ok.txt": "A paragraph that extracts fine and gets indexed."},
		failOn: "broken.pdf",
	}
	p := newPipeline(ex, &countingEmbedder{}, store)

	res, err := p.Run(ctx, []string{"/docs/broken.pdf", "/docs/ok.txt"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, []string{"/docs/broken.pdf"}, res.Skipped)
}

func TestPipelineStopsOnCancellationKeepingIndexedChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.New(2)
	require.NoError(t, store.Init(ctx))

	// three chunks; cancel fires after the second embedding
	ex := fakeExtractor{texts: map[string]string{
		"a.txt": "Chunk number one here.\n\nChunk number two here.\n\nChunk number three here.",
	}}
	emb := &countingEmbedder{cancel: cancel, after: 2}
	p := newPipeline(ex, emb, store)

	res, err := p.Run(ctx, []string{"/docs/a.txt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, res.Chunks)

	n, cerr := store.Count(context.Background())
	require.NoError(t, cerr)
	assert.Equal(t, 2, n)
}

func TestLoadLocalFilesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.txt", "c.md", "d.png", "skip.exe", "skip.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "e.jpeg"), []byte("x"), 0o644))

	files, err := LoadLocalFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 5)
	for _, f := range files {
		assert.False(t, strings.HasSuffix(f, ".exe"))
		assert.False(t, strings.HasSuffix(f, ".csv"))
	}
}

func TestMockOCRNeverFails(t *testing.T) {
	m := NewMockOCR()
	text, err := m.ExtractPDF(context.Background(), "/tmp/scan.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "scan.pdf")

	text, err = m.ExtractImage(context.Background(), "/tmp/page.png")
	require.NoError(t, err)
	assert.Contains(t, text, "page.png")
}

func TestPageImagesScopedToConversionDirectory(t *testing.T) {
	// simulate a 3-page conversion and a later 1-page conversion; the
	// second must never see the first run's pages
	longRun := t.TempDir()
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("page-%02d.png", i)
		require.NoError(t, os.WriteFile(filepath.Join(longRun, name), []byte("x"), 0o644))
	}
	shortRun := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(shortRun, "page-1.png"), []byte("x"), 0o644))

	pages, err := pageImages(longRun)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, filepath.Join(longRun, "page-01.png"), pages[0])
	for _, p := range pages {
		assert.Equal(t, longRun, filepath.Dir(p))
	}

	pages, err = pageImages(shortRun)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, shortRun, filepath.Dir(pages[0]))
}

func TestFileExtractorUnsupportedType(t *testing.T) {
	e := NewFileExtractor(NewMockOCR())
	_, err := e.Extract(context.Background(), "/docs/data.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestFileExtractorReadsPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	e := NewFileExtractor(NewMockOCR())
	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestFileExtractorRoutesImagesToOCR(t *testing.T) {
	e := NewFileExtractor(NewMockOCR())
	text, err := e.Extract(context.Background(), "/docs/page.png")
	require.NoError(t, err)
	assert.Contains(t, text, "mock ocr")
}
