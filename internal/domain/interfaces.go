package domain

import "context"

// CompletionRequest carries a prompt plus per-call model settings.
type CompletionRequest struct {
	Prompt      string
	Model       string
	Temperature float64
}

// LLM is a text completion service. Implementations wrap a hosted or local
// model endpoint and must honor ctx cancellation.
type LLM interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists chunk embeddings and supports top-K similarity search.
// Search may return an empty slice; that is not an error.
type VectorStore interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Extractor pulls plain text out of raw document files.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
