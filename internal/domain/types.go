package domain

import "time"

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	Filename   string
	Source     string
	ChunkIndex int
	ImportedAt time.Time
}

// Chunk is a contiguous span of extracted document text stored in the index.
type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

// SearchResult is a chunk matched against a query with a similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}
