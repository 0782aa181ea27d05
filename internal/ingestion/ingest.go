package ingestion

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/docqa/agent/internal/domain"
	"github.com/docqa/agent/internal/processing"
)

// Pipeline turns raw files into indexed chunks: extract, chunk, embed, upsert.
type Pipeline struct {
	Extractor domain.Extractor
	Chunker   *processing.Chunker
	Embedder  domain.Embedder
	Store     domain.VectorStore
	Source    string
}

// Result summarizes one ingestion run.
type Result struct {
	Files   int
	Chunks  int
	Skipped []string
}

// Run ingests the given files. It checks ctx between documents and between
// chunks so a caller can stop a long batch; chunks already upserted stay in
// the index. Extraction failures skip the file rather than aborting the run.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	res := &Result{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Println("indexing:", path)
		text, err := p.Extractor.Extract(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			log.Println("skip file:", path, "err:", err)
			res.Skipped = append(res.Skipped, path)
			continue
		}

		chunks := p.Chunker.Chunk(text)
		if len(chunks) == 0 {
			res.Skipped = append(res.Skipped, path)
			continue
		}

		now := time.Now()
		for i, c := range chunks {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			vec, err := p.Embedder.Embed(ctx, c)
			if err != nil {
				return res, err
			}
			chunk := domain.Chunk{
				Text: c,
				Metadata: domain.ChunkMetadata{
					Filename:   path,
					Source:     p.Source,
					ChunkIndex: i,
					ImportedAt: now,
				},
			}
			if err := p.Store.Upsert(ctx, []domain.Chunk{chunk}, [][]float32{vec}); err != nil {
				return res, err
			}
			res.Chunks++
		}
		res.Files++
	}
	return res, nil
}
