package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/docqa/agent/internal/domain"
)

// Store persists chunk embeddings in Postgres using the pgvector extension.
type Store struct {
	pool  *pgxpool.Pool
	table string
	dim   int
}

func New(ctx context.Context, databaseURL, table string, dim int) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to Postgres: %v", domain.ErrIndexUnavailable, err)
	}
	return &Store{pool: pool, table: table, dim: dim}, nil
}

func (s *Store) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		source TEXT NOT NULL,
		chunk_index INT NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		content TEXT NOT NULL,
		embedding vector(%d)
	);`, s.table, s.dim)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: creating table: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch")
	}
	for i, c := range chunks {
		_, err := s.pool.Exec(ctx,
			fmt.Sprintf("INSERT INTO %s (filename, source, chunk_index, imported_at, content, embedding) VALUES ($1, $2, $3, $4, $5, $6)", s.table),
			c.Metadata.Filename, c.Metadata.Source, c.Metadata.ChunkIndex, c.Metadata.ImportedAt, c.Text, pgv.NewVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("%w: insert failed: %v", domain.ErrIndexUnavailable, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT filename, source, chunk_index, imported_at, content, 1 - (embedding <=> $1) AS score
		FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table),
		pgv.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(&r.Chunk.Metadata.Filename, &r.Chunk.Metadata.Source,
			&r.Chunk.Metadata.ChunkIndex, &r.Chunk.Metadata.ImportedAt, &r.Chunk.Text, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", s.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", s.table)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
