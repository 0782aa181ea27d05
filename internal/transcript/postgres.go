// Package transcript persists chat transcripts to Postgres.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/docqa/agent/internal/workflow"
)

// Store writes completed workflow runs to a transcripts table so sessions
// can be reviewed later.
type Store struct {
	db *sql.DB
}

func NewStore(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening transcripts db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to transcripts db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id SERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		body TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating transcripts table: %w", err)
	}
	return nil
}

// Save stores one formatted transcript under the given session id.
func (s *Store) Save(ctx context.Context, sessionID string, t *workflow.Transcript) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transcripts (session_id, body) VALUES ($1, $2)",
		sessionID, t.Format())
	if err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

// Load returns the most recent transcript for a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*workflow.Transcript, time.Time, error) {
	var body string
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT body, created_at FROM transcripts WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1",
		sessionID).Scan(&body, &createdAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading transcript: %w", err)
	}
	t, err := workflow.ParseTranscript(body)
	if err != nil {
		return nil, time.Time{}, err
	}
	return t, createdAt, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
