package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/docqa/agent/internal/domain"
)

// Intent classifies a user query.
type Intent string

const (
	IntentConversational Intent = "conversational"
	IntentRetrieval      Intent = "retrieval"
)

// Verdict is the validator's judgment of a draft answer.
type Verdict string

const (
	VerdictUnvalidated Verdict = "unvalidated"
	VerdictValid       Verdict = "valid"
	VerdictInvalid     Verdict = "invalid"
)

// Turn is one prior exchange carried as chat history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// TraceEntry records one stage invocation for the agentic trace.
type TraceEntry struct {
	Stage     string
	Input     string
	Output    string
	Timestamp time.Time
}

// State is the single record threaded through the pipeline. One instance is
// created per query and never shared across runs.
type State struct {
	RunID          string
	OriginalQuery  string
	RewrittenQuery string
	History        []Turn
	Intent         Intent

	RetrievedChunks []domain.SearchResult

	DraftAnswer      string
	Verdict          Verdict
	ValidationReason string

	RetryCount int
	MaxRetries int

	Trace []TraceEntry

	FinalAnswer string
	Confidence  string
}

// NewState creates the initial state for one workflow run.
func NewState(query string, history []Turn, maxRetries int) *State {
	return &State{
		RunID:         uuid.NewString(),
		OriginalQuery: query,
		History:       history,
		Intent:        IntentRetrieval,
		Verdict:       VerdictUnvalidated,
		MaxRetries:    maxRetries,
	}
}

// AddTrace appends one entry to the trace. The trace is append-only; nothing
// ever removes or reorders prior entries.
func (s *State) AddTrace(stage, input, output string) {
	s.Trace = append(s.Trace, TraceEntry{
		Stage:     stage,
		Input:     input,
		Output:    output,
		Timestamp: time.Now(),
	})
}

// Query returns the query the generator should answer: the rewritten form
// when the retriever produced one, the original otherwise.
func (s *State) Query() string {
	if s.RewrittenQuery != "" {
		return s.RewrittenQuery
	}
	return s.OriginalQuery
}
