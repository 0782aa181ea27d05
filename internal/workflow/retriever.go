package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/docqa/agent/internal/domain"
)

// Retriever classifies intent, rewrites the query for retrieval, and fetches
// the top-K most similar chunks from the vector index.
type Retriever struct {
	LLM          domain.LLM
	Embedder     domain.Embedder
	Store        domain.VectorStore
	TopK         int
	MinChunkSize int
}

type orchestration struct {
	Intent         string `json:"intent"`
	ProcessedQuery string `json:"processed_query"`
}

func (r *Retriever) Node(ctx context.Context, s *State) (*State, error) {
	prompt := fmt.Sprintf(orchestrationPrompt, formatHistory(s.History), s.OriginalQuery)
	raw, err := r.LLM.Complete(ctx, domain.CompletionRequest{Prompt: prompt, Temperature: 0})
	if err != nil {
		return s, fmt.Errorf("orchestration call: %w", err)
	}

	var o orchestration
	if err := json.Unmarshal([]byte(stripFences(raw)), &o); err != nil {
		// unparsable routing output defaults to the safe path
		log.Printf("retriever: failed to parse orchestration JSON: %v", err)
		o = orchestration{Intent: string(IntentRetrieval), ProcessedQuery: s.OriginalQuery}
	}
	if o.ProcessedQuery == "" {
		o.ProcessedQuery = s.OriginalQuery
	}

	switch Intent(o.Intent) {
	case IntentConversational:
		s.Intent = IntentConversational
		s.RewrittenQuery = s.OriginalQuery
		s.RetrievedChunks = nil
	default:
		s.Intent = IntentRetrieval
		s.RewrittenQuery = o.ProcessedQuery
		s.RetrievedChunks = r.search(ctx, s.RewrittenQuery)
	}

	s.AddTrace("retriever",
		fmt.Sprintf("query=%s", summarize(s.OriginalQuery)),
		fmt.Sprintf("intent=%s rewritten=%s chunks=%d", s.Intent, summarize(s.RewrittenQuery), len(s.RetrievedChunks)))
	return s, nil
}

// search returns the top-K chunks above the noise threshold. An unreachable
// or empty index yields an empty result, not an error; the generator answers
// "insufficient context" for zero chunks.
func (r *Retriever) search(ctx context.Context, query string) []domain.SearchResult {
	vec, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("retriever: embedding failed, returning no chunks: %v", err)
		return nil
	}
	results, err := r.Store.Search(ctx, vec, r.TopK)
	if err != nil {
		log.Printf("retriever: index search failed, returning no chunks: %v", err)
		return nil
	}
	var valid []domain.SearchResult
	for _, res := range results {
		if len(strings.TrimSpace(res.Chunk.Text)) >= r.MinChunkSize {
			valid = append(valid, res)
		}
	}
	return valid
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "```json") {
		s = strings.SplitN(s, "```json", 2)[1]
		s = strings.SplitN(s, "```", 2)[0]
	} else if strings.Contains(s, "```") {
		parts := strings.Split(s, "```")
		if len(parts) >= 2 {
			s = parts[1]
		}
	}
	return strings.TrimSpace(s)
}

func formatHistory(history []Turn) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

// summarize truncates a value for trace entries.
func summarize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
