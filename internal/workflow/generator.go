package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/docqa/agent/internal/domain"
)

// InsufficientContextAnswer is returned when retrieval produced no usable
// chunks; the generator never fabricates content for an empty context.
const InsufficientContextAnswer = "I don't have enough information in the indexed documents to answer this question."

// maxContextChars bounds the context block to keep prompts inside the model
// window.
const maxContextChars = 12000

// Generator produces the draft answer: grounded in retrieved chunks for
// retrieval intent, free-form for conversational intent.
type Generator struct {
	LLM         domain.LLM
	Temperature float64
}

func (g *Generator) Node(ctx context.Context, s *State) (*State, error) {
	// a regeneration follows an invalid verdict; count it against the bound
	if s.Verdict == VerdictInvalid {
		s.RetryCount++
	}

	if s.Intent == IntentConversational {
		prompt := fmt.Sprintf(conversationalPrompt, formatHistory(s.History), s.OriginalQuery)
		answer, err := g.LLM.Complete(ctx, domain.CompletionRequest{Prompt: prompt, Temperature: g.Temperature})
		if err != nil {
			return s, fmt.Errorf("conversational generation: %w", err)
		}
		s.DraftAnswer = answer
		s.AddTrace("generator", fmt.Sprintf("mode=conversational query=%s", summarize(s.OriginalQuery)), summarize(answer))
		return s, nil
	}

	if len(s.RetrievedChunks) == 0 {
		s.DraftAnswer = InsufficientContextAnswer
		s.AddTrace("generator", "mode=retrieval chunks=0", summarize(s.DraftAnswer))
		return s, nil
	}

	guidance := ""
	if s.RetryCount > 0 && s.ValidationReason != "" {
		guidance = fmt.Sprintf("\nA previous answer was rejected: %s\nAvoid repeating that mistake.\n", s.ValidationReason)
	}

	prompt := fmt.Sprintf(generationPrompt, guidance, formatContext(s.RetrievedChunks), s.Query())
	answer, err := g.LLM.Complete(ctx, domain.CompletionRequest{Prompt: prompt, Temperature: g.Temperature})
	if err != nil {
		return s, fmt.Errorf("grounded generation: %w", err)
	}
	s.DraftAnswer = answer
	s.AddTrace("generator",
		fmt.Sprintf("mode=retrieval chunks=%d retry=%d", len(s.RetrievedChunks), s.RetryCount),
		summarize(answer))
	return s, nil
}

// formatContext renders retrieved chunks as a numbered context block,
// truncated to stay within the model window.
func formatContext(chunks []domain.SearchResult) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[Chunk %d] (%s)\n%s\n\n", i+1, c.Chunk.Metadata.Filename, c.Chunk.Text)
	}
	ctx := b.String()
	if len(ctx) > maxContextChars {
		ctx = ctx[:maxContextChars] + "... [TRUNCATED]"
	}
	return ctx
}
