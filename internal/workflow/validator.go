package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/docqa/agent/internal/domain"
)

// Validator audits the draft answer for claims not traceable to the
// retrieved chunks. It only runs on the retrieval path; conversational
// answers carry no grounding requirement.
type Validator struct {
	LLM domain.LLM
}

func (v *Validator) Node(ctx context.Context, s *State) (*State, error) {
	prompt := fmt.Sprintf(validationPrompt, formatContext(s.RetrievedChunks), s.Query(), s.DraftAnswer)
	raw, err := v.LLM.Complete(ctx, domain.CompletionRequest{Prompt: prompt, Temperature: 0})
	if err != nil {
		return s, fmt.Errorf("validation call: %w", err)
	}

	verdict := strings.TrimSpace(raw)
	if strings.HasPrefix(verdict, "VALID") {
		s.Verdict = VerdictValid
		s.ValidationReason = ""
	} else {
		s.Verdict = VerdictInvalid
		if _, reason, ok := strings.Cut(verdict, ":"); ok {
			s.ValidationReason = strings.TrimSpace(reason)
		} else {
			s.ValidationReason = "answer not supported by context"
		}
	}

	s.AddTrace("validator",
		fmt.Sprintf("answer=%s", summarize(s.DraftAnswer)),
		fmt.Sprintf("verdict=%s reason=%s retry=%d/%d", s.Verdict, summarize(s.ValidationReason), s.RetryCount, s.MaxRetries))
	return s, nil
}
