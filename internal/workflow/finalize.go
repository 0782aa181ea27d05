package workflow

import (
	"context"
	"fmt"
)

// Finalizer is the terminal stage. It assembles already-computed fields and
// never calls an external service, so it cannot fail.
type Finalizer struct{}

func (f *Finalizer) Node(ctx context.Context, s *State) (*State, error) {
	switch {
	case s.Intent == IntentConversational:
		s.Confidence = "N/A"
	case s.Verdict == VerdictValid:
		s.Confidence = "High"
	default:
		// retries exhausted or never validated: best-effort answer,
		// flagged so callers can show a lower-confidence indicator
		s.Confidence = "Low"
	}

	s.FinalAnswer = s.DraftAnswer
	s.AddTrace("finalize",
		fmt.Sprintf("verdict=%s retries=%d", s.Verdict, s.RetryCount),
		fmt.Sprintf("confidence=%s answer=%s", s.Confidence, summarize(s.FinalAnswer)))
	return s, nil
}
