package domain

import "errors"

// Sentinel errors for upstream collaborators. Stage errors wrap these so
// callers can distinguish transport failures from bad answers.
var (
	ErrLLMUnavailable   = errors.New("llm service unavailable")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrExtraction       = errors.New("document extraction failed")
)
