package service

import "context"

// LLM is the completion capability the evaluation pipeline depends on.
// Implementations may fail or time out; callers own the fallback behavior.
type LLM interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}
