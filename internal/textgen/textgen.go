package textgen

import (
	"context"
	"errors"
)

// Package textgen abstracts the external generative text service.

// ErrRateLimited marks a rate-limit-class failure. Callers back off and
// retry these; every other failure class is treated as terminal for the
// field being generated.
var ErrRateLimited = errors.New("text generation rate limited")

// Generator produces text for a single prompt. Each call is independent
// so that per-field fallback is possible when only some prompts fail.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
