package llm

import (
	"context"
	"errors"
)

// ErrUnavailable marks transport-level failures (unreachable backend,
// timeout). Callers use errors.Is to tell these apart from parse failures.
var ErrUnavailable = errors.New("llm backend unavailable")

// GenerationConfig carries the sampling parameters every backend must honor.
// DoSample false means greedy decoding regardless of Temperature.
type GenerationConfig struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
	DoSample     bool
}

type LLMClient interface {
	Generate(ctx context.Context, prompt string, gen GenerationConfig) (string, error)
}
