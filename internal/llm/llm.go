// Package llm provides the completion clients behind the analyzer and
// planner. Two providers ship: Gemini (default) and OpenAI. There is no
// retry in this layer — callers fall back to heuristics instead, because
// blind retries of an LLM are cost-sensitive.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forkcast/forkcast/internal/config"
	"github.com/forkcast/forkcast/pkg/contracts"
)

var (
	// ErrTimeout marks a completion that exceeded its per-call cap.
	ErrTimeout = errors.New("llm: request timed out")
	// ErrUnavailable marks quota, auth, transport, or empty-response failures.
	ErrUnavailable = errors.New("llm: provider unavailable")
)

// New builds the completion client selected by configuration.
// The caller is expected to have checked that an API key is present;
// without one the service runs in heuristic-only mode and never calls this.
func New(ctx context.Context, cfg config.LLMConfig) (contracts.CompletionClient, error) {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.ModelName, timeout)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.ModelName, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want gemini or openai)", cfg.Provider)
	}
}

// classify maps a provider error onto the package sentinels so callers
// can switch on kind without knowing the SDK.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
