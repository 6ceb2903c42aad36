// Package llm provides the completion clients (Anthropic in pro mode,
// Ollama in lite mode), prompt template rendering, and retry policy.
package llm

import (
	"context"
	"fmt"

	"github.com/litgraph/litgraph/internal/config"
)

// Tier selects which configured model handles a completion.
type Tier string

const (
	// TierBest is the stronger model, used for analysis and extraction.
	TierBest Tier = "best"
	// TierCheap is the faster model, used for relevance filtering.
	TierCheap Tier = "cheap"
)

// Completer produces a text completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string, tier Tier) (string, error)
}

// New constructs the completer for the configured mode.
func New(s *config.Settings) (Completer, error) {
	switch s.Mode {
	case config.ModeLite:
		return NewOllamaClient(
			WithBaseURL(s.LLM.BaseURL),
			WithModel(s.LLM.BestModel),
			WithRetry(s.Retry),
		), nil
	case config.ModePro:
		return NewAnthropicClient(s.LLM, s.Retry)
	default:
		return nil, fmt.Errorf("unknown LLM mode %q", s.Mode)
	}
}
