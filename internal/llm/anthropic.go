package llm

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/litgraph/litgraph/internal/config"
)

// defaultMaxTokens bounds completion length for analysis responses.
const defaultMaxTokens = 4096

// AnthropicClient implements Completer using the Anthropic Messages API.
type AnthropicClient struct {
	client     anthropicsdk.Client
	bestModel  string
	cheapModel string
	retry      config.RetryConfig
}

// NewAnthropicClient creates a pro-mode completion client.
// Returns an error if the API key is missing.
func NewAnthropicClient(cfg config.LLMConfig, retry config.RetryConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: missing API key (set ANTHROPIC_API_KEY or LITGRAPH_ANTHROPIC_API_KEY)")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:     anthropicsdk.NewClient(opts...),
		bestModel:  cfg.BestModel,
		cheapModel: cfg.CheapModel,
		retry:      retry,
	}, nil
}

// Complete sends a single-turn message and returns the concatenated text
// content of the response.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string, tier Tier) (string, error) {
	model := c.bestModel
	if tier == TierCheap {
		model = c.cheapModel
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	var text string
	err := withRetry(ctx, c.retry, func() error {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return fmt.Errorf("anthropic completion: %w", err)
		}

		text = ""
		for _, block := range msg.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
