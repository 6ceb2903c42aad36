package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/litgraph/litgraph/internal/config"
)

const (
	// DefaultOllamaTimeout covers slow local generations.
	DefaultOllamaTimeout = 5 * time.Minute

	apiPathChatCompletions = "/chat/completions"
)

// OllamaClient implements Completer against an OpenAI-compatible chat
// endpoint, used for lite mode against a local Ollama server.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
	retry   config.RetryConfig
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithBaseURL sets the API base URL (e.g. http://localhost:11434/v1).
func WithBaseURL(url string) OllamaOption {
	return func(c *OllamaClient) {
		c.baseURL = url
	}
}

// WithModel sets the chat model.
func WithModel(model string) OllamaOption {
	return func(c *OllamaClient) {
		c.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) {
		c.client = hc
	}
}

// WithRetry sets the retry policy.
func WithRetry(retry config.RetryConfig) OllamaOption {
	return func(c *OllamaClient) {
		c.retry = retry
	}
}

// NewOllamaClient creates a lite-mode completion client.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL: config.DefaultOllamaBaseURL,
		model:   config.DefaultOllamaModel,
		client:  &http.Client{Timeout: DefaultOllamaTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request. Both tiers use the same local
// model.
func (c *OllamaClient) Complete(ctx context.Context, system, user string, _ Tier) (string, error) {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	var text string
	err = withRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+apiPathChatCompletions, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, respBody)
		}

		var chat chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if len(chat.Choices) == 0 {
			return fmt.Errorf("ollama returned no choices")
		}

		text = chat.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
