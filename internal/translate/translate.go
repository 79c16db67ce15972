// Package translate wraps a hosted OpenAI-compatible endpoint behind a
// single Translate(text, targetLanguage) call. The service is an opaque
// collaborator; nothing in the exam core depends on it.
package translate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a translation client. baseURL may point at any
// OpenAI-compatible endpoint; empty keeps the library default.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("translation API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("translation model name is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}, nil
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("translation endpoint: %w", err)
	}
	return nil
}

// Translate renders text in the target language. The model's reply is the
// translation and nothing else; we trim whitespace and return it verbatim.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}
	if targetLang == "" {
		return "", fmt.Errorf("target language is required")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(targetLang)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("translation API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildSystemPrompt(targetLang string) string {
	var sb strings.Builder
	sb.WriteString("You are a translator for exam questions and study material.\n\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString(fmt.Sprintf("- Translate the user's message into %s.\n", targetLang))
	sb.WriteString("- Preserve numbers, formulas, and proper nouns exactly.\n")
	sb.WriteString("- Do not answer, solve, or comment on the content.\n")
	sb.WriteString("- Respond with the translation only, no preamble.\n")
	return sb.String()
}
