// Package openai implements the text-generation port against the OpenAI
// chat-completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/replyforge/replyforge/internal/llm"
)

const (
	defaultModel       = "gpt-3.5-turbo"
	defaultMaxTokens   = 500
	defaultTemperature = 0.3
)

type Config struct {
	APIKey string

	// Model defaults to gpt-3.5-turbo.
	Model string

	// BaseURL overrides the API base URL. Useful for proxies/testing.
	BaseURL string

	// SystemPrompt is sent as the system message on every request. Optional.
	SystemPrompt string

	// MaxTokens and Temperature bound the completion. Zero values use the
	// service defaults above.
	MaxTokens   int
	Temperature float32
}

type Generator struct {
	client      *goopenai.Client
	model       string
	system      string
	maxTokens   int
	temperature float32
}

func New(cfg Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	return &Generator{
		client:      goopenai.NewClientWithConfig(clientCfg),
		model:       model,
		system:      strings.TrimSpace(cfg.SystemPrompt),
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var messages []goopenai.ChatCompletionMessage
	if g.system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: g.system,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", classifyErr(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no completion choices")
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return text, nil
}

func classifyErr(err error) error {
	// Quota and server-side failures are retryable; auth and request errors
	// are not.
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode/100 == 5 {
			return &llm.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &llm.TransientError{Err: err}
	}
	return err
}
