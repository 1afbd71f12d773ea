// Package gemini implements the text-generation port against the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/replyforge/replyforge/internal/llm"
)

const defaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string

	// Model defaults to gemini-2.0-flash.
	Model string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// SystemInstruction is prepended to every request as the model's system
	// prompt. Optional.
	SystemInstruction string

	// Temperature and MaxOutputTokens bound the generation. Zero values leave
	// the backend defaults in place.
	Temperature     float32
	MaxOutputTokens int32
}

type Generator struct {
	client    *genai.Client
	model     string
	system    string
	temp      float32
	maxTokens int32
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client:    client,
		model:     model,
		system:    strings.TrimSpace(cfg.SystemInstruction),
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxOutputTokens,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	gc := &genai.GenerateContentConfig{
		CandidateCount: 1,
	}
	if g.system != "" {
		gc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: g.system}},
		}
	}
	if g.temp > 0 {
		gc.Temperature = genai.Ptr(g.temp)
	}
	if g.maxTokens > 0 {
		gc.MaxOutputTokens = g.maxTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		return "", classifyErr(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty completion")
	}
	return text, nil
}

func classifyErr(err error) error {
	// Wrap transient failures so callers may retry with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
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
