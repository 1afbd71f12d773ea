package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/replyforge/replyforge/internal/llm"
)

// Parser turns raw model output into a Classification.
type Parser func(raw string) (Classification, error)

// Classifier assigns a query type and lookup flag to an email body.
//
// It always performs one generation call, so upstream failures surface here,
// but the default parser discards the model output and returns the fixed
// fallback classification. Parsing of structured model output is available
// via ParseStrict for callers that opt in.
type Classifier struct {
	gen   llm.Generator
	parse Parser
}

// NewClassifier builds a classifier using the fallback parser.
func NewClassifier(gen llm.Generator) *Classifier {
	return &Classifier{gen: gen, parse: ParseFallback}
}

// NewClassifierWithParser builds a classifier with a custom output parser.
func NewClassifierWithParser(gen llm.Generator, parse Parser) *Classifier {
	return &Classifier{gen: gen, parse: parse}
}

// Classify labels an email. The email may be empty; empty input still
// produces a classification rather than an error.
func (c *Classifier) Classify(ctx context.Context, email string) (Classification, error) {
	raw, err := c.gen.Generate(ctx, classificationPrompt(email))
	if err != nil {
		return Classification{}, &llm.GenerationError{Op: "classify email", Err: err}
	}

	cls, err := c.parse(raw)
	if err != nil {
		return Classification{}, &llm.GenerationError{Op: "parse classification", Err: err}
	}
	return cls, nil
}

// ParseFallback ignores the model output and returns the fixed fallback
// classification: general intent, low confidence, no lookup.
func ParseFallback(string) (Classification, error) {
	return Classification{
		QueryType:      QueryGeneral,
		Confidence:     0.5,
		RequiresLookup: false,
		Reasoning:      "fallback classification",
	}, nil
}

// ParseStrict parses structured JSON classification output from the model.
func ParseStrict(raw string) (Classification, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return Classification{}, fmt.Errorf("empty classification output")
	}

	var cls Classification
	if err := json.Unmarshal([]byte(cleaned), &cls); err != nil {
		return Classification{}, fmt.Errorf("parse classification JSON: %w", err)
	}

	if !knownQueryTypes[cls.QueryType] {
		cls.QueryType = QueryOther
	}
	if cls.Confidence < 0 {
		cls.Confidence = 0
	}
	if cls.Confidence > 1 {
		cls.Confidence = 1
	}
	return cls, nil
}

// stripCodeFence removes a surrounding markdown code fence, which chat models
// routinely wrap JSON output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
