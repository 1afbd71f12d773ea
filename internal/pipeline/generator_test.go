package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/replyforge/replyforge/internal/llm"
	"github.com/replyforge/replyforge/internal/pipeline"
	"github.com/replyforge/replyforge/internal/store"
)

func TestGenerateWrapsTextVerbatim(t *testing.T) {
	const text = "Your return is approved. Please ship the item back within 30 days using the prepaid label attached."
	gen := pipeline.NewResponseGenerator(&llm.Stub{Reply: text})

	reply, err := gen.Generate(context.Background(), "I want to return my laptop.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.FullText != text || reply.MainText != text {
		t.Fatalf("generated text must be carried verbatim: %#v", reply)
	}
	if reply.Greeting == "" || reply.Closing == "" || len(reply.ActionItems) == 0 {
		t.Fatalf("boilerplate fields must be populated: %#v", reply)
	}
	if reply.Tone != pipeline.ToneFriendly {
		t.Fatalf("tone = %q, want friendly", reply.Tone)
	}
}

func TestGenerateUsesContextPolicy(t *testing.T) {
	gen := &promptRecorder{}
	rg := pipeline.NewResponseGenerator(gen)

	bundle := map[string]any{
		pipeline.ContextKeyReturnPolicy: store.ReturnPolicy{DaysAllowed: 14, RefundPercentage: 80},
	}
	if _, err := rg.Generate(context.Background(), "refund please", bundle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompt, "14 days") || !strings.Contains(gen.prompt, "80%") {
		t.Fatalf("prompt should carry retrieved policy terms, got %q", gen.prompt)
	}

	gen.prompt = ""
	if _, err := rg.Generate(context.Background(), "refund please", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompt, "standard return and refund policy") {
		t.Fatalf("prompt should carry the default policy sentence, got %q", gen.prompt)
	}
}

type promptRecorder struct {
	prompt string
}

func (p *promptRecorder) Generate(ctx context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return "A reply that is comfortably longer than the structural validation minimum length.", nil
}
