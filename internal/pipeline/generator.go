package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/replyforge/replyforge/internal/llm"
	"github.com/replyforge/replyforge/internal/store"
)

// Reply boilerplate. The generated text carries the substance; these frame it.
const (
	replyGreeting       = "Dear Customer,"
	replyAcknowledgment = "Thank you for contacting our customer service team."
	replyActionItem     = "Our team will follow up if any additional information is needed."
	replyClosing        = "Best regards,\nCustomer Service Team"

	defaultPolicyInfo = "Our standard return and refund policy applies."
)

// ResponseGenerator turns an email plus its context bundle into a Reply.
type ResponseGenerator struct {
	gen llm.Generator
}

func NewResponseGenerator(gen llm.Generator) *ResponseGenerator {
	return &ResponseGenerator{gen: gen}
}

// Generate composes the response prompt, invokes the text generator once, and
// wraps the returned text verbatim into a Reply.
func (g *ResponseGenerator) Generate(ctx context.Context, email string, bundle map[string]any) (Reply, error) {
	text, err := g.gen.Generate(ctx, responsePrompt(email, policyInfo(bundle)))
	if err != nil {
		return Reply{}, &llm.GenerationError{Op: "generate response", Err: err}
	}

	return Reply{
		Greeting:       replyGreeting,
		Acknowledgment: replyAcknowledgment,
		MainText:       text,
		ActionItems:    []string{replyActionItem},
		Closing:        replyClosing,
		Tone:           ToneFriendly,
		FullText:       text,
	}, nil
}

// policyInfo serializes the bundle's return policy for the prompt, or a fixed
// default sentence when no policy was retrieved.
func policyInfo(bundle map[string]any) string {
	policy, ok := bundle[ContextKeyReturnPolicy].(store.ReturnPolicy)
	if !ok {
		return defaultPolicyInfo
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Returns accepted within %d days for a %d%% refund.", policy.DaysAllowed, policy.RefundPercentage)
	if len(policy.Conditions) > 0 {
		b.WriteString(" Conditions: ")
		b.WriteString(strings.Join(policy.Conditions, "; "))
		b.WriteString(".")
	}
	if policy.Details != "" {
		b.WriteString(" ")
		b.WriteString(policy.Details)
	}
	return b.String()
}
