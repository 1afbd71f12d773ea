package pipeline

import "fmt"

// SystemPrompt is the system instruction wired into every text-generation
// backend used by the pipeline.
const SystemPrompt = "You are a customer service AI for an e-commerce company. Be professional, empathetic, and helpful."

func classificationPrompt(email string) string {
	return fmt.Sprintf(`Classify this customer email:

%s

Categories: product_return, refund_request, product_damage, delivery_issue, product_inquiry, warranty_claim, general, other

Return JSON with: query_type, confidence, keywords, requires_lookup, reasoning`, email)
}

func responsePrompt(email, policyInfo string) string {
	return fmt.Sprintf(`Generate a professional response.

Email: %s
Policy Info: %s

Create a helpful response with greeting, acknowledgment, solution, and action items.`, email, policyInfo)
}
