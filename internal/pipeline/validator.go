package pipeline

import "strings"

// minReplyLength is the baseline length a useful reply must exceed.
const minReplyLength = 50

// validationConfidence is a fixed placeholder score, not a computed one.
const validationConfidence = 0.9

// Validate applies structural checks to a generated reply. Rules run in
// order and contribute independently to the verdict: a too-short body or a
// missing greeting invalidates the reply; missing action items only add a
// suggestion.
func Validate(reply Reply) Validation {
	v := Validation{
		IsValid:         len(reply.FullText) > minReplyLength,
		ConfidenceScore: validationConfidence,
	}

	if strings.TrimSpace(reply.Greeting) == "" {
		v.Issues = append(v.Issues, "Missing greeting")
		v.IsValid = false
	}

	if len(reply.ActionItems) == 0 {
		v.Suggestions = append(v.Suggestions, "Add clear next steps for customer")
	}

	return v
}
