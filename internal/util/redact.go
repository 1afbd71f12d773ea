package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens). Keep it broad: tokens
	// show up in logs via downstream libraries and HTTP error messages.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// OpenAI-style secret keys.
	openAIKeyRe = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{10,}\b`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|openai[_-]?api[_-]?key|gemini[_-]?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Credentials embedded in MongoDB connection strings.
	mongoCredRe = regexp.MustCompile(`\bmongodb(\+srv)?://[^/@\s]+@`)
)

// RedactSecrets removes obvious secret-bearing substrings from error/log
// strings.
//
// This is intentionally conservative: it should be safe to call on any
// message, including user-provided inputs and upstream error strings.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = openAIKeyRe.ReplaceAllString(out, "<redacted_key>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = mongoCredRe.ReplaceAllString(out, "mongodb://<redacted>@")
	return strings.TrimSpace(out)
}
