package spam_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/replyforge/replyforge/internal/spam"
)

func testModel() spam.Model {
	return spam.Model{
		Vocabulary: map[string]float64{
			"free":        2.0,
			"winner":      2.5,
			"prize":       2.0,
			"order":       -1.5,
			"return":      -1.0,
			"unsubscribe": 1.0,
		},
		Bias: -1.0,
	}
}

func TestPredictSpam(t *testing.T) {
	c, err := spam.New(testModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := c.Predict("Congratulations WINNER! Claim your FREE prize now!")
	if p.Prediction != "spam" {
		t.Fatalf("prediction = %q, want spam (%#v)", p.Prediction, p)
	}
	if p.Confidence != p.SpamProbability {
		t.Fatalf("spam confidence must equal spam probability: %#v", p)
	}
	if p.SpamProbability <= 0.5 {
		t.Fatalf("spam probability = %v, want > 0.5", p.SpamProbability)
	}
}

func TestPredictHam(t *testing.T) {
	c, err := spam.New(testModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := c.Predict("I would like to return my order from last week.")
	if p.Prediction != "ham" {
		t.Fatalf("prediction = %q, want ham (%#v)", p.Prediction, p)
	}
	if p.Confidence != 1-p.SpamProbability {
		t.Fatalf("ham confidence must be 1 - spam probability: %#v", p)
	}
}

func TestNewRejectsEmptyVocabulary(t *testing.T) {
	if _, err := spam.New(spam.Model{}); err == nil {
		t.Fatal("expected error for empty vocabulary")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	artifact := []byte(`vocabulary:
  free: 2.0
  order: -1.5
bias: -0.5
threshold: 0.6
`)
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	c, err := spam.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := c.Predict("free free free free"); p.Prediction != "spam" {
		t.Fatalf("prediction = %q, want spam (%#v)", p.Prediction, p)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := spam.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Hello WORLD", "hello world"},
		{"strips urls", "visit https://spam.example now", "visit now"},
		{"strips emails", "contact me at alice@example.com today", "contact me at today"},
		{"strips long numbers", "call 12345678901 now", "call now"},
		{"strips phone numbers", "call 555-123-4567 now", "call now"},
		{"strips punctuation", "win!!! $$$ cash...", "win cash"},
		{"collapses whitespace", "  a \t b \n c  ", "a b c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := spam.CleanText(tc.in); got != tc.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
