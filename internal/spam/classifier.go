// Package spam scores emails against an exported linear spam model.
//
// Training and packaging of the model happen elsewhere; this package only
// loads an exported artifact (vocabulary weights, bias, threshold) and
// applies it after the same text cleaning the training run used.
package spam

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultThreshold = 0.5

// Model is the exported artifact of a trained linear spam classifier.
type Model struct {
	// Vocabulary maps cleaned tokens to their learned weights.
	Vocabulary map[string]float64 `yaml:"vocabulary"`
	Bias       float64            `yaml:"bias"`
	// Threshold is the spam-probability cutoff. Zero means the 0.5 default.
	Threshold float64 `yaml:"threshold"`
}

// Prediction is the scoring outcome for one email.
type Prediction struct {
	Prediction      string  `json:"prediction"`
	Confidence      float64 `json:"confidence"`
	SpamProbability float64 `json:"spam_probability"`
}

// Classifier scores email text against a loaded model.
type Classifier struct {
	model Model
}

// Load reads a YAML model artifact from path.
func Load(path string) (*Classifier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spam model: %w", err)
	}
	var m Model
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse spam model: %w", err)
	}
	return New(m)
}

// New builds a classifier from an in-memory model.
func New(m Model) (*Classifier, error) {
	if len(m.Vocabulary) == 0 {
		return nil, fmt.Errorf("spam model has an empty vocabulary")
	}
	if m.Threshold <= 0 {
		m.Threshold = defaultThreshold
	}
	return &Classifier{model: m}, nil
}

// Predict scores text. Confidence is the probability of the predicted class.
func (c *Classifier) Predict(text string) Prediction {
	score := c.model.Bias
	for _, token := range strings.Fields(CleanText(text)) {
		score += c.model.Vocabulary[token]
	}
	probability := 1 / (1 + math.Exp(-score))

	isSpam := probability > c.model.Threshold
	out := Prediction{
		Prediction:      "ham",
		Confidence:      1 - probability,
		SpamProbability: probability,
	}
	if isSpam {
		out.Prediction = "spam"
		out.Confidence = probability
	}
	return out
}

var (
	urlRe      = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	emailRe    = regexp.MustCompile(`\S+@\S+`)
	longNumRe  = regexp.MustCompile(`\b\d{10,}\b`)
	phoneRe    = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	nonAlphaRe = regexp.MustCompile(`[^a-z\s]`)
	multiWSRe  = regexp.MustCompile(`\s+`)
)

// CleanText normalizes raw email text the same way the model's training data
// was normalized: lowercase, strip URLs, addresses and phone-like numbers,
// keep letters only, collapse whitespace.
func CleanText(text string) string {
	s := strings.ToLower(text)
	s = urlRe.ReplaceAllString(s, "")
	s = emailRe.ReplaceAllString(s, "")
	s = longNumRe.ReplaceAllString(s, "")
	s = phoneRe.ReplaceAllString(s, "")
	s = nonAlphaRe.ReplaceAllString(s, " ")
	s = multiWSRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
