// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider selects the text-generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string

	// Provider selects the LLM backend; the matching API key is required.
	Provider     Provider
	OpenAIAPIKey string
	GeminiAPIKey string

	// LLMModel is backend-specific; empty uses the backend default.
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int

	// LLMTimeout bounds each generation call; LLMRateLimitRPS limits them
	// globally (<=0 disables).
	LLMTimeout      time.Duration
	LLMRateLimitRPS float64

	MongoURI      string
	MongoDatabase string

	// SpamModelPath points at the exported spam model artifact. Empty means
	// the spam endpoints report the classifier as unavailable.
	SpamModelPath string

	LogLevel string
}

// Load reads configuration from the environment.
//
// Required:
//   - OPENAI_API_KEY (when LLM_PROVIDER is "openai", the default)
//   - GEMINI_API_KEY (when LLM_PROVIDER is "gemini")
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:      envStr("HTTP_ADDR", ":5000"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		LLMModel:      envStr("LLM_MODEL", ""),
		MongoURI:      envStr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: envStr("MONGODB_DATABASE", "customer_service_db"),
		SpamModelPath: envStr("SPAM_MODEL_PATH", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
	}

	provider := Provider(strings.ToLower(envStr("LLM_PROVIDER", string(ProviderOpenAI))))
	switch provider {
	case ProviderOpenAI, ProviderGemini:
		cfg.Provider = provider
	default:
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER=%q: want %q or %q", provider, ProviderOpenAI, ProviderGemini)
	}

	var err error
	if cfg.LLMTemperature, err = envFloat("LLM_TEMPERATURE", 0.3); err != nil {
		return Config{}, err
	}
	if cfg.LLMMaxTokens, err = envInt("LLM_MAX_TOKENS", 500); err != nil {
		return Config{}, err
	}
	if cfg.LLMTimeout, err = envDuration("LLM_REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LLMRateLimitRPS, err = envFloat("LLM_RATE_LIMIT_RPS", 0); err != nil {
		return Config{}, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("GEMINI_API_KEY is required")
		}
	}

	return cfg, nil
}

func envStr(varName, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
