package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/replyforge/replyforge/internal/batch"
	"github.com/replyforge/replyforge/internal/config"
	"github.com/replyforge/replyforge/internal/llm"
	"github.com/replyforge/replyforge/internal/llm/gemini"
	"github.com/replyforge/replyforge/internal/llm/openai"
	"github.com/replyforge/replyforge/internal/pipeline"
	"github.com/replyforge/replyforge/internal/server"
	"github.com/replyforge/replyforge/internal/spam"
	"github.com/replyforge/replyforge/internal/store/mongostore"
	"github.com/replyforge/replyforge/internal/util"
)

func main() {
	ctx := context.Background()

	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "serve":
		os.Exit(runServe(ctx, os.Args[2:]))
	case "batch":
		os.Exit(runBatch(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runServe(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var addr string
	fs.StringVar(&addr, "addr", cfg.HTTPAddr, "HTTP listen address (env: HTTP_ADDR)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := newLogger(cfg.LogLevel)

	orch, cleanup, err := buildOrchestrator(ctx, cfg, log)
	if err != nil {
		log.Error().Msg(util.RedactSecrets(err.Error()))
		return 2
	}
	defer cleanup()

	var spamClassifier *spam.Classifier
	if cfg.SpamModelPath != "" {
		spamClassifier, err = spam.Load(cfg.SpamModelPath)
		if err != nil {
			log.Error().Str("path", cfg.SpamModelPath).Msg(util.RedactSecrets(err.Error()))
			return 2
		}
		log.Info().Str("path", cfg.SpamModelPath).Msg("spam model loaded")
	} else {
		log.Warn().Msg("SPAM_MODEL_PATH not set, spam screening disabled")
	}

	srv := server.New(orch, spamClassifier, log)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Listen(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	log.Info().Str("addr", addr).Msg("listening")
	select {
	case err := <-errc:
		if err != nil {
			log.Error().Msg(util.RedactSecrets(err.Error()))
			return 1
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error().Msg(util.RedactSecrets(err.Error()))
			return 1
		}
	}
	return 0
}

func runBatch(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var inputPath string
	var outputPath string
	var workers int
	var maxRetries int
	var failFast bool
	fs.StringVar(&inputPath, "input", "", "Input CSV file path (must include an 'email' column)")
	fs.StringVar(&outputPath, "output", "", "Output CSV file path")
	fs.IntVar(&workers, "workers", 4, "Number of concurrent pipeline workers")
	fs.IntVar(&maxRetries, "max-retries", 2, "Max retries per email for transient failures")
	fs.BoolVar(&failFast, "fail-fast", false, "Stop the run on the first pipeline error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inputPath == "" || outputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "batch requires --input and --output")
		return 2
	}

	log := newLogger(cfg.LogLevel)

	orch, cleanup, err := buildOrchestrator(ctx, cfg, log)
	if err != nil {
		log.Error().Msg(util.RedactSecrets(err.Error()))
		return 2
	}
	defer cleanup()

	if err := batch.RunLocal(ctx, inputPath, outputPath, orch, batch.Options{
		Workers:      workers,
		MaxRetries:   maxRetries,
		RateLimitRPS: cfg.LLMRateLimitRPS,
		FailFast:     failFast,
	}); err != nil {
		log.Error().Msg(util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

// buildOrchestrator wires the configured LLM backend and the Mongo-backed
// policy store into a pipeline orchestrator. The returned cleanup closes the
// Mongo client.
func buildOrchestrator(ctx context.Context, cfg config.Config, log zerolog.Logger) (*pipeline.Orchestrator, func(), error) {
	var gen llm.Generator
	var err error
	switch cfg.Provider {
	case config.ProviderGemini:
		gen, err = gemini.New(ctx, gemini.Config{
			APIKey:            cfg.GeminiAPIKey,
			Model:             cfg.LLMModel,
			SystemInstruction: pipeline.SystemPrompt,
			Temperature:       float32(cfg.LLMTemperature),
			MaxOutputTokens:   int32(cfg.LLMMaxTokens),
		})
	default:
		gen, err = openai.New(openai.Config{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.LLMModel,
			SystemPrompt: pipeline.SystemPrompt,
			MaxTokens:    cfg.LLMMaxTokens,
			Temperature:  float32(cfg.LLMTemperature),
		})
	}
	if err != nil {
		return nil, nil, err
	}
	gen = llm.NewGuard(gen, llm.GuardConfig{
		Timeout:      cfg.LLMTimeout,
		RateLimitRPS: cfg.LLMRateLimitRPS,
	})

	client, err := mongostore.NewClient(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Msg(util.RedactSecrets(err.Error()))
		}
	}

	policies := mongostore.New(client.Database(cfg.MongoDatabase), log)
	return pipeline.New(gen, policies, log), cleanup, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func usage(w *os.File) {
	_, _ = fmt.Fprintln(w, `responder - customer service email response pipeline

Usage:
  responder serve [--addr :5000]
  responder batch --input emails.csv --output replies.csv [--workers 4] [--max-retries 2] [--fail-fast]
  responder help

Environment:
  LLM_PROVIDER          openai (default) or gemini
  OPENAI_API_KEY        required for the openai provider
  GEMINI_API_KEY        required for the gemini provider
  LLM_MODEL             backend model name (default per provider)
  LLM_TEMPERATURE       sampling temperature (default 0.3)
  LLM_MAX_TOKENS        completion token cap (default 500)
  LLM_REQUEST_TIMEOUT   per-call timeout (default 30s)
  LLM_RATE_LIMIT_RPS    global request rate limit, 0 disables (default 0)
  MONGODB_URI           Mongo connection string (default mongodb://localhost:27017)
  MONGODB_DATABASE      Mongo database name (default customer_service_db)
  SPAM_MODEL_PATH       spam model YAML, empty disables spam screening
  HTTP_ADDR             serve listen address (default :5000)
  LOG_LEVEL             zerolog level (default info)`)
}
