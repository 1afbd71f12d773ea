package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig bounds calls to an upstream generator.
type GuardConfig struct {
	// Timeout applies per generation call. Zero means the 30s default.
	Timeout time.Duration

	// RateLimitRPS is a global limit across all callers. Set to <=0 to disable.
	RateLimitRPS float64

	// BreakerThreshold is the number of consecutive failures that opens the
	// circuit. Zero means the default of 5.
	BreakerThreshold uint32

	// BreakerCooldown is how long the circuit stays open before probing the
	// backend again. Zero means the default of 30s.
	BreakerCooldown time.Duration
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	return c
}

// Guard wraps a Generator with a per-call timeout, a global rate limit, and a
// circuit breaker. An open circuit surfaces as a transient generation failure
// so callers treat it like any other upstream outage.
type Guard struct {
	next    Generator
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuard wraps next with the configured limits.
func NewGuard(next Generator, cfg GuardConfig) *Guard {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	threshold := cfg.BreakerThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "text-generator",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &Guard{
		next:    next,
		limiter: limiter,
		breaker: breaker,
		timeout: cfg.Timeout,
	}
}

func (g *Guard) Generate(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.breaker.Execute(func() (any, error) {
		return g.next.Generate(callCtx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &TransientError{Err: err}
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", &TransientError{Err: context.DeadlineExceeded}
		}
		return "", err
	}
	return out.(string), nil
}
