// Package llm defines the text-generation port used by the response pipeline
// and the resilience wrapper applied to real backends.
package llm

import (
	"context"
	"errors"
	"net"
)

// Generator produces free-form text for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError wraps a failed or unusable text-generation call.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e == nil || e.Err == nil {
		return "generation failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TransientError marks an error as retryable.
//
// Worker pools should retry transient failures with backoff rather than
// immediately failing the full run.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}
