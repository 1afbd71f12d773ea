package llm

import (
	"context"
	"sync"
)

// Stub is a deterministic Generator for tests and offline runs.
type Stub struct {
	// Reply is returned for every call. Empty means a canned reply long
	// enough to pass structural validation.
	Reply string

	// Err, when set, fails every call.
	Err error

	// FailFirst fails the first N calls with a transient error before
	// succeeding. Used to exercise retry paths.
	FailFirst int

	mu    sync.Mutex
	calls int
}

const stubReply = "Thank you for reaching out. We have reviewed your request and a member of our support team will be in touch within one business day."

func (s *Stub) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	if n <= s.FailFirst {
		return "", &TransientError{Err: errStubTransient}
	}
	if s.Reply == "" {
		return stubReply, nil
	}
	return s.Reply, nil
}

// Calls returns how many times Generate has been invoked.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubErr string

func (e stubErr) Error() string { return string(e) }

const errStubTransient = stubErr("stubbed transient failure")
