package pipeline_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/replyforge/replyforge/internal/llm"
	"github.com/replyforge/replyforge/internal/pipeline"
	"github.com/replyforge/replyforge/internal/store"
)

// fakeStore records lookups and optionally fails all of them.
type fakeStore struct {
	mu      sync.Mutex
	lookups int
	err     error

	policy   store.ReturnPolicy
	protocol store.DamageProtocol
}

func (f *fakeStore) bump() {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
}

func (f *fakeStore) Lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func (f *fakeStore) GetReturnPolicy(ctx context.Context, category string) (store.ReturnPolicy, error) {
	f.bump()
	if f.err != nil {
		return store.ReturnPolicy{}, f.err
	}
	return f.policy, nil
}

func (f *fakeStore) CheckReturnable(ctx context.Context, productID, category string) (store.Returnability, error) {
	f.bump()
	if f.err != nil {
		return store.Returnability{}, f.err
	}
	return store.Returnability{Returnable: true, WindowDays: f.policy.DaysAllowed}, nil
}

func (f *fakeStore) CalculateRefund(ctx context.Context, amount float64, daysSincePurchase int, condition string) (store.RefundQuote, error) {
	f.bump()
	if f.err != nil {
		return store.RefundQuote{}, f.err
	}
	return store.RefundQuote{Eligible: true, RefundAmount: amount, Percentage: 100}, nil
}

func (f *fakeStore) GetDamageProtocol(ctx context.Context, damageType string) (store.DamageProtocol, error) {
	f.bump()
	if f.err != nil {
		return store.DamageProtocol{}, f.err
	}
	return f.protocol, nil
}

func (f *fakeStore) GetProductInfo(ctx context.Context, productID, name string) (*store.Product, error) {
	f.bump()
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

// lookupClassifier forces a classification that opens the lookup gate.
func lookupClassifier(gen llm.Generator, queryType pipeline.QueryType) *pipeline.Classifier {
	return pipeline.NewClassifierWithParser(gen, func(string) (pipeline.Classification, error) {
		return pipeline.Classification{
			QueryType:      queryType,
			Confidence:     0.9,
			RequiresLookup: true,
		}, nil
	})
}

func TestRunSuccess(t *testing.T) {
	gen := &llm.Stub{}
	res := pipeline.New(gen, &fakeStore{}, zerolog.Nop()).Run(context.Background(), "Hello, I'd like to know your opening hours.")

	if !res.Success {
		t.Fatalf("expected success, got %#v", res)
	}
	if res.ResponseText == "" {
		t.Fatalf("expected response text, got %#v", res)
	}
	if res.Classification == nil || res.Validation == nil {
		t.Fatalf("expected classification and validation, got %#v", res)
	}
	if res.Err != "" {
		t.Fatalf("unexpected error field: %q", res.Err)
	}
}

func TestRunSkipsLookupWhenNotRequired(t *testing.T) {
	gen := &llm.Stub{}
	policies := &fakeStore{}

	// The default parser returns requires_lookup=false.
	res := pipeline.New(gen, policies, zerolog.Nop()).Run(context.Background(), "What colors does the X100 come in?")

	if !res.Success {
		t.Fatalf("expected success, got %#v", res)
	}
	if n := policies.Lookups(); n != 0 {
		t.Fatalf("expected no store lookups, got %d", n)
	}
}

func TestRunRetrievesContextWhenRequired(t *testing.T) {
	gen := &llm.Stub{}
	policies := &fakeStore{policy: store.DefaultReturnPolicy()}

	orch := pipeline.New(gen, policies, zerolog.Nop()).
		WithClassifier(lookupClassifier(gen, pipeline.QueryProductReturn))
	res := orch.Run(context.Background(), "I want to return my laptop.")

	if !res.Success {
		t.Fatalf("expected success, got %#v", res)
	}
	if n := policies.Lookups(); n != 1 {
		t.Fatalf("expected 1 store lookup, got %d", n)
	}
}

func TestRunStoreFailureStillSucceeds(t *testing.T) {
	gen := &llm.Stub{}
	policies := &fakeStore{err: &store.Error{Op: "get return policy", Err: context.DeadlineExceeded}}

	orch := pipeline.New(gen, policies, zerolog.Nop()).
		WithClassifier(lookupClassifier(gen, pipeline.QueryRefundRequest))
	res := orch.Run(context.Background(), "Please refund my order ORD-12345.")

	if !res.Success {
		t.Fatalf("store failure must not fail the run: %#v", res)
	}
	if res.ResponseText == "" {
		t.Fatalf("expected response text, got %#v", res)
	}
}

func TestRunClassificationFailure(t *testing.T) {
	gen := &llm.Stub{Err: &llm.TransientError{Err: context.DeadlineExceeded}}
	policies := &fakeStore{}

	res := pipeline.New(gen, policies, zerolog.Nop()).Run(context.Background(), "Hello")

	if res.Success {
		t.Fatalf("expected failure, got %#v", res)
	}
	if res.ResponseText != "" {
		t.Fatalf("no reply should exist before generation: %q", res.ResponseText)
	}
	if res.Err == "" {
		t.Fatal("expected error field")
	}
	if n := policies.Lookups(); n != 0 {
		t.Fatalf("failed classification must not reach the store, got %d lookups", n)
	}
}

func TestRunGenerationFailureYieldsApology(t *testing.T) {
	// First call (classification) succeeds, second (generation) fails.
	gen := &failAfter{n: 1}

	res := pipeline.New(gen, &fakeStore{}, zerolog.Nop()).Run(context.Background(), "Where is my package?")

	if res.Success {
		t.Fatalf("expected failure, got %#v", res)
	}
	if res.Validation != nil {
		t.Fatalf("validation must not run after generation failure: %#v", res.Validation)
	}
	if !strings.Contains(res.ResponseText, "We apologize") {
		t.Fatalf("expected apology text, got %q", res.ResponseText)
	}
	if res.Classification == nil {
		t.Fatal("classification from the completed stage should be preserved")
	}
}

func TestExecuteExposesStageError(t *testing.T) {
	gen := &llm.Stub{Err: &llm.TransientError{Err: context.DeadlineExceeded}}

	_, err := pipeline.New(gen, &fakeStore{}, zerolog.Nop()).Execute(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error from Execute")
	}
	if !llm.IsTransient(err) {
		t.Fatalf("transient cause must survive wrapping: %v", err)
	}
}

// failAfter succeeds for the first n calls, then fails every call.
type failAfter struct {
	mu    sync.Mutex
	calls int
	n     int
}

func (f *failAfter) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	c := f.calls
	f.mu.Unlock()
	if c > f.n {
		return "", &llm.TransientError{Err: context.DeadlineExceeded}
	}
	return "ok", nil
}
