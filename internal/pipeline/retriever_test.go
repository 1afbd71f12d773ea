package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/replyforge/replyforge/internal/pipeline"
	"github.com/replyforge/replyforge/internal/store"
)

func TestRetrieveReturnPolicy(t *testing.T) {
	policies := &fakeStore{policy: store.ReturnPolicy{PolicyType: "return", DaysAllowed: 14, RefundPercentage: 80}}
	r := pipeline.NewContextRetriever(policies, zerolog.Nop())

	for _, qt := range []pipeline.QueryType{pipeline.QueryProductReturn, pipeline.QueryRefundRequest} {
		bundle := r.Retrieve(context.Background(), pipeline.Classification{QueryType: qt, RequiresLookup: true})
		got, ok := bundle[pipeline.ContextKeyReturnPolicy].(store.ReturnPolicy)
		if !ok {
			t.Fatalf("%s: missing return policy in %#v", qt, bundle)
		}
		if got.DaysAllowed != 14 {
			t.Fatalf("%s: days = %d, want 14", qt, got.DaysAllowed)
		}
	}
}

func TestRetrieveDamageProtocol(t *testing.T) {
	policies := &fakeStore{protocol: store.DamageProtocol{Steps: []string{"Send photos"}, RequiresPhotos: true}}
	r := pipeline.NewContextRetriever(policies, zerolog.Nop())

	bundle := r.Retrieve(context.Background(), pipeline.Classification{QueryType: pipeline.QueryProductDamage, RequiresLookup: true})
	got, ok := bundle[pipeline.ContextKeyDamageProtocol].(store.DamageProtocol)
	if !ok {
		t.Fatalf("missing damage protocol in %#v", bundle)
	}
	if !got.RequiresPhotos {
		t.Fatalf("unexpected protocol: %#v", got)
	}
}

func TestRetrieveAbsorbsStoreErrors(t *testing.T) {
	policies := &fakeStore{err: errors.New("connection refused")}
	r := pipeline.NewContextRetriever(policies, zerolog.Nop())

	bundle := r.Retrieve(context.Background(), pipeline.Classification{QueryType: pipeline.QueryProductReturn, RequiresLookup: true})
	got, ok := bundle[pipeline.ContextKeyReturnPolicy].(store.ReturnPolicy)
	if !ok {
		t.Fatalf("store failure must fall back to default policy, got %#v", bundle)
	}
	if got.DaysAllowed != 30 || got.RefundPercentage != 100 {
		t.Fatalf("unexpected default policy: %#v", got)
	}
}

func TestRetrieveUnhandledTypeYieldsEmptyBundle(t *testing.T) {
	policies := &fakeStore{}
	r := pipeline.NewContextRetriever(policies, zerolog.Nop())

	bundle := r.Retrieve(context.Background(), pipeline.Classification{QueryType: pipeline.QueryDeliveryIssue, RequiresLookup: true})
	if len(bundle) != 0 {
		t.Fatalf("expected empty bundle, got %#v", bundle)
	}
	if n := policies.Lookups(); n != 0 {
		t.Fatalf("expected no lookups, got %d", n)
	}
}
