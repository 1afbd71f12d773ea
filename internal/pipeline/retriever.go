package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/replyforge/replyforge/internal/store"
)

// Context bundle keys.
const (
	ContextKeyReturnPolicy   = "return_policy"
	ContextKeyDamageProtocol = "damage_protocol"
)

// ContextRetriever assembles the policy facts a reply needs, based on the
// classified query type. Store failures are absorbed with built-in defaults:
// partial context is preferable to failing the run.
type ContextRetriever struct {
	store store.PolicyStore
	log   zerolog.Logger
}

func NewContextRetriever(policies store.PolicyStore, log zerolog.Logger) *ContextRetriever {
	return &ContextRetriever{
		store: policies,
		log:   log.With().Str("component", "context_retriever").Logger(),
	}
}

// Retrieve fetches the facts for cls.QueryType. Callers gate on
// cls.RequiresLookup; the type only selects which facts to fetch.
func (r *ContextRetriever) Retrieve(ctx context.Context, cls Classification) map[string]any {
	bundle := make(map[string]any)

	switch cls.QueryType {
	case QueryProductReturn, QueryRefundRequest:
		policy, err := r.store.GetReturnPolicy(ctx, "")
		if err != nil {
			r.log.Warn().Err(err).Msg("return policy lookup failed, using default policy")
			policy = store.DefaultReturnPolicy()
		}
		bundle[ContextKeyReturnPolicy] = policy

	case QueryProductDamage:
		protocol, err := r.store.GetDamageProtocol(ctx, "general")
		if err != nil {
			r.log.Warn().Err(err).Msg("damage protocol lookup failed, using default protocol")
			protocol = store.DefaultDamageProtocol()
		}
		bundle[ContextKeyDamageProtocol] = protocol
	}

	return bundle
}
