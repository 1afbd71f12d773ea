// Package mongostore implements the policy store against MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/replyforge/replyforge/internal/store"
)

const (
	collectionProducts = "products"
	collectionPolicies = "policies"
	collectionOrders   = "orders"

	opTimeout = 5 * time.Second

	// graceWindowDays is the partial-refund window after the return window
	// closes. Returns inside it refund half the purchase price.
	graceWindowDays         = 15
	partialRefundPercentage = 50
)

// NewClient connects to MongoDB and verifies the connection.
func NewClient(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

// Store implements store.PolicyStore on a MongoDB database.
type Store struct {
	products *mongo.Collection
	policies *mongo.Collection
	orders   *mongo.Collection
	log      zerolog.Logger
}

// New wraps db as a policy store.
func New(db *mongo.Database, log zerolog.Logger) *Store {
	return &Store{
		products: db.Collection(collectionProducts),
		policies: db.Collection(collectionPolicies),
		orders:   db.Collection(collectionOrders),
		log:      log.With().Str("component", "mongostore").Logger(),
	}
}

// EnsureIndexes creates the indexes the lookup paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	_, err = s.policies.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "policy_type", Value: 1}, {Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create policy indexes: %w", err)
	}
	_, err = s.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	return nil
}

func (s *Store) GetReturnPolicy(ctx context.Context, category string) (store.ReturnPolicy, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"policy_type": "return"}
	if strings.TrimSpace(category) != "" {
		filter["category"] = strings.TrimSpace(category)
	}

	var policy store.ReturnPolicy
	err := s.policies.FindOne(opCtx, filter).Decode(&policy)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// A missing row is not a failure: the store's answer is its default.
		s.log.Debug().Str("category", category).Msg("no return policy row, using default")
		return store.DefaultReturnPolicy(), nil
	}
	if err != nil {
		return store.ReturnPolicy{}, &store.Error{Op: "get return policy", Err: err}
	}
	return policy, nil
}

func (s *Store) CheckReturnable(ctx context.Context, productID, category string) (store.Returnability, error) {
	if strings.TrimSpace(productID) != "" {
		product, err := s.GetProductInfo(ctx, productID, "")
		if err != nil {
			return store.Returnability{}, err
		}
		if product != nil {
			out := store.Returnability{
				Returnable:    product.Returnable,
				WindowDays:    product.ReturnWindow,
				Conditions:    product.ReturnConditions,
				RestockingFee: product.RestockingFee,
			}
			if !product.Returnable {
				out.Reason = "product is marked non-returnable"
			}
			return out, nil
		}
	}

	policy, err := s.GetReturnPolicy(ctx, category)
	if err != nil {
		return store.Returnability{}, err
	}
	return store.Returnability{
		Returnable: true,
		WindowDays: policy.DaysAllowed,
		Conditions: policy.Conditions,
	}, nil
}

func (s *Store) CalculateRefund(ctx context.Context, amount float64, daysSincePurchase int, condition string) (store.RefundQuote, error) {
	policy, err := s.GetReturnPolicy(ctx, "")
	if err != nil {
		return store.RefundQuote{}, err
	}

	processingDays, method := s.refundTerms(ctx)

	quote := store.RefundQuote{
		ProcessingDays: processingDays,
		Method:         method,
	}

	switch {
	case strings.EqualFold(strings.TrimSpace(condition), "damaged"):
		quote.Reason = "damaged items follow the damage protocol, not the standard refund schedule"
		return quote, nil
	case daysSincePurchase <= policy.DaysAllowed:
		quote.Percentage = policy.RefundPercentage
	case daysSincePurchase <= policy.DaysAllowed+graceWindowDays:
		quote.Percentage = partialRefundPercentage
	default:
		quote.Reason = fmt.Sprintf("purchase is outside the %d-day return window", policy.DaysAllowed)
		return quote, nil
	}

	quote.Eligible = quote.Percentage > 0
	quote.RefundAmount = amount * float64(quote.Percentage) / 100
	return quote, nil
}

// refundTerms reads processing terms from the refund policy row, falling back
// to the seeded defaults.
func (s *Store) refundTerms(ctx context.Context) (int, string) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var row struct {
		ProcessingDays int    `bson:"processing_days"`
		Method         string `bson:"method"`
	}
	err := s.policies.FindOne(opCtx, bson.M{"policy_type": "refund", "category": "general"}).Decode(&row)
	if err != nil || row.ProcessingDays <= 0 {
		return 5, "original_payment"
	}
	if row.Method == "" {
		row.Method = "original_payment"
	}
	return row.ProcessingDays, row.Method
}

func (s *Store) GetDamageProtocol(ctx context.Context, damageType string) (store.DamageProtocol, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"policy_type": "damage"}
	if strings.TrimSpace(damageType) != "" {
		filter["category"] = strings.TrimSpace(damageType)
	}

	var protocol store.DamageProtocol
	err := s.policies.FindOne(opCtx, filter).Decode(&protocol)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.log.Debug().Str("damage_type", damageType).Msg("no damage protocol row, using default")
		return store.DefaultDamageProtocol(), nil
	}
	if err != nil {
		return store.DamageProtocol{}, &store.Error{Op: "get damage protocol", Err: err}
	}
	return protocol, nil
}

func (s *Store) GetProductInfo(ctx context.Context, productID, name string) (*store.Product, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var filter bson.M
	switch {
	case strings.TrimSpace(productID) != "":
		filter = bson.M{"product_id": strings.TrimSpace(productID)}
	case strings.TrimSpace(name) != "":
		filter = bson.M{"name": bson.M{"$regex": strings.TrimSpace(name), "$options": "i"}}
	default:
		return nil, nil
	}

	var product store.Product
	err := s.products.FindOne(opCtx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.Error{Op: "get product info", Err: err}
	}
	return &product, nil
}
