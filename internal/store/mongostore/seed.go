package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedSummary reports what Seed inserted.
type SeedSummary struct {
	Products int
	Policies int
	Orders   int
}

// Seed clears the products, policies and orders collections, inserts the
// sample catalog, and creates indexes. Intended for development and demo
// environments.
func Seed(ctx context.Context, db *mongo.Database) (SeedSummary, error) {
	products := db.Collection(collectionProducts)
	policies := db.Collection(collectionPolicies)
	orders := db.Collection(collectionOrders)

	for _, coll := range []*mongo.Collection{products, policies, orders} {
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return SeedSummary{}, fmt.Errorf("clear %s: %w", coll.Name(), err)
		}
	}

	productRows := seedProducts()
	if _, err := products.InsertMany(ctx, productRows); err != nil {
		return SeedSummary{}, fmt.Errorf("insert products: %w", err)
	}
	policyRows := seedPolicies()
	if _, err := policies.InsertMany(ctx, policyRows); err != nil {
		return SeedSummary{}, fmt.Errorf("insert policies: %w", err)
	}
	orderRows := seedOrders()
	if _, err := orders.InsertMany(ctx, orderRows); err != nil {
		return SeedSummary{}, fmt.Errorf("insert orders: %w", err)
	}

	if err := New(db, zerolog.Nop()).EnsureIndexes(ctx); err != nil {
		return SeedSummary{}, err
	}

	return SeedSummary{
		Products: len(productRows),
		Policies: len(policyRows),
		Orders:   len(orderRows),
	}, nil
}

func seedProducts() []any {
	return []any{
		bson.M{
			"product_id":        "LAPTOP-001",
			"name":              "Premium Laptop 15 inch",
			"category":          "electronics",
			"price":             899.99,
			"warranty_months":   24,
			"returnable":        true,
			"return_window":     30,
			"return_conditions": []string{"Unused", "Original packaging", "All accessories included"},
			"restocking_fee":    0.0,
		},
		bson.M{
			"product_id":        "PHONE-001",
			"name":              "Smartphone Pro Max",
			"category":          "electronics",
			"price":             1199.99,
			"warranty_months":   12,
			"returnable":        true,
			"return_window":     14,
			"return_conditions": []string{"Unopened box", "Factory seal intact"},
			"restocking_fee":    50.0,
		},
		bson.M{
			"product_id":        "SHOE-001",
			"name":              "Running Shoes Premium",
			"category":          "footwear",
			"price":             129.99,
			"warranty_months":   6,
			"returnable":        true,
			"return_window":     30,
			"return_conditions": []string{"Unworn", "Original tags attached"},
			"restocking_fee":    0.0,
		},
		bson.M{
			"product_id":        "WATCH-001",
			"name":              "Smart Watch Sport Edition",
			"category":          "electronics",
			"price":             299.99,
			"warranty_months":   12,
			"returnable":        true,
			"return_window":     30,
			"return_conditions": []string{"Unused", "Original packaging"},
			"restocking_fee":    0.0,
		},
		bson.M{
			"product_id":        "HEADPHONE-001",
			"name":              "Wireless Headphones Premium",
			"category":          "electronics",
			"price":             249.99,
			"warranty_months":   12,
			"returnable":        true,
			"return_window":     30,
			"return_conditions": []string{"Unused", "Hygiene seal intact"},
			"restocking_fee":    0.0,
		},
	}
}

func seedPolicies() []any {
	return []any{
		bson.M{
			"policy_type":  "return",
			"category":     "electronics",
			"days_allowed": 30,
			"conditions": []string{
				"Product must be in original condition",
				"All accessories and packaging must be included",
				"Proof of purchase required",
				"No signs of use or damage",
			},
			"refund_percentage": 100,
			"details":           "Full refund within 30 days for electronics. Some items may have restocking fee.",
		},
		bson.M{
			"policy_type":  "return",
			"category":     "footwear",
			"days_allowed": 30,
			"conditions": []string{
				"Shoes must be unworn",
				"Original tags must be attached",
				"Must be in original box",
			},
			"refund_percentage": 100,
			"details":           "Full refund within 30 days for unworn footwear",
		},
		bson.M{
			"policy_type":     "refund",
			"category":        "general",
			"processing_days": 5,
			"method":          "original_payment",
			"details":         "Refunds processed within 5-7 business days to original payment method",
		},
		bson.M{
			"policy_type":     "warranty",
			"category":        "electronics",
			"coverage_months": 12,
			"covers": []string{
				"Manufacturing defects",
				"Hardware failures",
				"Battery issues",
			},
			"not_covered": []string{
				"Physical damage",
				"Water damage",
				"Normal wear and tear",
			},
			"details": "12-month manufacturer warranty on all electronics",
		},
	}
}

func seedOrders() []any {
	return []any{
		bson.M{
			"order_id":       "ORD-12345",
			"customer_email": "customer@example.com",
			"product_id":     "LAPTOP-001",
			"order_date":     time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			"amount":         899.99,
			"status":         "delivered",
		},
		bson.M{
			"order_id":       "ORD-12346",
			"customer_email": "customer2@example.com",
			"product_id":     "PHONE-001",
			"order_date":     time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
			"amount":         1199.99,
			"status":         "delivered",
		},
	}
}
