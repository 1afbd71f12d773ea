// Package store defines the policy/product lookup port used by the response
// pipeline, plus the built-in fallback records used when the backing store is
// unavailable.
package store

import "context"

// ReturnPolicy describes the return terms for a product category.
type ReturnPolicy struct {
	PolicyType       string   `json:"policy_type" bson:"policy_type"`
	DaysAllowed      int      `json:"days_allowed" bson:"days_allowed"`
	Conditions       []string `json:"conditions" bson:"conditions"`
	RefundPercentage int      `json:"refund_percentage" bson:"refund_percentage"`
	Details          string   `json:"details" bson:"details"`
}

// Returnability is the answer to "can this item still be returned".
type Returnability struct {
	Returnable    bool     `json:"returnable"`
	WindowDays    int      `json:"window_days"`
	Conditions    []string `json:"conditions"`
	RestockingFee float64  `json:"restocking_fee"`
	Reason        string   `json:"reason,omitempty"`
}

// RefundQuote estimates the refund for a purchase.
type RefundQuote struct {
	Eligible       bool    `json:"eligible"`
	RefundAmount   float64 `json:"refund_amount"`
	Percentage     int     `json:"percentage"`
	ProcessingDays int     `json:"processing_days"`
	Method         string  `json:"method"`
	Reason         string  `json:"reason,omitempty"`
}

// DamageProtocol describes how damaged-product reports are handled.
type DamageProtocol struct {
	Steps              []string `json:"steps" bson:"steps"`
	RequiresPhotos     bool     `json:"requires_photos" bson:"requires_photos"`
	ReplacementOffered bool     `json:"replacement_offered" bson:"replacement_offered"`
	RefundOffered      bool     `json:"refund_offered" bson:"refund_offered"`
	Details            string   `json:"details" bson:"details"`
}

// Product is a catalog entry.
type Product struct {
	ProductID        string   `json:"product_id" bson:"product_id"`
	Name             string   `json:"name" bson:"name"`
	Category         string   `json:"category" bson:"category"`
	Price            float64  `json:"price" bson:"price"`
	WarrantyMonths   int      `json:"warranty_months" bson:"warranty_months"`
	Returnable       bool     `json:"returnable" bson:"returnable"`
	ReturnWindow     int      `json:"return_window" bson:"return_window"`
	ReturnConditions []string `json:"return_conditions" bson:"return_conditions"`
	RestockingFee    float64  `json:"restocking_fee" bson:"restocking_fee"`
}

// PolicyStore is the read-only policy/product lookup collaborator.
// Implementations never write.
type PolicyStore interface {
	// GetReturnPolicy returns the return policy for category, or the store's
	// default policy when category is empty.
	GetReturnPolicy(ctx context.Context, category string) (ReturnPolicy, error)

	// CheckReturnable reports whether a product (by ID) or category is still
	// returnable.
	CheckReturnable(ctx context.Context, productID, category string) (Returnability, error)

	// CalculateRefund quotes a refund for a purchase amount given its age and
	// condition.
	CalculateRefund(ctx context.Context, amount float64, daysSincePurchase int, condition string) (RefundQuote, error)

	// GetDamageProtocol returns the handling protocol for a damage type.
	GetDamageProtocol(ctx context.Context, damageType string) (DamageProtocol, error)

	// GetProductInfo finds a product by ID or name. Returns nil when no
	// product matches.
	GetProductInfo(ctx context.Context, productID, name string) (*Product, error)
}

// Error wraps a failed store lookup. Callers absorb these with fallback
// defaults; they never abort the pipeline.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "policy store error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultReturnPolicy is the fallback used when the store is unreachable:
// 30-day window, full refund, standard conditions.
func DefaultReturnPolicy() ReturnPolicy {
	return ReturnPolicy{
		PolicyType:       "return",
		DaysAllowed:      30,
		RefundPercentage: 100,
		Conditions: []string{
			"Product must be in original condition",
			"Proof of purchase required",
		},
		Details: "Standard 30-day return policy with full refund.",
	}
}

// DefaultDamageProtocol is the fallback protocol for damaged-product reports.
func DefaultDamageProtocol() DamageProtocol {
	return DamageProtocol{
		Steps: []string{
			"Document the damage with photos",
			"Keep the product and original packaging",
			"Reply with your order number",
		},
		RequiresPhotos:     true,
		ReplacementOffered: true,
		RefundOffered:      true,
		Details:            "Damaged items are eligible for replacement or full refund once the damage is documented.",
	}
}
