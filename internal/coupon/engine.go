package coupon

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vastra-group/storefront-api/internal/pricing"
)

// Discount types accepted on coupon rules.
const (
	TypePercentage = "PERCENTAGE"
	TypeFixed      = "FIXED"
)

var (
	// ErrNotFound is returned when no coupon exists for the given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotActive is returned when the coupon has been disabled.
	ErrNotActive = errors.New("coupon not active")
	// ErrNotYetValid is returned before the coupon's validity window opens.
	ErrNotYetValid = errors.New("coupon not yet valid")
	// ErrExpired is returned after the coupon's validity window closes.
	ErrExpired = errors.New("coupon expired")
	// ErrBelowMinOrder indicates the cart total does not meet the coupon requirement.
	ErrBelowMinOrder = errors.New("cart total below coupon minimum order value")
	// ErrNotApplicable indicates no cart line falls within the coupon's scope.
	ErrNotApplicable = errors.New("coupon not applicable to cart items")
	// ErrCodeExists is returned when creating a coupon with a duplicate code.
	ErrCodeExists = errors.New("coupon code already exists")
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	Code          string
	Type          string
	Value         int64
	MinOrderValue int64
	MaxDiscount   *int64
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	IsActive      bool
}

// Scope restricts a coupon to a product, an exact variant, or a category.
type Scope struct {
	ProductID  *uuid.UUID
	VariantID  *uuid.UUID
	CategoryID *uuid.UUID
}

// Line represents a cart line considered during scope matching.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
	UnitPrice pricing.Money
}

// Validate checks the rule against the provided instant and cart total.
// Checks run in a fixed order so callers see the most specific failure:
// active flag, window open, window close, minimum order value.
func (r Rule) Validate(now time.Time, cartTotal pricing.Money) error {
	if !r.IsActive {
		return ErrNotActive
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrNotYetValid
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return ErrExpired
	}
	if cartTotal < r.MinOrderValue {
		return fmt.Errorf("minimum order value is %d: %w", r.MinOrderValue, ErrBelowMinOrder)
	}
	return nil
}

// Applicable reports whether the coupon's scopes cover at least one cart line.
// A coupon without scopes applies to the whole cart. A category scope makes
// the coupon apply to the whole cart as well: category membership of cart
// lines is not resolved here, matching the storefront's checkout behaviour.
func Applicable(scopes []Scope, lines []Line) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s.CategoryID != nil {
			return true
		}
	}
	for _, l := range lines {
		for _, s := range scopes {
			if scopeMatchesLine(s, l) {
				return true
			}
		}
	}
	return false
}

func scopeMatchesLine(s Scope, l Line) bool {
	if s.VariantID != nil {
		return l.VariantID != nil && *l.VariantID == *s.VariantID
	}
	if s.ProductID != nil {
		return l.ProductID == *s.ProductID
	}
	return false
}

// Discount computes the raw discount for the cart total and clamps it to the
// coupon's cap and to the total itself.
func Discount(r Rule, cartTotal pricing.Money) pricing.Money {
	if cartTotal <= 0 {
		return 0
	}
	var raw pricing.Money
	switch r.Type {
	case TypePercentage:
		raw = pricing.Percentage(cartTotal, r.Value)
	case TypeFixed:
		raw = r.Value
	default:
		return 0
	}
	var limit pricing.Money
	if r.MaxDiscount != nil {
		limit = *r.MaxDiscount
	}
	return pricing.ClampDiscount(raw, limit, cartTotal)
}
