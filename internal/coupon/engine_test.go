package coupon

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestValidateOrderOfChecks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	// Inactive wins over every other failure.
	rule := Rule{IsActive: false, ValidFrom: &future, MinOrderValue: 100_000}
	if err := rule.Validate(now, 0); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	rule = Rule{IsActive: true, ValidFrom: &future}
	if err := rule.Validate(now, 0); !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("expected ErrNotYetValid, got %v", err)
	}

	rule = Rule{IsActive: true, ValidUntil: &past}
	if err := rule.Validate(now, 0); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateMinOrderBoundary(t *testing.T) {
	now := time.Now()
	rule := Rule{IsActive: true, MinOrderValue: 500}
	if err := rule.Validate(now, 499); !errors.Is(err, ErrBelowMinOrder) {
		t.Fatalf("expected ErrBelowMinOrder at 499, got %v", err)
	}
	if err := rule.Validate(now, 500); err != nil {
		t.Fatalf("expected 500 to satisfy the minimum, got %v", err)
	}
}

func TestValidateMinOrderMessageNamesThreshold(t *testing.T) {
	rule := Rule{IsActive: true, MinOrderValue: 500}
	err := rule.Validate(time.Now(), 120)
	if err == nil {
		t.Fatal("expected a min-order failure")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected the threshold in the message, got %q", err.Error())
	}
}

func TestApplicableNoScopes(t *testing.T) {
	if !Applicable(nil, []Line{{ProductID: uuid.New(), Qty: 1}}) {
		t.Fatal("coupon without scopes should apply to any cart")
	}
}

func TestApplicableProductScope(t *testing.T) {
	productID := uuid.New()
	other := uuid.New()
	scopes := []Scope{{ProductID: &productID}}
	if !Applicable(scopes, []Line{{ProductID: productID, Qty: 1}}) {
		t.Fatal("expected product scope to match matching line")
	}
	if Applicable(scopes, []Line{{ProductID: other, Qty: 1}}) {
		t.Fatal("expected product scope to reject other products")
	}
}

func TestApplicableVariantScopeExact(t *testing.T) {
	productID := uuid.New()
	variantID := uuid.New()
	otherVariant := uuid.New()
	scopes := []Scope{{ProductID: &productID, VariantID: &variantID}}

	// Same product but different variant does not match.
	if Applicable(scopes, []Line{{ProductID: productID, VariantID: &otherVariant, Qty: 1}}) {
		t.Fatal("variant scope must require the exact variant")
	}
	// Product-level line does not satisfy a variant scope either.
	if Applicable(scopes, []Line{{ProductID: productID, Qty: 1}}) {
		t.Fatal("variant scope must not match a line without a variant")
	}
	if !Applicable(scopes, []Line{{ProductID: productID, VariantID: &variantID, Qty: 1}}) {
		t.Fatal("expected exact variant match to apply")
	}
}

func TestApplicableCategoryScopeCoversCart(t *testing.T) {
	categoryID := uuid.New()
	scopes := []Scope{{CategoryID: &categoryID}}
	if !Applicable(scopes, []Line{{ProductID: uuid.New(), Qty: 1}}) {
		t.Fatal("category scope should make the coupon apply to the whole cart")
	}
}

func TestDiscountPercentage(t *testing.T) {
	rule := Rule{Type: TypePercentage, Value: 10}
	if got := Discount(rule, 500); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestDiscountPercentageMaxDiscountClamp(t *testing.T) {
	limit := int64(30)
	rule := Rule{Type: TypePercentage, Value: 10, MaxDiscount: &limit}
	if got := Discount(rule, 500); got != 30 {
		t.Fatalf("expected clamp to 30, got %d", got)
	}
}

func TestDiscountFixedExceedsTotal(t *testing.T) {
	rule := Rule{Type: TypeFixed, Value: 1000}
	if got := Discount(rule, 200); got != 200 {
		t.Fatalf("expected discount bounded by total, got %d", got)
	}
}

func TestDiscountUnknownType(t *testing.T) {
	rule := Rule{Type: "BOGO", Value: 10}
	if got := Discount(rule, 500); got != 0 {
		t.Fatalf("expected 0 for unknown type, got %d", got)
	}
}
