package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/coupon"
	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/obs"
	"github.com/vastra-group/storefront-api/internal/pricing"
)

// ErrNotFound indicates the requested cart item could not be located.
var ErrNotFound = errors.New("cart item not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrVariantRequired is returned when a product that carries variants is
// added without naming one.
var ErrVariantRequired = errors.New("please select a variant")

// Querier captures the database methods required by the cart service.
type Querier interface {
	GetProduct(ctx context.Context, id pgtype.UUID) (db.Product, error)
	GetVariant(ctx context.Context, id pgtype.UUID) (db.ProductVariant, error)
	ProductHasVariants(ctx context.Context, productID pgtype.UUID) (bool, error)
	GetCartItem(ctx context.Context, arg db.GetCartItemParams) (db.CartItem, error)
	InsertCartItem(ctx context.Context, arg db.InsertCartItemParams) (db.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, arg db.UpdateCartItemQuantityParams) (db.CartItem, error)
	DeleteCartItem(ctx context.Context, arg db.DeleteCartItemParams) (int64, error)
	ClearCart(ctx context.Context, userID pgtype.UUID) error
	CountCartItems(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListCartItems(ctx context.Context, userID pgtype.UUID) ([]db.CartItemDetail, error)
}

// CouponValidator resolves a coupon code against the cart's contents.
type CouponValidator interface {
	Validate(ctx context.Context, code string, cartTotal pricing.Money, lines []coupon.Line) (coupon.Result, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Q       Querier
	Coupons CouponValidator
	Now     func() time.Time
}

// Add puts qty units of a product (or one of its variants) into the user's
// cart, merging with an existing line for the same product and variant. The
// lookup and write are separate statements; concurrent adds for the same line
// settle on one of the requested quantities.
func (s *Service) Add(ctx context.Context, userID, productID string, variantID *string, qty int) (db.CartItem, error) {
	if s == nil || s.Q == nil {
		return db.CartItem{}, errors.New("cart service not configured")
	}
	if qty < 1 {
		return db.CartItem{}, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidInput)
	}
	uid, err := toUUID(userID)
	if err != nil {
		return db.CartItem{}, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	pid, err := toUUID(productID)
	if err != nil {
		return db.CartItem{}, fmt.Errorf("invalid product id: %w", ErrInvalidInput)
	}
	product, err := s.Q.GetProduct(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CartItem{}, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return db.CartItem{}, err
	}
	vid := pgtype.UUID{}
	if variantID != nil && strings.TrimSpace(*variantID) != "" {
		vid, err = toUUID(*variantID)
		if err != nil {
			return db.CartItem{}, fmt.Errorf("invalid variant id: %w", ErrInvalidInput)
		}
		variant, err := s.Q.GetVariant(ctx, vid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return db.CartItem{}, fmt.Errorf("variant not found: %w", ErrNotFound)
			}
			return db.CartItem{}, err
		}
		if variant.ProductID != product.ID {
			return db.CartItem{}, fmt.Errorf("variant does not belong to product: %w", ErrInvalidInput)
		}
	} else {
		hasVariants, err := s.Q.ProductHasVariants(ctx, pid)
		if err != nil {
			return db.CartItem{}, err
		}
		if hasVariants {
			return db.CartItem{}, ErrVariantRequired
		}
	}

	existing, err := s.Q.GetCartItem(ctx, db.GetCartItemParams{UserID: uid, ProductID: pid, VariantID: vid})
	if err == nil {
		return s.Q.UpdateCartItemQuantity(ctx, db.UpdateCartItemQuantityParams{
			ID:       existing.ID,
			Quantity: existing.Quantity + int32(qty),
		})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.CartItem{}, err
	}
	return s.Q.InsertCartItem(ctx, db.InsertCartItemParams{
		UserID:    uid,
		ProductID: pid,
		VariantID: vid,
		Quantity:  int32(qty),
	})
}

// SetQuantity replaces the quantity of an existing cart line.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, variantID *string, qty int) (db.CartItem, error) {
	if s == nil || s.Q == nil {
		return db.CartItem{}, errors.New("cart service not configured")
	}
	if qty < 1 {
		return db.CartItem{}, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidInput)
	}
	params, err := lineParams(userID, productID, variantID)
	if err != nil {
		return db.CartItem{}, err
	}
	existing, err := s.Q.GetCartItem(ctx, db.GetCartItemParams(params))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CartItem{}, ErrNotFound
		}
		return db.CartItem{}, err
	}
	return s.Q.UpdateCartItemQuantity(ctx, db.UpdateCartItemQuantityParams{
		ID:       existing.ID,
		Quantity: int32(qty),
	})
}

// Remove deletes a single cart line.
func (s *Service) Remove(ctx context.Context, userID, productID string, variantID *string) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	params, err := lineParams(userID, productID, variantID)
	if err != nil {
		return err
	}
	affected, err := s.Q.DeleteCartItem(ctx, params)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every line from the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	return s.Q.ClearCart(ctx, uid)
}

// Count returns the number of lines in the user's cart.
func (s *Service) Count(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.Q == nil {
		return 0, errors.New("cart service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	return s.Q.CountCartItems(ctx, uid)
}

// Item is a cart line projected for API responses.
type Item struct {
	ID        string         `json:"id"`
	ProductID string         `json:"productId"`
	VariantID *string        `json:"variantId,omitempty"`
	Quantity  int            `json:"quantity"`
	Display   DisplayDetails `json:"display"`
	LineTotal pricing.Money  `json:"lineTotal"`
}

// View is the full cart projection returned by the list endpoint.
type View struct {
	Items    []Item        `json:"items"`
	Subtotal pricing.Money `json:"subtotal"`
}

// List loads the user's cart lines with display details and line totals.
func (s *Service) List(ctx context.Context, userID string) (View, error) {
	if s == nil || s.Q == nil {
		return View{}, errors.New("cart service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return View{}, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	details, err := s.Q.ListCartItems(ctx, uid)
	if err != nil {
		return View{}, err
	}
	view := View{Items: make([]Item, 0, len(details))}
	for _, d := range details {
		display := Display(d.Product, d.Variant)
		lineTotal := pricing.LineTotal(pricing.Line{Qty: int(d.Item.Quantity), UnitPrice: display.UnitPrice})
		item := Item{
			ID:        uuidString(d.Item.ID),
			ProductID: uuidString(d.Item.ProductID),
			Quantity:  int(d.Item.Quantity),
			Display:   display,
			LineTotal: lineTotal,
		}
		if d.Item.VariantID.Valid {
			v := uuidString(d.Item.VariantID)
			item.VariantID = &v
		}
		view.Items = append(view.Items, item)
		view.Subtotal += lineTotal
	}
	return view, nil
}

// Totals describes the computed cart totals together with the display-ready
// lines they were computed from, optionally with an applied coupon.
type Totals struct {
	ItemCount int `json:"itemCount"`
	pricing.Summary
	Coupon *coupon.Result `json:"coupon,omitempty"`
	Items  []Item         `json:"items"`
}

// Total computes the cart subtotal and, when couponCode is non-empty, applies
// the coupon. Any coupon failure aborts the computation so the caller never
// sees a silently un-discounted total.
func (s *Service) Total(ctx context.Context, userID, couponCode string) (Totals, error) {
	if s == nil || s.Q == nil {
		return Totals{}, errors.New("cart service not configured")
	}
	start := time.Now()
	defer func() {
		if obs.CartTotalDuration != nil {
			obs.CartTotalDuration.Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	uid, err := toUUID(userID)
	if err != nil {
		return Totals{}, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	details, err := s.Q.ListCartItems(ctx, uid)
	if err != nil {
		return Totals{}, err
	}

	items := make([]Item, 0, len(details))
	lines := make([]coupon.Line, 0, len(details))
	var subtotal pricing.Money
	for _, d := range details {
		display := Display(d.Product, d.Variant)
		lineTotal := pricing.LineTotal(pricing.Line{Qty: int(d.Item.Quantity), UnitPrice: display.UnitPrice})
		item := Item{
			ID:        uuidString(d.Item.ID),
			ProductID: uuidString(d.Item.ProductID),
			Quantity:  int(d.Item.Quantity),
			Display:   display,
			LineTotal: lineTotal,
		}
		line := coupon.Line{
			ProductID: uuid.UUID(d.Item.ProductID.Bytes),
			Qty:       int(d.Item.Quantity),
			UnitPrice: display.UnitPrice,
		}
		if d.Item.VariantID.Valid {
			v := uuidString(d.Item.VariantID)
			item.VariantID = &v
			parsed := uuid.UUID(d.Item.VariantID.Bytes)
			line.VariantID = &parsed
		}
		items = append(items, item)
		lines = append(lines, line)
		subtotal += lineTotal
	}

	totals := Totals{
		ItemCount: len(items),
		Items:     items,
		Summary:   pricing.Summarize(subtotal, 0),
	}
	code := strings.TrimSpace(couponCode)
	if code == "" {
		return totals, nil
	}
	if s.Coupons == nil {
		return Totals{}, errors.New("coupon validator not configured")
	}
	result, err := s.Coupons.Validate(ctx, code, subtotal, lines)
	if err != nil {
		return Totals{}, err
	}
	totals.Summary = pricing.Summarize(subtotal, result.Discount)
	totals.Coupon = &result
	return totals, nil
}

func lineParams(userID, productID string, variantID *string) (db.DeleteCartItemParams, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return db.DeleteCartItemParams{}, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	pid, err := toUUID(productID)
	if err != nil {
		return db.DeleteCartItemParams{}, fmt.Errorf("invalid product id: %w", ErrInvalidInput)
	}
	vid := pgtype.UUID{}
	if variantID != nil && strings.TrimSpace(*variantID) != "" {
		vid, err = toUUID(*variantID)
		if err != nil {
			return db.DeleteCartItemParams{}, fmt.Errorf("invalid variant id: %w", ErrInvalidInput)
		}
	}
	return db.DeleteCartItemParams{UserID: uid, ProductID: pid, VariantID: vid}, nil
}

func toUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidString(v pgtype.UUID) string {
	if !v.Valid {
		return ""
	}
	return uuid.UUID(v.Bytes).String()
}
