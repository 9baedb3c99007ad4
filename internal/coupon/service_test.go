package coupon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/db"
)

type stubQueries struct {
	coupon     db.Coupon
	scopes     []db.CouponScope
	variants   map[[16]byte]db.ProductVariant
	lookedUp   string
	created    []db.CreateCouponScopeParams
	couponSeen db.CreateCouponParams
	createErr  error
}

func (s *stubQueries) GetCouponByCode(ctx context.Context, code string) (db.Coupon, error) {
	s.lookedUp = code
	if s.coupon.Code == "" || s.coupon.Code != code {
		return db.Coupon{}, pgx.ErrNoRows
	}
	return s.coupon, nil
}

func (s *stubQueries) GetCoupon(ctx context.Context, id pgtype.UUID) (db.Coupon, error) {
	if s.coupon.Code == "" {
		return db.Coupon{}, pgx.ErrNoRows
	}
	return s.coupon, nil
}

func (s *stubQueries) CreateCoupon(ctx context.Context, arg db.CreateCouponParams) (db.Coupon, error) {
	if s.createErr != nil {
		return db.Coupon{}, s.createErr
	}
	s.couponSeen = arg
	return db.Coupon{
		ID:            uuidToPg(uuid.New()),
		Code:          arg.Code,
		DiscountType:  arg.DiscountType,
		DiscountValue: arg.DiscountValue,
		MinOrderValue: arg.MinOrderValue,
		IsActive:      arg.IsActive,
	}, nil
}

func (s *stubQueries) UpdateCoupon(ctx context.Context, arg db.UpdateCouponParams) (db.Coupon, error) {
	return db.Coupon{}, pgx.ErrNoRows
}

func (s *stubQueries) DeleteCoupon(ctx context.Context, id pgtype.UUID) (int64, error) {
	return 0, nil
}

func (s *stubQueries) ListCoupons(ctx context.Context, arg db.ListCouponsParams) ([]db.Coupon, error) {
	return nil, nil
}

func (s *stubQueries) CountCoupons(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubQueries) CreateCouponScope(ctx context.Context, arg db.CreateCouponScopeParams) (db.CouponScope, error) {
	s.created = append(s.created, arg)
	return db.CouponScope{
		ID:         uuidToPg(uuid.New()),
		CouponID:   arg.CouponID,
		ProductID:  arg.ProductID,
		VariantID:  arg.VariantID,
		CategoryID: arg.CategoryID,
	}, nil
}

func (s *stubQueries) ListCouponScopes(ctx context.Context, couponID pgtype.UUID) ([]db.CouponScope, error) {
	return s.scopes, nil
}

func (s *stubQueries) DeleteCouponScopes(ctx context.Context, couponID pgtype.UUID) error {
	return nil
}

func (s *stubQueries) GetVariant(ctx context.Context, id pgtype.UUID) (db.ProductVariant, error) {
	if v, ok := s.variants[id.Bytes]; ok {
		return v, nil
	}
	return db.ProductVariant{}, pgx.ErrNoRows
}

func (s *stubQueries) DeactivateExpiredCoupons(ctx context.Context, now pgtype.Timestamptz) (int64, error) {
	return 0, nil
}

func stubService(q *stubQueries) *Service {
	s := &Service{Q: q}
	s.Tx = func(ctx context.Context, fn func(Querier) error) error { return fn(q) }
	return s
}

func activeCoupon(code string) db.Coupon {
	return db.Coupon{
		ID:            uuidToPg(uuid.New()),
		Code:          code,
		DiscountType:  TypeFixed,
		DiscountValue: 100,
		IsActive:      true,
	}
}

func TestValidateUnknownCode(t *testing.T) {
	svc := stubService(&stubQueries{})
	_, err := svc.Validate(context.Background(), "NOPE", 1_000, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateUppercasesLookup(t *testing.T) {
	q := &stubQueries{coupon: activeCoupon("SAVE10")}
	svc := stubService(q)
	res, err := svc.Validate(context.Background(), "  save10 ", 1_000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.lookedUp != "SAVE10" {
		t.Fatalf("expected uppercase lookup, got %q", q.lookedUp)
	}
	if res.Discount != 100 {
		t.Fatalf("expected discount 100, got %d", res.Discount)
	}
}

func TestValidateExpired(t *testing.T) {
	c := activeCoupon("SAVE10")
	c.ValidUntil = pgtype.Timestamptz{Time: time.Now().Add(-time.Hour), Valid: true}
	svc := stubService(&stubQueries{coupon: c})
	_, err := svc.Validate(context.Background(), "SAVE10", 1_000, nil)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateNotApplicable(t *testing.T) {
	c := activeCoupon("SAVE10")
	scopedProduct := uuid.New()
	q := &stubQueries{
		coupon: c,
		scopes: []db.CouponScope{{CouponID: c.ID, ProductID: uuidToPg(scopedProduct)}},
	}
	svc := stubService(q)
	_, err := svc.Validate(context.Background(), "SAVE10", 1_000, []Line{{ProductID: uuid.New(), Qty: 1}})
	if !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
	res, err := svc.Validate(context.Background(), "SAVE10", 1_000, []Line{{ProductID: scopedProduct, Qty: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Discount != 100 {
		t.Fatalf("expected discount 100, got %d", res.Discount)
	}
}

func TestCreateNormalizesCode(t *testing.T) {
	q := &stubQueries{}
	svc := stubService(q)
	created, err := svc.Create(context.Background(), CreateParams{
		Code:          " festive50 ",
		DiscountType:  TypePercentage,
		DiscountValue: 50,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Code != "FESTIVE50" {
		t.Fatalf("expected stored code FESTIVE50, got %q", created.Code)
	}
}

func TestCreateMapsOptionalFields(t *testing.T) {
	q := &stubQueries{}
	svc := stubService(q)
	desc := "festive season"
	cap := int64(500)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 1, 0)
	_, err := svc.Create(context.Background(), CreateParams{
		Code:          "FESTIVE50",
		Description:   &desc,
		DiscountType:  TypePercentage,
		DiscountValue: 50,
		MaxDiscount:   &cap,
		ValidFrom:     &from,
		ValidUntil:    &until,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := q.couponSeen
	if !seen.Description.Valid || seen.Description.String != desc {
		t.Fatalf("expected description persisted, got %+v", seen.Description)
	}
	if !seen.MaxDiscount.Valid || seen.MaxDiscount.Int64 != cap {
		t.Fatalf("expected max discount persisted, got %+v", seen.MaxDiscount)
	}
	if !seen.ValidFrom.Valid || !seen.ValidFrom.Time.Equal(from) {
		t.Fatalf("expected valid-from persisted, got %+v", seen.ValidFrom)
	}
	if !seen.ValidUntil.Valid || !seen.ValidUntil.Time.Equal(until) {
		t.Fatalf("expected valid-until persisted, got %+v", seen.ValidUntil)
	}
}

func TestCreateOmitsUnsetOptionalFields(t *testing.T) {
	q := &stubQueries{}
	svc := stubService(q)
	_, err := svc.Create(context.Background(), CreateParams{
		Code:          "PLAIN10",
		DiscountType:  TypeFixed,
		DiscountValue: 10,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := q.couponSeen
	if seen.Description.Valid || seen.MaxDiscount.Valid || seen.ValidFrom.Valid || seen.ValidUntil.Valid {
		t.Fatalf("expected unset optionals to stay null, got %+v", seen)
	}
}

func TestCreateDerivesProductFromVariant(t *testing.T) {
	productID := uuid.New()
	variantID := uuid.New()
	q := &stubQueries{variants: map[[16]byte]db.ProductVariant{
		variantID: {ID: uuidToPg(variantID), ProductID: uuidToPg(productID)},
	}}
	svc := stubService(q)
	variantStr := variantID.String()
	created, err := svc.Create(context.Background(), CreateParams{
		Code:          "VAR10",
		DiscountType:  TypeFixed,
		DiscountValue: 10,
		IsActive:      true,
		Scopes:        []ScopeInput{{VariantID: &variantStr}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created.Scopes) != 1 {
		t.Fatalf("expected one scope, got %d", len(created.Scopes))
	}
	if created.Scopes[0].ProductID == nil || *created.Scopes[0].ProductID != productID.String() {
		t.Fatalf("expected derived product id %s, got %+v", productID, created.Scopes[0])
	}
}

func TestCreateVariantProductMismatch(t *testing.T) {
	productID := uuid.New()
	otherProduct := uuid.New()
	variantID := uuid.New()
	q := &stubQueries{variants: map[[16]byte]db.ProductVariant{
		variantID: {ID: uuidToPg(variantID), ProductID: uuidToPg(productID)},
	}}
	svc := stubService(q)
	variantStr := variantID.String()
	otherStr := otherProduct.String()
	_, err := svc.Create(context.Background(), CreateParams{
		Code:          "VAR10",
		DiscountType:  TypeFixed,
		DiscountValue: 10,
		IsActive:      true,
		Scopes:        []ScopeInput{{VariantID: &variantStr, ProductID: &otherStr}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "does not belong") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	q := &stubQueries{createErr: &pgconn.PgError{Code: "23505"}}
	svc := stubService(q)
	_, err := svc.Create(context.Background(), CreateParams{
		Code:          "DUP",
		DiscountType:  TypeFixed,
		DiscountValue: 10,
		IsActive:      true,
	})
	if !errors.Is(err, ErrCodeExists) {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}
}

func uuidToPg(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
