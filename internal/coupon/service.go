package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/obs"
	"github.com/vastra-group/storefront-api/internal/pricing"
)

// Querier captures the database methods required by the coupon service.
type Querier interface {
	GetCouponByCode(ctx context.Context, code string) (db.Coupon, error)
	GetCoupon(ctx context.Context, id pgtype.UUID) (db.Coupon, error)
	CreateCoupon(ctx context.Context, arg db.CreateCouponParams) (db.Coupon, error)
	UpdateCoupon(ctx context.Context, arg db.UpdateCouponParams) (db.Coupon, error)
	DeleteCoupon(ctx context.Context, id pgtype.UUID) (int64, error)
	ListCoupons(ctx context.Context, arg db.ListCouponsParams) ([]db.Coupon, error)
	CountCoupons(ctx context.Context) (int64, error)
	CreateCouponScope(ctx context.Context, arg db.CreateCouponScopeParams) (db.CouponScope, error)
	ListCouponScopes(ctx context.Context, couponID pgtype.UUID) ([]db.CouponScope, error)
	DeleteCouponScopes(ctx context.Context, couponID pgtype.UUID) error
	GetVariant(ctx context.Context, id pgtype.UUID) (db.ProductVariant, error)
	DeactivateExpiredCoupons(ctx context.Context, now pgtype.Timestamptz) (int64, error)
}

// Service encapsulates coupon validation and administration.
type Service struct {
	Q   Querier
	Now func() time.Time
	// Tx runs fn inside a database transaction when configured. Tests stub it
	// to call fn with the fake querier directly.
	Tx func(ctx context.Context, fn func(Querier) error) error
}

// NewService wires a Service to a pgx pool and its query layer.
func NewService(pool *pgxpool.Pool, q *db.Queries) *Service {
	s := &Service{Q: q}
	s.Tx = func(ctx context.Context, fn func(Querier) error) error {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if err := fn(q.WithTx(tx)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
	return s
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Result describes the outcome of validating a coupon against a cart.
type Result struct {
	Code     string        `json:"code"`
	Discount pricing.Money `json:"discount"`
}

// Validate resolves the coupon for code and checks it against the cart.
// Codes are matched case-insensitively: every code is stored uppercase and
// the lookup uppercases its input.
func (s *Service) Validate(ctx context.Context, code string, cartTotal pricing.Money, lines []Line) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("coupon service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Result{}, ErrNotFound
	}
	model, err := s.Q.GetCouponByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, s.outcome(ErrNotFound)
		}
		return Result{}, err
	}
	rule := RuleFromModel(model)
	if err := rule.Validate(s.now(), cartTotal); err != nil {
		return Result{}, s.outcome(err)
	}
	models, err := s.Q.ListCouponScopes(ctx, model.ID)
	if err != nil {
		return Result{}, err
	}
	if !Applicable(ScopesFromModels(models), lines) {
		return Result{}, s.outcome(ErrNotApplicable)
	}
	s.observe("ok")
	return Result{Code: model.Code, Discount: Discount(rule, cartTotal)}, nil
}

func (s *Service) outcome(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		s.observe("not_found")
	case errors.Is(err, ErrNotActive):
		s.observe("not_active")
	case errors.Is(err, ErrNotYetValid):
		s.observe("not_yet_valid")
	case errors.Is(err, ErrExpired):
		s.observe("expired")
	case errors.Is(err, ErrBelowMinOrder):
		s.observe("below_min_order")
	case errors.Is(err, ErrNotApplicable):
		s.observe("not_applicable")
	}
	return err
}

func (s *Service) observe(result string) {
	if obs.CouponValidateTotal != nil {
		obs.CouponValidateTotal.WithLabelValues(result).Inc()
	}
}

// ScopeInput describes a requested coupon scope entry.
type ScopeInput struct {
	ProductID  *string `json:"productId"`
	VariantID  *string `json:"variantId"`
	CategoryID *string `json:"categoryId"`
}

// CreateParams carries the attributes of a new coupon.
type CreateParams struct {
	Code          string
	Description   *string
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   *int64
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	IsActive      bool
	Scopes        []ScopeInput
}

// Create persists a coupon together with its scopes in one transaction.
// A scope naming only a variant has its product derived from the variant row.
func (s *Service) Create(ctx context.Context, params CreateParams) (Coupon, error) {
	if s == nil || s.Tx == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	params.Code = NormalizeCode(params.Code)
	if params.Code == "" {
		return Coupon{}, fmt.Errorf("code is required: %w", ErrInvalidInput)
	}
	if params.DiscountType != TypePercentage && params.DiscountType != TypeFixed {
		return Coupon{}, fmt.Errorf("invalid discount type %q: %w", params.DiscountType, ErrInvalidInput)
	}
	var created Coupon
	err := s.Tx(ctx, func(q Querier) error {
		model, err := q.CreateCoupon(ctx, db.CreateCouponParams{
			Code:          params.Code,
			Description:   nullableText(params.Description),
			DiscountType:  params.DiscountType,
			DiscountValue: params.DiscountValue,
			MinOrderValue: params.MinOrderValue,
			MaxDiscount:   nullableInt8(params.MaxDiscount),
			ValidFrom:     nullableTime(params.ValidFrom),
			ValidUntil:    nullableTime(params.ValidUntil),
			IsActive:      params.IsActive,
		})
		if err != nil {
			return mapUniqueViolation(err)
		}
		scopes, err := s.createScopes(ctx, q, model.ID, params.Scopes)
		if err != nil {
			return err
		}
		created = CouponFromModel(model, scopes)
		return nil
	})
	if err != nil {
		return Coupon{}, err
	}
	return created, nil
}

// UpdateParams carries the mutable attributes of an existing coupon. The code
// itself is immutable once created.
type UpdateParams struct {
	ID            string
	Description   *string
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   *int64
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	IsActive      bool
	Scopes        []ScopeInput
}

// Update replaces a coupon's attributes and its scope list atomically.
func (s *Service) Update(ctx context.Context, params UpdateParams) (Coupon, error) {
	if s == nil || s.Tx == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	id, err := parseUUID(params.ID)
	if err != nil {
		return Coupon{}, fmt.Errorf("invalid coupon id %q: %w", params.ID, ErrInvalidInput)
	}
	if params.DiscountType != TypePercentage && params.DiscountType != TypeFixed {
		return Coupon{}, fmt.Errorf("invalid discount type %q: %w", params.DiscountType, ErrInvalidInput)
	}
	var updated Coupon
	err = s.Tx(ctx, func(q Querier) error {
		model, err := q.UpdateCoupon(ctx, db.UpdateCouponParams{
			ID:            id,
			Description:   nullableText(params.Description),
			DiscountType:  params.DiscountType,
			DiscountValue: params.DiscountValue,
			MinOrderValue: params.MinOrderValue,
			MaxDiscount:   nullableInt8(params.MaxDiscount),
			ValidFrom:     nullableTime(params.ValidFrom),
			ValidUntil:    nullableTime(params.ValidUntil),
			IsActive:      params.IsActive,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := q.DeleteCouponScopes(ctx, model.ID); err != nil {
			return err
		}
		scopes, err := s.createScopes(ctx, q, model.ID, params.Scopes)
		if err != nil {
			return err
		}
		updated = CouponFromModel(model, scopes)
		return nil
	})
	if err != nil {
		return Coupon{}, err
	}
	return updated, nil
}

// Delete removes a coupon; scope rows cascade.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Q == nil {
		return errors.New("coupon service not configured")
	}
	parsed, err := parseUUID(id)
	if err != nil {
		return fmt.Errorf("invalid coupon id %q: %w", id, ErrInvalidInput)
	}
	affected, err := s.Q.DeleteCoupon(ctx, parsed)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a coupon with its scopes by identifier.
func (s *Service) Get(ctx context.Context, id string) (Coupon, error) {
	if s == nil || s.Q == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	parsed, err := parseUUID(id)
	if err != nil {
		return Coupon{}, fmt.Errorf("invalid coupon id %q: %w", id, ErrInvalidInput)
	}
	model, err := s.Q.GetCoupon(ctx, parsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, err
	}
	scopes, err := s.Q.ListCouponScopes(ctx, model.ID)
	if err != nil {
		return Coupon{}, err
	}
	return CouponFromModel(model, scopes), nil
}

// List returns a page of coupons and the total count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Coupon, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("coupon service not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	models, err := s.Q.ListCoupons(ctx, db.ListCouponsParams{
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountCoupons(ctx)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Coupon, 0, len(models))
	for _, m := range models {
		scopes, err := s.Q.ListCouponScopes(ctx, m.ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, CouponFromModel(m, scopes))
	}
	return out, total, nil
}

// SweepExpired deactivates coupons whose validity window has closed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	if s == nil || s.Q == nil {
		return 0, errors.New("coupon service not configured")
	}
	return s.Q.DeactivateExpiredCoupons(ctx, pgtype.Timestamptz{Time: s.now(), Valid: true})
}

func (s *Service) createScopes(ctx context.Context, q Querier, couponID pgtype.UUID, inputs []ScopeInput) ([]db.CouponScope, error) {
	scopes := make([]db.CouponScope, 0, len(inputs))
	for _, in := range inputs {
		params := db.CreateCouponScopeParams{CouponID: couponID}
		if in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) != "" {
			id, err := parseUUID(*in.CategoryID)
			if err != nil {
				return nil, fmt.Errorf("invalid category id: %w", ErrInvalidInput)
			}
			params.CategoryID = id
		}
		if in.VariantID != nil && strings.TrimSpace(*in.VariantID) != "" {
			variantID, err := parseUUID(*in.VariantID)
			if err != nil {
				return nil, fmt.Errorf("invalid variant id: %w", ErrInvalidInput)
			}
			variant, err := q.GetVariant(ctx, variantID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("variant %s not found: %w", *in.VariantID, ErrInvalidInput)
				}
				return nil, err
			}
			if in.ProductID != nil && strings.TrimSpace(*in.ProductID) != "" {
				productID, err := parseUUID(*in.ProductID)
				if err != nil {
					return nil, fmt.Errorf("invalid product id: %w", ErrInvalidInput)
				}
				if productID != variant.ProductID {
					return nil, fmt.Errorf("variant %s does not belong to product %s: %w", *in.VariantID, *in.ProductID, ErrInvalidInput)
				}
			}
			params.VariantID = variantID
			params.ProductID = variant.ProductID
		} else if in.ProductID != nil && strings.TrimSpace(*in.ProductID) != "" {
			productID, err := parseUUID(*in.ProductID)
			if err != nil {
				return nil, fmt.Errorf("invalid product id: %w", ErrInvalidInput)
			}
			params.ProductID = productID
		}
		if !params.ProductID.Valid && !params.VariantID.Valid && !params.CategoryID.Valid {
			return nil, fmt.Errorf("scope must name a product, variant or category: %w", ErrInvalidInput)
		}
		scope, err := q.CreateCouponScope(ctx, params)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

// NormalizeCode trims and uppercases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nullableText(v *string) pgtype.Text {
	if v == nil || strings.TrimSpace(*v) == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: strings.TrimSpace(*v), Valid: true}
}

func nullableInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func nullableTime(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrCodeExists
	}
	return err
}

// RuleFromModel converts a database row into the rule used for evaluation.
func RuleFromModel(c db.Coupon) Rule {
	rule := Rule{
		Code:          c.Code,
		Type:          c.DiscountType,
		Value:         c.DiscountValue,
		MinOrderValue: c.MinOrderValue,
		IsActive:      c.IsActive,
	}
	if c.MaxDiscount.Valid {
		v := c.MaxDiscount.Int64
		rule.MaxDiscount = &v
	}
	if c.ValidFrom.Valid {
		rule.ValidFrom = &c.ValidFrom.Time
	}
	if c.ValidUntil.Valid {
		rule.ValidUntil = &c.ValidUntil.Time
	}
	return rule
}

// ScopesFromModels converts scope rows into engine scopes.
func ScopesFromModels(models []db.CouponScope) []Scope {
	if len(models) == 0 {
		return nil
	}
	out := make([]Scope, 0, len(models))
	for _, m := range models {
		var s Scope
		if m.ProductID.Valid {
			id := uuid.UUID(m.ProductID.Bytes)
			s.ProductID = &id
		}
		if m.VariantID.Valid {
			id := uuid.UUID(m.VariantID.Bytes)
			s.VariantID = &id
		}
		if m.CategoryID.Valid {
			id := uuid.UUID(m.CategoryID.Bytes)
			s.CategoryID = &id
		}
		out = append(out, s)
	}
	return out
}

// Coupon is the API representation of a coupon with its scopes.
type Coupon struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	Description   *string       `json:"description,omitempty"`
	DiscountType  string        `json:"discountType"`
	DiscountValue int64         `json:"discountValue"`
	MinOrderValue int64         `json:"minOrderValue"`
	MaxDiscount   *int64        `json:"maxDiscount,omitempty"`
	ValidFrom     *time.Time    `json:"validFrom,omitempty"`
	ValidUntil    *time.Time    `json:"validUntil,omitempty"`
	IsActive      bool          `json:"isActive"`
	Scopes        []CouponScope `json:"scopes"`
}

// CouponScope is the API representation of a scope row.
type CouponScope struct {
	ID         string  `json:"id"`
	ProductID  *string `json:"productId,omitempty"`
	VariantID  *string `json:"variantId,omitempty"`
	CategoryID *string `json:"categoryId,omitempty"`
}

// CouponFromModel converts database rows into the API representation.
func CouponFromModel(c db.Coupon, scopes []db.CouponScope) Coupon {
	out := Coupon{
		ID:            uuidString(c.ID),
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		MinOrderValue: c.MinOrderValue,
		IsActive:      c.IsActive,
		Scopes:        make([]CouponScope, 0, len(scopes)),
	}
	if c.Description.Valid {
		v := c.Description.String
		out.Description = &v
	}
	if c.MaxDiscount.Valid {
		v := c.MaxDiscount.Int64
		out.MaxDiscount = &v
	}
	if c.ValidFrom.Valid {
		t := c.ValidFrom.Time
		out.ValidFrom = &t
	}
	if c.ValidUntil.Valid {
		t := c.ValidUntil.Time
		out.ValidUntil = &t
	}
	for _, s := range scopes {
		scope := CouponScope{ID: uuidString(s.ID)}
		if s.ProductID.Valid {
			v := uuidString(s.ProductID)
			scope.ProductID = &v
		}
		if s.VariantID.Valid {
			v := uuidString(s.VariantID)
			scope.VariantID = &v
		}
		if s.CategoryID.Valid {
			v := uuidString(s.CategoryID)
			scope.CategoryID = &v
		}
		out.Scopes = append(out.Scopes, scope)
	}
	return out
}

func parseUUID(value string) (pgtype.UUID, error) {
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
