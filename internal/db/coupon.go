package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateCouponParams struct {
	Code          string
	Description   pgtype.Text
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   pgtype.Int8
	ValidFrom     pgtype.Timestamptz
	ValidUntil    pgtype.Timestamptz
	IsActive      bool
}

const createCoupon = `
INSERT INTO coupons (code, description, discount_type, discount_value, min_order_value, max_discount, valid_from, valid_until, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, code, description, discount_type, discount_value, min_order_value, max_discount, valid_from, valid_until, is_active, created_at, updated_at
`

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, createCoupon,
		arg.Code, arg.Description, arg.DiscountType, arg.DiscountValue, arg.MinOrderValue,
		arg.MaxDiscount, arg.ValidFrom, arg.ValidUntil, arg.IsActive)
	return scanCoupon(row)
}

const getCouponByCode = `
SELECT id, code, description, discount_type, discount_value, min_order_value, max_discount, valid_from, valid_until, is_active, created_at, updated_at
FROM coupons
WHERE code = $1
`

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, getCouponByCode, code))
}

const getCoupon = `
SELECT id, code, description, discount_type, discount_value, min_order_value, max_discount, valid_from, valid_until, is_active, created_at, updated_at
FROM coupons
WHERE id = $1
`

func (q *Queries) GetCoupon(ctx context.Context, id pgtype.UUID) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, getCoupon, id))
}

type ListCouponsParams struct {
	Limit  int32
	Offset int32
}

const listCoupons = `
SELECT id, code, description, discount_type, discount_value, min_order_value, max_discount, valid_from, valid_until, is_active, created_at, updated_at
FROM coupons
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

func (q *Queries) ListCoupons(ctx context.Context, arg ListCouponsParams) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCoupons, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCoupons = `
SELECT COUNT(*) FROM coupons
`

func (q *Queries) CountCoupons(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countCoupons).Scan(&count)
	return count, err
}

type UpdateCouponParams struct {
	ID            pgtype.UUID
	Description   pgtype.Text
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   pgtype.Int8
	ValidFrom     pgtype.Timestamptz
	ValidUntil    pgtype.Timestamptz
	IsActive      bool
}

const updateCoupon = `
UPDATE coupons
SET description = $2, discount_type = $3, discount_value = $4, min_order_value = $5,
    max_discount = $6, valid_from = $7, valid_until = $8, is_active = $9, updated_at = now()
WHERE id = $1
RETURNING id, code, description, discount_type, discount_value, min_order_value, max_discount, valid_from, valid_until, is_active, created_at, updated_at
`

func (q *Queries) UpdateCoupon(ctx context.Context, arg UpdateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, updateCoupon,
		arg.ID, arg.Description, arg.DiscountType, arg.DiscountValue, arg.MinOrderValue,
		arg.MaxDiscount, arg.ValidFrom, arg.ValidUntil, arg.IsActive)
	return scanCoupon(row)
}

const deleteCoupon = `
DELETE FROM coupons WHERE id = $1
`

func (q *Queries) DeleteCoupon(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCoupon, id)
	return tag.RowsAffected(), err
}

type CreateCouponScopeParams struct {
	CouponID   pgtype.UUID
	ProductID  pgtype.UUID
	VariantID  pgtype.UUID
	CategoryID pgtype.UUID
}

const createCouponScope = `
INSERT INTO coupon_scopes (coupon_id, product_id, variant_id, category_id)
VALUES ($1, $2, $3, $4)
RETURNING id, coupon_id, product_id, variant_id, category_id
`

func (q *Queries) CreateCouponScope(ctx context.Context, arg CreateCouponScopeParams) (CouponScope, error) {
	row := q.db.QueryRow(ctx, createCouponScope, arg.CouponID, arg.ProductID, arg.VariantID, arg.CategoryID)
	var s CouponScope
	err := row.Scan(&s.ID, &s.CouponID, &s.ProductID, &s.VariantID, &s.CategoryID)
	return s, err
}

const listCouponScopes = `
SELECT id, coupon_id, product_id, variant_id, category_id
FROM coupon_scopes
WHERE coupon_id = $1
`

func (q *Queries) ListCouponScopes(ctx context.Context, couponID pgtype.UUID) ([]CouponScope, error) {
	rows, err := q.db.Query(ctx, listCouponScopes, couponID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CouponScope
	for rows.Next() {
		var s CouponScope
		if err := rows.Scan(&s.ID, &s.CouponID, &s.ProductID, &s.VariantID, &s.CategoryID); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const deleteCouponScopes = `
DELETE FROM coupon_scopes WHERE coupon_id = $1
`

func (q *Queries) DeleteCouponScopes(ctx context.Context, couponID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteCouponScopes, couponID)
	return err
}

const deactivateExpiredCoupons = `
UPDATE coupons
SET is_active = FALSE, updated_at = now()
WHERE is_active AND valid_until IS NOT NULL AND valid_until < $1
`

func (q *Queries) DeactivateExpiredCoupons(ctx context.Context, now pgtype.Timestamptz) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateExpiredCoupons, now)
	return tag.RowsAffected(), err
}

func scanCoupon(row scanner) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.MinOrderValue,
		&c.MaxDiscount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
