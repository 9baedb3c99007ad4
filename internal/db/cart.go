package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type GetCartItemParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
}

const getCartItem = `
SELECT id, user_id, product_id, variant_id, quantity, created_at, updated_at
FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
`

func (q *Queries) GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, getCartItem, arg.UserID, arg.ProductID, arg.VariantID)
	var i CartItem
	err := row.Scan(&i.ID, &i.UserID, &i.ProductID, &i.VariantID, &i.Quantity, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type InsertCartItemParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
	Quantity  int32
}

const insertCartItem = `
INSERT INTO cart_items (user_id, product_id, variant_id, quantity)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, product_id, variant_id, quantity, created_at, updated_at
`

func (q *Queries) InsertCartItem(ctx context.Context, arg InsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, insertCartItem, arg.UserID, arg.ProductID, arg.VariantID, arg.Quantity)
	var i CartItem
	err := row.Scan(&i.ID, &i.UserID, &i.ProductID, &i.VariantID, &i.Quantity, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type UpdateCartItemQuantityParams struct {
	ID       pgtype.UUID
	Quantity int32
}

const updateCartItemQuantity = `
UPDATE cart_items
SET quantity = $2, updated_at = now()
WHERE id = $1
RETURNING id, user_id, product_id, variant_id, quantity, created_at, updated_at
`

func (q *Queries) UpdateCartItemQuantity(ctx context.Context, arg UpdateCartItemQuantityParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, updateCartItemQuantity, arg.ID, arg.Quantity)
	var i CartItem
	err := row.Scan(&i.ID, &i.UserID, &i.ProductID, &i.VariantID, &i.Quantity, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type DeleteCartItemParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
`

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCartItem, arg.UserID, arg.ProductID, arg.VariantID)
	return tag.RowsAffected(), err
}

const clearCart = `
DELETE FROM cart_items WHERE user_id = $1
`

func (q *Queries) ClearCart(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearCart, userID)
	return err
}

const countCartItems = `
SELECT COUNT(*) FROM cart_items WHERE user_id = $1
`

func (q *Queries) CountCartItems(ctx context.Context, userID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countCartItems, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// CartItemDetail joins a cart line with its product and optional variant.
type CartItemDetail struct {
	Item    CartItem
	Product Product
	Variant *ProductVariant
}

const listCartItems = `
SELECT ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity, ci.created_at, ci.updated_at,
       p.id, p.title, p.description, p.category_id, p.selling_price, p.mrp, p.image_url, p.is_active, p.created_at, p.updated_at,
       v.id, v.product_id, v.name, v.sku, v.size, v.color, v.selling_price, v.mrp, v.image_url, v.created_at, v.updated_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
LEFT JOIN product_variants v ON v.id = ci.variant_id
WHERE ci.user_id = $1
ORDER BY ci.created_at DESC
`

func (q *Queries) ListCartItems(ctx context.Context, userID pgtype.UUID) ([]CartItemDetail, error) {
	rows, err := q.db.Query(ctx, listCartItems, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItemDetail
	for rows.Next() {
		var d CartItemDetail
		var (
			vID, vProductID    pgtype.UUID
			vName, vSku        pgtype.Text
			vSize, vColor      pgtype.Text
			vSelling, vMrp     pgtype.Int8
			vImage             pgtype.Text
			vCreated, vUpdated pgtype.Timestamptz
		)
		if err := rows.Scan(
			&d.Item.ID, &d.Item.UserID, &d.Item.ProductID, &d.Item.VariantID, &d.Item.Quantity, &d.Item.CreatedAt, &d.Item.UpdatedAt,
			&d.Product.ID, &d.Product.Title, &d.Product.Description, &d.Product.CategoryID, &d.Product.SellingPrice, &d.Product.Mrp, &d.Product.ImageURL, &d.Product.IsActive, &d.Product.CreatedAt, &d.Product.UpdatedAt,
			&vID, &vProductID, &vName, &vSku, &vSize, &vColor, &vSelling, &vMrp, &vImage, &vCreated, &vUpdated,
		); err != nil {
			return nil, err
		}
		if vID.Valid {
			d.Variant = &ProductVariant{
				ID:           vID,
				ProductID:    vProductID,
				Name:         vName.String,
				Sku:          vSku,
				Size:         vSize,
				Color:        vColor,
				SellingPrice: vSelling.Int64,
				Mrp:          vMrp.Int64,
				ImageURL:     vImage,
				CreatedAt:    vCreated,
				UpdatedAt:    vUpdated,
			}
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
