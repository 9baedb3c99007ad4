package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type InsertWishlistItemParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
}

const insertWishlistItem = `
INSERT INTO wishlist_items (user_id, product_id, variant_id)
VALUES ($1, $2, $3)
RETURNING id, user_id, product_id, variant_id, created_at
`

func (q *Queries) InsertWishlistItem(ctx context.Context, arg InsertWishlistItemParams) (WishlistItem, error) {
	row := q.db.QueryRow(ctx, insertWishlistItem, arg.UserID, arg.ProductID, arg.VariantID)
	var i WishlistItem
	err := row.Scan(&i.ID, &i.UserID, &i.ProductID, &i.VariantID, &i.CreatedAt)
	return i, err
}

type DeleteWishlistItemParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
}

const deleteWishlistItem = `
DELETE FROM wishlist_items
WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
`

func (q *Queries) DeleteWishlistItem(ctx context.Context, arg DeleteWishlistItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteWishlistItem, arg.UserID, arg.ProductID, arg.VariantID)
	return tag.RowsAffected(), err
}

const clearWishlist = `
DELETE FROM wishlist_items WHERE user_id = $1
`

func (q *Queries) ClearWishlist(ctx context.Context, userID pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, clearWishlist, userID)
	return tag.RowsAffected(), err
}

type WishlistItemExistsParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
}

const wishlistItemExists = `
SELECT EXISTS (
    SELECT 1 FROM wishlist_items
    WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
)
`

func (q *Queries) WishlistItemExists(ctx context.Context, arg WishlistItemExistsParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, wishlistItemExists, arg.UserID, arg.ProductID, arg.VariantID).Scan(&exists)
	return exists, err
}

const countWishlistItems = `
SELECT COUNT(*) FROM wishlist_items WHERE user_id = $1
`

func (q *Queries) CountWishlistItems(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countWishlistItems, userID).Scan(&count)
	return count, err
}

// WishlistItemDetail joins a wishlist entry with its product and optional variant.
type WishlistItemDetail struct {
	Item    WishlistItem
	Product Product
	Variant *ProductVariant
}

const listWishlistItems = `
SELECT wi.id, wi.user_id, wi.product_id, wi.variant_id, wi.created_at,
       p.id, p.title, p.description, p.category_id, p.selling_price, p.mrp, p.image_url, p.is_active, p.created_at, p.updated_at,
       v.id, v.product_id, v.name, v.sku, v.size, v.color, v.selling_price, v.mrp, v.image_url, v.created_at, v.updated_at
FROM wishlist_items wi
JOIN products p ON p.id = wi.product_id
LEFT JOIN product_variants v ON v.id = wi.variant_id
WHERE wi.user_id = $1
ORDER BY wi.created_at DESC
`

func (q *Queries) ListWishlistItems(ctx context.Context, userID pgtype.UUID) ([]WishlistItemDetail, error) {
	rows, err := q.db.Query(ctx, listWishlistItems, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WishlistItemDetail
	for rows.Next() {
		var d WishlistItemDetail
		var (
			vID, vProductID    pgtype.UUID
			vName, vSku        pgtype.Text
			vSize, vColor      pgtype.Text
			vSelling, vMrp     pgtype.Int8
			vImage             pgtype.Text
			vCreated, vUpdated pgtype.Timestamptz
		)
		if err := rows.Scan(
			&d.Item.ID, &d.Item.UserID, &d.Item.ProductID, &d.Item.VariantID, &d.Item.CreatedAt,
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
