package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getProduct = `
SELECT id, title, description, category_id, selling_price, mrp, image_url, is_active, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id pgtype.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CategoryID, &p.SellingPrice, &p.Mrp, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getVariant = `
SELECT id, product_id, name, sku, size, color, selling_price, mrp, image_url, created_at, updated_at
FROM product_variants
WHERE id = $1
`

func (q *Queries) GetVariant(ctx context.Context, id pgtype.UUID) (ProductVariant, error) {
	row := q.db.QueryRow(ctx, getVariant, id)
	var v ProductVariant
	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.Sku, &v.Size, &v.Color, &v.SellingPrice, &v.Mrp, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

const productHasVariants = `
SELECT EXISTS (SELECT 1 FROM product_variants WHERE product_id = $1)
`

func (q *Queries) ProductHasVariants(ctx context.Context, productID pgtype.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, productHasVariants, productID).Scan(&exists)
	return exists, err
}

type SearchProductsParams struct {
	Query      pgtype.Text
	CategoryID pgtype.UUID
	Limit      int32
	Offset     int32
}

const searchProducts = `
SELECT id, title, description, category_id, selling_price, mrp, image_url, is_active, created_at, updated_at
FROM products
WHERE is_active
  AND ($1::text IS NULL OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
  AND ($2::uuid IS NULL OR category_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

func (q *Queries) SearchProducts(ctx context.Context, arg SearchProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, searchProducts, arg.Query, arg.CategoryID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CategoryID, &p.SellingPrice, &p.Mrp, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countSearchProducts = `
SELECT COUNT(*)
FROM products
WHERE is_active
  AND ($1::text IS NULL OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
  AND ($2::uuid IS NULL OR category_id = $2)
`

func (q *Queries) CountSearchProducts(ctx context.Context, query pgtype.Text, categoryID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countSearchProducts, query, categoryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type SearchCategoriesParams struct {
	Query pgtype.Text
	Limit int32
}

const searchCategories = `
SELECT id, name, description, image_url, is_active, created_at, updated_at
FROM categories
WHERE is_active
  AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
ORDER BY name
LIMIT $2
`

func (q *Queries) SearchCategories(ctx context.Context, arg SearchCategoriesParams) ([]Category, error) {
	rows, err := q.db.Query(ctx, searchCategories, arg.Query, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listVariantsByProduct = `
SELECT id, product_id, name, sku, size, color, selling_price, mrp, image_url, created_at, updated_at
FROM product_variants
WHERE product_id = $1
ORDER BY created_at
`

func (q *Queries) ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]ProductVariant, error) {
	rows, err := q.db.Query(ctx, listVariantsByProduct, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductVariant
	for rows.Next() {
		var v ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Sku, &v.Size, &v.Color, &v.SellingPrice, &v.Mrp, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
