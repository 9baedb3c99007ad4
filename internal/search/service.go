package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/common"
	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/pricing"
)

// ErrInvalidInput is returned when the provided filters are invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier captures the database methods required by the search service.
type Querier interface {
	SearchProducts(ctx context.Context, arg db.SearchProductsParams) ([]db.Product, error)
	CountSearchProducts(ctx context.Context, query pgtype.Text, categoryID pgtype.UUID) (int64, error)
	SearchCategories(ctx context.Context, arg db.SearchCategoriesParams) ([]db.Category, error)
}

// Matching categories are capped; they are a navigation aid, not a page.
const categoryLimit = 10

// Service runs catalog searches with a read-through Redis cache.
type Service struct {
	Q            Querier
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// Params captures search filters.
type Params struct {
	Query      string
	CategoryID string
	Page       int
	Limit      int
}

// Product is the public search projection of a catalog row.
type Product struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	CategoryID  *string       `json:"categoryId,omitempty"`
	Price       pricing.Money `json:"price"`
	Mrp         pricing.Money `json:"mrp"`
	Image       *string       `json:"image,omitempty"`
}

// SearchCategory is the public search projection of a category row.
type SearchCategory struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// Result is a page of search hits. Categories only accompany term queries.
type Result struct {
	Products   []Product         `json:"products"`
	Categories []SearchCategory  `json:"categories,omitempty"`
	Pagination common.Pagination `json:"pagination"`
}

// Search executes the query. The unfiltered first page at the default limit
// is the hot path hit by the storefront landing page, so only that page is
// cached.
func (s *Service) Search(ctx context.Context, params Params) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("search service not configured")
	}
	limit := params.Limit
	if limit < 1 {
		limit = s.defaultLimit()
	}
	if max := s.maxLimit(); limit > max {
		limit = max
	}
	page := params.Page
	if page < 1 {
		page = 1
	}

	query := pgtype.Text{}
	if trimmed := strings.TrimSpace(params.Query); trimmed != "" {
		query = pgtype.Text{String: trimmed, Valid: true}
	}
	categoryID := pgtype.UUID{}
	if trimmed := strings.TrimSpace(params.CategoryID); trimmed != "" {
		parsed, err := uuid.Parse(trimmed)
		if err != nil {
			return Result{}, fmt.Errorf("invalid category id: %w", ErrInvalidInput)
		}
		categoryID = pgtype.UUID{Bytes: parsed, Valid: true}
	}

	cacheable := page == 1 && limit == s.defaultLimit()
	key := ""
	if cacheable {
		key = cacheKey(query.String, params.CategoryID, limit)
		var cached Result
		if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	rows, err := s.Q.SearchProducts(ctx, db.SearchProductsParams{
		Query:      query,
		CategoryID: categoryID,
		Limit:      int32(limit),
		Offset:     int32((page - 1) * limit),
	})
	if err != nil {
		return Result{}, err
	}
	total, err := s.Q.CountSearchProducts(ctx, query, categoryID)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Products:   make([]Product, 0, len(rows)),
		Pagination: common.NewPagination(page, limit, int(total)),
	}
	for _, row := range rows {
		result.Products = append(result.Products, fromModel(row))
	}
	if query.Valid {
		cats, err := s.Q.SearchCategories(ctx, db.SearchCategoriesParams{Query: query, Limit: categoryLimit})
		if err != nil {
			return Result{}, err
		}
		for _, c := range cats {
			result.Categories = append(result.Categories, categoryFromModel(c))
		}
	}
	if cacheable {
		_ = s.Cache.SetJSON(ctx, key, result)
	}
	return result, nil
}

func (s *Service) defaultLimit() int {
	if s != nil && s.DefaultLimit > 0 {
		return s.DefaultLimit
	}
	return 20
}

func (s *Service) maxLimit() int {
	if s != nil && s.MaxLimit > 0 {
		return s.MaxLimit
	}
	return 100
}

func cacheKey(query, categoryID string, limit int) string {
	raw := fmt.Sprintf("%s|%s|%d", strings.ToLower(query), categoryID, limit)
	return "search:" + common.Sha256Hex(raw)
}

func categoryFromModel(c db.Category) SearchCategory {
	out := SearchCategory{
		ID:   uuid.UUID(c.ID.Bytes).String(),
		Name: c.Name,
	}
	if c.Description.Valid {
		v := c.Description.String
		out.Description = &v
	}
	if c.ImageURL.Valid {
		v := c.ImageURL.String
		out.Image = &v
	}
	return out
}

func fromModel(p db.Product) Product {
	out := Product{
		ID:    uuid.UUID(p.ID.Bytes).String(),
		Title: p.Title,
		Price: pricing.FirstPrice(p.SellingPrice, p.Mrp),
		Mrp:   p.Mrp,
	}
	if p.Description.Valid {
		v := p.Description.String
		out.Description = &v
	}
	if p.CategoryID.Valid {
		v := uuid.UUID(p.CategoryID.Bytes).String()
		out.CategoryID = &v
	}
	if p.ImageURL.Valid {
		v := p.ImageURL.String
		out.Image = &v
	}
	return out
}
