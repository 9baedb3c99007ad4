package search

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"

	"github.com/vastra-group/storefront-api/internal/db"
)

type stubQueries struct {
	products   []db.Product
	categories []db.Category
	calls      int
}

func (s *stubQueries) SearchProducts(ctx context.Context, arg db.SearchProductsParams) ([]db.Product, error) {
	s.calls++
	return s.products, nil
}

func (s *stubQueries) CountSearchProducts(ctx context.Context, query pgtype.Text, categoryID pgtype.UUID) (int64, error) {
	return int64(len(s.products)), nil
}

func (s *stubQueries) SearchCategories(ctx context.Context, arg db.SearchCategoriesParams) ([]db.Category, error) {
	return s.categories, nil
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func product(title string) db.Product {
	return db.Product{
		ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Title:        title,
		SellingPrice: 100,
		Mrp:          150,
		IsActive:     true,
	}
}

func TestSearchCachesDefaultFirstPage(t *testing.T) {
	q := &stubQueries{products: []db.Product{product("Tee")}}
	svc := &Service{Q: q, Cache: testCache(t), DefaultLimit: 20}

	first, err := svc.Search(context.Background(), Params{Query: "tee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Products) != 1 {
		t.Fatalf("expected one hit, got %d", len(first.Products))
	}
	second, err := svc.Search(context.Background(), Params{Query: "tee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.calls != 1 {
		t.Fatalf("expected second call served from cache, db calls = %d", q.calls)
	}
	if second.Products[0].Title != "Tee" {
		t.Fatalf("unexpected cached payload: %+v", second.Products)
	}
}

func TestSearchSkipsCacheBeyondFirstPage(t *testing.T) {
	q := &stubQueries{products: []db.Product{product("Tee")}}
	svc := &Service{Q: q, Cache: testCache(t), DefaultLimit: 20}

	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), Params{Query: "tee", Page: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 2 {
		t.Fatalf("expected no caching on page 2, db calls = %d", q.calls)
	}
}

func TestSearchInvalidCategory(t *testing.T) {
	svc := &Service{Q: &stubQueries{}, DefaultLimit: 20}
	_, err := svc.Search(context.Background(), Params{CategoryID: "not-a-uuid"})
	if err == nil {
		t.Fatal("expected error for invalid category id")
	}
}

func TestSearchIncludesMatchingCategories(t *testing.T) {
	q := &stubQueries{
		products: []db.Product{product("Linen Shirt")},
		categories: []db.Category{{
			ID:       pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Name:     "Shirts",
			IsActive: true,
		}},
	}
	svc := &Service{Q: q, Cache: testCache(t), DefaultLimit: 20}
	result, err := svc.Search(context.Background(), Params{Query: "shirt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Categories) != 1 || result.Categories[0].Name != "Shirts" {
		t.Fatalf("expected category hit, got %+v", result.Categories)
	}
}

func TestSearchOmitsCategoriesWithoutTerm(t *testing.T) {
	q := &stubQueries{categories: []db.Category{{Name: "Shirts"}}}
	svc := &Service{Q: q, DefaultLimit: 20, MaxLimit: 50}
	result, err := svc.Search(context.Background(), Params{Limit: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Categories) != 0 {
		t.Fatalf("expected no categories for empty term, got %+v", result.Categories)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	q := &stubQueries{}
	svc := &Service{Q: q, DefaultLimit: 20, MaxLimit: 50}
	result, err := svc.Search(context.Background(), Params{Limit: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Pagination.PerPage != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", result.Pagination.PerPage)
	}
}
