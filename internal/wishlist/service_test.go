package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/db"
)

type stubQueries struct {
	products  map[[16]byte]db.Product
	insertErr error
	deleted   int64
	cleared   bool
	exists    bool
}

func (s *stubQueries) GetProduct(ctx context.Context, id pgtype.UUID) (db.Product, error) {
	if p, ok := s.products[id.Bytes]; ok {
		return p, nil
	}
	return db.Product{}, pgx.ErrNoRows
}

func (s *stubQueries) GetVariant(ctx context.Context, id pgtype.UUID) (db.ProductVariant, error) {
	return db.ProductVariant{}, pgx.ErrNoRows
}

func (s *stubQueries) InsertWishlistItem(ctx context.Context, arg db.InsertWishlistItemParams) (db.WishlistItem, error) {
	if s.insertErr != nil {
		return db.WishlistItem{}, s.insertErr
	}
	return db.WishlistItem{ID: uuidToPg(uuid.New()), UserID: arg.UserID, ProductID: arg.ProductID, VariantID: arg.VariantID}, nil
}

func (s *stubQueries) DeleteWishlistItem(ctx context.Context, arg db.DeleteWishlistItemParams) (int64, error) {
	return s.deleted, nil
}

func (s *stubQueries) ListWishlistItems(ctx context.Context, userID pgtype.UUID) ([]db.WishlistItemDetail, error) {
	return nil, nil
}

func (s *stubQueries) CountWishlistItems(ctx context.Context, userID pgtype.UUID) (int64, error) {
	return 0, nil
}

func (s *stubQueries) ClearWishlist(ctx context.Context, userID pgtype.UUID) (int64, error) {
	s.cleared = true
	return s.deleted, nil
}

func (s *stubQueries) WishlistItemExists(ctx context.Context, arg db.WishlistItemExistsParams) (bool, error) {
	return s.exists, nil
}

func TestAddDuplicate(t *testing.T) {
	product := db.Product{ID: uuidToPg(uuid.New())}
	q := &stubQueries{
		products:  map[[16]byte]db.Product{product.ID.Bytes: product},
		insertErr: &pgconn.PgError{Code: "23505"},
	}
	svc := &Service{Q: q}
	_, err := svc.Add(context.Background(), uuid.New().String(), uuid.UUID(product.ID.Bytes).String(), nil)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddUnknownProduct(t *testing.T) {
	svc := &Service{Q: &stubQueries{}}
	_, err := svc.Add(context.Background(), uuid.New().String(), uuid.New().String(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveMissing(t *testing.T) {
	svc := &Service{Q: &stubQueries{deleted: 0}}
	err := svc.Remove(context.Background(), uuid.New().String(), uuid.New().String(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	q := &stubQueries{}
	svc := &Service{Q: q}
	if err := svc.Clear(context.Background(), uuid.New().String()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !q.cleared {
		t.Fatal("expected clear to hit the store")
	}
}

func TestContains(t *testing.T) {
	svc := &Service{Q: &stubQueries{exists: true}}
	found, err := svc.Contains(context.Background(), uuid.New().String(), uuid.New().String(), nil)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !found {
		t.Fatal("expected item to be reported present")
	}
}

func uuidToPg(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
