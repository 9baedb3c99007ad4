package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/cart"
	"github.com/vastra-group/storefront-api/internal/db"
)

// ErrNotFound indicates the wishlist entry could not be located.
var ErrNotFound = errors.New("wishlist item not found")

// ErrAlreadyExists is returned when the product is already wishlisted.
var ErrAlreadyExists = errors.New("item already in wishlist")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier captures the database methods required by the wishlist service.
type Querier interface {
	GetProduct(ctx context.Context, id pgtype.UUID) (db.Product, error)
	GetVariant(ctx context.Context, id pgtype.UUID) (db.ProductVariant, error)
	InsertWishlistItem(ctx context.Context, arg db.InsertWishlistItemParams) (db.WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, arg db.DeleteWishlistItemParams) (int64, error)
	ListWishlistItems(ctx context.Context, userID pgtype.UUID) ([]db.WishlistItemDetail, error)
	CountWishlistItems(ctx context.Context, userID pgtype.UUID) (int64, error)
	ClearWishlist(ctx context.Context, userID pgtype.UUID) (int64, error)
	WishlistItemExists(ctx context.Context, arg db.WishlistItemExistsParams) (bool, error)
}

// Service encapsulates wishlist operations.
type Service struct {
	Q Querier
}

// Add saves a product (or variant) to the user's wishlist. The unique index
// on (user, product, variant) turns duplicate adds into ErrAlreadyExists.
func (s *Service) Add(ctx context.Context, userID, productID string, variantID *string) (db.WishlistItem, error) {
	if s == nil || s.Q == nil {
		return db.WishlistItem{}, errors.New("wishlist service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return db.WishlistItem{}, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	pid, err := toUUID(productID)
	if err != nil {
		return db.WishlistItem{}, fmt.Errorf("invalid product id: %w", ErrInvalidInput)
	}
	product, err := s.Q.GetProduct(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.WishlistItem{}, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return db.WishlistItem{}, err
	}
	vid := pgtype.UUID{}
	if variantID != nil && strings.TrimSpace(*variantID) != "" {
		vid, err = toUUID(*variantID)
		if err != nil {
			return db.WishlistItem{}, fmt.Errorf("invalid variant id: %w", ErrInvalidInput)
		}
		variant, err := s.Q.GetVariant(ctx, vid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return db.WishlistItem{}, fmt.Errorf("variant not found: %w", ErrNotFound)
			}
			return db.WishlistItem{}, err
		}
		if variant.ProductID != product.ID {
			return db.WishlistItem{}, fmt.Errorf("variant does not belong to product: %w", ErrInvalidInput)
		}
	}
	item, err := s.Q.InsertWishlistItem(ctx, db.InsertWishlistItemParams{UserID: uid, ProductID: pid, VariantID: vid})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return db.WishlistItem{}, ErrAlreadyExists
		}
		return db.WishlistItem{}, err
	}
	return item, nil
}

// Remove deletes a wishlist entry.
func (s *Service) Remove(ctx context.Context, userID, productID string, variantID *string) error {
	if s == nil || s.Q == nil {
		return errors.New("wishlist service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	pid, err := toUUID(productID)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", ErrInvalidInput)
	}
	vid := pgtype.UUID{}
	if variantID != nil && strings.TrimSpace(*variantID) != "" {
		vid, err = toUUID(*variantID)
		if err != nil {
			return fmt.Errorf("invalid variant id: %w", ErrInvalidInput)
		}
	}
	affected, err := s.Q.DeleteWishlistItem(ctx, db.DeleteWishlistItemParams{UserID: uid, ProductID: pid, VariantID: vid})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Item is a wishlist entry projected for API responses.
type Item struct {
	ID        string              `json:"id"`
	ProductID string              `json:"productId"`
	VariantID *string             `json:"variantId,omitempty"`
	Display   cart.DisplayDetails `json:"display"`
}

// List returns the user's wishlist with display details.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("wishlist service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	details, err := s.Q.ListWishlistItems(ctx, uid)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(details))
	for _, d := range details {
		item := Item{
			ID:        uuidString(d.Item.ID),
			ProductID: uuidString(d.Item.ProductID),
			Display:   cart.Display(d.Product, d.Variant),
		}
		if d.Item.VariantID.Valid {
			v := uuidString(d.Item.VariantID)
			item.VariantID = &v
		}
		items = append(items, item)
	}
	return items, nil
}

// Clear removes every wishlist entry for the user.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if s == nil || s.Q == nil {
		return errors.New("wishlist service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	_, err = s.Q.ClearWishlist(ctx, uid)
	return err
}

// Contains reports whether the product (or exact variant) is wishlisted.
func (s *Service) Contains(ctx context.Context, userID, productID string, variantID *string) (bool, error) {
	if s == nil || s.Q == nil {
		return false, errors.New("wishlist service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	pid, err := toUUID(productID)
	if err != nil {
		return false, fmt.Errorf("invalid product id: %w", ErrInvalidInput)
	}
	vid := pgtype.UUID{}
	if variantID != nil && strings.TrimSpace(*variantID) != "" {
		vid, err = toUUID(*variantID)
		if err != nil {
			return false, fmt.Errorf("invalid variant id: %w", ErrInvalidInput)
		}
	}
	return s.Q.WishlistItemExists(ctx, db.WishlistItemExistsParams{UserID: uid, ProductID: pid, VariantID: vid})
}

// Count returns the number of wishlist entries.
func (s *Service) Count(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.Q == nil {
		return 0, errors.New("wishlist service not configured")
	}
	uid, err := toUUID(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	return s.Q.CountWishlistItems(ctx, uid)
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
