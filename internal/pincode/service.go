package pincode

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/db"
)

// ErrNotFound indicates the pincode row could not be located.
var ErrNotFound = errors.New("pincode not found")

// ErrAlreadyExists is returned when creating a pincode that is already registered.
var ErrAlreadyExists = errors.New("pincode already exists")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Querier captures the database methods required by the pincode service.
type Querier interface {
	CreatePincode(ctx context.Context, arg db.CreatePincodeParams) (db.Pincode, error)
	GetPincode(ctx context.Context, id pgtype.UUID) (db.Pincode, error)
	GetPincodeByValue(ctx context.Context, pincode string) (db.Pincode, error)
	ListPincodes(ctx context.Context, arg db.ListPincodesParams) ([]db.Pincode, error)
	CountPincodes(ctx context.Context, includeDeleted bool) (int64, error)
	UpdatePincode(ctx context.Context, arg db.UpdatePincodeParams) (db.Pincode, error)
	SoftDeletePincode(ctx context.Context, id pgtype.UUID) (int64, error)
	RestorePincode(ctx context.Context, id pgtype.UUID) (int64, error)
}

// Service manages the serviceable pincode list.
type Service struct {
	Q Querier
}

// Entry is the API representation of a pincode row.
type Entry struct {
	ID        string     `json:"id"`
	Pincode   string     `json:"pincode"`
	City      *string    `json:"city,omitempty"`
	State     *string    `json:"state,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Create registers a serviceable pincode.
func (s *Service) Create(ctx context.Context, value string, city, state *string) (Entry, error) {
	if s == nil || s.Q == nil {
		return Entry{}, errors.New("pincode service not configured")
	}
	normalized, err := normalize(value)
	if err != nil {
		return Entry{}, err
	}
	row, err := s.Q.CreatePincode(ctx, db.CreatePincodeParams{
		Pincode: normalized,
		City:    nullableText(city),
		State:   nullableText(state),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entry{}, ErrAlreadyExists
		}
		return Entry{}, err
	}
	return fromModel(row), nil
}

// Check reports whether deliveries reach the pincode. Soft-deleted rows are
// not serviceable.
func (s *Service) Check(ctx context.Context, value string) (bool, *Entry, error) {
	if s == nil || s.Q == nil {
		return false, nil, errors.New("pincode service not configured")
	}
	normalized, err := normalize(value)
	if err != nil {
		return false, nil, err
	}
	row, err := s.Q.GetPincodeByValue(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil, nil
		}
		return false, nil, err
	}
	entry := fromModel(row)
	return true, &entry, nil
}

// List returns a page of pincodes, optionally including soft-deleted rows.
func (s *Service) List(ctx context.Context, includeDeleted bool, page, perPage int) ([]Entry, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("pincode service not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	rows, err := s.Q.ListPincodes(ctx, db.ListPincodesParams{
		IncludeDeleted: includeDeleted,
		Limit:          int32(perPage),
		Offset:         int32((page - 1) * perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountPincodes(ctx, includeDeleted)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, total, nil
}

// Update changes the city and state attached to a pincode.
func (s *Service) Update(ctx context.Context, id string, city, state *string) (Entry, error) {
	if s == nil || s.Q == nil {
		return Entry{}, errors.New("pincode service not configured")
	}
	parsed, err := parseID(id)
	if err != nil {
		return Entry{}, err
	}
	row, err := s.Q.UpdatePincode(ctx, db.UpdatePincodeParams{
		ID:    parsed,
		City:  nullableText(city),
		State: nullableText(state),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return fromModel(row), nil
}

// Delete soft-deletes a pincode so it can later be restored.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.mark(ctx, id, func(q Querier, parsed pgtype.UUID) (int64, error) {
		return q.SoftDeletePincode(ctx, parsed)
	})
}

// Restore reactivates a soft-deleted pincode.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.mark(ctx, id, func(q Querier, parsed pgtype.UUID) (int64, error) {
		return q.RestorePincode(ctx, parsed)
	})
}

func (s *Service) mark(ctx context.Context, id string, op func(Querier, pgtype.UUID) (int64, error)) error {
	if s == nil || s.Q == nil {
		return errors.New("pincode service not configured")
	}
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	affected, err := op(s.Q, parsed)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !pincodePattern.MatchString(trimmed) {
		return "", fmt.Errorf("pincode must be six digits: %w", ErrInvalidInput)
	}
	return trimmed, nil
}

func parseID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid pincode id: %w", ErrInvalidInput)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func nullableText(v *string) pgtype.Text {
	if v == nil || strings.TrimSpace(*v) == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: strings.TrimSpace(*v), Valid: true}
}

func fromModel(p db.Pincode) Entry {
	entry := Entry{ID: uuid.UUID(p.ID.Bytes).String(), Pincode: p.Pincode}
	if p.City.Valid {
		v := p.City.String
		entry.City = &v
	}
	if p.State.Valid {
		v := p.State.String
		entry.State = &v
	}
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		entry.DeletedAt = &t
	}
	return entry
}
