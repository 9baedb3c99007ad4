package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vastra-group/storefront-api/internal/db"
)

// Policy kinds served by the storefront.
const (
	KindPrivacy  = "privacy"
	KindRefund   = "refund"
	KindShipping = "shipping"
)

// ErrNotFound indicates no policy content has been published for the kind.
var ErrNotFound = errors.New("policy not found")

// ErrInvalidKind is returned for unsupported policy kinds.
var ErrInvalidKind = errors.New("invalid policy kind")

// ErrEmptyContent is returned when publishing an empty document.
var ErrEmptyContent = errors.New("policy content is required")

// Querier captures the database methods required by the policy service.
type Querier interface {
	GetPolicy(ctx context.Context, kind string) (db.Policy, error)
	UpsertPolicy(ctx context.Context, arg db.UpsertPolicyParams) (db.Policy, error)
}

// Service stores and serves the storefront's legal policy documents.
type Service struct {
	Q Querier
}

// Document is the API representation of a policy.
type Document struct {
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Get returns the published policy for kind.
func (s *Service) Get(ctx context.Context, kind string) (Document, error) {
	if s == nil || s.Q == nil {
		return Document{}, errors.New("policy service not configured")
	}
	normalized, err := normalizeKind(kind)
	if err != nil {
		return Document{}, err
	}
	model, err := s.Q.GetPolicy(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return fromModel(model), nil
}

// Publish creates or replaces the policy content for kind.
func (s *Service) Publish(ctx context.Context, kind, content string) (Document, error) {
	if s == nil || s.Q == nil {
		return Document{}, errors.New("policy service not configured")
	}
	normalized, err := normalizeKind(kind)
	if err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, ErrEmptyContent
	}
	model, err := s.Q.UpsertPolicy(ctx, db.UpsertPolicyParams{Kind: normalized, Content: content})
	if err != nil {
		return Document{}, err
	}
	return fromModel(model), nil
}

func normalizeKind(kind string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(kind))
	switch normalized {
	case KindPrivacy, KindRefund, KindShipping:
		return normalized, nil
	default:
		return "", fmt.Errorf("%q: %w", kind, ErrInvalidKind)
	}
}

func fromModel(p db.Policy) Document {
	return Document{Kind: p.Kind, Content: p.Content, UpdatedAt: p.UpdatedAt.Time}
}
