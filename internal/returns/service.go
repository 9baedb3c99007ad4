package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/obs"
)

// Return request lifecycle statuses.
const (
	StatusRequested       = "REQUESTED"
	StatusApproved        = "APPROVED"
	StatusRejected        = "REJECTED"
	StatusPickupScheduled = "PICKUP_SCHEDULED"
	StatusCompleted       = "COMPLETED"
)

var ErrNotFound = errors.New("return record not found")
var ErrReasonInactive = errors.New("return reason is not active")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrInvalidInput = errors.New("invalid input")

// transitions lists the permitted next statuses for each current status.
// REJECTED and COMPLETED are terminal.
var transitions = map[string][]string{
	StatusRequested:       {StatusApproved, StatusRejected},
	StatusApproved:        {StatusPickupScheduled},
	StatusPickupScheduled: {StatusCompleted},
}

// Querier captures the database methods required by the returns service.
type Querier interface {
	CreateReturnReason(ctx context.Context, reason string, isActive bool) (db.ReturnReason, error)
	GetReturnReason(ctx context.Context, id pgtype.UUID) (db.ReturnReason, error)
	ListReturnReasons(ctx context.Context, includeInactive bool) ([]db.ReturnReason, error)
	UpdateReturnReason(ctx context.Context, arg db.UpdateReturnReasonParams) (db.ReturnReason, error)
	DeleteReturnReason(ctx context.Context, id pgtype.UUID) (int64, error)
	CreateReturnRequest(ctx context.Context, arg db.CreateReturnRequestParams) (db.ReturnRequest, error)
	GetReturnRequest(ctx context.Context, id pgtype.UUID) (db.ReturnRequest, error)
	ListReturnRequestsByUser(ctx context.Context, userID pgtype.UUID) ([]db.ReturnRequest, error)
	ListReturnRequests(ctx context.Context, arg db.ListReturnRequestsParams) ([]db.ReturnRequest, error)
	UpdateReturnRequestStatus(ctx context.Context, arg db.UpdateReturnRequestStatusParams) (db.ReturnRequest, error)
}

// PickupScheduler is notified when a return moves into PICKUP_SCHEDULED so a
// courier pickup can be arranged. Scheduling failures do not roll back the
// status change.
type PickupScheduler interface {
	SchedulePickup(ctx context.Context, orderID string) error
}

// Service manages return reasons and the return request lifecycle.
type Service struct {
	Q      Querier
	Pickup PickupScheduler
}

// Reason is the API representation of a return reason.
type Reason struct {
	ID       string `json:"id"`
	Reason   string `json:"reason"`
	IsActive bool   `json:"isActive"`
}

// Request is the API representation of a return request.
type Request struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	OrderID   string    `json:"orderId"`
	ReasonID  string    `json:"reasonId"`
	Status    string    `json:"status"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateReason registers a new return reason.
func (s *Service) CreateReason(ctx context.Context, reason string, isActive bool) (Reason, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Reason{}, fmt.Errorf("reason is required: %w", ErrInvalidInput)
	}
	row, err := s.Q.CreateReturnReason(ctx, reason, isActive)
	if err != nil {
		return Reason{}, fmt.Errorf("create return reason: %w", err)
	}
	return reasonFromModel(row), nil
}

// ListReasons returns return reasons. Inactive reasons are included only when
// requested, so the customer facing list stays clean.
func (s *Service) ListReasons(ctx context.Context, includeInactive bool) ([]Reason, error) {
	rows, err := s.Q.ListReturnReasons(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list return reasons: %w", err)
	}
	out := make([]Reason, 0, len(rows))
	for _, row := range rows {
		out = append(out, reasonFromModel(row))
	}
	return out, nil
}

// UpdateReason updates a reason's text and active flag.
func (s *Service) UpdateReason(ctx context.Context, id, reason string, isActive bool) (Reason, error) {
	rid, err := toUUID(id)
	if err != nil {
		return Reason{}, fmt.Errorf("invalid reason id: %w", ErrInvalidInput)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Reason{}, fmt.Errorf("reason is required: %w", ErrInvalidInput)
	}
	row, err := s.Q.UpdateReturnReason(ctx, db.UpdateReturnReasonParams{ID: rid, Reason: reason, IsActive: isActive})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reason{}, ErrNotFound
		}
		return Reason{}, fmt.Errorf("update return reason: %w", err)
	}
	return reasonFromModel(row), nil
}

// DeleteReason removes a return reason.
func (s *Service) DeleteReason(ctx context.Context, id string) error {
	rid, err := toUUID(id)
	if err != nil {
		return fmt.Errorf("invalid reason id: %w", ErrInvalidInput)
	}
	affected, err := s.Q.DeleteReturnReason(ctx, rid)
	if err != nil {
		return fmt.Errorf("delete return reason: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InitiateParams describe a new return request.
type InitiateParams struct {
	OrderID  string
	ReasonID string
	Comment  *string
}

// Initiate opens a return request in REQUESTED status. The chosen reason must
// exist and be active.
func (s *Service) Initiate(ctx context.Context, userID string, params InitiateParams) (Request, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return Request{}, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(params.OrderID) == "" {
		return Request{}, fmt.Errorf("order id is required: %w", ErrInvalidInput)
	}
	rid, err := toUUID(params.ReasonID)
	if err != nil {
		return Request{}, fmt.Errorf("invalid reason id: %w", ErrInvalidInput)
	}
	reason, err := s.Q.GetReturnReason(ctx, rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, fmt.Errorf("return reason: %w", ErrNotFound)
		}
		return Request{}, fmt.Errorf("load return reason: %w", err)
	}
	if !reason.IsActive {
		return Request{}, ErrReasonInactive
	}
	comment := pgtype.Text{}
	if params.Comment != nil && strings.TrimSpace(*params.Comment) != "" {
		comment = pgtype.Text{String: strings.TrimSpace(*params.Comment), Valid: true}
	}
	row, err := s.Q.CreateReturnRequest(ctx, db.CreateReturnRequestParams{
		UserID:   uid,
		OrderID:  strings.TrimSpace(params.OrderID),
		ReasonID: rid,
		Status:   StatusRequested,
		Comment:  comment,
	})
	if err != nil {
		return Request{}, fmt.Errorf("create return request: %w", err)
	}
	return requestFromModel(row), nil
}

// ListByUser returns the caller's return requests, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	}
	rows, err := s.Q.ListReturnRequestsByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list return requests: %w", err)
	}
	return requestsFromModels(rows), nil
}

// ListAll returns return requests across all users, optionally filtered by
// status.
func (s *Service) ListAll(ctx context.Context, status string, page, perPage int) ([]Request, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	filter := pgtype.Text{}
	if status != "" {
		status = strings.ToUpper(strings.TrimSpace(status))
		if !knownStatus(status) {
			return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidInput)
		}
		filter = pgtype.Text{String: status, Valid: true}
	}
	rows, err := s.Q.ListReturnRequests(ctx, db.ListReturnRequestsParams{
		Status: filter,
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("list return requests: %w", err)
	}
	return requestsFromModels(rows), nil
}

// Get returns one return request. When requesterID is non-empty the request
// must belong to that user.
func (s *Service) Get(ctx context.Context, id, requesterID string) (Request, error) {
	rid, err := toUUID(id)
	if err != nil {
		return Request{}, fmt.Errorf("invalid request id: %w", ErrInvalidInput)
	}
	row, err := s.Q.GetReturnRequest(ctx, rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("load return request: %w", err)
	}
	if requesterID != "" && uuidString(row.UserID) != requesterID {
		return Request{}, ErrNotFound
	}
	return requestFromModel(row), nil
}

// Transition moves a return request to the next status. Only the edges in the
// lifecycle graph are allowed; anything else fails with ErrInvalidTransition.
func (s *Service) Transition(ctx context.Context, id, next string) (Request, error) {
	rid, err := toUUID(id)
	if err != nil {
		return Request{}, fmt.Errorf("invalid request id: %w", ErrInvalidInput)
	}
	next = strings.ToUpper(strings.TrimSpace(next))
	if !knownStatus(next) {
		return Request{}, fmt.Errorf("unknown status %q: %w", next, ErrInvalidInput)
	}
	current, err := s.Q.GetReturnRequest(ctx, rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("load return request: %w", err)
	}
	if !allowedTransition(current.Status, next) {
		return Request{}, fmt.Errorf("%s -> %s: %w", current.Status, next, ErrInvalidTransition)
	}
	row, err := s.Q.UpdateReturnRequestStatus(ctx, db.UpdateReturnRequestStatusParams{ID: rid, Status: next})
	if err != nil {
		return Request{}, fmt.Errorf("update return request status: %w", err)
	}
	if obs.ReturnTransitionTotal != nil {
		obs.ReturnTransitionTotal.WithLabelValues(current.Status, next).Inc()
	}
	if next == StatusPickupScheduled && s.Pickup != nil {
		// Pickup booking is best effort; the return stays scheduled even if
		// the courier call fails and ops retries manually.
		if err := s.Pickup.SchedulePickup(ctx, row.OrderID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("order_id", row.OrderID).
				Str("return_id", uuidString(row.ID)).
				Msg("schedule return pickup")
		}
	}
	return requestFromModel(row), nil
}

func allowedTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func knownStatus(s string) bool {
	switch s {
	case StatusRequested, StatusApproved, StatusRejected, StatusPickupScheduled, StatusCompleted:
		return true
	}
	return false
}

func reasonFromModel(row db.ReturnReason) Reason {
	return Reason{ID: uuidString(row.ID), Reason: row.Reason, IsActive: row.IsActive}
}

func requestFromModel(row db.ReturnRequest) Request {
	req := Request{
		ID:        uuidString(row.ID),
		UserID:    uuidString(row.UserID),
		OrderID:   row.OrderID,
		ReasonID:  uuidString(row.ReasonID),
		Status:    row.Status,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.Comment.Valid {
		c := row.Comment.String
		req.Comment = &c
	}
	return req
}

func requestsFromModels(rows []db.ReturnRequest) []Request {
	out := make([]Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, requestFromModel(row))
	}
	return out
}

func toUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
