package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createReturnReason = `
INSERT INTO return_reasons (reason, is_active)
VALUES ($1, $2)
RETURNING id, reason, is_active, created_at, updated_at
`

func (q *Queries) CreateReturnReason(ctx context.Context, reason string, isActive bool) (ReturnReason, error) {
	return scanReturnReason(q.db.QueryRow(ctx, createReturnReason, reason, isActive))
}

const getReturnReason = `
SELECT id, reason, is_active, created_at, updated_at
FROM return_reasons
WHERE id = $1
`

func (q *Queries) GetReturnReason(ctx context.Context, id pgtype.UUID) (ReturnReason, error) {
	return scanReturnReason(q.db.QueryRow(ctx, getReturnReason, id))
}

const listReturnReasons = `
SELECT id, reason, is_active, created_at, updated_at
FROM return_reasons
WHERE $1::boolean OR is_active
ORDER BY created_at
`

func (q *Queries) ListReturnReasons(ctx context.Context, includeInactive bool) ([]ReturnReason, error) {
	rows, err := q.db.Query(ctx, listReturnReasons, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReturnReason
	for rows.Next() {
		r, err := scanReturnReason(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpdateReturnReasonParams struct {
	ID       pgtype.UUID
	Reason   string
	IsActive bool
}

const updateReturnReason = `
UPDATE return_reasons
SET reason = $2, is_active = $3, updated_at = now()
WHERE id = $1
RETURNING id, reason, is_active, created_at, updated_at
`

func (q *Queries) UpdateReturnReason(ctx context.Context, arg UpdateReturnReasonParams) (ReturnReason, error) {
	return scanReturnReason(q.db.QueryRow(ctx, updateReturnReason, arg.ID, arg.Reason, arg.IsActive))
}

const deleteReturnReason = `
DELETE FROM return_reasons WHERE id = $1
`

func (q *Queries) DeleteReturnReason(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteReturnReason, id)
	return tag.RowsAffected(), err
}

type CreateReturnRequestParams struct {
	UserID   pgtype.UUID
	OrderID  string
	ReasonID pgtype.UUID
	Status   string
	Comment  pgtype.Text
}

const createReturnRequest = `
INSERT INTO return_requests (user_id, order_id, reason_id, status, comment)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, order_id, reason_id, status, comment, created_at, updated_at
`

func (q *Queries) CreateReturnRequest(ctx context.Context, arg CreateReturnRequestParams) (ReturnRequest, error) {
	row := q.db.QueryRow(ctx, createReturnRequest, arg.UserID, arg.OrderID, arg.ReasonID, arg.Status, arg.Comment)
	return scanReturnRequest(row)
}

const getReturnRequest = `
SELECT id, user_id, order_id, reason_id, status, comment, created_at, updated_at
FROM return_requests
WHERE id = $1
`

func (q *Queries) GetReturnRequest(ctx context.Context, id pgtype.UUID) (ReturnRequest, error) {
	return scanReturnRequest(q.db.QueryRow(ctx, getReturnRequest, id))
}

const listReturnRequestsByUser = `
SELECT id, user_id, order_id, reason_id, status, comment, created_at, updated_at
FROM return_requests
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListReturnRequestsByUser(ctx context.Context, userID pgtype.UUID) ([]ReturnRequest, error) {
	rows, err := q.db.Query(ctx, listReturnRequestsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReturnRequests(rows)
}

type ListReturnRequestsParams struct {
	Status pgtype.Text
	Limit  int32
	Offset int32
}

const listReturnRequests = `
SELECT id, user_id, order_id, reason_id, status, comment, created_at, updated_at
FROM return_requests
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListReturnRequests(ctx context.Context, arg ListReturnRequestsParams) ([]ReturnRequest, error) {
	rows, err := q.db.Query(ctx, listReturnRequests, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReturnRequests(rows)
}

type UpdateReturnRequestStatusParams struct {
	ID     pgtype.UUID
	Status string
}

const updateReturnRequestStatus = `
UPDATE return_requests
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, user_id, order_id, reason_id, status, comment, created_at, updated_at
`

func (q *Queries) UpdateReturnRequestStatus(ctx context.Context, arg UpdateReturnRequestStatusParams) (ReturnRequest, error) {
	return scanReturnRequest(q.db.QueryRow(ctx, updateReturnRequestStatus, arg.ID, arg.Status))
}

func scanReturnReason(row scanner) (ReturnReason, error) {
	var r ReturnReason
	err := row.Scan(&r.ID, &r.Reason, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanReturnRequest(row scanner) (ReturnRequest, error) {
	var r ReturnRequest
	err := row.Scan(&r.ID, &r.UserID, &r.OrderID, &r.ReasonID, &r.Status, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func collectReturnRequests(rows pgx.Rows) ([]ReturnRequest, error) {
	var items []ReturnRequest
	for rows.Next() {
		r, err := scanReturnRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
