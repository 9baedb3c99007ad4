package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePincodeParams struct {
	Pincode string
	City    pgtype.Text
	State   pgtype.Text
}

const createPincode = `
INSERT INTO pincodes (pincode, city, state)
VALUES ($1, $2, $3)
RETURNING id, pincode, city, state, deleted_at, created_at, updated_at
`

func (q *Queries) CreatePincode(ctx context.Context, arg CreatePincodeParams) (Pincode, error) {
	return scanPincode(q.db.QueryRow(ctx, createPincode, arg.Pincode, arg.City, arg.State))
}

const getPincode = `
SELECT id, pincode, city, state, deleted_at, created_at, updated_at
FROM pincodes
WHERE id = $1
`

func (q *Queries) GetPincode(ctx context.Context, id pgtype.UUID) (Pincode, error) {
	return scanPincode(q.db.QueryRow(ctx, getPincode, id))
}

const getPincodeByValue = `
SELECT id, pincode, city, state, deleted_at, created_at, updated_at
FROM pincodes
WHERE pincode = $1 AND deleted_at IS NULL
`

func (q *Queries) GetPincodeByValue(ctx context.Context, pincode string) (Pincode, error) {
	return scanPincode(q.db.QueryRow(ctx, getPincodeByValue, pincode))
}

type ListPincodesParams struct {
	IncludeDeleted bool
	Limit          int32
	Offset         int32
}

const listPincodes = `
SELECT id, pincode, city, state, deleted_at, created_at, updated_at
FROM pincodes
WHERE $1::boolean OR deleted_at IS NULL
ORDER BY pincode
LIMIT $2 OFFSET $3
`

func (q *Queries) ListPincodes(ctx context.Context, arg ListPincodesParams) ([]Pincode, error) {
	rows, err := q.db.Query(ctx, listPincodes, arg.IncludeDeleted, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pincode
	for rows.Next() {
		p, err := scanPincode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countPincodes = `
SELECT COUNT(*) FROM pincodes WHERE $1::boolean OR deleted_at IS NULL
`

func (q *Queries) CountPincodes(ctx context.Context, includeDeleted bool) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPincodes, includeDeleted).Scan(&count)
	return count, err
}

type UpdatePincodeParams struct {
	ID    pgtype.UUID
	City  pgtype.Text
	State pgtype.Text
}

const updatePincode = `
UPDATE pincodes
SET city = $2, state = $3, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, pincode, city, state, deleted_at, created_at, updated_at
`

func (q *Queries) UpdatePincode(ctx context.Context, arg UpdatePincodeParams) (Pincode, error) {
	return scanPincode(q.db.QueryRow(ctx, updatePincode, arg.ID, arg.City, arg.State))
}

const softDeletePincode = `
UPDATE pincodes
SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) SoftDeletePincode(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, softDeletePincode, id)
	return tag.RowsAffected(), err
}

const restorePincode = `
UPDATE pincodes
SET deleted_at = NULL, updated_at = now()
WHERE id = $1 AND deleted_at IS NOT NULL
`

func (q *Queries) RestorePincode(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, restorePincode, id)
	return tag.RowsAffected(), err
}

func scanPincode(row scanner) (Pincode, error) {
	var p Pincode
	err := row.Scan(&p.ID, &p.Pincode, &p.City, &p.State, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
