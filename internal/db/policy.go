package db

import "context"

type UpsertPolicyParams struct {
	Kind    string
	Content string
}

const upsertPolicy = `
INSERT INTO policies (kind, content)
VALUES ($1, $2)
ON CONFLICT (kind) DO UPDATE SET content = EXCLUDED.content, updated_at = now()
RETURNING id, kind, content, updated_at
`

func (q *Queries) UpsertPolicy(ctx context.Context, arg UpsertPolicyParams) (Policy, error) {
	row := q.db.QueryRow(ctx, upsertPolicy, arg.Kind, arg.Content)
	var p Policy
	err := row.Scan(&p.ID, &p.Kind, &p.Content, &p.UpdatedAt)
	return p, err
}

const getPolicy = `
SELECT id, kind, content, updated_at
FROM policies
WHERE kind = $1
`

func (q *Queries) GetPolicy(ctx context.Context, kind string) (Policy, error) {
	row := q.db.QueryRow(ctx, getPolicy, kind)
	var p Policy
	err := row.Scan(&p.ID, &p.Kind, &p.Content, &p.UpdatedAt)
	return p, err
}
