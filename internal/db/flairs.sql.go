package db

import (
	"context"
)

const upsertTribe = `
INSERT INTO tribes (name) VALUES (?)
ON CONFLICT (name) DO UPDATE SET name = excluded.name
RETURNING id`

func (q *Queries) UpsertTribe(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertTribe, name).Scan(&id)
	return id, err
}

const upsertTribeFlair = `
INSERT INTO tribe_flairs (tribe_id, namespace, emoji) VALUES (?, ?, ?)
ON CONFLICT (tribe_id, namespace) DO UPDATE SET emoji = excluded.emoji
RETURNING id`

type UpsertTribeFlairParams struct {
	TribeID   int64
	Namespace string
	Emoji     string
}

func (q *Queries) UpsertTribeFlair(ctx context.Context, arg UpsertTribeFlairParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertTribeFlair, arg.TribeID, arg.Namespace, arg.Emoji).Scan(&id)
	return id, err
}

const flairColumns = `f.id, f.tribe_id, t.name, f.namespace, f.emoji`

func scanTribeFlair(row interface{ Scan(...interface{}) error }) (TribeFlair, error) {
	var f TribeFlair
	err := row.Scan(&f.ID, &f.TribeID, &f.TribeName, &f.Namespace, &f.Emoji)
	return f, err
}

const getTribeFlair = `
SELECT ` + flairColumns + `
FROM tribe_flairs f JOIN tribes t ON t.id = f.tribe_id
WHERE f.id = ?`

func (q *Queries) GetTribeFlair(ctx context.Context, id int64) (TribeFlair, error) {
	return scanTribeFlair(q.db.QueryRowContext(ctx, getTribeFlair, id))
}

const getTribeFlairByName = `
SELECT ` + flairColumns + `
FROM tribe_flairs f JOIN tribes t ON t.id = f.tribe_id
WHERE f.namespace = ? AND t.name = ?`

type GetTribeFlairByNameParams struct {
	Namespace string
	Tribe     string
}

func (q *Queries) GetTribeFlairByName(ctx context.Context, arg GetTribeFlairByNameParams) (TribeFlair, error) {
	return scanTribeFlair(q.db.QueryRowContext(ctx, getTribeFlairByName, arg.Namespace, arg.Tribe))
}
