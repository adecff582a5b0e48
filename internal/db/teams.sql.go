package db

import (
	"context"
)

const teamColumns = `id, namespace, name, rating, emoji, image_url, is_placeholder, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }) (Team, error) {
	var t Team
	err := row.Scan(
		&t.ID,
		&t.Namespace,
		&t.Name,
		&t.Rating,
		&t.Emoji,
		&t.ImageUrl,
		&t.IsPlaceholder,
		&t.CreatedAt,
	)
	return t, err
}

const getTeam = `SELECT ` + teamColumns + ` FROM teams WHERE id = ?`

func (q *Queries) GetTeam(ctx context.Context, id int64) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, getTeam, id))
}

const getTeamByName = `SELECT ` + teamColumns + ` FROM teams WHERE namespace = ? AND name = ?`

type GetTeamByNameParams struct {
	Namespace string
	Name      string
}

func (q *Queries) GetTeamByName(ctx context.Context, arg GetTeamByNameParams) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, getTeamByName, arg.Namespace, arg.Name))
}

const insertTeamIfAbsent = `
INSERT INTO teams (namespace, name, emoji, image_url, is_placeholder)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (name, namespace) DO NOTHING`

type InsertTeamIfAbsentParams struct {
	Namespace     string
	Name          string
	Emoji         string
	ImageUrl      string
	IsPlaceholder bool
}

func (q *Queries) InsertTeamIfAbsent(ctx context.Context, arg InsertTeamIfAbsentParams) error {
	_, err := q.db.ExecContext(ctx, insertTeamIfAbsent,
		arg.Namespace,
		arg.Name,
		arg.Emoji,
		arg.ImageUrl,
		arg.IsPlaceholder,
	)
	return err
}

const upsertTeam = `
INSERT INTO teams (namespace, name, emoji, image_url, is_placeholder)
VALUES (?, ?, ?, ?, 0)
ON CONFLICT (name, namespace) DO UPDATE SET
    emoji = excluded.emoji,
    image_url = excluded.image_url
RETURNING id`

type UpsertTeamParams struct {
	Namespace string
	Name      string
	Emoji     string
	ImageUrl  string
}

func (q *Queries) UpsertTeam(ctx context.Context, arg UpsertTeamParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertTeam,
		arg.Namespace,
		arg.Name,
		arg.Emoji,
		arg.ImageUrl,
	).Scan(&id)
	return id, err
}

const listRealTeams = `
SELECT ` + teamColumns + ` FROM teams
WHERE namespace = ? AND is_placeholder = 0
ORDER BY name`

func (q *Queries) ListRealTeams(ctx context.Context, namespace string) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listRealTeams, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const searchTeams = `
SELECT ` + teamColumns + ` FROM teams
WHERE namespace = ? AND name LIKE ? ESCAPE '\'
ORDER BY name
LIMIT ?`

type SearchTeamsParams struct {
	Namespace string
	Pattern   string
	Limit     int64
}

func (q *Queries) SearchTeams(ctx context.Context, arg SearchTeamsParams) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, searchTeams, arg.Namespace, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addTeamRating = `UPDATE teams SET rating = rating + ? WHERE id = ?`

type AddTeamRatingParams struct {
	Delta int64
	ID    int64
}

func (q *Queries) AddTeamRating(ctx context.Context, arg AddTeamRatingParams) error {
	_, err := q.db.ExecContext(ctx, addTeamRating, arg.Delta, arg.ID)
	return err
}

const countCompletedMatchesForTeam = `
SELECT COUNT(*) FROM sides s
JOIN matches m ON m.id = s.match_id
WHERE s.team_id = ? AND m.status IN ('completed', 'confirmed') AND m.id != ?`

type CountCompletedParams struct {
	EntityID       int64
	ExcludeMatchID int64
}

func (q *Queries) CountCompletedMatchesForTeam(ctx context.Context, arg CountCompletedParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCompletedMatchesForTeam, arg.EntityID, arg.ExcludeMatchID).Scan(&count)
	return count, err
}
