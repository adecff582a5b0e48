package db

import (
	"context"
	"time"
)

const insertRatingChange = `
INSERT INTO rating_changes (id, match_id, scope, entity_id, old_rating, new_rating, delta, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type InsertRatingChangeParams struct {
	ID        string
	MatchID   int64
	Scope     string
	EntityID  int64
	OldRating int64
	NewRating int64
	Delta     int64
	CreatedAt time.Time
}

func (q *Queries) InsertRatingChange(ctx context.Context, arg InsertRatingChangeParams) error {
	_, err := q.db.ExecContext(ctx, insertRatingChange,
		arg.ID,
		arg.MatchID,
		arg.Scope,
		arg.EntityID,
		arg.OldRating,
		arg.NewRating,
		arg.Delta,
		arg.CreatedAt,
	)
	return err
}

const listRatingChanges = `
SELECT id, match_id, scope, entity_id, old_rating, new_rating, delta, created_at
FROM rating_changes
WHERE scope = ? AND entity_id = ?
ORDER BY created_at DESC, match_id DESC
LIMIT ?`

type ListRatingChangesParams struct {
	Scope    string
	EntityID int64
	Limit    int64
}

func (q *Queries) ListRatingChanges(ctx context.Context, arg ListRatingChangesParams) ([]RatingChange, error) {
	rows, err := q.db.QueryContext(ctx, listRatingChanges, arg.Scope, arg.EntityID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RatingChange
	for rows.Next() {
		var c RatingChange
		if err := rows.Scan(
			&c.ID,
			&c.MatchID,
			&c.Scope,
			&c.EntityID,
			&c.OldRating,
			&c.NewRating,
			&c.Delta,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
