package db

import (
	"context"
	"database/sql"
	"time"
)

const participantColumns = `id, namespace, external_id, name, nick, ingame_name, ingame_id, rating, team_id, created_at, updated_at`

func scanParticipant(row interface{ Scan(...interface{}) error }) (Participant, error) {
	var p Participant
	err := row.Scan(
		&p.ID,
		&p.Namespace,
		&p.ExternalID,
		&p.Name,
		&p.Nick,
		&p.IngameName,
		&p.IngameID,
		&p.Rating,
		&p.TeamID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (q *Queries) queryParticipants(ctx context.Context, query string, args ...interface{}) ([]Participant, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertParticipant = `
INSERT INTO participants (namespace, external_id, name, nick, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id, namespace) DO UPDATE SET
    name = excluded.name,
    nick = excluded.nick,
    updated_at = excluded.updated_at
RETURNING id`

type UpsertParticipantParams struct {
	Namespace  string
	ExternalID string
	Name       string
	Nick       string
	Now        time.Time
}

func (q *Queries) UpsertParticipant(ctx context.Context, arg UpsertParticipantParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertParticipant,
		arg.Namespace,
		arg.ExternalID,
		arg.Name,
		arg.Nick,
		arg.Now,
		arg.Now,
	).Scan(&id)
	return id, err
}

const getParticipant = `SELECT ` + participantColumns + ` FROM participants WHERE id = ?`

func (q *Queries) GetParticipant(ctx context.Context, id int64) (Participant, error) {
	return scanParticipant(q.db.QueryRowContext(ctx, getParticipant, id))
}

const getParticipantsByExternalID = `
SELECT ` + participantColumns + ` FROM participants
WHERE namespace = ? AND external_id = ?`

type ParticipantKeyParams struct {
	Namespace string
	Key       string
}

func (q *Queries) GetParticipantsByExternalID(ctx context.Context, arg ParticipantKeyParams) ([]Participant, error) {
	return q.queryParticipants(ctx, getParticipantsByExternalID, arg.Namespace, arg.Key)
}

const getParticipantsByName = `
SELECT ` + participantColumns + ` FROM participants
WHERE namespace = ? AND name = ?
ORDER BY id`

func (q *Queries) GetParticipantsByName(ctx context.Context, arg ParticipantKeyParams) ([]Participant, error) {
	return q.queryParticipants(ctx, getParticipantsByName, arg.Namespace, arg.Key)
}

const searchParticipantsByName = `
SELECT ` + participantColumns + ` FROM participants
WHERE namespace = ? AND (name LIKE ? ESCAPE '\' OR nick LIKE ? ESCAPE '\')
ORDER BY id
LIMIT ?`

type SearchParticipantsParams struct {
	Namespace string
	Pattern   string
	Limit     int64
}

func (q *Queries) SearchParticipantsByName(ctx context.Context, arg SearchParticipantsParams) ([]Participant, error) {
	return q.queryParticipants(ctx, searchParticipantsByName, arg.Namespace, arg.Pattern, arg.Pattern, arg.Limit)
}

const searchParticipantsByIngame = `
SELECT ` + participantColumns + ` FROM participants
WHERE namespace = ? AND (ingame_name LIKE ? ESCAPE '\' OR ingame_id LIKE ? ESCAPE '\')
ORDER BY id
LIMIT ?`

func (q *Queries) SearchParticipantsByIngame(ctx context.Context, arg SearchParticipantsParams) ([]Participant, error) {
	return q.queryParticipants(ctx, searchParticipantsByIngame, arg.Namespace, arg.Pattern, arg.Pattern, arg.Limit)
}

const setParticipantTeam = `UPDATE participants SET team_id = ?, updated_at = ? WHERE id = ?`

type SetParticipantTeamParams struct {
	TeamID sql.NullInt64
	Now    time.Time
	ID     int64
}

func (q *Queries) SetParticipantTeam(ctx context.Context, arg SetParticipantTeamParams) error {
	_, err := q.db.ExecContext(ctx, setParticipantTeam, arg.TeamID, arg.Now, arg.ID)
	return err
}

const setIngameProfile = `
UPDATE participants SET ingame_name = ?, ingame_id = ?, updated_at = ?
WHERE namespace = ? AND external_id = ?`

type SetIngameProfileParams struct {
	IngameName string
	IngameID   string
	Now        time.Time
	Namespace  string
	ExternalID string
}

func (q *Queries) SetIngameProfile(ctx context.Context, arg SetIngameProfileParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, setIngameProfile,
		arg.IngameName,
		arg.IngameID,
		arg.Now,
		arg.Namespace,
		arg.ExternalID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const addParticipantRating = `UPDATE participants SET rating = rating + ?, updated_at = ? WHERE id = ?`

type AddParticipantRatingParams struct {
	Delta int64
	Now   time.Time
	ID    int64
}

func (q *Queries) AddParticipantRating(ctx context.Context, arg AddParticipantRatingParams) error {
	_, err := q.db.ExecContext(ctx, addParticipantRating, arg.Delta, arg.Now, arg.ID)
	return err
}

const countCompletedMatchesForParticipant = `
SELECT COUNT(*) FROM participations pa
JOIN sides s ON s.id = pa.side_id
JOIN matches m ON m.id = s.match_id
WHERE pa.participant_id = ? AND m.status IN ('completed', 'confirmed') AND m.id != ?`

func (q *Queries) CountCompletedMatchesForParticipant(ctx context.Context, arg CountCompletedParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCompletedMatchesForParticipant, arg.EntityID, arg.ExcludeMatchID).Scan(&count)
	return count, err
}
