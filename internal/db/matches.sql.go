package db

import (
	"context"
	"database/sql"
	"time"
)

const matchColumns = `id, namespace, label, status, version, created_at, completed_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (Match, error) {
	var m Match
	err := row.Scan(
		&m.ID,
		&m.Namespace,
		&m.Label,
		&m.Status,
		&m.Version,
		&m.CreatedAt,
		&m.CompletedAt,
	)
	return m, err
}

const insertMatch = `
INSERT INTO matches (namespace, label, status, created_at)
VALUES (?, ?, 'open', ?)
RETURNING id`

type InsertMatchParams struct {
	Namespace string
	Label     string
	CreatedAt time.Time
}

func (q *Queries) InsertMatch(ctx context.Context, arg InsertMatchParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, insertMatch, arg.Namespace, arg.Label, arg.CreatedAt).Scan(&id)
	return id, err
}

const getMatch = `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`

func (q *Queries) GetMatch(ctx context.Context, id int64) (Match, error) {
	return scanMatch(q.db.QueryRowContext(ctx, getMatch, id))
}

// claimOpenMatch bumps the version of an open match. Inside a write
// transaction it makes the caller the single writer for that match.
const claimOpenMatch = `UPDATE matches SET version = version + 1 WHERE id = ? AND status = 'open'`

func (q *Queries) ClaimOpenMatch(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, claimOpenMatch, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const completeMatch = `
UPDATE matches SET status = ?, completed_at = ?
WHERE id = ? AND status = 'open' AND version = ?`

type CompleteMatchParams struct {
	Status      string
	CompletedAt time.Time
	ID          int64
	Version     int64
}

func (q *Queries) CompleteMatch(ctx context.Context, arg CompleteMatchParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, completeMatch, arg.Status, arg.CompletedAt, arg.ID, arg.Version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const confirmMatch = `UPDATE matches SET status = 'confirmed', version = version + 1 WHERE id = ? AND status = 'completed'`

func (q *Queries) ConfirmMatch(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, confirmMatch, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const deleteOpenMatch = `DELETE FROM matches WHERE id = ? AND status = 'open'`

func (q *Queries) DeleteOpenMatch(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, deleteOpenMatch, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const sideColumns = `id, match_id, squad_id, team_id, position, team_delta, squad_delta, is_winner`

func scanSide(row interface{ Scan(...interface{}) error }) (Side, error) {
	var s Side
	err := row.Scan(
		&s.ID,
		&s.MatchID,
		&s.SquadID,
		&s.TeamID,
		&s.Position,
		&s.TeamDelta,
		&s.SquadDelta,
		&s.IsWinner,
	)
	return s, err
}

const insertSide = `
INSERT INTO sides (match_id, squad_id, team_id, position)
VALUES (?, ?, ?, ?)
RETURNING ` + sideColumns

type InsertSideParams struct {
	MatchID  int64
	SquadID  int64
	TeamID   int64
	Position int64
}

func (q *Queries) InsertSide(ctx context.Context, arg InsertSideParams) (Side, error) {
	return scanSide(q.db.QueryRowContext(ctx, insertSide, arg.MatchID, arg.SquadID, arg.TeamID, arg.Position))
}

const getSide = `SELECT ` + sideColumns + ` FROM sides WHERE id = ?`

func (q *Queries) GetSide(ctx context.Context, id int64) (Side, error) {
	return scanSide(q.db.QueryRowContext(ctx, getSide, id))
}

const listSidesForMatch = `SELECT ` + sideColumns + ` FROM sides WHERE match_id = ? ORDER BY position`

func (q *Queries) ListSidesForMatch(ctx context.Context, matchID int64) ([]Side, error) {
	rows, err := q.db.QueryContext(ctx, listSidesForMatch, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Side
	for rows.Next() {
		s, err := scanSide(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateSideResult = `UPDATE sides SET team_delta = ?, squad_delta = ?, is_winner = ? WHERE id = ?`

type UpdateSideResultParams struct {
	TeamDelta  int64
	SquadDelta int64
	IsWinner   bool
	ID         int64
}

func (q *Queries) UpdateSideResult(ctx context.Context, arg UpdateSideResultParams) error {
	_, err := q.db.ExecContext(ctx, updateSideResult, arg.TeamDelta, arg.SquadDelta, arg.IsWinner, arg.ID)
	return err
}

const deleteSide = `DELETE FROM sides WHERE id = ?`

func (q *Queries) DeleteSide(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteSide, id)
	return err
}

const participationColumns = `pa.id, pa.side_id, pa.participant_id, pa.flair_id, pa.delta`

func scanParticipation(row interface{ Scan(...interface{}) error }) (Participation, error) {
	var p Participation
	err := row.Scan(&p.ID, &p.SideID, &p.ParticipantID, &p.FlairID, &p.Delta)
	return p, err
}

const insertParticipation = `
INSERT INTO participations (side_id, participant_id)
VALUES (?, ?)
RETURNING id, side_id, participant_id, flair_id, delta`

type InsertParticipationParams struct {
	SideID        int64
	ParticipantID int64
}

func (q *Queries) InsertParticipation(ctx context.Context, arg InsertParticipationParams) (Participation, error) {
	return scanParticipation(q.db.QueryRowContext(ctx, insertParticipation, arg.SideID, arg.ParticipantID))
}

const listParticipationsForMatch = `
SELECT ` + participationColumns + `
FROM participations pa
JOIN sides s ON s.id = pa.side_id
WHERE s.match_id = ?
ORDER BY s.position, pa.id`

func (q *Queries) ListParticipationsForMatch(ctx context.Context, matchID int64) ([]Participation, error) {
	rows, err := q.db.QueryContext(ctx, listParticipationsForMatch, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
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

const getParticipationInMatch = `
SELECT ` + participationColumns + `
FROM participations pa
JOIN sides s ON s.id = pa.side_id
WHERE s.match_id = ? AND pa.participant_id = ?`

type GetParticipationInMatchParams struct {
	MatchID       int64
	ParticipantID int64
}

func (q *Queries) GetParticipationInMatch(ctx context.Context, arg GetParticipationInMatchParams) (Participation, error) {
	return scanParticipation(q.db.QueryRowContext(ctx, getParticipationInMatch, arg.MatchID, arg.ParticipantID))
}

const updateParticipationDelta = `UPDATE participations SET delta = ? WHERE id = ?`

type UpdateParticipationDeltaParams struct {
	Delta int64
	ID    int64
}

func (q *Queries) UpdateParticipationDelta(ctx context.Context, arg UpdateParticipationDeltaParams) error {
	_, err := q.db.ExecContext(ctx, updateParticipationDelta, arg.Delta, arg.ID)
	return err
}

const setParticipationFlair = `UPDATE participations SET flair_id = ? WHERE id = ?`

type SetParticipationFlairParams struct {
	FlairID sql.NullInt64
	ID      int64
}

func (q *Queries) SetParticipationFlair(ctx context.Context, arg SetParticipationFlairParams) error {
	_, err := q.db.ExecContext(ctx, setParticipationFlair, arg.FlairID, arg.ID)
	return err
}
