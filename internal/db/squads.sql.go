package db

import (
	"context"
)

const squadColumns = `id, member_key, rating, created_at`

func scanSquad(row interface{ Scan(...interface{}) error }) (Squad, error) {
	var s Squad
	err := row.Scan(&s.ID, &s.MemberKey, &s.Rating, &s.CreatedAt)
	return s, err
}

// findSquadsByExactMembers keeps squads whose membership contains every id in
// the JSON array and nothing else. ?3 narrows the scan to squads holding one
// known member.
const findSquadsByExactMembers = `
SELECT sm.squad_id
FROM squad_members sm
WHERE sm.squad_id IN (SELECT squad_id FROM squad_members WHERE participant_id = ?3)
GROUP BY sm.squad_id
HAVING SUM(CASE WHEN sm.participant_id IN (SELECT value FROM json_each(?1)) THEN 1 ELSE 0 END) = ?2
   AND SUM(CASE WHEN sm.participant_id NOT IN (SELECT value FROM json_each(?1)) THEN 1 ELSE 0 END) = 0
ORDER BY sm.squad_id`

type FindSquadsByExactMembersParams struct {
	MemberIDsJSON string
	MemberCount   int64
	AnyMemberID   int64
}

func (q *Queries) FindSquadsByExactMembers(ctx context.Context, arg FindSquadsByExactMembersParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, findSquadsByExactMembers, arg.MemberIDsJSON, arg.MemberCount, arg.AnyMemberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertSquadIfAbsent = `INSERT INTO squads (member_key) VALUES (?) ON CONFLICT (member_key) DO NOTHING`

// InsertSquadIfAbsent reports whether a new row was created.
func (q *Queries) InsertSquadIfAbsent(ctx context.Context, memberKey string) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertSquadIfAbsent, memberKey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const getSquad = `SELECT ` + squadColumns + ` FROM squads WHERE id = ?`

func (q *Queries) GetSquad(ctx context.Context, id int64) (Squad, error) {
	return scanSquad(q.db.QueryRowContext(ctx, getSquad, id))
}

const getSquadByMemberKey = `SELECT ` + squadColumns + ` FROM squads WHERE member_key = ?`

func (q *Queries) GetSquadByMemberKey(ctx context.Context, memberKey string) (Squad, error) {
	return scanSquad(q.db.QueryRowContext(ctx, getSquadByMemberKey, memberKey))
}

const insertSquadMember = `INSERT INTO squad_members (squad_id, participant_id) VALUES (?, ?)`

type InsertSquadMemberParams struct {
	SquadID       int64
	ParticipantID int64
}

func (q *Queries) InsertSquadMember(ctx context.Context, arg InsertSquadMemberParams) error {
	_, err := q.db.ExecContext(ctx, insertSquadMember, arg.SquadID, arg.ParticipantID)
	return err
}

const listSquadMemberIDs = `SELECT participant_id FROM squad_members WHERE squad_id = ? ORDER BY participant_id`

func (q *Queries) ListSquadMemberIDs(ctx context.Context, squadID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listSquadMemberIDs, squadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addSquadRating = `UPDATE squads SET rating = rating + ? WHERE id = ?`

type AddSquadRatingParams struct {
	Delta int64
	ID    int64
}

func (q *Queries) AddSquadRating(ctx context.Context, arg AddSquadRatingParams) error {
	_, err := q.db.ExecContext(ctx, addSquadRating, arg.Delta, arg.ID)
	return err
}

const countCompletedMatchesForSquad = `
SELECT COUNT(*) FROM sides s
JOIN matches m ON m.id = s.match_id
WHERE s.squad_id = ? AND m.status IN ('completed', 'confirmed') AND m.id != ?`

func (q *Queries) CountCompletedMatchesForSquad(ctx context.Context, arg CountCompletedParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCompletedMatchesForSquad, arg.EntityID, arg.ExcludeMatchID).Scan(&count)
	return count, err
}
