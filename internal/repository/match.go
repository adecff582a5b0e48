package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"match-ledger/internal/db"
	"match-ledger/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewMatchRepository(queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		logger:  logger,
	}
}

func toMatch(m db.Match) domain.Match {
	match := domain.Match{
		ID:        m.ID,
		Namespace: m.Namespace,
		Label:     m.Label,
		Status:    domain.MatchStatus(m.Status),
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
	}
	if m.CompletedAt.Valid {
		completedAt := m.CompletedAt.Time
		match.CompletedAt = &completedAt
	}
	return match
}

func toSide(s db.Side) domain.Side {
	return domain.Side{
		ID:         s.ID,
		MatchID:    s.MatchID,
		SquadID:    s.SquadID,
		TeamID:     s.TeamID,
		Position:   int(s.Position),
		TeamDelta:  int(s.TeamDelta),
		SquadDelta: int(s.SquadDelta),
		IsWinner:   s.IsWinner,
	}
}

func toParticipation(p db.Participation) domain.Participation {
	return domain.Participation{
		ID:            p.ID,
		SideID:        p.SideID,
		ParticipantID: p.ParticipantID,
		Delta:         int(p.Delta),
		FlairID:       int64Ptr(p.FlairID),
	}
}

func (r *MatchRepository) Create(ctx context.Context, namespace, label string, now time.Time) (domain.Match, error) {
	id, err := r.queries.InsertMatch(ctx, db.InsertMatchParams{
		Namespace: namespace,
		Label:     label,
		CreatedAt: now,
	})
	if err != nil {
		return domain.Match{}, fmt.Errorf("failed to insert match: %w", err)
	}
	m, err := r.Get(ctx, id)
	if err != nil {
		return domain.Match{}, err
	}
	return *m, nil
}

func (r *MatchRepository) Get(ctx context.Context, id int64) (*domain.Match, error) {
	row, err := r.queries.GetMatch(ctx, id)
	if err != nil {
		return nil, notFound(err, "match %d", id)
	}
	m := toMatch(row)
	return &m, nil
}

// Claim bumps the version of an open match and reports whether it was open.
// Inside a write transaction only one caller can claim a given match.
func (r *MatchRepository) Claim(ctx context.Context, id int64) (bool, error) {
	ok, err := r.queries.ClaimOpenMatch(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim match %d: %w", id, err)
	}
	return ok, nil
}

// Complete moves a claimed match out of the open state. It reports false when
// the match changed since it was claimed at version.
func (r *MatchRepository) Complete(ctx context.Context, id, version int64, status domain.MatchStatus, now time.Time) (bool, error) {
	ok, err := r.queries.CompleteMatch(ctx, db.CompleteMatchParams{
		Status:      string(status),
		CompletedAt: now,
		ID:          id,
		Version:     version,
	})
	if err != nil {
		return false, fmt.Errorf("failed to complete match %d: %w", id, err)
	}
	return ok, nil
}

func (r *MatchRepository) Confirm(ctx context.Context, id int64) (bool, error) {
	ok, err := r.queries.ConfirmMatch(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to confirm match %d: %w", id, err)
	}
	return ok, nil
}

func (r *MatchRepository) DeleteOpen(ctx context.Context, id int64) (bool, error) {
	ok, err := r.queries.DeleteOpenMatch(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return ok, nil
}

func (r *MatchRepository) AddSide(ctx context.Context, matchID, squadID, teamID int64, position int) (domain.Side, error) {
	row, err := r.queries.InsertSide(ctx, db.InsertSideParams{
		MatchID:  matchID,
		SquadID:  squadID,
		TeamID:   teamID,
		Position: int64(position),
	})
	if err != nil {
		return domain.Side{}, fmt.Errorf("failed to insert side %d of match %d: %w", position, matchID, err)
	}
	return toSide(row), nil
}

func (r *MatchRepository) GetSide(ctx context.Context, id int64) (*domain.Side, error) {
	row, err := r.queries.GetSide(ctx, id)
	if err != nil {
		return nil, notFound(err, "side %d", id)
	}
	s := toSide(row)
	return &s, nil
}

// Sides returns the match's sides ordered by position.
func (r *MatchRepository) Sides(ctx context.Context, matchID int64) ([]domain.Side, error) {
	rows, err := r.queries.ListSidesForMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sides of match %d: %w", matchID, err)
	}
	result := make([]domain.Side, len(rows))
	for i, row := range rows {
		result[i] = toSide(row)
	}
	return result, nil
}

func (r *MatchRepository) SetSideResult(ctx context.Context, sideID int64, teamDelta, squadDelta int, won bool) error {
	err := r.queries.UpdateSideResult(ctx, db.UpdateSideResultParams{
		TeamDelta:  int64(teamDelta),
		SquadDelta: int64(squadDelta),
		IsWinner:   won,
		ID:         sideID,
	})
	if err != nil {
		return fmt.Errorf("failed to update side %d: %w", sideID, err)
	}
	return nil
}

func (r *MatchRepository) DeleteSide(ctx context.Context, sideID int64) error {
	if err := r.queries.DeleteSide(ctx, sideID); err != nil {
		return fmt.Errorf("failed to delete side %d: %w", sideID, err)
	}
	return nil
}

func (r *MatchRepository) AddParticipation(ctx context.Context, sideID, participantID int64) (domain.Participation, error) {
	row, err := r.queries.InsertParticipation(ctx, db.InsertParticipationParams{
		SideID:        sideID,
		ParticipantID: participantID,
	})
	if err != nil {
		return domain.Participation{}, fmt.Errorf("failed to add participant %d to side %d: %w", participantID, sideID, err)
	}
	return toParticipation(row), nil
}

// Participations returns every participation of the match, home side first.
func (r *MatchRepository) Participations(ctx context.Context, matchID int64) ([]domain.Participation, error) {
	rows, err := r.queries.ListParticipationsForMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations of match %d: %w", matchID, err)
	}
	result := make([]domain.Participation, len(rows))
	for i, row := range rows {
		result[i] = toParticipation(row)
	}
	return result, nil
}

// ParticipationFor returns nil when the participant did not play in the match.
func (r *MatchRepository) ParticipationFor(ctx context.Context, matchID, participantID int64) (*domain.Participation, error) {
	row, err := r.queries.GetParticipationInMatch(ctx, db.GetParticipationInMatchParams{
		MatchID:       matchID,
		ParticipantID: participantID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation of %d in match %d: %w", participantID, matchID, err)
	}
	p := toParticipation(row)
	return &p, nil
}

func (r *MatchRepository) SetParticipationDelta(ctx context.Context, participationID int64, delta int) error {
	err := r.queries.UpdateParticipationDelta(ctx, db.UpdateParticipationDeltaParams{
		Delta: int64(delta),
		ID:    participationID,
	})
	if err != nil {
		return fmt.Errorf("failed to update participation %d: %w", participationID, err)
	}
	return nil
}

func (r *MatchRepository) SetParticipationFlair(ctx context.Context, participationID int64, flairID *int64) error {
	err := r.queries.SetParticipationFlair(ctx, db.SetParticipationFlairParams{
		FlairID: nullInt64(flairID),
		ID:      participationID,
	})
	if err != nil {
		return fmt.Errorf("failed to set flair of participation %d: %w", participationID, err)
	}
	return nil
}
