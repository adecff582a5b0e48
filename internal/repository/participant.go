package repository

import (
	"context"
	"fmt"
	"match-ledger/internal/db"
	"match-ledger/internal/domain"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ParticipantRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewParticipantRepository(queries *db.Queries, logger zerolog.Logger) *ParticipantRepository {
	return &ParticipantRepository{
		queries: queries,
		logger:  logger,
	}
}

func toParticipant(p db.Participant) domain.Participant {
	return domain.Participant{
		ID:         p.ID,
		Namespace:  p.Namespace,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		Nick:       p.Nick,
		IngameName: p.IngameName,
		IngameID:   p.IngameID,
		Rating:     int(p.Rating),
		TeamID:     int64Ptr(p.TeamID),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toParticipants(rows []db.Participant) []domain.Participant {
	result := make([]domain.Participant, len(rows))
	for i, row := range rows {
		result[i] = toParticipant(row)
	}
	return result
}

// Upsert creates the participant or refreshes its name and nick. The rating
// and team of an existing row are left alone.
func (r *ParticipantRepository) Upsert(ctx context.Context, namespace string, ref domain.ParticipantRef, now time.Time) (domain.Participant, error) {
	id, err := r.queries.UpsertParticipant(ctx, db.UpsertParticipantParams{
		Namespace:  namespace,
		ExternalID: ref.ExternalID,
		Name:       ref.Name,
		Nick:       ref.Nick,
		Now:        now,
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("failed to upsert participant %s: %w", ref.ExternalID, err)
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return domain.Participant{}, err
	}
	return *p, nil
}

func (r *ParticipantRepository) Get(ctx context.Context, id int64) (*domain.Participant, error) {
	row, err := r.queries.GetParticipant(ctx, id)
	if err != nil {
		return nil, notFound(err, "participant %d", id)
	}
	p := toParticipant(row)
	return &p, nil
}

func (r *ParticipantRepository) ByExternalID(ctx context.Context, namespace, externalID string) ([]domain.Participant, error) {
	rows, err := r.queries.GetParticipantsByExternalID(ctx, db.ParticipantKeyParams{Namespace: namespace, Key: externalID})
	if err != nil {
		return nil, fmt.Errorf("failed to get participants by external id: %w", err)
	}
	return toParticipants(rows), nil
}

func (r *ParticipantRepository) ByName(ctx context.Context, namespace, name string) ([]domain.Participant, error) {
	rows, err := r.queries.GetParticipantsByName(ctx, db.ParticipantKeyParams{Namespace: namespace, Key: name})
	if err != nil {
		return nil, fmt.Errorf("failed to get participants by name: %w", err)
	}
	return toParticipants(rows), nil
}

// SearchName matches term as a substring of the name or the nick.
func (r *ParticipantRepository) SearchName(ctx context.Context, namespace, term string, limit int) ([]domain.Participant, error) {
	rows, err := r.queries.SearchParticipantsByName(ctx, db.SearchParticipantsParams{
		Namespace: namespace,
		Pattern:   ContainsPattern(term),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search participants by name: %w", err)
	}
	return toParticipants(rows), nil
}

// SearchIngame matches term as a substring of the in-game name or id.
func (r *ParticipantRepository) SearchIngame(ctx context.Context, namespace, term string, limit int) ([]domain.Participant, error) {
	rows, err := r.queries.SearchParticipantsByIngame(ctx, db.SearchParticipantsParams{
		Namespace: namespace,
		Pattern:   ContainsPattern(term),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search participants by in-game profile: %w", err)
	}
	return toParticipants(rows), nil
}

func (r *ParticipantRepository) SetTeam(ctx context.Context, id int64, teamID *int64, now time.Time) error {
	err := r.queries.SetParticipantTeam(ctx, db.SetParticipantTeamParams{
		TeamID: nullInt64(teamID),
		Now:    now,
		ID:     id,
	})
	if err != nil {
		return fmt.Errorf("failed to set team of participant %d: %w", id, err)
	}
	return nil
}

// SetIngameProfile reports false when no participant has that external id.
func (r *ParticipantRepository) SetIngameProfile(ctx context.Context, namespace, externalID, ingameName, ingameID string, now time.Time) (bool, error) {
	n, err := r.queries.SetIngameProfile(ctx, db.SetIngameProfileParams{
		IngameName: ingameName,
		IngameID:   ingameID,
		Now:        now,
		Namespace:  namespace,
		ExternalID: externalID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to set in-game profile of %s: %w", externalID, err)
	}
	return n > 0, nil
}

func (r *ParticipantRepository) AddRating(ctx context.Context, id int64, delta int, now time.Time) error {
	err := r.queries.AddParticipantRating(ctx, db.AddParticipantRatingParams{
		Delta: int64(delta),
		Now:   now,
		ID:    id,
	})
	if err != nil {
		return fmt.Errorf("failed to update rating of participant %d: %w", id, err)
	}
	return nil
}

// CompletedMatches counts finished matches the participant played, not
// counting excludeMatchID.
func (r *ParticipantRepository) CompletedMatches(ctx context.Context, id, excludeMatchID int64) (int, error) {
	n, err := r.queries.CountCompletedMatchesForParticipant(ctx, db.CountCompletedParams{
		EntityID:       id,
		ExcludeMatchID: excludeMatchID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count matches of participant %d: %w", id, err)
	}
	return int(n), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE pattern matching term anywhere, with LIKE
// wildcards in term taken literally.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
