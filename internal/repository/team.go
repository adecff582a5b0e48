package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"match-ledger/internal/db"
	"match-ledger/internal/domain"

	"github.com/rs/zerolog"
)

type TeamRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewTeamRepository(queries *db.Queries, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{
		queries: queries,
		logger:  logger,
	}
}

func toTeam(t db.Team) domain.Team {
	return domain.Team{
		ID:            t.ID,
		Namespace:     t.Namespace,
		Name:          t.Name,
		Rating:        int(t.Rating),
		Emoji:         t.Emoji,
		ImageURL:      t.ImageUrl,
		IsPlaceholder: t.IsPlaceholder,
		CreatedAt:     t.CreatedAt,
	}
}

func (r *TeamRepository) Get(ctx context.Context, id int64) (*domain.Team, error) {
	row, err := r.queries.GetTeam(ctx, id)
	if err != nil {
		return nil, notFound(err, "team %d", id)
	}
	t := toTeam(row)
	return &t, nil
}

// FindByName returns nil when the namespace has no team of that exact name.
func (r *TeamRepository) FindByName(ctx context.Context, namespace, name string) (*domain.Team, error) {
	row, err := r.queries.GetTeamByName(ctx, db.GetTeamByNameParams{Namespace: namespace, Name: name})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %q: %w", name, err)
	}
	t := toTeam(row)
	return &t, nil
}

// GetOrCreate returns the named team, inserting it first if needed. Two
// callers racing on the same name end up with the same row.
func (r *TeamRepository) GetOrCreate(ctx context.Context, namespace, name, emoji string, placeholder bool) (domain.Team, error) {
	err := r.queries.InsertTeamIfAbsent(ctx, db.InsertTeamIfAbsentParams{
		Namespace:     namespace,
		Name:          name,
		Emoji:         emoji,
		IsPlaceholder: placeholder,
	})
	if err != nil {
		return domain.Team{}, fmt.Errorf("failed to create team %q: %w", name, err)
	}
	row, err := r.queries.GetTeamByName(ctx, db.GetTeamByNameParams{Namespace: namespace, Name: name})
	if err != nil {
		return domain.Team{}, fmt.Errorf("failed to get team %q: %w", name, err)
	}
	return toTeam(row), nil
}

// Upsert registers a real team or updates its emoji and image.
func (r *TeamRepository) Upsert(ctx context.Context, namespace, name, emoji, imageURL string) (domain.Team, error) {
	id, err := r.queries.UpsertTeam(ctx, db.UpsertTeamParams{
		Namespace: namespace,
		Name:      name,
		Emoji:     emoji,
		ImageUrl:  imageURL,
	})
	if err != nil {
		return domain.Team{}, fmt.Errorf("failed to upsert team %q: %w", name, err)
	}
	t, err := r.Get(ctx, id)
	if err != nil {
		return domain.Team{}, err
	}
	return *t, nil
}

// ListReal returns every non-placeholder team of the namespace, ordered by name.
func (r *TeamRepository) ListReal(ctx context.Context, namespace string) ([]domain.Team, error) {
	rows, err := r.queries.ListRealTeams(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	result := make([]domain.Team, len(rows))
	for i, row := range rows {
		result[i] = toTeam(row)
	}
	return result, nil
}

func (r *TeamRepository) Search(ctx context.Context, namespace, term string, limit int) ([]domain.Team, error) {
	rows, err := r.queries.SearchTeams(ctx, db.SearchTeamsParams{
		Namespace: namespace,
		Pattern:   ContainsPattern(term),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	result := make([]domain.Team, len(rows))
	for i, row := range rows {
		result[i] = toTeam(row)
	}
	return result, nil
}

func (r *TeamRepository) AddRating(ctx context.Context, id int64, delta int) error {
	if err := r.queries.AddTeamRating(ctx, db.AddTeamRatingParams{Delta: int64(delta), ID: id}); err != nil {
		return fmt.Errorf("failed to update rating of team %d: %w", id, err)
	}
	return nil
}

func (r *TeamRepository) CompletedMatches(ctx context.Context, id, excludeMatchID int64) (int, error) {
	n, err := r.queries.CountCompletedMatchesForTeam(ctx, db.CountCompletedParams{
		EntityID:       id,
		ExcludeMatchID: excludeMatchID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count matches of team %d: %w", id, err)
	}
	return int(n), nil
}
