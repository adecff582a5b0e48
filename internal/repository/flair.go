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

type FlairRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewFlairRepository(queries *db.Queries, logger zerolog.Logger) *FlairRepository {
	return &FlairRepository{
		queries: queries,
		logger:  logger,
	}
}

func toFlair(f db.TribeFlair) domain.TribeFlair {
	return domain.TribeFlair{
		ID:        f.ID,
		TribeID:   f.TribeID,
		Tribe:     f.TribeName,
		Namespace: f.Namespace,
		Emoji:     f.Emoji,
	}
}

// Upsert creates the tribe if needed and sets its emoji within the namespace.
func (r *FlairRepository) Upsert(ctx context.Context, namespace, tribe, emoji string) (domain.TribeFlair, error) {
	tribeID, err := r.queries.UpsertTribe(ctx, tribe)
	if err != nil {
		return domain.TribeFlair{}, fmt.Errorf("failed to upsert tribe %q: %w", tribe, err)
	}
	id, err := r.queries.UpsertTribeFlair(ctx, db.UpsertTribeFlairParams{
		TribeID:   tribeID,
		Namespace: namespace,
		Emoji:     emoji,
	})
	if err != nil {
		return domain.TribeFlair{}, fmt.Errorf("failed to upsert flair for tribe %q: %w", tribe, err)
	}
	f, err := r.Get(ctx, id)
	if err != nil {
		return domain.TribeFlair{}, err
	}
	return *f, nil
}

func (r *FlairRepository) Get(ctx context.Context, id int64) (*domain.TribeFlair, error) {
	row, err := r.queries.GetTribeFlair(ctx, id)
	if err != nil {
		return nil, notFound(err, "flair %d", id)
	}
	f := toFlair(row)
	return &f, nil
}

// FindByTribe returns nil when the tribe has no flair in the namespace.
func (r *FlairRepository) FindByTribe(ctx context.Context, namespace, tribe string) (*domain.TribeFlair, error) {
	row, err := r.queries.GetTribeFlairByName(ctx, db.GetTribeFlairByNameParams{Namespace: namespace, Tribe: tribe})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flair for tribe %q: %w", tribe, err)
	}
	f := toFlair(row)
	return &f, nil
}
