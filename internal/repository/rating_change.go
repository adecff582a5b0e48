package repository

import (
	"context"
	"fmt"
	"match-ledger/internal/db"
	"match-ledger/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RatingChangeRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewRatingChangeRepository(queries *db.Queries, logger zerolog.Logger) *RatingChangeRepository {
	return &RatingChangeRepository{
		queries: queries,
		logger:  logger,
	}
}

// InsertBatch records the rating movements of one finalization. Records
// without an id get a fresh nanoid.
func (r *RatingChangeRepository) InsertBatch(ctx context.Context, records []domain.RatingChange) error {
	for _, record := range records {
		id := record.ID
		if id == "" {
			var err error
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}

		createdAt := record.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		err := r.queries.InsertRatingChange(ctx, db.InsertRatingChangeParams{
			ID:        id,
			MatchID:   record.MatchID,
			Scope:     string(record.Scope),
			EntityID:  record.EntityID,
			OldRating: int64(record.OldRating),
			NewRating: int64(record.NewRating),
			Delta:     int64(record.Delta),
			CreatedAt: createdAt,
		})
		if err != nil {
			return fmt.Errorf("failed to insert rating change: %w", err)
		}
	}
	return nil
}

// History returns the most recent rating movements of one entity, newest first.
func (r *RatingChangeRepository) History(ctx context.Context, scope domain.Scope, entityID int64, limit int) ([]domain.RatingChange, error) {
	rows, err := r.queries.ListRatingChanges(ctx, db.ListRatingChangesParams{
		Scope:    string(scope),
		EntityID: entityID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes: %w", err)
	}

	result := make([]domain.RatingChange, len(rows))
	for i, row := range rows {
		result[i] = domain.RatingChange{
			ID:        row.ID,
			MatchID:   row.MatchID,
			Scope:     domain.Scope(row.Scope),
			EntityID:  row.EntityID,
			OldRating: int(row.OldRating),
			NewRating: int(row.NewRating),
			Delta:     int(row.Delta),
			CreatedAt: row.CreatedAt,
		}
	}
	return result, nil
}
