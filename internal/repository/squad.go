package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"match-ledger/internal/db"
	"match-ledger/internal/domain"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type SquadRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewSquadRepository(queries *db.Queries, logger zerolog.Logger) *SquadRepository {
	return &SquadRepository{
		queries: queries,
		logger:  logger,
	}
}

// MemberKey is the canonical form of a membership set: sorted ids joined by
// commas.
func MemberKey(participantIDs []int64) string {
	ids := slices.Clone(participantIDs)
	slices.Sort(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// FindExact returns the ids of squads whose membership is exactly
// participantIDs. The ids must be non-empty and distinct.
func (r *SquadRepository) FindExact(ctx context.Context, participantIDs []int64) ([]int64, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}
	members, err := json.Marshal(participantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode squad members: %w", err)
	}
	ids, err := r.queries.FindSquadsByExactMembers(ctx, db.FindSquadsByExactMembersParams{
		MemberIDsJSON: string(members),
		MemberCount:   int64(len(participantIDs)),
		AnyMemberID:   participantIDs[0],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find squad: %w", err)
	}
	return ids, nil
}

// GetOrCreate returns the squad for the exact membership set, creating it
// with the default rating when it does not exist yet.
func (r *SquadRepository) GetOrCreate(ctx context.Context, participantIDs []int64) (domain.Squad, bool, error) {
	key := MemberKey(participantIDs)
	created, err := r.queries.InsertSquadIfAbsent(ctx, key)
	if err != nil {
		return domain.Squad{}, false, fmt.Errorf("failed to create squad %s: %w", key, err)
	}
	row, err := r.queries.GetSquadByMemberKey(ctx, key)
	if err != nil {
		return domain.Squad{}, false, fmt.Errorf("failed to get squad %s: %w", key, err)
	}
	if created {
		for _, pid := range participantIDs {
			err := r.queries.InsertSquadMember(ctx, db.InsertSquadMemberParams{SquadID: row.ID, ParticipantID: pid})
			if err != nil {
				return domain.Squad{}, false, fmt.Errorf("failed to add member %d to squad %d: %w", pid, row.ID, err)
			}
		}
		r.logger.Debug().Int64("squad_id", row.ID).Str("members", key).Msg("created squad")
	}
	s, err := r.withMembers(ctx, row)
	return s, created, err
}

func (r *SquadRepository) Get(ctx context.Context, id int64) (*domain.Squad, error) {
	row, err := r.queries.GetSquad(ctx, id)
	if err != nil {
		return nil, notFound(err, "squad %d", id)
	}
	s, err := r.withMembers(ctx, row)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SquadRepository) withMembers(ctx context.Context, row db.Squad) (domain.Squad, error) {
	members, err := r.queries.ListSquadMemberIDs(ctx, row.ID)
	if err != nil {
		return domain.Squad{}, fmt.Errorf("failed to list members of squad %d: %w", row.ID, err)
	}
	return domain.Squad{
		ID:        row.ID,
		Rating:    int(row.Rating),
		MemberIDs: members,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *SquadRepository) AddRating(ctx context.Context, id int64, delta int) error {
	if err := r.queries.AddSquadRating(ctx, db.AddSquadRatingParams{Delta: int64(delta), ID: id}); err != nil {
		return fmt.Errorf("failed to update rating of squad %d: %w", id, err)
	}
	return nil
}

func (r *SquadRepository) CompletedMatches(ctx context.Context, id, excludeMatchID int64) (int, error) {
	n, err := r.queries.CountCompletedMatchesForSquad(ctx, db.CountCompletedParams{
		EntityID:       id,
		ExcludeMatchID: excludeMatchID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count matches of squad %d: %w", id, err)
	}
	return int(n), nil
}
