package service

import (
	"context"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"slices"

	"github.com/rs/zerolog"
)

// SquadResolver maps an exact set of participants onto its squad.
type SquadResolver struct {
	store  *repository.Store
	logger zerolog.Logger
}

func NewSquadResolver(store *repository.Store, logger zerolog.Logger) *SquadResolver {
	return &SquadResolver{store: store, logger: logger}
}

func canonicalMembers(participantIDs []int64) ([]int64, error) {
	if len(participantIDs) == 0 {
		return nil, domain.Validationf("a squad needs at least one participant")
	}
	ids := slices.Clone(participantIDs)
	slices.Sort(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return nil, domain.Validationf("participant %d is listed twice", ids[i])
		}
	}
	return ids, nil
}

// Resolve returns the squad whose membership is exactly participantIDs,
// creating it when none exists. Input order does not matter.
func (s *SquadResolver) Resolve(ctx context.Context, r *repository.Repos, participantIDs []int64) (domain.Squad, error) {
	ids, err := canonicalMembers(participantIDs)
	if err != nil {
		return domain.Squad{}, err
	}
	squad, err := s.findCanonical(ctx, r, ids)
	if err != nil {
		return domain.Squad{}, err
	}
	if squad != nil {
		return *squad, nil
	}

	created, isNew, err := r.Squads.GetOrCreate(ctx, ids)
	if err != nil {
		return domain.Squad{}, err
	}
	if isNew {
		s.logger.Info().Int64("squad_id", created.ID).Int("size", len(ids)).Msg("new squad")
	}
	return created, nil
}

// Find is the read-only half of Resolve. It returns nil when the set has never
// played together.
func (s *SquadResolver) Find(ctx context.Context, r *repository.Repos, participantIDs []int64) (*domain.Squad, error) {
	ids, err := canonicalMembers(participantIDs)
	if err != nil {
		return nil, err
	}
	return s.findCanonical(ctx, r, ids)
}

// findCanonical expects ids sorted and distinct.
func (s *SquadResolver) findCanonical(ctx context.Context, r *repository.Repos, ids []int64) (*domain.Squad, error) {
	matches, err := r.Squads.FindExact(ctx, ids)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return r.Squads.Get(ctx, matches[0])
	default:
		return nil, domain.InternalConsistencyf("%d squads share the membership %s", len(matches), repository.MemberKey(ids))
	}
}

// FindByExternalIDs looks up the squad of participants named by external id.
// Unknown participants mean the squad cannot exist yet.
func (s *SquadResolver) FindByExternalIDs(ctx context.Context, namespace string, externalIDs []string) (*domain.Squad, error) {
	if len(externalIDs) == 0 {
		return nil, domain.Validationf("a squad needs at least one participant")
	}

	r := s.store.Repos()
	ids := make([]int64, 0, len(externalIDs))
	for _, ext := range externalIDs {
		found, err := r.Participants.ByExternalID(ctx, namespace, ext)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			s.logger.Debug().Str("namespace", namespace).Str("external_id", ext).Msg("unknown participant, no squad")
			return nil, nil
		}
		ids = append(ids, found[0].ID)
	}

	return s.Find(ctx, r, ids)
}
