package service

import (
	"context"
	"match-ledger/internal/constants"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

type ParticipantService struct {
	store  *repository.Store
	lookup *LookupService
	logger zerolog.Logger
}

func NewParticipantService(store *repository.Store, lookup *LookupService, logger zerolog.Logger) *ParticipantService {
	return &ParticipantService{store: store, lookup: lookup, logger: logger}
}

// SetIngameProfile records the participant's in-game name and id, which the
// cross-field lookup searches.
func (s *ParticipantService) SetIngameProfile(ctx context.Context, namespace, externalID, ingameName, ingameID string) error {
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		ok, err := r.Participants.SetIngameProfile(ctx, namespace, externalID, ingameName, ingameID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundf("participant %s is not known in %s", externalID, namespace)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("namespace", namespace).Str("external_id", externalID).Msg("in-game profile updated")
	return nil
}

// Lookup lists the participants matched by the first lookup strategy that
// finds any.
func (s *ParticipantService) Lookup(ctx context.Context, namespace, query string) ([]domain.Participant, error) {
	return s.lookup.Participants(ctx, namespace, query)
}

// LookupFirst returns the first participant the lookup finds, accepting a
// guess when the query is ambiguous.
func (s *ParticipantService) LookupFirst(ctx context.Context, namespace, query string) (*domain.Participant, error) {
	return s.lookup.Participant(ctx, namespace, query, TakeFirst)
}

// RatingHistory returns the participant's latest rating movements, newest first.
func (s *ParticipantService) RatingHistory(ctx context.Context, namespace string, participantID int64) ([]domain.RatingChange, error) {
	r := s.store.Repos()
	p, err := r.Participants.Get(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if p.Namespace != namespace {
		return nil, domain.NotFoundf("participant %d is not known in %s", participantID, namespace)
	}
	return r.RatingChanges.History(ctx, domain.ScopeParticipant, participantID, constants.RatingHistoryLimit)
}
