package service

import (
	"context"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"strings"

	"github.com/rs/zerolog"
)

// FlairService manages the cosmetic tribe flairs shown next to a participant
// in a match roster.
type FlairService struct {
	store  *repository.Store
	logger zerolog.Logger
}

func NewFlairService(store *repository.Store, logger zerolog.Logger) *FlairService {
	return &FlairService{store: store, logger: logger}
}

func (s *FlairService) UpsertFlair(ctx context.Context, namespace, tribe, emoji string) (*domain.TribeFlair, error) {
	tribe = strings.TrimSpace(tribe)
	if namespace == "" || tribe == "" {
		return nil, domain.Validationf("namespace and tribe are required")
	}

	var flair domain.TribeFlair
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		var err error
		flair, err = r.Flairs.Upsert(ctx, namespace, tribe, emoji)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("namespace", namespace).Str("tribe", tribe).Msg("flair saved")
	return &flair, nil
}

// SetParticipationFlair picks the flair a participant shows in one match. An
// empty tribe clears it.
func (s *FlairService) SetParticipationFlair(ctx context.Context, matchID, participantID int64, tribe string) error {
	return s.store.InTx(ctx, func(r *repository.Repos) error {
		match, err := r.Matches.Get(ctx, matchID)
		if err != nil {
			return err
		}

		pa, err := r.Matches.ParticipationFor(ctx, matchID, participantID)
		if err != nil {
			return err
		}
		if pa == nil {
			return domain.Validationf("participant %d did not play in match %d", participantID, matchID)
		}

		var flairID *int64
		if tribe = strings.TrimSpace(tribe); tribe != "" {
			flair, err := r.Flairs.FindByTribe(ctx, match.Namespace, tribe)
			if err != nil {
				return err
			}
			if flair == nil {
				return domain.NotFoundf("no flair for tribe %q in %s", tribe, match.Namespace)
			}
			flairID = &flair.ID
		}

		return r.Matches.SetParticipationFlair(ctx, pa.ID, flairID)
	})
}
