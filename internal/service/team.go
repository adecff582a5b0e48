package service

import (
	"context"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"strings"

	"github.com/rs/zerolog"
)

type TeamService struct {
	store  *repository.Store
	logger zerolog.Logger
}

func NewTeamService(store *repository.Store, logger zerolog.Logger) *TeamService {
	return &TeamService{store: store, logger: logger}
}

// FindTeam returns nil when the namespace has no team with exactly that name.
func (s *TeamService) FindTeam(ctx context.Context, name, namespace string) (*domain.Team, error) {
	return s.store.Repos().Teams.FindByName(ctx, namespace, name)
}

// UpsertTeam registers a real team, or updates its emoji and image. The
// placeholder names are reserved.
func (s *TeamService) UpsertTeam(ctx context.Context, namespace, name, emoji, imageURL string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if namespace == "" || name == "" {
		return nil, domain.Validationf("namespace and team name are required")
	}
	if name == domain.HomeTeamName || name == domain.AwayTeamName {
		return nil, domain.Validationf("%q is reserved for placeholder teams", name)
	}

	var team domain.Team
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		var err error
		team, err = r.Teams.Upsert(ctx, namespace, name, emoji, imageURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("namespace", namespace).Str("team", name).Int64("team_id", team.ID).Msg("team saved")
	return &team, nil
}
