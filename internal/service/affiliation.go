package service

import (
	"context"
	"fmt"
	"match-ledger/internal/constants"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HintSource reports which affiliations a participant claims within a
// namespace. Names that are not registered teams are ignored by the resolver.
type HintSource interface {
	Hints(ctx context.Context, namespace, externalID string) ([]string, error)
}

// StaticHints is an in-memory HintSource.
type StaticHints struct {
	mu    sync.RWMutex
	hints map[string][]string
}

func NewStaticHints() *StaticHints {
	return &StaticHints{hints: make(map[string][]string)}
}

func staticKey(namespace, externalID string) string {
	return namespace + "\x00" + externalID
}

// Set replaces the hints of one participant.
func (h *StaticHints) Set(namespace, externalID string, hints ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hints[staticKey(namespace, externalID)] = hints
}

func (h *StaticHints) Hints(_ context.Context, namespace, externalID string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hints[staticKey(namespace, externalID)], nil
}

// SideAffiliation is the outcome of resolving one side. Members holds each
// participant's singular team, or nil, in roster order.
type SideAffiliation struct {
	Team    *domain.Team
	Members []*domain.Team
}

// Bound reports whether every participant maps to the same single team.
func (s SideAffiliation) Bound() bool {
	return s.Team != nil
}

type AffiliationResolver struct {
	hints  HintSource
	logger zerolog.Logger
}

func NewAffiliationResolver(hints HintSource, logger zerolog.Logger) *AffiliationResolver {
	return &AffiliationResolver{hints: hints, logger: logger}
}

// FetchHints collects hints for every external id concurrently. A participant
// whose hints cannot be fetched is treated as claiming nothing, which leaves
// their side unbound.
func (a *AffiliationResolver) FetchHints(ctx context.Context, namespace string, externalIDs []string) map[string][]string {
	ctx, cancel := context.WithTimeout(ctx, constants.HintFetchTimeout)
	defer cancel()

	var mu sync.Mutex
	result := make(map[string][]string, len(externalIDs))

	// The group only bounds concurrency. Workers log their own failures and
	// never return an error, so Wait cannot fail.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.HintFetchConcurrent)
	for _, id := range externalIDs {
		g.Go(func() error {
			hints, err := a.hints.Hints(gctx, namespace, id)
			if err != nil {
				a.logger.Warn().Err(err).Str("namespace", namespace).Str("external_id", id).Msg("failed to fetch affiliation hints")
				return nil
			}
			mu.Lock()
			result[id] = hints
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Error().Err(err).Str("namespace", namespace).Msg("hint fetch group failed")
	}

	a.logger.Debug().Str("namespace", namespace).Int("participants", len(externalIDs)).Int("with_hints", len(result)).Msg("fetched affiliation hints")
	return result
}

// ResolveSide binds a side when each participant's hints name exactly one
// known team and all of them name the same one.
func ResolveSide(participants []domain.Participant, hints map[string][]string, known map[string]domain.Team) SideAffiliation {
	out := SideAffiliation{Members: make([]*domain.Team, len(participants))}
	var common *domain.Team
	bound := len(participants) > 0
	for i, p := range participants {
		team := singularTeam(hints[p.ExternalID], known)
		out.Members[i] = team
		switch {
		case team == nil:
			bound = false
		case common == nil:
			common = team
		case common.ID != team.ID:
			bound = false
		}
	}
	if bound {
		out.Team = common
	}
	return out
}

func singularTeam(hints []string, known map[string]domain.Team) *domain.Team {
	var found *domain.Team
	for _, name := range hints {
		t, ok := known[name]
		if !ok {
			continue
		}
		if found != nil && found.ID != t.ID {
			return nil
		}
		found = &t
	}
	return found
}

// KnownTeams indexes the namespace's real teams by name.
func (a *AffiliationResolver) KnownTeams(ctx context.Context, r *repository.Repos, namespace string) (map[string]domain.Team, error) {
	teams, err := r.Teams.ListReal(ctx, namespace)
	if err != nil {
		return nil, err
	}
	known := make(map[string]domain.Team, len(teams))
	for _, t := range teams {
		known[t.Name] = t
	}
	return known, nil
}

// ResolvePair picks the teams credited to the home and away sides. Two sides
// bound to different teams keep them; anything else plays as Home vs Away.
// With requireBound an unbound side is an error instead.
func (a *AffiliationResolver) ResolvePair(ctx context.Context, r *repository.Repos, namespace string, home, away SideAffiliation, requireBound bool) ([2]domain.Team, error) {
	if requireBound && (!home.Bound() || !away.Bound()) {
		return [2]domain.Team{}, domain.AffiliationConflictf("both sides must belong to a single team (home bound: %t, away bound: %t)", home.Bound(), away.Bound())
	}

	if home.Bound() && away.Bound() && home.Team.ID != away.Team.ID {
		a.logger.Debug().Str("namespace", namespace).Str("home", home.Team.Name).Str("away", away.Team.Name).Msg("sides bound to teams")
		return [2]domain.Team{*home.Team, *away.Team}, nil
	}

	homeTeam, err := r.Teams.GetOrCreate(ctx, namespace, domain.HomeTeamName, domain.HomeTeamEmoji, true)
	if err != nil {
		return [2]domain.Team{}, fmt.Errorf("failed to get home placeholder: %w", err)
	}
	awayTeam, err := r.Teams.GetOrCreate(ctx, namespace, domain.AwayTeamName, domain.AwayTeamEmoji, true)
	if err != nil {
		return [2]domain.Team{}, fmt.Errorf("failed to get away placeholder: %w", err)
	}

	a.logger.Debug().Str("namespace", namespace).Bool("home_bound", home.Bound()).Bool("away_bound", away.Bound()).Msg("using placeholder teams")
	return [2]domain.Team{homeTeam, awayTeam}, nil
}
