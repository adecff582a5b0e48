package service

import (
	"context"
	"match-ledger/internal/constants"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Policy decides what a single-result lookup does with several matches.
type Policy int

const (
	// RejectAmbiguous fails unless exactly one row matches.
	RejectAmbiguous Policy = iota
	// TakeFirst returns the first match in store order.
	TakeFirst
)

// ParticipantStrategy is one way of turning a search term into participants.
// A strategy that does not apply to the term returns no rows.
type ParticipantStrategy struct {
	Name string
	Find func(ctx context.Context, r *repository.ParticipantRepository, namespace, term string) ([]domain.Participant, error)
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$|^(\d+)$`)

// ByExternalID accepts a raw numeric id or a mention such as <@123> or <@!123>.
var ByExternalID = ParticipantStrategy{
	Name: "external_id",
	Find: func(ctx context.Context, r *repository.ParticipantRepository, namespace, term string) ([]domain.Participant, error) {
		m := mentionPattern.FindStringSubmatch(term)
		if m == nil {
			return nil, nil
		}
		id := m[1]
		if id == "" {
			id = m[2]
		}
		return r.ByExternalID(ctx, namespace, id)
	},
}

// ByExactName matches the account name. A discriminator suffix such as
// "name#1234" is dropped when the part before it is longer than two characters.
var ByExactName = ParticipantStrategy{
	Name: "exact_name",
	Find: func(ctx context.Context, r *repository.ParticipantRepository, namespace, term string) ([]domain.Participant, error) {
		if i := strings.Index(term, "#"); i > 2 {
			term = term[:i]
		}
		return r.ByName(ctx, namespace, term)
	},
}

var ByNameSubstring = ParticipantStrategy{
	Name: "name_substring",
	Find: func(ctx context.Context, r *repository.ParticipantRepository, namespace, term string) ([]domain.Participant, error) {
		return r.SearchName(ctx, namespace, term, constants.LookupLimit)
	},
}

var ByIngameSubstring = ParticipantStrategy{
	Name: "ingame_substring",
	Find: func(ctx context.Context, r *repository.ParticipantRepository, namespace, term string) ([]domain.Participant, error) {
		return r.SearchIngame(ctx, namespace, term, constants.LookupLimit)
	},
}

// DefaultParticipantStrategies is the lookup order used by the service.
var DefaultParticipantStrategies = []ParticipantStrategy{
	ByExternalID,
	ByExactName,
	ByNameSubstring,
	ByIngameSubstring,
}

type LookupService struct {
	store      *repository.Store
	strategies []ParticipantStrategy
	logger     zerolog.Logger
}

func NewLookupService(store *repository.Store, logger zerolog.Logger) *LookupService {
	return &LookupService{store: store, strategies: DefaultParticipantStrategies, logger: logger}
}

// Participants runs the strategies in order and returns the rows of the first
// one that finds anything.
func (l *LookupService) Participants(ctx context.Context, namespace, term string) ([]domain.Participant, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.Validationf("empty participant query")
	}

	r := l.store.Repos().Participants
	for _, strategy := range l.strategies {
		found, err := strategy.Find(ctx, r, namespace, term)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			l.logger.Debug().Str("namespace", namespace).Str("query", term).Str("strategy", strategy.Name).Int("matches", len(found)).Msg("participant lookup")
			return found, nil
		}
	}
	return nil, nil
}

func (l *LookupService) Participant(ctx context.Context, namespace, term string, policy Policy) (*domain.Participant, error) {
	found, err := l.Participants(ctx, namespace, term)
	if err != nil {
		return nil, err
	}
	return pick(found, policy, "participant", term)
}

func (l *LookupService) Team(ctx context.Context, namespace, term string, policy Policy) (*domain.Team, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.Validationf("empty team query")
	}
	found, err := l.store.Repos().Teams.Search(ctx, namespace, term, constants.LookupLimit)
	if err != nil {
		return nil, err
	}
	return pick(found, policy, "team", term)
}

func pick[T any](found []T, policy Policy, kind, term string) (*T, error) {
	switch {
	case len(found) == 0:
		return nil, domain.NotFoundf("no %s matches %q", kind, term)
	case len(found) > 1 && policy == RejectAmbiguous:
		return nil, domain.Validationf("%q matches %d %ss", term, len(found), kind)
	}
	return &found[0], nil
}
