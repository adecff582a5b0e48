package service

import (
	"context"
	"database/sql"
	"fmt"
	"match-ledger/internal/config"
	"match-ledger/internal/database"
	"match-ledger/internal/domain"
	"match-ledger/internal/repository"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNamespace = "guild-1"

type testEnv struct {
	db           *sql.DB
	store        *repository.Store
	hints        *StaticHints
	matches      *MatchService
	squads       *SquadResolver
	lookup       *LookupService
	teams        *TeamService
	participants *ParticipantService
	flairs       *FlairService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		DBPath:       filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel:     "debug",
		HintSource:   config.HintSourceStatic,
		TxMaxRetries: 3,
	}
	logger := zerolog.Nop()

	sqlDB, err := database.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := repository.NewStore(sqlDB, cfg, logger)
	hints := NewStaticHints()
	lookup := NewLookupService(store, logger)
	squads := NewSquadResolver(store, logger)

	return &testEnv{
		db:           sqlDB,
		store:        store,
		hints:        hints,
		matches:      NewMatchService(store, NewAffiliationResolver(hints, logger), squads, lookup, logger),
		squads:       squads,
		lookup:       lookup,
		teams:        NewTeamService(store, logger),
		participants: NewParticipantService(store, lookup, logger),
		flairs:       NewFlairService(store, logger),
	}
}

func refs(ids ...string) []domain.ParticipantRef {
	out := make([]domain.ParticipantRef, len(ids))
	for i, id := range ids {
		out[i] = domain.ParticipantRef{ExternalID: id, Name: "player" + id}
	}
	return out
}

func (e *testEnv) create(t *testing.T, home, away []domain.ParticipantRef) *domain.MatchDetail {
	t.Helper()
	detail, err := e.matches.CreateMatch(context.Background(), CreateMatchInput{
		Namespace: testNamespace,
		Home:      home,
		Away:      away,
	})
	require.NoError(t, err)
	require.Len(t, detail.Sides, 2)
	return detail
}

func (e *testEnv) participant(t *testing.T, externalID string) domain.Participant {
	t.Helper()
	found, err := e.store.Repos().Participants.ByExternalID(context.Background(), testNamespace, externalID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0]
}

func (e *testEnv) setRating(t *testing.T, externalID string, rating int) {
	t.Helper()
	p := e.participant(t, externalID)
	err := e.store.InTx(context.Background(), func(r *repository.Repos) error {
		return r.Participants.AddRating(context.Background(), p.ID, rating-p.Rating, p.UpdatedAt)
	})
	require.NoError(t, err)
}

func TestCreateMatch_OneOnOneUsesPlaceholders(t *testing.T) {
	env := newTestEnv(t)

	detail := env.create(t, refs("1"), refs("2"))

	assert.Equal(t, domain.StatusOpen, detail.Status)
	assert.Nil(t, detail.CompletedAt)
	assert.Equal(t, 1, detail.TeamSize())
	assert.True(t, detail.IsPlaceholderPairing())

	home, away := detail.Sides[0], detail.Sides[1]
	assert.Equal(t, 0, home.Position)
	assert.Equal(t, 1, away.Position)
	assert.Equal(t, domain.HomeTeamName, home.Team.Name)
	assert.Equal(t, domain.HomeTeamEmoji, home.Team.Emoji)
	assert.Equal(t, domain.AwayTeamName, away.Team.Name)
	assert.Equal(t, domain.AwayTeamEmoji, away.Team.Emoji)
	assert.Equal(t, "player1", home.Name())
	assert.Equal(t, domain.DefaultRating, home.Roster[0].Participant.Rating)
	assert.Equal(t, domain.DefaultRating, home.Squad.Rating)
	assert.NotEqual(t, home.Squad.ID, away.Squad.ID)
}

func TestCreateMatch_PlaceholdersAreReused(t *testing.T) {
	env := newTestEnv(t)

	first := env.create(t, refs("1"), refs("2"))
	second := env.create(t, refs("3"), refs("4"))

	assert.Equal(t, first.Sides[0].Team.ID, second.Sides[0].Team.ID)
	assert.Equal(t, first.Sides[1].Team.ID, second.Sides[1].Team.ID)
}

func TestCreateMatch_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateMatchInput
	}{
		{"empty home", CreateMatchInput{Namespace: testNamespace, Away: refs("1")}},
		{"empty away", CreateMatchInput{Namespace: testNamespace, Home: refs("1")}},
		{"no namespace", CreateMatchInput{Home: refs("1"), Away: refs("2")}},
		{"repeated on one side", CreateMatchInput{Namespace: testNamespace, Home: refs("1", "1"), Away: refs("2")}},
		{"on both sides", CreateMatchInput{Namespace: testNamespace, Home: refs("1", "2"), Away: refs("2", "3")}},
		{"missing external id", CreateMatchInput{Namespace: testNamespace, Home: []domain.ParticipantRef{{Name: "x"}}, Away: refs("2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.matches.CreateMatch(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestFinalizeMatch_OneOnOneNewParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	winner := created.Sides[0]

	detail, err := env.matches.FinalizeMatch(ctx, created.ID, winner.ID, false)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, detail.Status)
	require.NotNil(t, detail.CompletedAt)
	assert.Equal(t, "player1", detail.Winner())

	home, away := detail.Sides[0], detail.Sides[1]
	assert.True(t, home.IsWinner)
	assert.False(t, away.IsWinner)

	assert.Equal(t, 1038, home.Roster[0].Participant.Rating)
	assert.Equal(t, 38, home.Roster[0].Delta)
	assert.Equal(t, "1038 +38", home.Roster[0].RatingString())
	assert.Equal(t, 962, away.Roster[0].Participant.Rating)
	assert.Equal(t, -38, away.Roster[0].Delta)
	assert.Equal(t, "962 -38", away.Roster[0].RatingString())

	assert.Equal(t, 1025, home.Squad.Rating)
	assert.Equal(t, 25, home.SquadDelta)
	assert.Equal(t, 975, away.Squad.Rating)
	assert.Equal(t, -25, away.SquadDelta)

	// team ratings do not move in a 1-on-1
	assert.Equal(t, domain.DefaultRating, home.Team.Rating)
	assert.Equal(t, domain.DefaultRating, away.Team.Rating)
	assert.Zero(t, home.TeamDelta)
	assert.Zero(t, away.TeamDelta)
}

func TestFinalizeMatch_TwoVsTwoDeltasFollowOwnRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.create(t, refs("1", "2"), refs("3", "4"))
	env.setRating(t, "1", 900)
	env.setRating(t, "2", 1100)

	created := env.create(t, refs("1", "2"), refs("3", "4"))
	assert.Equal(t, 1000, created.Sides[0].AverageRating())

	detail, err := env.matches.FinalizeMatch(ctx, created.ID, created.Sides[0].ID, false)
	require.NoError(t, err)

	deltas := map[string]int{}
	for _, side := range detail.Sides {
		for _, entry := range side.Roster {
			deltas[entry.Participant.ExternalID] = entry.Delta
		}
	}
	assert.Equal(t, 48, deltas["1"])
	assert.Equal(t, 27, deltas["2"])
	assert.NotEqual(t, deltas["1"], deltas["2"])
	assert.Equal(t, -38, deltas["3"])
	assert.Equal(t, -38, deltas["4"])

	assert.Equal(t, 948, env.participant(t, "1").Rating)
	assert.Equal(t, 1127, env.participant(t, "2").Rating)

	// team ratings move once either side has more than one participant
	assert.Equal(t, 25, detail.Sides[0].TeamDelta)
	assert.Equal(t, 1025, detail.Sides[0].Team.Rating)
	assert.Equal(t, -25, detail.Sides[1].TeamDelta)
	assert.Equal(t, 975, detail.Sides[1].Team.Rating)
}

func TestFinalizeMatch_TwiceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	_, err := env.matches.FinalizeMatch(ctx, created.ID, created.Sides[0].ID, false)
	require.NoError(t, err)

	_, err = env.matches.FinalizeMatch(ctx, created.ID, created.Sides[1].ID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	assert.Equal(t, 1038, env.participant(t, "1").Rating)
	assert.Equal(t, 962, env.participant(t, "2").Rating)

	detail, err := env.matches.GetMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, detail.Sides[0].IsWinner)
	assert.False(t, detail.Sides[1].IsWinner)
}

func TestFinalizeMatch_ConcurrentCallsApplyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.matches.FinalizeMatch(ctx, created.ID, created.Sides[0].ID, false)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	}
	assert.Equal(t, 1, succeeded)

	assert.Equal(t, 1038, env.participant(t, "1").Rating)
	assert.Equal(t, 962, env.participant(t, "2").Rating)
}

func TestFinalizeMatch_OneSideLeftIsUnsupported(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	require.NoError(t, env.matches.RemoveSide(ctx, created.Sides[1].ID))

	_, err := env.matches.FinalizeMatch(ctx, created.ID, created.Sides[0].ID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedTopology)

	assert.Equal(t, domain.DefaultRating, env.participant(t, "1").Rating)

	detail, err := env.matches.GetMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, detail.Status)
	assert.Len(t, detail.Sides, 1)
	assert.Equal(t, domain.DefaultRating, detail.Sides[0].Squad.Rating)
	assert.False(t, detail.Sides[0].IsWinner)
}

func TestFinalizeMatch_ForeignWinningSide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.create(t, refs("1"), refs("2"))
	second := env.create(t, refs("3"), refs("4"))

	_, err := env.matches.FinalizeMatch(ctx, first.ID, second.Sides[0].ID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	detail, err := env.matches.GetMatch(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, detail.Status)
}

func TestFinalizeMatch_MissingMatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.matches.FinalizeMatch(context.Background(), 404, 1, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))

	_, err := env.matches.ConfirmMatch(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.matches.FinalizeMatch(ctx, created.ID, created.Sides[1].ID, false)
	require.NoError(t, err)

	detail, err := env.matches.ConfirmMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, detail.Status)

	_, err = env.matches.ConfirmMatch(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestFinalizeMatch_ConfirmFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	detail, err := env.matches.FinalizeMatch(ctx, created.ID, created.Sides[1].ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, detail.Status)
	assert.Equal(t, "player2", detail.Winner())
}

func TestDeleteMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	open := env.create(t, refs("1"), refs("2"))
	require.NoError(t, env.matches.DeleteMatch(ctx, open.ID))

	_, err := env.matches.GetMatch(ctx, open.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	done := env.create(t, refs("1"), refs("2"))
	_, err = env.matches.FinalizeMatch(ctx, done.ID, done.Sides[0].ID, false)
	require.NoError(t, err)

	err = env.matches.DeleteMatch(ctx, done.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestRemoveSide_FinishedMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	_, err := env.matches.FinalizeMatch(ctx, created.ID, created.Sides[0].ID, false)
	require.NoError(t, err)

	err = env.matches.RemoveSide(ctx, created.Sides[1].ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestFinalizeMatch_SensitivityFollowsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// six completed matches move both participants out of the first tier
	for i := 0; i < 6; i++ {
		m := env.create(t, refs("1"), refs("2"))
		_, err := env.matches.FinalizeMatch(ctx, m.ID, m.Sides[i%2].ID, false)
		require.NoError(t, err)
	}

	a, b := env.participant(t, "1"), env.participant(t, "2")
	require.Equal(t, 984, a.Rating)
	require.Equal(t, 1016, b.Rating)

	m := env.create(t, refs("1"), refs("2"))
	completed, err := env.store.Repos().Participants.CompletedMatches(ctx, a.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, completed)

	detail, err := env.matches.FinalizeMatch(ctx, m.ID, m.Sides[0].ID, false)
	require.NoError(t, err)

	// 41 with the new-participant sensitivity
	assert.Equal(t, 27, detail.Sides[0].Roster[0].Delta)
	assert.Equal(t, -27, detail.Sides[1].Roster[0].Delta)
}

func TestSideFor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("11", "12"), refs("21", "22"))

	side, err := env.matches.SideFor(ctx, created.ID, testNamespace, SideQuery{Participant: "<@21>"})
	require.NoError(t, err)
	assert.Equal(t, created.Sides[1].ID, side.ID)

	side, err = env.matches.SideFor(ctx, created.ID, testNamespace, SideQuery{Participant: "player11"})
	require.NoError(t, err)
	assert.Equal(t, created.Sides[0].ID, side.ID)

	side, err = env.matches.SideFor(ctx, created.ID, testNamespace, SideQuery{Team: "Away"})
	require.NoError(t, err)
	assert.Equal(t, created.Sides[1].ID, side.ID)

	// "player" matches all four participants by substring
	_, err = env.matches.SideFor(ctx, created.ID, testNamespace, SideQuery{Participant: "player"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.matches.SideFor(ctx, created.ID, testNamespace, SideQuery{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSideFor_ParticipantNotInMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	env.create(t, refs("3"), refs("4"))

	_, err := env.matches.SideFor(ctx, created.ID, testNamespace, SideQuery{Participant: "3"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRatingHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, refs("1"), refs("2"))
	_, err := env.matches.FinalizeMatch(ctx, created.ID, created.Sides[0].ID, false)
	require.NoError(t, err)

	p := env.participant(t, "1")
	history, err := env.participants.RatingHistory(ctx, testNamespace, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].MatchID)
	assert.Equal(t, domain.ScopeParticipant, history[0].Scope)
	assert.Equal(t, 1000, history[0].OldRating)
	assert.Equal(t, 1038, history[0].NewRating)
	assert.Equal(t, 38, history[0].Delta)
	assert.NotEmpty(t, history[0].ID)

	_, err = env.participants.RatingHistory(ctx, "other", p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateMatch_RefreshesNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.create(t, refs("1"), refs("2"))
	detail, err := env.matches.CreateMatch(ctx, CreateMatchInput{
		Namespace: testNamespace,
		Label:     "rematch",
		Home:      []domain.ParticipantRef{{ExternalID: "1", Name: "renamed", Nick: "Captain renamed"}},
		Away:      refs("2"),
	})
	require.NoError(t, err)

	p := detail.Sides[0].Roster[0].Participant
	assert.Equal(t, "renamed", p.Name)
	assert.Equal(t, "Captain renamed", domain.DisplayName(p.Name, p.Nick))
	assert.Equal(t, fmt.Sprintf("Match %d renamed vs player2 (rematch)", detail.ID), detail.Headline())
}
