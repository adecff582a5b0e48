package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("finalize: %w", AlreadyFinalizedf("match %d is %s", 7, StatusCompleted))

	assert.ErrorIs(t, wrapped, ErrAlreadyFinalized)
	assert.NotErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, KindAlreadyFinalized, KindOf(wrapped))
	assert.True(t, IsDomain(wrapped))
	assert.Equal(t, "finalize: already_finalized: match 7 is completed", wrapped.Error())

	infra := errors.New("disk full")
	assert.Empty(t, KindOf(infra))
	assert.False(t, IsDomain(infra))
}

func TestNotFoundIsValidation(t *testing.T) {
	err := NotFoundf("participant %s", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrValidation)

	assert.NotErrorIs(t, Validationf("bad"), ErrNotFound)
}

func TestErrorsDoNotMatchByMessage(t *testing.T) {
	a := Validationf("same")
	b := Validationf("same")
	assert.NotErrorIs(t, a, b)
}

func TestMatchStatusIsFinal(t *testing.T) {
	assert.False(t, StatusOpen.IsFinal())
	assert.True(t, StatusCompleted.IsFinal())
	assert.True(t, StatusConfirmed.IsFinal())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "ace", DisplayName("ace", ""))
	assert.Equal(t, "[TAG] ace", DisplayName("ace", "[TAG] ace"))
	assert.Equal(t, "ace (Captain)", DisplayName("ace", "Captain"))
}

func sampleDetail() MatchDetail {
	return MatchDetail{
		Match: Match{ID: 12, Label: "finals", Status: StatusCompleted},
		Sides: []SideDetail{
			{
				Side:  Side{ID: 1, Position: 0, TeamDelta: 25, SquadDelta: 25, IsWinner: true},
				Team:  Team{Name: "Red", Rating: 1025},
				Squad: Squad{Rating: 1025},
				Roster: []RosterEntry{
					{Participation: Participation{ParticipantID: 10, Delta: 48}, Participant: Participant{ID: 10, Name: "ace", Rating: 948}},
					{Participation: Participation{ParticipantID: 11, Delta: 27}, Participant: Participant{ID: 11, Name: "bravo", Rating: 1127}, Flair: &TribeFlair{Emoji: ":wolf:"}},
				},
			},
			{
				Side:  Side{ID: 2, Position: 1, TeamDelta: -25, SquadDelta: -25},
				Team:  Team{Name: "Blue", Rating: 975},
				Squad: Squad{Rating: 975},
				Roster: []RosterEntry{
					{Participation: Participation{ParticipantID: 20, Delta: -38}, Participant: Participant{ID: 20, Name: "charlie", Rating: 962}},
					{Participation: Participation{ParticipantID: 21, Delta: -38}, Participant: Participant{ID: 21, Name: "delta", Rating: 963}},
				},
			},
		},
	}
}

func TestMatchDetail(t *testing.T) {
	m := sampleDetail()

	assert.Equal(t, 2, m.TeamSize())
	assert.Equal(t, "Red", m.Winner())
	assert.Equal(t, "Match 12 Red vs Blue (finals)", m.Headline())
	assert.False(t, m.IsPlaceholderPairing())

	side, ok := m.Side(2)
	assert.True(t, ok)
	assert.Equal(t, "Blue", side.Name())

	_, ok = m.Side(99)
	assert.False(t, ok)

	m.Sides[0].IsWinner = false
	assert.Empty(t, m.Winner())

	m.Sides[0].Team.IsPlaceholder = true
	m.Sides[1].Team.IsPlaceholder = true
	assert.True(t, m.IsPlaceholderPairing())

	lone := MatchDetail{Match: Match{ID: 3}, Sides: m.Sides[:1]}
	assert.Equal(t, "Match 3", lone.Headline())
	assert.False(t, lone.IsPlaceholderPairing())
}

func TestSideDetail(t *testing.T) {
	m := sampleDetail()
	home, away := m.Sides[0], m.Sides[1]

	// (962 + 963) / 2 = 962.5 rounds to even
	assert.Equal(t, 962, away.AverageRating())
	assert.Equal(t, 1038, home.AverageRating())
	assert.Zero(t, SideDetail{}.AverageRating())

	team, squad := home.RatingStrings()
	assert.Equal(t, "1025 +25", team)
	assert.Equal(t, "1025 +25", squad)

	team, _ = away.RatingStrings()
	assert.Equal(t, "975 -25", team)

	assert.True(t, home.HasParticipant(11))
	assert.False(t, home.HasParticipant(20))

	assert.Equal(t, "948 +48", home.Roster[0].RatingString())
	assert.Equal(t, "", home.Roster[0].FlairEmoji())
	assert.Equal(t, ":wolf:", home.Roster[1].FlairEmoji())

	still := RosterEntry{Participant: Participant{Rating: 1000}}
	assert.Equal(t, "1000", still.RatingString())

	solo := SideDetail{Team: Team{Name: "Home"}, Roster: home.Roster[:1]}
	assert.Equal(t, "ace", solo.Name())
}
