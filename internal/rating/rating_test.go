package rating

import (
	"match-ledger/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitivityTiers(t *testing.T) {
	tests := []struct {
		scope     domain.Scope
		completed int
		want      int
	}{
		{domain.ScopeParticipant, 0, 75},
		{domain.ScopeParticipant, 5, 75},
		{domain.ScopeParticipant, 6, 50},
		{domain.ScopeParticipant, 10, 50},
		{domain.ScopeParticipant, 11, 32},
		{domain.ScopeSquad, 0, 50},
		{domain.ScopeSquad, 6, 50},
		{domain.ScopeSquad, 10, 50},
		{domain.ScopeSquad, 11, 32},
		{domain.ScopeTeam, 5, 50},
		{domain.ScopeTeam, 10, 50},
		{domain.ScopeTeam, 40, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sensitivity(tt.scope, tt.completed), "%s with %d completed", tt.scope, tt.completed)
	}
}

func TestEqualRatingsSplitSensitivity(t *testing.T) {
	for _, rating := range []int{600, 1000, 1001, 1377, 2250} {
		assert.Equal(t, 0.5, WinProbability(rating, rating))
		for _, k := range []int{75, 50, 32} {
			assert.Equal(t, (k+1)/2, ComputeDelta(rating, rating, k, true), "winner at %d with K=%d", rating, k)
			assert.Equal(t, -(k+1)/2, ComputeDelta(rating, rating, k, false), "loser at %d with K=%d", rating, k)
		}
	}
}

func TestComputeDeltaUnevenRatings(t *testing.T) {
	assert.Equal(t, 0.76, WinProbability(1200, 1000))
	assert.Equal(t, 0.24, WinProbability(1000, 1200))

	assert.Equal(t, 8, ComputeDelta(1200, 1000, 32, true))
	assert.Equal(t, -24, ComputeDelta(1200, 1000, 32, false))
	assert.Equal(t, 24, ComputeDelta(1000, 1200, 32, true))
	assert.Equal(t, -8, ComputeDelta(1000, 1200, 32, false))
}

func TestComputeDeltaIsDeterministic(t *testing.T) {
	first := ComputeDelta(1043, 987, 50, true)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeDelta(1043, 987, 50, true))
	}
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0, Average(nil))
	assert.Equal(t, 1000, Average([]int{900, 1100}))
	assert.Equal(t, 1002, Average([]int{1000, 1003, 1003}))
}

func newcomer(id int64) Member {
	return Member{ParticipationID: id * 10, Participant: Entity{ID: id, Rating: domain.DefaultRating}}
}

func TestPlanFinalizeOneOnOne(t *testing.T) {
	plan, err := PlanFinalize(FinalizeInput{
		MatchID:       1,
		WinningSideID: 100,
		Sides: [2]SideInput{
			{SideID: 100, Squad: Entity{ID: 1, Rating: 1000}, Team: Entity{ID: 1, Rating: 1000}, Members: []Member{newcomer(1)}},
			{SideID: 200, Squad: Entity{ID: 2, Rating: 1000}, Team: Entity{ID: 2, Rating: 1000}, Members: []Member{newcomer(2)}},
		},
	})
	require.NoError(t, err)

	assert.False(t, plan.TeamRated)
	assert.True(t, plan.Sides[0].Won)
	assert.False(t, plan.Sides[1].Won)
	assert.Equal(t, 38, plan.Sides[0].MemberDeltas[10])
	assert.Equal(t, -38, plan.Sides[1].MemberDeltas[20])
	assert.Equal(t, 25, plan.Sides[0].SquadDelta)
	assert.Equal(t, -25, plan.Sides[1].SquadDelta)
	assert.Zero(t, plan.Sides[0].TeamDelta)
	assert.Zero(t, plan.Sides[1].TeamDelta)

	for _, c := range plan.Changes {
		assert.NotEqual(t, domain.ScopeTeam, c.Scope)
	}
	assert.Len(t, plan.Changes, 4)
}

func TestPlanFinalizeUsesOwnRatingAgainstOpposingAverage(t *testing.T) {
	plan, err := PlanFinalize(FinalizeInput{
		MatchID:       2,
		WinningSideID: 100,
		Sides: [2]SideInput{
			{
				SideID: 100,
				Squad:  Entity{ID: 1, Rating: 1000},
				Team:   Entity{ID: 1, Rating: 1000},
				Members: []Member{
					{ParticipationID: 11, Participant: Entity{ID: 1, Rating: 900}},
					{ParticipationID: 12, Participant: Entity{ID: 2, Rating: 1100}},
				},
			},
			{
				SideID: 200,
				Squad:  Entity{ID: 2, Rating: 1000},
				Team:   Entity{ID: 2, Rating: 1000},
				Members: []Member{
					{ParticipationID: 21, Participant: Entity{ID: 3, Rating: 1000}},
					{ParticipationID: 22, Participant: Entity{ID: 4, Rating: 1000}},
				},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1000, plan.Sides[0].AverageRating)
	assert.Equal(t, 1000, plan.Sides[1].AverageRating)

	// 900 vs 1000: p=0.360, 75*0.64=48. 1100 vs 1000: p=0.640, 75*0.36=27.
	assert.Equal(t, 48, plan.Sides[0].MemberDeltas[11])
	assert.Equal(t, 27, plan.Sides[0].MemberDeltas[12])
	assert.NotEqual(t, plan.Sides[0].MemberDeltas[11], plan.Sides[0].MemberDeltas[12])

	assert.Equal(t, -38, plan.Sides[1].MemberDeltas[21])
	assert.Equal(t, -38, plan.Sides[1].MemberDeltas[22])

	assert.True(t, plan.TeamRated)
	assert.Equal(t, 25, plan.Sides[0].TeamDelta)
	assert.Equal(t, -25, plan.Sides[1].TeamDelta)
	assert.Len(t, plan.Changes, 8)
}

func TestPlanFinalizeUsesHistoryForSensitivity(t *testing.T) {
	veteran := Member{ParticipationID: 10, Participant: Entity{ID: 1, Rating: 1000, Completed: 11}}
	plan, err := PlanFinalize(FinalizeInput{
		MatchID:       3,
		WinningSideID: 200,
		Sides: [2]SideInput{
			{SideID: 100, Squad: Entity{ID: 1, Rating: 1000, Completed: 7}, Members: []Member{veteran}},
			{SideID: 200, Squad: Entity{ID: 2, Rating: 1000, Completed: 20}, Members: []Member{newcomer(2)}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, -16, plan.Sides[0].MemberDeltas[10])
	assert.Equal(t, 38, plan.Sides[1].MemberDeltas[20])
	assert.Equal(t, -25, plan.Sides[0].SquadDelta)
	assert.Equal(t, 16, plan.Sides[1].SquadDelta)
}

func TestPlanFinalizeRejectsForeignWinner(t *testing.T) {
	_, err := PlanFinalize(FinalizeInput{
		MatchID:       4,
		WinningSideID: 999,
		Sides: [2]SideInput{
			{SideID: 100, Squad: Entity{ID: 1}, Members: []Member{newcomer(1)}},
			{SideID: 200, Squad: Entity{ID: 2}, Members: []Member{newcomer(2)}},
		},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPlanFinalizeRejectsSameTeamOnBothSides(t *testing.T) {
	_, err := PlanFinalize(FinalizeInput{
		MatchID:       5,
		WinningSideID: 100,
		Sides: [2]SideInput{
			{SideID: 100, Squad: Entity{ID: 1}, Team: Entity{ID: 7}, Members: []Member{newcomer(1), newcomer(2)}},
			{SideID: 200, Squad: Entity{ID: 2}, Team: Entity{ID: 7}, Members: []Member{newcomer(3), newcomer(4)}},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInternalConsistency)
}

func TestTeamRated(t *testing.T) {
	assert.False(t, TeamRated(1, 1))
	assert.True(t, TeamRated(2, 2))
	assert.True(t, TeamRated(1, 2))
}
