package rating

import (
	"match-ledger/internal/domain"
)

// Entity is a rated row as loaded for finalization.
type Entity struct {
	ID        int64
	Rating    int
	Completed int // completed matches before this one
}

// Member is one participant on a side, keyed by its participation row.
type Member struct {
	ParticipationID int64
	Participant     Entity
}

type SideInput struct {
	SideID  int64
	Squad   Entity
	Team    Entity
	Members []Member
}

type FinalizeInput struct {
	MatchID       int64
	WinningSideID int64
	Sides         [2]SideInput
}

type Change struct {
	Scope     domain.Scope
	EntityID  int64
	OldRating int
	NewRating int
	Delta     int
}

type SideOutcome struct {
	SideID        int64
	Won           bool
	AverageRating int
	SquadDelta    int
	TeamDelta     int
	// MemberDeltas is keyed by participation id.
	MemberDeltas map[int64]int
}

// FinalizePlan holds every delta a finalization applies. It is computed before
// anything is written so the commit phase is a plain sequence of updates.
type FinalizePlan struct {
	MatchID   int64
	Sides     [2]SideOutcome
	TeamRated bool
	Changes   []Change
}

// TeamRated reports whether a pairing moves team ratings. 1-on-1 matches only
// touch participant and squad ratings.
func TeamRated(homeSize, awaySize int) bool {
	return homeSize > 1 || awaySize > 1
}

// PlanFinalize computes participant, squad and team deltas for a two-sided match.
//
// Each participant is rated from their own rating against the opposing side's
// average, with a K-factor from their own history. Squads and teams are rated
// against the opposing squad and team.
func PlanFinalize(in FinalizeInput) (FinalizePlan, error) {
	plan := FinalizePlan{MatchID: in.MatchID}

	winner := -1
	for i, s := range in.Sides {
		if len(s.Members) == 0 {
			return plan, domain.UnsupportedTopologyf("side %d of match %d has no participants", s.SideID, in.MatchID)
		}
		if s.SideID == in.WinningSideID {
			winner = i
		}
	}
	if winner < 0 {
		return plan, domain.Validationf("side %d is not part of match %d", in.WinningSideID, in.MatchID)
	}

	var averages [2]int
	for i, s := range in.Sides {
		ratings := make([]int, len(s.Members))
		for j, m := range s.Members {
			ratings[j] = m.Participant.Rating
		}
		averages[i] = Average(ratings)
	}

	plan.TeamRated = TeamRated(len(in.Sides[0].Members), len(in.Sides[1].Members))
	if plan.TeamRated && in.Sides[0].Team.ID == in.Sides[1].Team.ID {
		return plan, domain.InternalConsistencyf("both sides of match %d are credited to team %d", in.MatchID, in.Sides[0].Team.ID)
	}

	for i, s := range in.Sides {
		opp := in.Sides[1-i]
		won := i == winner
		out := SideOutcome{
			SideID:        s.SideID,
			Won:           won,
			AverageRating: averages[i],
			MemberDeltas:  make(map[int64]int, len(s.Members)),
		}

		for _, m := range s.Members {
			p := m.Participant
			d := ComputeDelta(p.Rating, averages[1-i], Sensitivity(domain.ScopeParticipant, p.Completed), won)
			out.MemberDeltas[m.ParticipationID] = d
			plan.Changes = append(plan.Changes, change(domain.ScopeParticipant, p, d))
		}

		out.SquadDelta = ComputeDelta(s.Squad.Rating, opp.Squad.Rating, Sensitivity(domain.ScopeSquad, s.Squad.Completed), won)
		plan.Changes = append(plan.Changes, change(domain.ScopeSquad, s.Squad, out.SquadDelta))

		if plan.TeamRated {
			out.TeamDelta = ComputeDelta(s.Team.Rating, opp.Team.Rating, Sensitivity(domain.ScopeTeam, s.Team.Completed), won)
			plan.Changes = append(plan.Changes, change(domain.ScopeTeam, s.Team, out.TeamDelta))
		}

		plan.Sides[i] = out
	}

	return plan, nil
}

func change(scope domain.Scope, e Entity, delta int) Change {
	return Change{
		Scope:     scope,
		EntityID:  e.ID,
		OldRating: e.Rating,
		NewRating: e.Rating + delta,
		Delta:     delta,
	}
}
