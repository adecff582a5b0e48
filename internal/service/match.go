package service

import (
	"context"
	"fmt"
	"match-ledger/internal/domain"
	"match-ledger/internal/rating"
	"match-ledger/internal/repository"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type CreateMatchInput struct {
	Namespace    string                  `json:"namespace"`
	Label        string                  `json:"label"`
	RequireBound bool                    `json:"require_bound"`
	Home         []domain.ParticipantRef `json:"home"`
	Away         []domain.ParticipantRef `json:"away"`
}

// Validate checks that both sides are non-empty and that nobody appears twice,
// on the same side or on both.
func (in CreateMatchInput) Validate() error {
	if strings.TrimSpace(in.Namespace) == "" {
		return domain.Validationf("namespace is required")
	}
	if len(in.Home) == 0 || len(in.Away) == 0 {
		return domain.Validationf("both sides need at least one participant")
	}
	seen := make(map[string]bool, len(in.Home)+len(in.Away))
	for _, ref := range append(append([]domain.ParticipantRef{}, in.Home...), in.Away...) {
		if ref.ExternalID == "" {
			return domain.Validationf("participant %q has no external id", ref.Name)
		}
		if ref.Name == "" {
			return domain.Validationf("participant %s has no name", ref.ExternalID)
		}
		if seen[ref.ExternalID] {
			return domain.Validationf("participant %s is listed more than once", ref.ExternalID)
		}
		seen[ref.ExternalID] = true
	}
	return nil
}

// SideQuery names a participant or a team to find within a match. Exactly
// one field is set.
type SideQuery struct {
	Participant string
	Team        string
}

type MatchService struct {
	store       *repository.Store
	affiliation *AffiliationResolver
	squads      *SquadResolver
	lookup      *LookupService
	now         func() time.Time
	logger      zerolog.Logger
}

func NewMatchService(store *repository.Store, affiliation *AffiliationResolver, squads *SquadResolver, lookup *LookupService, logger zerolog.Logger) *MatchService {
	return &MatchService{
		store:       store,
		affiliation: affiliation,
		squads:      squads,
		lookup:      lookup,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// CreateMatch opens a match between two disjoint sets of participants. Hints
// are fetched up front; everything else happens in one transaction, so a
// rejected affiliation leaves no trace.
func (s *MatchService) CreateMatch(ctx context.Context, in CreateMatchInput) (*domain.MatchDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("namespace", in.Namespace).
		Int("home", len(in.Home)).
		Int("away", len(in.Away)).
		Bool("require_bound", in.RequireBound).
		Msg("creating match")

	externalIDs := make([]string, 0, len(in.Home)+len(in.Away))
	for _, ref := range in.Home {
		externalIDs = append(externalIDs, ref.ExternalID)
	}
	for _, ref := range in.Away {
		externalIDs = append(externalIDs, ref.ExternalID)
	}
	hints := s.affiliation.FetchHints(ctx, in.Namespace, externalIDs)

	var detail *domain.MatchDetail
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		now := s.now()

		known, err := s.affiliation.KnownTeams(ctx, r, in.Namespace)
		if err != nil {
			return err
		}

		refs := [2][]domain.ParticipantRef{in.Home, in.Away}
		var participants [2][]domain.Participant
		var affiliations [2]SideAffiliation
		for i, side := range refs {
			for _, ref := range side {
				p, err := r.Participants.Upsert(ctx, in.Namespace, ref, now)
				if err != nil {
					return err
				}
				participants[i] = append(participants[i], p)
			}
			affiliations[i] = ResolveSide(participants[i], hints, known)
		}

		teams, err := s.affiliation.ResolvePair(ctx, r, in.Namespace, affiliations[0], affiliations[1], in.RequireBound)
		if err != nil {
			return err
		}

		for i := range participants {
			for j, p := range participants[i] {
				var teamID *int64
				if t := affiliations[i].Members[j]; t != nil {
					teamID = &t.ID
				}
				if err := r.Participants.SetTeam(ctx, p.ID, teamID, now); err != nil {
					return err
				}
			}
		}

		match, err := r.Matches.Create(ctx, in.Namespace, in.Label, now)
		if err != nil {
			return err
		}

		for i := range participants {
			ids := make([]int64, len(participants[i]))
			for j, p := range participants[i] {
				ids[j] = p.ID
			}
			squad, err := s.squads.Resolve(ctx, r, ids)
			if err != nil {
				return err
			}
			side, err := r.Matches.AddSide(ctx, match.ID, squad.ID, teams[i].ID, i)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := r.Matches.AddParticipation(ctx, side.ID, id); err != nil {
					return err
				}
			}
		}

		detail, err = r.MatchDetail(ctx, match.ID)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("namespace", in.Namespace).Msg("failed to create match")
		return nil, err
	}

	s.logger.Info().
		Int64("match_id", detail.ID).
		Str("home_team", detail.Sides[0].Team.Name).
		Str("away_team", detail.Sides[1].Team.Name).
		Msg("match created")
	return detail, nil
}

// FinalizeMatch declares winningSideID the winner and applies every rating
// change in one transaction. The match is claimed first, so of two concurrent
// calls only one applies deltas and the other gets an already-finalized error.
func (s *MatchService) FinalizeMatch(ctx context.Context, matchID, winningSideID int64, confirm bool) (*domain.MatchDetail, error) {
	s.logger.Info().Int64("match_id", matchID).Int64("side_id", winningSideID).Bool("confirm", confirm).Msg("finalizing match")

	var detail *domain.MatchDetail
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		if err := s.claim(ctx, r, matchID); err != nil {
			return err
		}

		current, err := r.MatchDetail(ctx, matchID)
		if err != nil {
			return err
		}
		if len(current.Sides) != 2 {
			return domain.UnsupportedTopologyf("match %d has %d sides, need exactly 2", matchID, len(current.Sides))
		}
		if _, ok := current.Side(winningSideID); !ok {
			return domain.Validationf("side %d is not part of match %d", winningSideID, matchID)
		}

		in, err := s.finalizeInput(ctx, r, current, winningSideID)
		if err != nil {
			return err
		}

		plan, err := rating.PlanFinalize(in)
		if err != nil {
			return err
		}

		s.logger.Debug().
			Int64("match_id", matchID).
			Bool("team_rated", plan.TeamRated).
			Int("home_average", plan.Sides[0].AverageRating).
			Int("away_average", plan.Sides[1].AverageRating).
			Msg("rating plan computed")

		status := domain.StatusCompleted
		if confirm {
			status = domain.StatusConfirmed
		}
		if err := s.apply(ctx, r, current, plan, status); err != nil {
			return err
		}

		detail, err = r.MatchDetail(ctx, matchID)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("match_id", matchID).Msg("failed to finalize match")
		return nil, err
	}

	s.logger.Info().Int64("match_id", matchID).Str("status", string(detail.Status)).Str("winner", detail.Winner()).Msg("match finalized")
	return detail, nil
}

// claim makes the transaction the only writer of an open match.
func (s *MatchService) claim(ctx context.Context, r *repository.Repos, matchID int64) error {
	ok, err := r.Matches.Claim(ctx, matchID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	match, err := r.Matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	return domain.AlreadyFinalizedf("match %d is %s", matchID, match.Status)
}

func (s *MatchService) finalizeInput(ctx context.Context, r *repository.Repos, detail *domain.MatchDetail, winningSideID int64) (rating.FinalizeInput, error) {
	in := rating.FinalizeInput{MatchID: detail.ID, WinningSideID: winningSideID}

	for i, side := range detail.Sides {
		squadCount, err := r.Squads.CompletedMatches(ctx, side.Squad.ID, detail.ID)
		if err != nil {
			return in, err
		}
		teamCount, err := r.Teams.CompletedMatches(ctx, side.Team.ID, detail.ID)
		if err != nil {
			return in, err
		}

		members := make([]rating.Member, len(side.Roster))
		for j, entry := range side.Roster {
			count, err := r.Participants.CompletedMatches(ctx, entry.Participant.ID, detail.ID)
			if err != nil {
				return in, err
			}
			members[j] = rating.Member{
				ParticipationID: entry.Participation.ID,
				Participant:     rating.Entity{ID: entry.Participant.ID, Rating: entry.Participant.Rating, Completed: count},
			}
		}

		in.Sides[i] = rating.SideInput{
			SideID:  side.ID,
			Squad:   rating.Entity{ID: side.Squad.ID, Rating: side.Squad.Rating, Completed: squadCount},
			Team:    rating.Entity{ID: side.Team.ID, Rating: side.Team.Rating, Completed: teamCount},
			Members: members,
		}
	}

	return in, nil
}

// apply writes a computed plan. Nothing here decides anything; every value
// comes from the plan.
func (s *MatchService) apply(ctx context.Context, r *repository.Repos, detail *domain.MatchDetail, plan rating.FinalizePlan, status domain.MatchStatus) error {
	now := s.now()

	for i, outcome := range plan.Sides {
		side := detail.Sides[i]

		for _, entry := range side.Roster {
			delta := outcome.MemberDeltas[entry.Participation.ID]
			if err := r.Participants.AddRating(ctx, entry.Participant.ID, delta, now); err != nil {
				return err
			}
			if err := r.Matches.SetParticipationDelta(ctx, entry.Participation.ID, delta); err != nil {
				return err
			}
		}

		if err := r.Squads.AddRating(ctx, side.Squad.ID, outcome.SquadDelta); err != nil {
			return err
		}
		if plan.TeamRated {
			if err := r.Teams.AddRating(ctx, side.Team.ID, outcome.TeamDelta); err != nil {
				return err
			}
		}

		if err := r.Matches.SetSideResult(ctx, side.ID, outcome.TeamDelta, outcome.SquadDelta, outcome.Won); err != nil {
			return err
		}
	}

	ok, err := r.Matches.Complete(ctx, detail.ID, detail.Version, status, now)
	if err != nil {
		return err
	}
	if !ok {
		return domain.AlreadyFinalizedf("match %d changed while finalizing", detail.ID)
	}

	changes := make([]domain.RatingChange, len(plan.Changes))
	for i, c := range plan.Changes {
		changes[i] = domain.RatingChange{
			MatchID:   detail.ID,
			Scope:     c.Scope,
			EntityID:  c.EntityID,
			OldRating: c.OldRating,
			NewRating: c.NewRating,
			Delta:     c.Delta,
			CreatedAt: now,
		}
	}
	return r.RatingChanges.InsertBatch(ctx, changes)
}

// ConfirmMatch moves a completed match to confirmed.
func (s *MatchService) ConfirmMatch(ctx context.Context, matchID int64) (*domain.MatchDetail, error) {
	var detail *domain.MatchDetail
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		ok, err := r.Matches.Confirm(ctx, matchID)
		if err != nil {
			return err
		}
		if !ok {
			match, err := r.Matches.Get(ctx, matchID)
			if err != nil {
				return err
			}
			if match.Status == domain.StatusOpen {
				return domain.Validationf("match %d is not completed", matchID)
			}
			return domain.AlreadyFinalizedf("match %d is already %s", matchID, match.Status)
		}
		detail, err = r.MatchDetail(ctx, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("match_id", matchID).Msg("match confirmed")
	return detail, nil
}

// DeleteMatch removes an open match with its sides and participations.
// Finished matches are part of the rating history and stay.
func (s *MatchService) DeleteMatch(ctx context.Context, matchID int64) error {
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		ok, err := r.Matches.DeleteOpen(ctx, matchID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		match, err := r.Matches.Get(ctx, matchID)
		if err != nil {
			return err
		}
		return domain.AlreadyFinalizedf("match %d is %s and cannot be deleted", matchID, match.Status)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("match_id", matchID).Msg("match deleted")
	return nil
}

// RemoveSide drops one side of an open match. A match left with a single
// side cannot be finalized until it is deleted and recreated.
func (s *MatchService) RemoveSide(ctx context.Context, sideID int64) error {
	err := s.store.InTx(ctx, func(r *repository.Repos) error {
		side, err := r.Matches.GetSide(ctx, sideID)
		if err != nil {
			return err
		}
		if err := s.claim(ctx, r, side.MatchID); err != nil {
			return err
		}
		return r.Matches.DeleteSide(ctx, sideID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("side_id", sideID).Msg("side removed")
	return nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID int64) (*domain.MatchDetail, error) {
	return s.store.Repos().MatchDetail(ctx, matchID)
}

// SideFor returns the side a participant or team played on. Ambiguous names
// are rejected rather than guessed.
func (s *MatchService) SideFor(ctx context.Context, matchID int64, namespace string, q SideQuery) (*domain.SideDetail, error) {
	if (q.Participant == "") == (q.Team == "") {
		return nil, domain.Validationf("query either a participant or a team")
	}

	s.logger.Debug().Int64("match_id", matchID).Str("namespace", namespace).Stringer("query", q).Msg("finding side")

	detail, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if q.Participant != "" {
		p, err := s.lookup.Participant(ctx, namespace, q.Participant, RejectAmbiguous)
		if err != nil {
			return nil, err
		}
		for _, side := range detail.Sides {
			if side.HasParticipant(p.ID) {
				return &side, nil
			}
		}
		return nil, domain.Validationf("%s did not play in match %d", p.Name, matchID)
	}

	t, err := s.lookup.Team(ctx, namespace, q.Team, RejectAmbiguous)
	if err != nil {
		return nil, err
	}
	for _, side := range detail.Sides {
		if side.Team.ID == t.ID {
			return &side, nil
		}
	}
	return nil, domain.Validationf("team %s did not play in match %d", t.Name, matchID)
}

func (q SideQuery) String() string {
	if q.Participant != "" {
		return fmt.Sprintf("participant:%s", q.Participant)
	}
	return fmt.Sprintf("team:%s", q.Team)
}
