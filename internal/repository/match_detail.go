package repository

import (
	"context"
	"match-ledger/internal/domain"
)

// MatchDetail loads the read model of a match: the match row, its sides in
// position order and each side's squad, team and roster.
func (r *Repos) MatchDetail(ctx context.Context, matchID int64) (*domain.MatchDetail, error) {
	match, err := r.Matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}

	sides, err := r.Matches.Sides(ctx, matchID)
	if err != nil {
		return nil, err
	}

	participations, err := r.Matches.Participations(ctx, matchID)
	if err != nil {
		return nil, err
	}

	flairs := make(map[int64]*domain.TribeFlair)
	rosters := make(map[int64][]domain.RosterEntry, len(sides))
	for _, pa := range participations {
		participant, err := r.Participants.Get(ctx, pa.ParticipantID)
		if err != nil {
			return nil, err
		}

		entry := domain.RosterEntry{Participation: pa, Participant: *participant}
		if pa.FlairID != nil {
			flair, ok := flairs[*pa.FlairID]
			if !ok {
				flair, err = r.Flairs.Get(ctx, *pa.FlairID)
				if err != nil {
					return nil, err
				}
				flairs[*pa.FlairID] = flair
			}
			entry.Flair = flair
		}
		rosters[pa.SideID] = append(rosters[pa.SideID], entry)
	}

	detail := &domain.MatchDetail{Match: *match, Sides: make([]domain.SideDetail, 0, len(sides))}
	for _, side := range sides {
		squad, err := r.Squads.Get(ctx, side.SquadID)
		if err != nil {
			return nil, err
		}
		team, err := r.Teams.Get(ctx, side.TeamID)
		if err != nil {
			return nil, err
		}
		detail.Sides = append(detail.Sides, domain.SideDetail{
			Side:   side,
			Squad:  *squad,
			Team:   *team,
			Roster: rosters[side.ID],
		})
	}

	return detail, nil
}
