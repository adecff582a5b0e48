package server

import (
	"match-ledger/internal/domain"
	"time"
)

type teamView struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Emoji         string `json:"emoji,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Rating        int    `json:"rating"`
	IsPlaceholder bool   `json:"is_placeholder"`
}

func toTeamView(t domain.Team) teamView {
	return teamView{
		ID:            t.ID,
		Name:          t.Name,
		Emoji:         t.Emoji,
		ImageURL:      t.ImageURL,
		Rating:        t.Rating,
		IsPlaceholder: t.IsPlaceholder,
	}
}

type squadView struct {
	ID        int64   `json:"id"`
	Rating    int     `json:"rating"`
	MemberIDs []int64 `json:"member_ids"`
}

func toSquadView(s domain.Squad) squadView {
	return squadView{ID: s.ID, Rating: s.Rating, MemberIDs: s.MemberIDs}
}

type participantView struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Nick       string `json:"nick,omitempty"`
	Display    string `json:"display"`
	IngameName string `json:"ingame_name,omitempty"`
	IngameID   string `json:"ingame_id,omitempty"`
	Rating     int    `json:"rating"`
	TeamID     *int64 `json:"team_id,omitempty"`
}

func toParticipantView(p domain.Participant) participantView {
	return participantView{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		Nick:       p.Nick,
		Display:    domain.DisplayName(p.Name, p.Nick),
		IngameName: p.IngameName,
		IngameID:   p.IngameID,
		Rating:     p.Rating,
		TeamID:     p.TeamID,
	}
}

type rosterEntryView struct {
	Participant  participantView `json:"participant"`
	Delta        int             `json:"delta"`
	RatingString string          `json:"rating_string"`
	Flair        string          `json:"flair,omitempty"`
}

type sideView struct {
	ID            int64             `json:"id"`
	Position      int               `json:"position"`
	Name          string            `json:"name"`
	IsWinner      bool              `json:"is_winner"`
	AverageRating int               `json:"average_rating"`
	Team          teamView          `json:"team"`
	TeamRating    string            `json:"team_rating"`
	Squad         squadView         `json:"squad"`
	SquadRating   string            `json:"squad_rating"`
	Roster        []rosterEntryView `json:"roster"`
}

func toSideView(s domain.SideDetail) sideView {
	teamRating, squadRating := s.RatingStrings()
	v := sideView{
		ID:            s.ID,
		Position:      s.Position,
		Name:          s.Name(),
		IsWinner:      s.IsWinner,
		AverageRating: s.AverageRating(),
		Team:          toTeamView(s.Team),
		TeamRating:    teamRating,
		Squad:         toSquadView(s.Squad),
		SquadRating:   squadRating,
		Roster:        make([]rosterEntryView, len(s.Roster)),
	}
	for i, entry := range s.Roster {
		v.Roster[i] = rosterEntryView{
			Participant:  toParticipantView(entry.Participant),
			Delta:        entry.Delta,
			RatingString: entry.RatingString(),
			Flair:        entry.FlairEmoji(),
		}
	}
	return v
}

type matchView struct {
	ID                 int64      `json:"id"`
	Namespace          string     `json:"namespace"`
	Label              string     `json:"label,omitempty"`
	Status             string     `json:"status"`
	Headline           string     `json:"headline"`
	Winner             string     `json:"winner,omitempty"`
	TeamSize           int        `json:"team_size"`
	PlaceholderPairing bool       `json:"placeholder_pairing"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Sides              []sideView `json:"sides"`
}

func toMatchView(m *domain.MatchDetail) matchView {
	v := matchView{
		ID:                 m.ID,
		Namespace:          m.Namespace,
		Label:              m.Label,
		Status:             string(m.Status),
		Headline:           m.Headline(),
		Winner:             m.Winner(),
		TeamSize:           m.TeamSize(),
		PlaceholderPairing: m.IsPlaceholderPairing(),
		CreatedAt:          m.CreatedAt,
		CompletedAt:        m.CompletedAt,
		Sides:              make([]sideView, len(m.Sides)),
	}
	for i, s := range m.Sides {
		v.Sides[i] = toSideView(s)
	}
	return v
}

type ratingChangeView struct {
	MatchID   int64     `json:"match_id"`
	Scope     string    `json:"scope"`
	OldRating int       `json:"old_rating"`
	NewRating int       `json:"new_rating"`
	Delta     int       `json:"delta"`
	CreatedAt time.Time `json:"created_at"`
}

func toRatingChangeView(c domain.RatingChange) ratingChangeView {
	return ratingChangeView{
		MatchID:   c.MatchID,
		Scope:     string(c.Scope),
		OldRating: c.OldRating,
		NewRating: c.NewRating,
		Delta:     c.Delta,
		CreatedAt: c.CreatedAt,
	}
}

type flairView struct {
	ID    int64  `json:"id"`
	Tribe string `json:"tribe"`
	Emoji string `json:"emoji"`
}
