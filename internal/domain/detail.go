package domain

import (
	"fmt"
	"math"
	"strconv"
)

type RosterEntry struct {
	Participation
	Participant Participant
	Flair       *TribeFlair
}

// FlairEmoji is empty when no flair was picked.
func (r RosterEntry) FlairEmoji() string {
	if r.Flair == nil {
		return ""
	}
	return r.Flair.Emoji
}

// RatingString renders the participant's current rating with this match's delta, e.g. "1038 +38".
func (r RosterEntry) RatingString() string {
	return ratingString(r.Participant.Rating, r.Delta)
}

type SideDetail struct {
	Side
	Squad  Squad
	Team   Team
	Roster []RosterEntry
}

// AverageRating is the rounded mean of the roster's current participant ratings.
func (s SideDetail) AverageRating() int {
	if len(s.Roster) == 0 {
		return 0
	}
	total := 0
	for _, r := range s.Roster {
		total += r.Participant.Rating
	}
	return int(math.RoundToEven(float64(total) / float64(len(s.Roster))))
}

// RatingStrings returns the team and squad ratings with their deltas for this match.
func (s SideDetail) RatingStrings() (team, squad string) {
	return ratingString(s.Team.Rating, s.TeamDelta), ratingString(s.Squad.Rating, s.SquadDelta)
}

// Name is the lone participant's name in a 1-on-1, otherwise the credited team.
func (s SideDetail) Name() string {
	if len(s.Roster) == 1 {
		return s.Roster[0].Participant.Name
	}
	return s.Team.Name
}

func (s SideDetail) HasParticipant(participantID int64) bool {
	for _, r := range s.Roster {
		if r.ParticipantID == participantID {
			return true
		}
	}
	return false
}

type MatchDetail struct {
	Match
	Sides []SideDetail
}

func (m MatchDetail) Side(sideID int64) (SideDetail, bool) {
	for _, s := range m.Sides {
		if s.ID == sideID {
			return s, true
		}
	}
	return SideDetail{}, false
}

// TeamSize is the roster size of the home side.
func (m MatchDetail) TeamSize() int {
	if len(m.Sides) == 0 {
		return 0
	}
	return len(m.Sides[0].Roster)
}

// WinningSide returns the side flagged as winner, if the match has one.
func (m MatchDetail) WinningSide() (SideDetail, bool) {
	for _, s := range m.Sides {
		if s.IsWinner {
			return s, true
		}
	}
	return SideDetail{}, false
}

// Winner names the winning side the way Name does; empty while undecided.
func (m MatchDetail) Winner() string {
	s, ok := m.WinningSide()
	if !ok {
		return ""
	}
	return s.Name()
}

// IsPlaceholderPairing reports a Home vs Away match, where team ratings are not
// meaningful to show.
func (m MatchDetail) IsPlaceholderPairing() bool {
	if len(m.Sides) != 2 {
		return false
	}
	return m.Sides[0].Team.IsPlaceholder && m.Sides[1].Team.IsPlaceholder
}

func (m MatchDetail) Headline() string {
	if len(m.Sides) != 2 {
		return fmt.Sprintf("Match %d", m.ID)
	}
	h := fmt.Sprintf("Match %d %s vs %s", m.ID, m.Sides[0].Name(), m.Sides[1].Name())
	if m.Label != "" {
		h += " (" + m.Label + ")"
	}
	return h
}

func ratingString(rating, delta int) string {
	s := strconv.Itoa(rating)
	switch {
	case delta > 0:
		return s + " +" + strconv.Itoa(delta)
	case delta < 0:
		return s + " " + strconv.Itoa(delta)
	}
	return s
}
