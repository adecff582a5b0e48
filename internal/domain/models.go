package domain

import (
	"strings"
	"time"
)

const DefaultRating = 1000

type MatchStatus string

const (
	StatusOpen      MatchStatus = "open"
	StatusCompleted MatchStatus = "completed"
	StatusConfirmed MatchStatus = "confirmed"
)

// IsFinal reports whether the match has left the open state. There is no
// transition back out of a final status.
func (s MatchStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusConfirmed
}

// Scope names the tier a rating lives on.
type Scope string

const (
	ScopeParticipant Scope = "participant"
	ScopeSquad       Scope = "squad"
	ScopeTeam        Scope = "team"
)

const (
	HomeTeamName  = "Home"
	AwayTeamName  = "Away"
	HomeTeamEmoji = ":stadium:"
	AwayTeamEmoji = ":airplane:"
)

type Participant struct {
	ID         int64
	Namespace  string
	ExternalID string
	Name       string
	Nick       string
	IngameName string
	IngameID   string
	Rating     int
	TeamID     *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Team struct {
	ID            int64
	Namespace     string
	Name          string
	Rating        int
	Emoji         string
	ImageURL      string
	IsPlaceholder bool
	CreatedAt     time.Time
}

// Squad is the identity of an exact set of participants. MemberIDs is sorted
// and never changes after creation.
type Squad struct {
	ID        int64
	Rating    int
	MemberIDs []int64
	CreatedAt time.Time
}

type Match struct {
	ID          int64
	Namespace   string
	Label       string
	Status      MatchStatus
	Version     int64
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type Side struct {
	ID         int64
	MatchID    int64
	SquadID    int64
	TeamID     int64
	Position   int // 0 = home, 1 = away
	TeamDelta  int
	SquadDelta int
	IsWinner   bool
}

type Participation struct {
	ID            int64
	SideID        int64
	ParticipantID int64
	Delta         int
	FlairID       *int64
}

type TribeFlair struct {
	ID        int64
	TribeID   int64
	Tribe     string
	Namespace string
	Emoji     string
}

type RatingChange struct {
	ID        string // nanoid
	MatchID   int64
	Scope     Scope
	EntityID  int64
	OldRating int
	NewRating int
	Delta     int
	CreatedAt time.Time
}

// ParticipantRef identifies a participant as the calling layer knows them.
type ParticipantRef struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Nick       string `json:"nick,omitempty"`
}

// DisplayName combines the account name and the namespace nick.
func DisplayName(name, nick string) string {
	if nick == "" {
		return name
	}
	if strings.Contains(nick, name) {
		return nick
	}
	return name + " (" + nick + ")"
}
