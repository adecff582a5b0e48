package db

import (
	"database/sql"
	"time"
)

type Team struct {
	ID            int64
	Namespace     string
	Name          string
	Rating        int64
	Emoji         string
	ImageUrl      string
	IsPlaceholder bool
	CreatedAt     time.Time
}

type Participant struct {
	ID         int64
	Namespace  string
	ExternalID string
	Name       string
	Nick       string
	IngameName string
	IngameID   string
	Rating     int64
	TeamID     sql.NullInt64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Squad struct {
	ID        int64
	MemberKey string
	Rating    int64
	CreatedAt time.Time
}

type Match struct {
	ID          int64
	Namespace   string
	Label       string
	Status      string
	Version     int64
	CreatedAt   time.Time
	CompletedAt sql.NullTime
}

type Side struct {
	ID         int64
	MatchID    int64
	SquadID    int64
	TeamID     int64
	Position   int64
	TeamDelta  int64
	SquadDelta int64
	IsWinner   bool
}

type Participation struct {
	ID            int64
	SideID        int64
	ParticipantID int64
	FlairID       sql.NullInt64
	Delta         int64
}

type TribeFlair struct {
	ID        int64
	TribeID   int64
	TribeName string
	Namespace string
	Emoji     string
}

type RatingChange struct {
	ID        string
	MatchID   int64
	Scope     string
	EntityID  int64
	OldRating int64
	NewRating int64
	Delta     int64
	CreatedAt time.Time
}
