// Package rating implements the ledger's ELO variant. Everything here is pure:
// callers load ratings and completed-match counts, and persist the results.
package rating

import (
	"match-ledger/internal/domain"
	"math"
)

const (
	// Spread is the rating gap at which the stronger side is ten times as likely to win.
	Spread = 400.0

	newcomerMatches    = 6
	establishedMatches = 11
)

// Sensitivity returns the K-factor for an entity at the given scope with the
// given number of previously completed matches.
//
//	scope        <6   6-10  >=11
//	participant  75   50    32
//	squad        50   50    32
//	team         50   50    32
func Sensitivity(scope domain.Scope, completed int) int {
	switch {
	case completed >= establishedMatches:
		return 32
	case completed >= newcomerMatches:
		return 50
	case scope == domain.ScopeParticipant:
		return 75
	default:
		return 50
	}
}

// WinProbability is the expected score of mine against opponent, rounded to
// three decimal places.
func WinProbability(mine, opponent int) float64 {
	p := 1 / (1 + math.Pow(10, float64(opponent-mine)/Spread))
	return math.Round(p*1000) / 1000
}

// ComputeDelta returns the signed rating change for a side rated mine that
// played a side rated opponent. The adjustment is rounded half away from zero,
// so equal ratings always move by exactly round(sensitivity/2) either way.
func ComputeDelta(mine, opponent, sensitivity int, won bool) int {
	score := 0.0
	if won {
		score = 1
	}
	p := WinProbability(mine, opponent)
	newRating := mine + int(math.Round(float64(sensitivity)*(score-p)))
	return newRating - mine
}

// Average is the rounded arithmetic mean of ratings, or 0 for none.
func Average(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r
	}
	return int(math.RoundToEven(float64(total) / float64(len(ratings))))
}
