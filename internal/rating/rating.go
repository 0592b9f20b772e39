// Package rating implements the paired-comparison rating update for
// two-player sessions.
package rating

import (
	"math"

	"kitaa-lounge-engine/internal/model"
)

const (
	// KFactor controls how much a single session can move a rating.
	KFactor = 32

	// StartingRating is the rating assigned to a player's first
	// appearance in a game.
	StartingRating = 1000
)

// Change is the computed rating adjustment for both players of a session.
//
// Each delta is rounded independently (half away from zero), so
// DeltaA + DeltaB can drift from zero by one point. That drift is a known
// property of the update and is deliberately left uncorrected.
type Change struct {
	DeltaA int
	DeltaB int
	AfterA int
	AfterB int
}

// Compute returns the rating change for players A and B given their current
// ratings and the session outcome. Pure and deterministic: identical inputs
// always produce identical outputs, which makes recomputation on commit
// retries safe.
func Compute(ratingA, ratingB int, outcome model.Outcome) Change {
	expectedA := expectedScore(ratingA, ratingB)
	expectedB := expectedScore(ratingB, ratingA)

	var actualA, actualB float64
	switch outcome {
	case model.OutcomePlayer1Win:
		actualA, actualB = 1, 0
	case model.OutcomePlayer2Win:
		actualA, actualB = 0, 1
	default:
		actualA, actualB = 0.5, 0.5
	}

	deltaA := round(KFactor * (actualA - expectedA))
	deltaB := round(KFactor * (actualB - expectedB))

	return Change{
		DeltaA: deltaA,
		DeltaB: deltaB,
		AfterA: ratingA + deltaA,
		AfterB: ratingB + deltaB,
	}
}

// expectedScore is the logistic expectation of the first player beating
// the second.
func expectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}

// round rounds half away from zero.
func round(x float64) int {
	return int(math.Round(x))
}
