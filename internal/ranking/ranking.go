// Package ranking centralizes the scoring and reputation constants shared by
// the vote pipeline and the feed sort queries. The literal values are an
// external contract: rankings and badges computed from them are visible to
// users, so they are pinned by unit tests.
package ranking

import (
	"math"
	"time"
)

// HotEpochSeconds is the zero-point for recency weighting. Changing it would
// break score comparability across already-stored documents.
const HotEpochSeconds int64 = 1134028003

// hotDecaySeconds is the age divisor of the hot formula.
const hotDecaySeconds = 45000.0

// Reputation tiers, derived from a user's net upvotes.
const (
	TierBronze   = "Bronze"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
	TierDiamond  = "Diamond"
)

// Tier thresholds, inclusive at the lower bound.
const (
	silverMin   = 20
	goldMin     = 100
	platinumMin = 300
	diamondMin  = 1000
)

// HotScore combines net vote score and document age into a single scalar used
// for "hot" sort ordering. Rounded to 7 decimal places.
func HotScore(up, down int, createdAt time.Time) float64 {
	score := float64(up - down)
	order := math.Log10(math.Max(math.Abs(score), 1))

	var sign float64
	switch {
	case score > 0:
		sign = 1
	case score < 0:
		sign = -1
	}

	seconds := float64(createdAt.Unix() - HotEpochSeconds)
	return round7(order + sign*seconds/hotDecaySeconds)
}

// TierFor returns the reputation tier for a net upvote total, evaluated
// highest-first.
func TierFor(netUpvotes int) string {
	switch {
	case netUpvotes >= diamondMin:
		return TierDiamond
	case netUpvotes >= platinumMin:
		return TierPlatinum
	case netUpvotes >= goldMin:
		return TierGold
	case netUpvotes >= silverMin:
		return TierSilver
	default:
		return TierBronze
	}
}

func round7(f float64) float64 {
	return math.Round(f*1e7) / 1e7
}
