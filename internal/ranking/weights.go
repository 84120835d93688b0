// Package ranking provides the weight calculations behind feed scoring,
// with deploy-time calibration support.
package ranking

import (
	"time"
)

// Engagement term shape. Comments and shares outweigh likes because they
// represent deeper engagement; the divisor scales raw counts into the
// capped term range.
const (
	CommentMultiplier = 2.0
	ShareMultiplier   = 3.0
	EngagementDivisor = 10.0
)

// RecencyHorizonHours is the age at which the recency term reaches zero.
// Older items contribute no recency score but are never penalized below it.
const RecencyHorizonHours = 24.0

// MinTrendingAgeHours floors the age denominator in the trending formula
// so brand-new items cannot divide by values near zero.
const MinTrendingAgeHours = 1.0

// GraphWeight computes the graph-proximity term for a post author.
// Friendship takes priority over a follow when both relations exist.
//
// Parameters:
//   - isFriend: The author is an accepted friend of the viewer
//   - isFollowing: The viewer follows the author
//   - weights: The calibrated weight configuration (optional, uses default if nil)
//
// Returns the friend weight, the follow weight, or 0.
func GraphWeight(isFriend, isFollowing bool, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}
	switch {
	case isFriend:
		return weights.Feed.Friend
	case isFollowing:
		return weights.Feed.Follow
	default:
		return 0
	}
}

// EngagementWeight computes the capped engagement term from raw counters.
// Formula: (likes + comments*2 + shares*3) / 10, clamped to the cap.
// Negative counters are treated as zero; all-zero counters are a valid
// state and score 0.
func EngagementWeight(likes, comments, shares int, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	raw := (clampCount(likes) +
		clampCount(comments)*CommentMultiplier +
		clampCount(shares)*ShareMultiplier) / EngagementDivisor

	if raw > weights.Feed.EngagementCap {
		return weights.Feed.EngagementCap
	}
	return raw
}

// RecencyWeight computes the linear recency-decay term for a post.
// Formula: cap - (ageHours/24)*cap, floored at 0. A post older than the
// horizon contributes zero but is never scored negative. A post with a
// creation time after now (clock skew) scores the full cap.
func RecencyWeight(createdAt, now time.Time, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}

	weight := weights.Feed.RecencyCap - (ageHours/RecencyHorizonHours)*weights.Feed.RecencyCap
	if weight < 0 {
		return 0
	}
	return weight
}

// InteractionWeight computes the flat prior-interaction bonus: the full
// weight when the viewer has engaged with this author's content inside
// the history window, else 0.
func InteractionWeight(engagedWithAuthor bool, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}
	if engagedWithAuthor {
		return weights.Feed.Interaction
	}
	return 0
}

// TrendingScore computes the engagement-over-age score used by the
// discover feed and the trending view. The age denominator is floored at
// MinTrendingAgeHours to guard against division by near-zero for very
// fresh posts.
//
// Formula: (likes + comments*2 + shares*3) / max(ageHours, 1)
func TrendingScore(likes, comments, shares int, ageHours float64) float64 {
	if ageHours < MinTrendingAgeHours {
		ageHours = MinTrendingAgeHours
	}
	engagement := clampCount(likes) +
		clampCount(comments)*CommentMultiplier +
		clampCount(shares)*ShareMultiplier
	return engagement / ageHours
}

// MaxScore returns the upper bound of a composite feed score under the
// given weights: graph + engagement cap + recency cap + interaction.
func MaxScore(weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}
	return weights.Feed.Friend + weights.Feed.EngagementCap +
		weights.Feed.RecencyCap + weights.Feed.Interaction
}

// clampCount converts a counter to float64, treating negatives as zero.
func clampCount(n int) float64 {
	if n < 0 {
		return 0
	}
	return float64(n)
}
