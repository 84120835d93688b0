// Package ranking provides the weight calculations behind feed scoring,
// with deploy-time calibration support.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	// Calculate the composite feed score for a candidate post
//	score := ranking.GraphWeight(isFriend, isFollowing, weights) +
//		ranking.EngagementWeight(post.LikeCount, post.CommentCount, post.ShareCount, weights) +
//		ranking.RecencyWeight(post.CreatedAt, now, weights) +
//		ranking.InteractionWeight(engagedWithAuthor, weights)
//
//	// Calculate the trending score for the discover feed
//	score := ranking.TrendingScore(post.LikeCount, post.CommentCount, post.ShareCount, ageHours)
//
// Weight Functions:
//
// Each function computes one independently-capped term of the composite
// score. The composite is the plain sum of the terms with no further
// normalization, bounded by MaxScore (100 under defaults). All functions
// are pure: for fixed inputs and a fixed "now" they return the same value
// on every call.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of ranking weights via
// a JSON configuration file loaded at startup. Weights are never tunable
// at call time; a redeploy or restart is required to pick up changes.
package ranking
