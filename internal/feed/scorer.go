package feed

import (
	"sort"
	"time"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/graph"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/interaction"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/ranking"
)

// ScoredPost pairs a candidate with its computed relevance score. It
// exists only between scoring and pagination and is never persisted.
type ScoredPost struct {
	Post  *post.Post
	Score float64
}

// Scorer computes composite relevance scores for candidate posts. It is
// pure: for fixed inputs and a fixed "now" it returns the same score on
// every call.
type Scorer struct {
	weights *ranking.Weights
}

// NewScorer creates a Scorer with the given weights. Nil weights fall
// back to the defaults.
func NewScorer(weights *ranking.Weights) *Scorer {
	if weights == nil {
		weights = ranking.DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score computes the composite relevance score for one candidate:
// the sum of four independently-capped terms (graph proximity,
// engagement, recency decay, prior-interaction bonus) with no further
// normalization. Bounded by ranking.MaxScore (100 under defaults).
func (s *Scorer) Score(p *post.Post, connected graph.ConnectedIDs, engagedAuthors map[int64]bool, now time.Time) float64 {
	return ranking.GraphWeight(connected.IsFriend(p.AuthorID), connected.IsFollowing(p.AuthorID), s.weights) +
		ranking.EngagementWeight(p.LikeCount, p.CommentCount, p.ShareCount, s.weights) +
		ranking.RecencyWeight(p.CreatedAt, now, s.weights) +
		ranking.InteractionWeight(engagedAuthors[p.AuthorID], s.weights)
}

// ScoreAll scores every candidate and returns them sorted descending by
// score. The sort is stable: ties keep the order the candidates arrived
// in, which the diversity limiter depends on.
func (s *Scorer) ScoreAll(candidates []*post.Post, connected graph.ConnectedIDs, history []interaction.Interaction, now time.Time) []ScoredPost {
	engagedAuthors := EngagedAuthors(history)

	scored := make([]ScoredPost, len(candidates))
	for i, p := range candidates {
		scored[i] = ScoredPost{
			Post:  p,
			Score: s.Score(p, connected, engagedAuthors, now),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// EngagedAuthors derives the prior-interaction signal from a user's
// history: the set of authors whose posts the user has engaged with
// inside the window.
func EngagedAuthors(history []interaction.Interaction) map[int64]bool {
	if len(history) == 0 {
		return nil
	}
	authors := make(map[int64]bool, len(history))
	for _, in := range history {
		authors[in.PostAuthorID] = true
	}
	return authors
}

// TrendingScoreAll scores candidates with the engagement-over-age
// formula used by the discover feed and trending view, returning them
// sorted descending by score (stable on ties).
func TrendingScoreAll(candidates []*post.Post, now time.Time) []ScoredPost {
	scored := make([]ScoredPost, len(candidates))
	for i, p := range candidates {
		scored[i] = ScoredPost{
			Post:  p,
			Score: ranking.TrendingScore(p.LikeCount, p.CommentCount, p.ShareCount, now.Sub(p.CreatedAt).Hours()),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// posts unwraps a scored slice back to plain posts in ranked order.
func postsOf(scored []ScoredPost) []*post.Post {
	out := make([]*post.Post, len(scored))
	for i, sp := range scored {
		out[i] = sp.Post
	}
	return out
}
