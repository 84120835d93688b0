package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/graph"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/interaction"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/ranking"
)

// Variant selects a feed policy per request. The service holds no
// per-variant state; every request is computed from its inputs alone.
type Variant string

const (
	// VariantPersonalized ranks by the composite weighted score and
	// applies the diversity limiter.
	VariantPersonalized Variant = "personalized"

	// VariantFollowing is a chronological feed of connected authors.
	VariantFollowing Variant = "following"

	// VariantDiscover ranks recent public posts by engagement-over-age.
	// Trending authors are intentionally allowed to dominate.
	VariantDiscover Variant = "discover"
)

// Trailing windows per variant and view.
const (
	personalizedWindow = 7 * 24 * time.Hour
	followingWindow    = 7 * 24 * time.Hour
	discoverWindow     = 48 * time.Hour
	trendingWindow     = 24 * time.Hour
	activityWindow     = time.Hour

	// historyWindow bounds the interaction history used for the
	// prior-interaction bonus.
	historyWindow = 7 * 24 * time.Hour
)

// Default page and view sizes.
const (
	DefaultLimit         = 20
	DefaultTrendingLimit = 5
	DefaultActiveLimit   = 10
)

// UserActivity pairs a user with their most recent activity (post or
// comment) timestamp. Output of the recently-active users view.
type UserActivity struct {
	UserID       int64     `json:"user_id"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// SimilarityScorer is an optional capability for taste-based candidate
// scoring. None of the built-in variants require it; when present, the
// recommendation view blends its output into the engagement fallback.
// Reserved as the extension point for embedding-backed recommenders.
type SimilarityScorer interface {
	// Similarity returns a non-negative affinity between the user and
	// the candidate post.
	Similarity(ctx context.Context, userID int64, p *post.Post) (float64, error)
}

// TrendingCache is an optional read-through cache in front of the
// trending view. A failing cache degrades to recomputation; it is never
// part of the correctness contract.
type TrendingCache interface {
	// Get returns the cached trending posts for the given limit, or
	// (nil, nil) on a miss.
	Get(ctx context.Context, limit int) ([]*post.Post, error)

	// Set stores the trending posts for the given limit.
	Set(ctx context.Context, limit int, posts []*post.Post) error
}

// Service is the feed engine entry point. It is stateless across
// requests: every field is an injected dependency with no mutable state,
// so a single instance safely serves concurrent requests.
type Service struct {
	fetcher      *Fetcher
	posts        post.PostRepository
	interactions interaction.InteractionRepository
	scorer       *Scorer
	metrics      *Metrics
	logger       *slog.Logger

	trendingCache TrendingCache
	similarity    SimilarityScorer

	// now is the clock used for scoring and windows. Fixed in tests for
	// determinism.
	now func() time.Time
}

// NewService creates a feed Service over the given stores. Weights may
// be nil to use the defaults; metrics and logger may be nil.
func NewService(posts post.PostRepository, g graph.GraphRepository, interactions interaction.InteractionRepository, weights *ranking.Weights, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:      NewFetcher(posts, g, interactions),
		posts:        posts,
		interactions: interactions,
		scorer:       NewScorer(weights),
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// WithTrendingCache attaches a read-through cache to the trending view.
func (s *Service) WithTrendingCache(c TrendingCache) *Service {
	s.trendingCache = c
	return s
}

// WithSimilarityScorer attaches an optional similarity capability to the
// recommendation view.
func (s *Service) WithSimilarityScorer(sc SimilarityScorer) *Service {
	s.similarity = sc
	return s
}

// normalizePagination applies defaults and rejects negative values
// before any store is touched.
func normalizePagination(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("limit=%d offset=%d: %w", limit, offset, ErrInvalidPagination)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return limit, offset, nil
}

// PersonalizedFeed returns the ranked, diversity-limited feed for a user.
//
// Pipeline: fetch signals (7-day window) -> composite score -> stable
// sort descending -> diversity limit (cap 3) -> paginate.
func (s *Service) PersonalizedFeed(ctx context.Context, userID int64, limit, offset int) (*Page, error) {
	limit, offset, err := normalizePagination(limit, offset)
	if err != nil {
		s.metrics.ObserveRequest(string(VariantPersonalized), "invalid")
		return nil, err
	}

	sig, err := s.fetcher.Fetch(ctx, userID, historyWindow, post.CandidateQuery{
		Since:         s.now().Add(-personalizedWindow),
		ExcludeAuthor: userID,
		Counters:      post.CountersJoined,
	})
	if err != nil {
		s.metrics.ObserveRequest(string(VariantPersonalized), "error")
		return nil, err
	}
	s.metrics.ObserveCandidates(string(VariantPersonalized), len(sig.Candidates))

	started := time.Now()
	scored := s.scorer.ScoreAll(sig.Candidates, sig.Connected, sig.History, s.now())
	ordered := LimitConsecutive(postsOf(scored), DefaultMaxConsecutive)
	s.metrics.ObserveRankingDuration(string(VariantPersonalized), time.Since(started).Seconds())

	s.metrics.ObserveRequest(string(VariantPersonalized), "ok")
	return Paginate(ordered, limit, offset), nil
}

// FollowingFeed returns a chronological feed of posts authored by the
// user's connections. No scoring and no diversity limiting. A user with
// zero connections gets an empty page, not an error.
func (s *Service) FollowingFeed(ctx context.Context, userID int64, limit, offset int) (*Page, error) {
	limit, offset, err := normalizePagination(limit, offset)
	if err != nil {
		s.metrics.ObserveRequest(string(VariantFollowing), "invalid")
		return nil, err
	}

	connected, err := s.fetcher.ConnectedIDs(ctx, userID)
	if err != nil {
		s.metrics.ObserveRequest(string(VariantFollowing), "error")
		return nil, err
	}
	if connected.Empty() {
		s.metrics.ObserveRequest(string(VariantFollowing), "ok")
		return &Page{Items: []*post.Post{}, NextOffset: nil, HasMore: false}, nil
	}

	candidates, err := s.posts.CandidatesSince(ctx, post.CandidateQuery{
		Since:         s.now().Add(-followingWindow),
		ExcludeAuthor: userID,
		OnlyAuthors:   connected.Union(),
		Counters:      post.CountersStored,
	})
	if err != nil {
		s.metrics.ObserveRequest(string(VariantFollowing), "error")
		return nil, fmt.Errorf("fetching following candidates: %w: %w", ErrDataUnavailable, err)
	}
	s.metrics.ObserveCandidates(string(VariantFollowing), len(candidates))

	// Candidates arrive ordered by created_at descending already.
	s.metrics.ObserveRequest(string(VariantFollowing), "ok")
	return Paginate(candidates, limit, offset), nil
}

// DiscoverFeed returns recent public posts ranked by engagement-over-age.
func (s *Service) DiscoverFeed(ctx context.Context, userID int64, limit, offset int) (*Page, error) {
	limit, offset, err := normalizePagination(limit, offset)
	if err != nil {
		s.metrics.ObserveRequest(string(VariantDiscover), "invalid")
		return nil, err
	}

	candidates, err := s.posts.CandidatesSince(ctx, post.CandidateQuery{
		Since:         s.now().Add(-discoverWindow),
		ExcludeAuthor: userID,
		PublicOnly:    true,
		Counters:      post.CountersStored,
	})
	if err != nil {
		s.metrics.ObserveRequest(string(VariantDiscover), "error")
		return nil, fmt.Errorf("fetching discover candidates: %w: %w", ErrDataUnavailable, err)
	}
	s.metrics.ObserveCandidates(string(VariantDiscover), len(candidates))

	started := time.Now()
	scored := TrendingScoreAll(candidates, s.now())
	s.metrics.ObserveRankingDuration(string(VariantDiscover), time.Since(started).Seconds())

	s.metrics.ObserveRequest(string(VariantDiscover), "ok")
	return Paginate(postsOf(scored), limit, offset), nil
}

// TrendingPosts returns the top public posts of the last 24 hours by
// engagement-over-age. Terminal view: no pagination cursor.
func (s *Service) TrendingPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit=%d: %w", limit, ErrInvalidPagination)
	}
	if limit == 0 {
		limit = DefaultTrendingLimit
	}

	if s.trendingCache != nil {
		cached, err := s.trendingCache.Get(ctx, limit)
		if err != nil {
			s.logger.Warn("trending cache read failed, recomputing", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	candidates, err := s.posts.CandidatesSince(ctx, post.CandidateQuery{
		Since:      s.now().Add(-trendingWindow),
		PublicOnly: true,
		Counters:   post.CountersStored,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching trending candidates: %w: %w", ErrDataUnavailable, err)
	}

	scored := TrendingScoreAll(candidates, s.now())
	top := postsOf(scored)
	if len(top) > limit {
		top = top[:limit]
	}

	if s.trendingCache != nil {
		if err := s.trendingCache.Set(ctx, limit, top); err != nil {
			s.logger.Warn("trending cache write failed", "error", err)
		}
	}
	return top, nil
}

// RecentlyActiveUsers returns users with a post or comment in the last
// hour, deduplicated keeping the most recent activity per user, sorted
// by that timestamp descending. Terminal view: no pagination cursor.
func (s *Service) RecentlyActiveUsers(ctx context.Context, limit int) ([]UserActivity, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit=%d: %w", limit, ErrInvalidPagination)
	}
	if limit == 0 {
		limit = DefaultActiveLimit
	}

	since := s.now().Add(-activityWindow)

	authors, err := s.posts.AuthorsActiveSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching active authors: %w: %w", ErrDataUnavailable, err)
	}
	commenters, err := s.interactions.CommentersSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching active commenters: %w: %w", ErrDataUnavailable, err)
	}

	latest := make(map[int64]time.Time, len(authors)+len(commenters))
	for _, a := range authors {
		if a.LastActiveAt.After(latest[a.UserID]) {
			latest[a.UserID] = a.LastActiveAt
		}
	}
	for _, c := range commenters {
		if c.LastActiveAt.After(latest[c.UserID]) {
			latest[c.UserID] = c.LastActiveAt
		}
	}

	active := make([]UserActivity, 0, len(latest))
	for userID, at := range latest {
		active = append(active, UserActivity{UserID: userID, LastActiveAt: at})
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].LastActiveAt.Equal(active[j].LastActiveAt) {
			return active[i].LastActiveAt.After(active[j].LastActiveAt)
		}
		return active[i].UserID < active[j].UserID
	})

	if len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

// RecommendedPosts returns public posts the user may like. The default
// path is the deterministic engagement-over-age ordering; when a
// SimilarityScorer is attached, its affinity is added to each score
// before ordering.
func (s *Service) RecommendedPosts(ctx context.Context, userID int64, limit int) ([]*post.Post, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit=%d: %w", limit, ErrInvalidPagination)
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	candidates, err := s.posts.CandidatesSince(ctx, post.CandidateQuery{
		Since:         s.now().Add(-discoverWindow),
		ExcludeAuthor: userID,
		PublicOnly:    true,
		Counters:      post.CountersStored,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching recommendation candidates: %w: %w", ErrDataUnavailable, err)
	}

	scored := TrendingScoreAll(candidates, s.now())
	if s.similarity != nil {
		for i := range scored {
			affinity, err := s.similarity.Similarity(ctx, userID, scored[i].Post)
			if err != nil {
				return nil, fmt.Errorf("similarity scoring: %w: %w", ErrDataUnavailable, err)
			}
			scored[i].Score += affinity
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
	}

	recommended := postsOf(scored)
	if len(recommended) > limit {
		recommended = recommended[:limit]
	}
	return recommended, nil
}
