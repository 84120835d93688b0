package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/feed"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// FeedResponse represents the JSON response for paginated feed endpoints.
// This is the only structural contract of the feed API:
// {items, nextOffset, hasMore}.
type FeedResponse struct {
	Items      []*post.Post `json:"items"`
	NextOffset *int         `json:"nextOffset"`
	HasMore    bool         `json:"hasMore"`
}

// TrendingResponse represents the JSON response for the trending view.
type TrendingResponse struct {
	Posts []*post.Post `json:"posts"`
}

// ActiveUsersResponse represents the JSON response for the
// recently-active users view.
type ActiveUsersResponse struct {
	Users []feed.UserActivity `json:"users"`
}

// FeedHandlers holds the dependencies for feed HTTP handlers.
type FeedHandlers struct {
	svc    *feed.Service
	logger *slog.Logger
}

// NewFeedHandlers creates feed handlers over the given service.
func NewFeedHandlers(svc *feed.Service, logger *slog.Logger) *FeedHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandlers{
		svc:    svc,
		logger: logger,
	}
}

// GetFeed handles GET /feed - returns a paginated feed page.
//
// Query parameters:
//   - user_id: requesting user (required)
//   - variant: personalized (default), following, or discover
//   - limit: page size (default 20)
//   - offset: page start (default 0)
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	variant := feed.Variant(r.URL.Query().Get("variant"))
	if variant == "" {
		variant = feed.VariantPersonalized
	}

	var page *feed.Page
	var err error
	switch variant {
	case feed.VariantPersonalized:
		page, err = h.svc.PersonalizedFeed(r.Context(), userID, limit, offset)
	case feed.VariantFollowing:
		page, err = h.svc.FollowingFeed(r.Context(), userID, limit, offset)
	case feed.VariantDiscover:
		page, err = h.svc.DiscoverFeed(r.Context(), userID, limit, offset)
	default:
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest,
			"variant must be one of: personalized, following, discover")
		return
	}
	if err != nil {
		h.writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, FeedResponse{
		Items:      page.Items,
		NextOffset: page.NextOffset,
		HasMore:    page.HasMore,
	})
}

// GetTrending handles GET /feed/trending - returns the top trending
// public posts of the last 24 hours.
func (h *FeedHandlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	posts, err := h.svc.TrendingPosts(r.Context(), limit)
	if err != nil {
		h.writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, TrendingResponse{Posts: posts})
}

// GetRecommended handles GET /feed/recommended - returns recommended
// public posts for a user.
func (h *FeedHandlers) GetRecommended(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	posts, err := h.svc.RecommendedPosts(r.Context(), userID, limit)
	if err != nil {
		h.writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, TrendingResponse{Posts: posts})
}

// GetActiveUsers handles GET /users/active - returns users with a post
// or comment in the last hour.
func (h *FeedHandlers) GetActiveUsers(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	users, err := h.svc.RecentlyActiveUsers(r.Context(), limit)
	if err != nil {
		h.writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ActiveUsersResponse{Users: users})
}

// writeFeedError maps feed engine errors onto HTTP responses.
func (h *FeedHandlers) writeFeedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feed.ErrInvalidPagination):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidPagination,
			"limit and offset must be non-negative")
	case errors.Is(err, feed.ErrDataUnavailable):
		// No degraded feed is served; the client owns retry.
		h.logger.Error("feed data unavailable", "error", err, "path", r.URL.Path)
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeDataUnavailable,
			"feed data is temporarily unavailable, please retry")
	default:
		h.logger.Error("feed request failed", "error", err, "path", r.URL.Path)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"an internal error occurred")
	}
}

// parseUserID extracts and validates the required user_id query parameter.
func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "user_id is required")
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "user_id must be a positive integer")
		return 0, false
	}
	return userID, true
}

// parsePagination extracts the optional limit and offset query
// parameters. Unset values are 0, letting the service apply defaults.
// Negative values are rejected here, before any store is touched.
func parsePagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	limit, ok := parseIntParam(w, r, "limit")
	if !ok {
		return 0, 0, false
	}
	offset, ok := parseIntParam(w, r, "offset")
	if !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

// parseLimit extracts the optional limit query parameter.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	return parseIntParam(w, r, "limit")
}

func parseIntParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, name+" must be an integer")
		return 0, false
	}
	if val < 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidPagination, name+" must be non-negative")
		return 0, false
	}
	return val, true
}
