package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/feed"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/graph"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/interaction"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// newTestHandlers builds feed handlers over in-memory stores seeded with
// a small world: user 1 is friends with user 10 and follows user 20.
func newTestHandlers(t *testing.T) (*FeedHandlers, *post.InMemoryPostRepository) {
	t.Helper()

	posts := post.NewInMemoryPostRepository()
	g := graph.NewInMemoryGraphRepository()
	interactions := interaction.NewInMemoryInteractionRepository()

	g.AddFriendship(1, 10, graph.StatusAccepted)
	g.AddFollow(1, 20)

	svc := feed.NewService(posts, g, interactions, nil, nil, nil)
	return NewFeedHandlers(svc, nil), posts
}

func seedPost(t *testing.T, posts *post.InMemoryPostRepository, authorID int64, age time.Duration, likes int) *post.Post {
	t.Helper()
	p := &post.Post{
		AuthorID:   authorID,
		Content:    "post",
		Visibility: post.VisibilityPublic,
		CreatedAt:  time.Now().Add(-age),
		LikeCount:  likes,
	}
	if err := posts.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return p
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// TestGetFeed_Personalized returns a page envelope.
func TestGetFeed_Personalized(t *testing.T) {
	h, posts := newTestHandlers(t)
	seedPost(t, posts, 10, time.Hour, 5)
	seedPost(t, posts, 20, 2*time.Hour, 3)

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=1", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp FeedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.HasMore {
		t.Error("expected hasMore=false")
	}
	if resp.NextOffset != nil {
		t.Errorf("expected null nextOffset, got %d", *resp.NextOffset)
	}
	// Friend's post ranks above the followed author's.
	if resp.Items[0].AuthorID != 10 {
		t.Errorf("expected friend's post first, got author %d", resp.Items[0].AuthorID)
	}
}

// TestGetFeed_Variants exercises the variant switch.
func TestGetFeed_Variants(t *testing.T) {
	tests := []struct {
		name       string
		variant    string
		wantStatus int
	}{
		{name: "personalized", variant: "personalized", wantStatus: http.StatusOK},
		{name: "following", variant: "following", wantStatus: http.StatusOK},
		{name: "discover", variant: "discover", wantStatus: http.StatusOK},
		{name: "default is personalized", variant: "", wantStatus: http.StatusOK},
		{name: "unknown variant rejected", variant: "chronological", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, posts := newTestHandlers(t)
			seedPost(t, posts, 20, time.Hour, 1)

			url := "/feed?user_id=1"
			if tt.variant != "" {
				url += "&variant=" + tt.variant
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			rec := httptest.NewRecorder()
			h.GetFeed(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

// TestGetFeed_RequiresUserID rejects a missing or malformed user_id.
func TestGetFeed_RequiresUserID(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing", query: ""},
		{name: "not a number", query: "?user_id=abc"},
		{name: "zero", query: "?user_id=0"},
		{name: "negative", query: "?user_id=-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)

			req := httptest.NewRequest(http.MethodGet, "/feed"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.GetFeed(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Error.Code != ErrCodeBadRequest {
				t.Errorf("expected code %q, got %q", ErrCodeBadRequest, resp.Error.Code)
			}
		})
	}
}

// TestGetFeed_NegativePagination returns the invalid_pagination envelope.
func TestGetFeed_NegativePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "negative limit", query: "&limit=-1"},
		{name: "negative offset", query: "&offset=-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)

			req := httptest.NewRequest(http.MethodGet, "/feed?user_id=1"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.GetFeed(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Error.Code != ErrCodeInvalidPagination {
				t.Errorf("expected code %q, got %q", ErrCodeInvalidPagination, resp.Error.Code)
			}
			if resp.Error.Message == "" {
				t.Error("expected a human-readable message")
			}
		})
	}
}

// TestGetFeed_Pagination walks two pages.
func TestGetFeed_Pagination(t *testing.T) {
	h, posts := newTestHandlers(t)
	for i := 0; i < 7; i++ {
		seedPost(t, posts, int64(i+30), time.Duration(i)*time.Minute, 0)
	}

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=1&limit=5", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	var first FeedResponse
	if err := json.NewDecoder(rec.Body).Decode(&first); err != nil {
		t.Fatalf("failed to decode first page: %v", err)
	}
	if len(first.Items) != 5 || !first.HasMore || first.NextOffset == nil || *first.NextOffset != 5 {
		t.Fatalf("unexpected first page: %d items, hasMore=%v", len(first.Items), first.HasMore)
	}

	req = httptest.NewRequest(http.MethodGet, "/feed?user_id=1&limit=5&offset=5", nil)
	rec = httptest.NewRecorder()
	h.GetFeed(rec, req)

	var second FeedResponse
	if err := json.NewDecoder(rec.Body).Decode(&second); err != nil {
		t.Fatalf("failed to decode second page: %v", err)
	}
	if len(second.Items) != 2 || second.HasMore || second.NextOffset != nil {
		t.Fatalf("unexpected second page: %d items, hasMore=%v", len(second.Items), second.HasMore)
	}
}

// failingPosts makes every candidate read fail.
type failingPosts struct {
	post.PostRepository
}

func (failingPosts) CandidatesSince(context.Context, post.CandidateQuery) ([]*post.Post, error) {
	return nil, errors.New("connection refused")
}

// TestGetFeed_DataUnavailable maps a store failure to 503, never an
// empty 200.
func TestGetFeed_DataUnavailable(t *testing.T) {
	posts := failingPosts{PostRepository: post.NewInMemoryPostRepository()}
	svc := feed.NewService(posts, graph.NewInMemoryGraphRepository(), interaction.NewInMemoryInteractionRepository(), nil, nil, nil)
	h := NewFeedHandlers(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/feed?user_id=1", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != ErrCodeDataUnavailable {
		t.Errorf("expected code %q, got %q", ErrCodeDataUnavailable, resp.Error.Code)
	}
}

// TestGetTrending returns the trending envelope.
func TestGetTrending(t *testing.T) {
	h, posts := newTestHandlers(t)
	for i := 0; i < 8; i++ {
		seedPost(t, posts, int64(i+30), 2*time.Hour, (i+1)*10)
	}

	req := httptest.NewRequest(http.MethodGet, "/feed/trending", nil)
	rec := httptest.NewRecorder()
	h.GetTrending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TrendingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Posts) != feed.DefaultTrendingLimit {
		t.Errorf("expected %d posts, got %d", feed.DefaultTrendingLimit, len(resp.Posts))
	}
}

// TestGetTrending_NegativeLimit rejects the request at the boundary.
func TestGetTrending_NegativeLimit(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/feed/trending?limit=-2", nil)
	rec := httptest.NewRecorder()
	h.GetTrending(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != ErrCodeInvalidPagination {
		t.Errorf("expected code %q, got %q", ErrCodeInvalidPagination, resp.Error.Code)
	}
}

// TestGetRecommended returns recommended posts for a user.
func TestGetRecommended(t *testing.T) {
	h, posts := newTestHandlers(t)
	seedPost(t, posts, 30, time.Hour, 50)

	req := httptest.NewRequest(http.MethodGet, "/feed/recommended?user_id=1", nil)
	rec := httptest.NewRecorder()
	h.GetRecommended(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TrendingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(resp.Posts))
	}
}

// TestGetActiveUsers returns recently active users.
func TestGetActiveUsers(t *testing.T) {
	h, posts := newTestHandlers(t)
	seedPost(t, posts, 30, 10*time.Minute, 0)
	seedPost(t, posts, 40, 5*time.Minute, 0)
	seedPost(t, posts, 50, 2*time.Hour, 0) // outside the 1h window

	req := httptest.NewRequest(http.MethodGet, "/users/active", nil)
	rec := httptest.NewRecorder()
	h.GetActiveUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ActiveUsersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Users))
	}
	if resp.Users[0].UserID != 40 || resp.Users[1].UserID != 30 {
		t.Errorf("expected users [40 30] by recency, got [%d %d]",
			resp.Users[0].UserID, resp.Users[1].UserID)
	}
}

// TestWriteError_Envelope verifies the shared error shape.
func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, context.Background(), http.StatusBadRequest, ErrCodeBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != ErrCodeBadRequest || resp.Error.Message != "bad input" {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}
