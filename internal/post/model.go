// Package post provides the post model and repository for feed candidate
// retrieval, with engagement counters materialized on every returned row.
package post

import (
	"errors"
	"time"
)

// Common errors for post operations.
var (
	ErrPostNotFound = errors.New("post not found")
)

// Visibility controls who may see a post.
type Visibility string

const (
	// VisibilityPublic posts are visible to everyone.
	VisibilityPublic Visibility = "public"

	// VisibilityFriends posts are visible only to the author's accepted
	// friends and to users the author is connected to.
	VisibilityFriends Visibility = "friends"

	// VisibilityPrivate posts are visible only to the author.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// Post represents a content post eligible for feed ranking.
// Engagement counters are always populated before a Post crosses a
// repository boundary, regardless of whether the underlying store keeps
// them as columns or derives them from joins.
type Post struct {
	ID         int64      `json:"id"`
	AuthorID   int64      `json:"author_id"`
	Content    string     `json:"content"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`

	// Engagement counters. Never negative; all-zero is a valid,
	// rankable state.
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	ShareCount   int `json:"share_count"`
}

// CounterSource selects how engagement counters are materialized by a
// SQL-backed repository. In-memory repositories carry counters on the
// struct and ignore this.
type CounterSource int

const (
	// CountersStored reads the pre-aggregated counter columns on the
	// posts table.
	CountersStored CounterSource = iota

	// CountersJoined derives counters from the reactions, comments, and
	// shares tables at read time.
	CountersJoined
)

// CandidateQuery describes a candidate-pool fetch for one feed request.
type CandidateQuery struct {
	// Since bounds the trailing time window; posts created before it
	// are not candidates.
	Since time.Time

	// ExcludeAuthor removes the requesting user's own posts.
	ExcludeAuthor int64

	// OnlyAuthors, when non-empty, restricts candidates to these
	// authors (the following feed). Visibility filtering is skipped in
	// this mode since the author set already implies permission.
	OnlyAuthors []int64

	// PublicOnly restricts candidates to public posts (discover feed).
	PublicOnly bool

	// ConnectedIDs lists authors whose friends-visibility posts the
	// viewer is permitted to see.
	ConnectedIDs []int64

	// Counters selects the counter materialization strategy for
	// SQL-backed stores.
	Counters CounterSource
}

// AuthorActivity pairs an author with their most recent posting time.
// Used by the recently-active users view.
type AuthorActivity struct {
	UserID       int64     `json:"user_id"`
	LastActiveAt time.Time `json:"last_active_at"`
}
