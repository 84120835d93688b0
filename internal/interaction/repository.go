// Package interaction provides the interaction-history store the feed
// engine uses to detect prior engagement between a user and an author.
package interaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Type classifies an interaction with a post.
type Type string

const (
	// TypeLike is a like reaction.
	TypeLike Type = "like"

	// TypeComment is a comment on a post.
	TypeComment Type = "comment"

	// TypeShare is a share of a post.
	TypeShare Type = "share"
)

// Interaction records that a user engaged with a post at a point in time.
type Interaction struct {
	UserID       int64     `json:"user_id"`
	PostID       int64     `json:"post_id"`
	PostAuthorID int64     `json:"post_author_id"`
	Type         Type      `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommenterActivity pairs a user with their most recent comment time.
// Used by the recently-active users view alongside post authors.
type CommenterActivity struct {
	UserID       int64     `json:"user_id"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// InteractionRepository defines the interaction-history lookups used by
// the feed engine.
type InteractionRepository interface {
	// RecentByUser returns the user's interactions at or after the
	// given time, most recent first.
	RecentByUser(ctx context.Context, userID int64, since time.Time) ([]Interaction, error)

	// CommentersSince returns users who commented at or after the given
	// time, one entry per user keeping the most recent comment time,
	// ordered by that time descending.
	CommentersSince(ctx context.Context, since time.Time) ([]CommenterActivity, error)
}

// InMemoryInteractionRepository is an in-memory implementation of
// InteractionRepository. Thread-safe via RWMutex.
type InMemoryInteractionRepository struct {
	mu           sync.RWMutex
	interactions []Interaction
}

// NewInMemoryInteractionRepository creates a new in-memory interaction
// repository.
func NewInMemoryInteractionRepository() *InMemoryInteractionRepository {
	return &InMemoryInteractionRepository{}
}

// Record appends an interaction.
func (r *InMemoryInteractionRepository) Record(in Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	r.interactions = append(r.interactions, in)
}

// RecentByUser returns the user's interactions at or after the given time.
func (r *InMemoryInteractionRepository) RecentByUser(_ context.Context, userID int64, since time.Time) ([]Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recent []Interaction
	for _, in := range r.interactions {
		if in.UserID != userID {
			continue
		}
		if in.CreatedAt.Before(since) {
			continue
		}
		recent = append(recent, in)
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	return recent, nil
}

// CommentersSince returns users who commented at or after the given time.
func (r *InMemoryInteractionRepository) CommentersSince(_ context.Context, since time.Time) ([]CommenterActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[int64]time.Time)
	for _, in := range r.interactions {
		if in.Type != TypeComment {
			continue
		}
		if in.CreatedAt.Before(since) {
			continue
		}
		if in.CreatedAt.After(latest[in.UserID]) {
			latest[in.UserID] = in.CreatedAt
		}
	}

	activity := make([]CommenterActivity, 0, len(latest))
	for userID, at := range latest {
		activity = append(activity, CommenterActivity{UserID: userID, LastActiveAt: at})
	}
	sort.Slice(activity, func(i, j int) bool {
		if !activity[i].LastActiveAt.Equal(activity[j].LastActiveAt) {
			return activity[i].LastActiveAt.After(activity[j].LastActiveAt)
		}
		return activity[i].UserID < activity[j].UserID
	})
	return activity, nil
}
