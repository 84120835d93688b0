// Package graph provides the social graph lookups the feed engine needs:
// accepted friendships (symmetric) and follows (directed), exposed as the
// set of ids a user is connected to.
package graph

import (
	"context"
	"sync"
)

// FriendshipStatus is the lifecycle state of a friendship request.
// Only accepted friendships count as graph edges for ranking.
type FriendshipStatus string

const (
	// StatusPending friendships have been requested but not confirmed.
	StatusPending FriendshipStatus = "pending"

	// StatusAccepted friendships count as connections.
	StatusAccepted FriendshipStatus = "accepted"

	// StatusDeclined friendships were rejected.
	StatusDeclined FriendshipStatus = "declined"
)

// ConnectedIDs holds a user's connections, keeping friends and follows
// separate because ranking weights them differently. A friendship takes
// priority over a follow when both relations exist for the same id.
type ConnectedIDs struct {
	Friends   map[int64]bool
	Following map[int64]bool
}

// NewConnectedIDs builds a ConnectedIDs from id slices.
func NewConnectedIDs(friendIDs, followingIDs []int64) ConnectedIDs {
	c := ConnectedIDs{
		Friends:   make(map[int64]bool, len(friendIDs)),
		Following: make(map[int64]bool, len(followingIDs)),
	}
	for _, id := range friendIDs {
		c.Friends[id] = true
	}
	for _, id := range followingIDs {
		c.Following[id] = true
	}
	return c
}

// IsFriend reports whether id is an accepted friend.
func (c ConnectedIDs) IsFriend(id int64) bool {
	return c.Friends[id]
}

// IsFollowing reports whether the user follows id.
func (c ConnectedIDs) IsFollowing(id int64) bool {
	return c.Following[id]
}

// Contains reports whether id is in the union of friends and follows.
func (c ConnectedIDs) Contains(id int64) bool {
	return c.Friends[id] || c.Following[id]
}

// Union returns the union of friend and following ids as a slice.
// Order is unspecified; callers needing determinism must sort.
func (c ConnectedIDs) Union() []int64 {
	seen := make(map[int64]bool, len(c.Friends)+len(c.Following))
	union := make([]int64, 0, len(c.Friends)+len(c.Following))
	for id := range c.Friends {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	for id := range c.Following {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	return union
}

// Empty reports whether the user has no connections at all.
func (c ConnectedIDs) Empty() bool {
	return len(c.Friends) == 0 && len(c.Following) == 0
}

// GraphRepository defines the social graph lookups used by the feed engine.
type GraphRepository interface {
	// FriendIDs returns the partner ids of the user's accepted
	// friendships. Friendships are symmetric: the user may appear on
	// either side of the stored edge.
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// FollowingIDs returns the ids the user follows.
	FollowingIDs(ctx context.Context, userID int64) ([]int64, error)
}

// friendshipEdge is a stored friendship row.
type friendshipEdge struct {
	userID, friendID int64
	status           FriendshipStatus
}

// InMemoryGraphRepository is an in-memory implementation of
// GraphRepository. Thread-safe via RWMutex.
type InMemoryGraphRepository struct {
	mu          sync.RWMutex
	friendships []friendshipEdge
	follows     map[int64][]int64 // follower -> followees
}

// NewInMemoryGraphRepository creates a new in-memory graph repository.
func NewInMemoryGraphRepository() *InMemoryGraphRepository {
	return &InMemoryGraphRepository{
		follows: make(map[int64][]int64),
	}
}

// AddFriendship records a friendship edge with the given status.
func (r *InMemoryGraphRepository) AddFriendship(userID, friendID int64, status FriendshipStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friendships = append(r.friendships, friendshipEdge{userID: userID, friendID: friendID, status: status})
}

// AddFollow records that follower follows followee.
func (r *InMemoryGraphRepository) AddFollow(follower, followee int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows[follower] = append(r.follows[follower], followee)
}

// FriendIDs returns the partner ids of the user's accepted friendships.
func (r *InMemoryGraphRepository) FriendIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int64
	for _, edge := range r.friendships {
		if edge.status != StatusAccepted {
			continue
		}
		switch userID {
		case edge.userID:
			ids = append(ids, edge.friendID)
		case edge.friendID:
			ids = append(ids, edge.userID)
		}
	}
	return ids, nil
}

// FollowingIDs returns the ids the user follows.
func (r *InMemoryGraphRepository) FollowingIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	followees := r.follows[userID]
	ids := make([]int64, len(followees))
	copy(ids, followees)
	return ids, nil
}
