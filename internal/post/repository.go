package post

import (
	"context"
	"sort"
	"sync"
	"time"
)

// PostRepository defines the data operations the feed engine needs from
// the post store.
type PostRepository interface {
	// Create inserts a new post, assigning its ID.
	Create(ctx context.Context, p *Post) error

	// GetByID retrieves a post by id.
	GetByID(ctx context.Context, id int64) (*Post, error)

	// CandidatesSince returns the candidate pool for a feed request:
	// posts inside the query window, excluding the requester's own,
	// filtered by visibility. Counters are populated on every row.
	// Results are ordered by created_at descending, id ascending on
	// ties, so repeated calls over the same data produce the same order.
	CandidatesSince(ctx context.Context, q CandidateQuery) ([]*Post, error)

	// AuthorsActiveSince returns authors who posted at or after the
	// given time, one entry per author keeping the most recent post
	// time, ordered by that time descending.
	AuthorsActiveSince(ctx context.Context, since time.Time) ([]AuthorActivity, error)
}

// InMemoryPostRepository is an in-memory implementation of
// PostRepository. Thread-safe via RWMutex.
type InMemoryPostRepository struct {
	mu     sync.RWMutex
	posts  map[int64]*Post
	nextID int64
}

// NewInMemoryPostRepository creates a new in-memory post repository.
func NewInMemoryPostRepository() *InMemoryPostRepository {
	return &InMemoryPostRepository{
		posts:  make(map[int64]*Post),
		nextID: 1,
	}
}

// Create inserts a new post, assigning a sequential ID.
func (r *InMemoryPostRepository) Create(_ context.Context, p *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}

	postCopy := *p
	r.posts[p.ID] = &postCopy
	return nil
}

// GetByID retrieves a post by id.
func (r *InMemoryPostRepository) GetByID(_ context.Context, id int64) (*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	postCopy := *p
	return &postCopy, nil
}

// CandidatesSince returns the candidate pool for a feed request.
func (r *InMemoryPostRepository) CandidatesSince(_ context.Context, q CandidateQuery) ([]*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	only := toSet(q.OnlyAuthors)
	connected := toSet(q.ConnectedIDs)

	var candidates []*Post
	for _, p := range r.posts {
		if p.CreatedAt.Before(q.Since) {
			continue
		}
		if p.AuthorID == q.ExcludeAuthor {
			continue
		}

		if len(q.OnlyAuthors) > 0 {
			// Author-restricted mode: membership implies permission.
			if !only[p.AuthorID] {
				continue
			}
		} else if !visibleTo(p, q.PublicOnly, connected) {
			continue
		}

		postCopy := *p
		candidates = append(candidates, &postCopy)
	}

	sortPostsByCreatedDesc(candidates)
	return candidates, nil
}

// AuthorsActiveSince returns authors who posted at or after the given time.
func (r *InMemoryPostRepository) AuthorsActiveSince(_ context.Context, since time.Time) ([]AuthorActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[int64]time.Time)
	for _, p := range r.posts {
		if p.CreatedAt.Before(since) {
			continue
		}
		if p.CreatedAt.After(latest[p.AuthorID]) {
			latest[p.AuthorID] = p.CreatedAt
		}
	}

	activity := make([]AuthorActivity, 0, len(latest))
	for userID, at := range latest {
		activity = append(activity, AuthorActivity{UserID: userID, LastActiveAt: at})
	}
	sort.Slice(activity, func(i, j int) bool {
		if !activity[i].LastActiveAt.Equal(activity[j].LastActiveAt) {
			return activity[i].LastActiveAt.After(activity[j].LastActiveAt)
		}
		return activity[i].UserID < activity[j].UserID
	})
	return activity, nil
}

// visibleTo applies the visibility rules for an unrestricted candidate
// fetch: public is always eligible, friends-visibility requires the
// viewer to be connected to the author, private is never eligible.
func visibleTo(p *Post, publicOnly bool, connected map[int64]bool) bool {
	switch p.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityFriends:
		return !publicOnly && connected[p.AuthorID]
	default:
		return false
	}
}

func toSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// sortPostsByCreatedDesc sorts posts by created_at DESC, then by ID ASC
// for tie-breaking, giving a stable base order for ranking and pagination.
func sortPostsByCreatedDesc(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.After(posts[j].CreatedAt) {
			return true
		}
		if posts[i].CreatedAt.Before(posts[j].CreatedAt) {
			return false
		}
		return posts[i].ID < posts[j].ID
	})
}
