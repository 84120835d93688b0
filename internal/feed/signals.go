package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/graph"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/interaction"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// Signals bundles everything a single feed request needs before scoring:
// the viewer's connections, their recent interaction history, and the
// candidate pool. Signals are ephemeral; nothing here outlives a request.
type Signals struct {
	Connected  graph.ConnectedIDs
	History    []interaction.Interaction
	Candidates []*post.Post
}

// Fetcher gathers signals from the underlying stores. It is read-only
// and stateless; a single instance can serve concurrent requests.
type Fetcher struct {
	posts        post.PostRepository
	graph        graph.GraphRepository
	interactions interaction.InteractionRepository
}

// NewFetcher creates a Fetcher over the given stores.
func NewFetcher(posts post.PostRepository, g graph.GraphRepository, interactions interaction.InteractionRepository) *Fetcher {
	return &Fetcher{
		posts:        posts,
		graph:        g,
		interactions: interactions,
	}
}

// ConnectedIDs fetches the viewer's friend and following id sets. The
// two reads are independent and issued concurrently; both must complete
// before the result is usable.
func (f *Fetcher) ConnectedIDs(ctx context.Context, userID int64) (graph.ConnectedIDs, error) {
	type idsResult struct {
		ids []int64
		err error
	}

	friendCh := make(chan idsResult, 1)
	followCh := make(chan idsResult, 1)

	go func() {
		ids, err := f.graph.FriendIDs(ctx, userID)
		friendCh <- idsResult{ids: ids, err: err}
	}()
	go func() {
		ids, err := f.graph.FollowingIDs(ctx, userID)
		followCh <- idsResult{ids: ids, err: err}
	}()

	friends := <-friendCh
	follows := <-followCh

	if friends.err != nil {
		return graph.ConnectedIDs{}, fmt.Errorf("fetching friend ids: %w: %w", ErrDataUnavailable, friends.err)
	}
	if follows.err != nil {
		return graph.ConnectedIDs{}, fmt.Errorf("fetching following ids: %w: %w", ErrDataUnavailable, follows.err)
	}

	return graph.NewConnectedIDs(friends.ids, follows.ids), nil
}

// Fetch gathers the full signal set for a ranked feed request: the
// viewer's connections, their interaction history inside historyWindow,
// and the candidate pool described by q. The candidate query's
// ConnectedIDs field is populated from the fetched graph before the
// candidate read is issued.
//
// Any store failure surfaces as ErrDataUnavailable; there is no partial
// signal set.
func (f *Fetcher) Fetch(ctx context.Context, userID int64, historyWindow time.Duration, q post.CandidateQuery) (*Signals, error) {
	connected, err := f.ConnectedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := f.interactions.RecentByUser(ctx, userID, time.Now().Add(-historyWindow))
	if err != nil {
		return nil, fmt.Errorf("fetching interaction history: %w: %w", ErrDataUnavailable, err)
	}

	q.ConnectedIDs = connected.Union()
	candidates, err := f.posts.CandidatesSince(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w: %w", ErrDataUnavailable, err)
	}
	if err := validateCandidates(candidates); err != nil {
		return nil, err
	}

	return &Signals{
		Connected:  connected,
		History:    history,
		Candidates: candidates,
	}, nil
}

// validateCandidates enforces the closed candidate shape the scorer
// relies on. A missing creation timestamp cannot be defaulted: recency
// decay would silently treat the post as brand new, so it is a data
// error, not a scorable state.
func validateCandidates(candidates []*post.Post) error {
	for _, p := range candidates {
		if p.CreatedAt.IsZero() {
			return fmt.Errorf("candidate %d has no creation timestamp: %w", p.ID, ErrDataUnavailable)
		}
	}
	return nil
}
