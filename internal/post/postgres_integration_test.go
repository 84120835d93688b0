//go:build integration

package post_test

import (
	"context"
	"database/sql"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/graph"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/interaction"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// skipIfNoDocker skips the test when the Docker daemon is not reachable.
func skipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostgres boots a throwaway Postgres container, applies all up
// migrations, and returns an open connection.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("feeds"),
		tcpostgres.WithUsername("feeds"),
		tcpostgres.WithPassword("feeds"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("warning: failed to terminate container: %v", err)
		}
	})

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("failed to glob migrations: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no migration files found")
	}
	sort.Strings(paths)

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read migration %s: %v", path, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			t.Fatalf("failed to apply migration %s: %v", path, err)
		}
	}
}

func seedUsers(t *testing.T, db *sql.DB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		_, err := db.Exec(
			`INSERT INTO users (id, username) VALUES ($1, 'user' || $1::text) ON CONFLICT DO NOTHING`,
			id,
		)
		if err != nil {
			t.Fatalf("failed to seed user %d: %v", id, err)
		}
	}
}

func TestPostgresRepositories(t *testing.T) {
	skipIfNoDocker(t)

	db := startPostgres(t)
	ctx := context.Background()

	posts := post.NewPostgresPostRepository(db, nil)
	graphRepo := graph.NewPostgresGraphRepository(db, nil)
	interactions := interaction.NewPostgresInteractionRepository(db, nil)

	seedUsers(t, db, 1, 2, 3, 4, 5)

	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("create and get round trip", func(t *testing.T) {
		p := &post.Post{
			AuthorID:  2,
			Content:   "milonga tonight at the club",
			CreatedAt: now.Add(-1 * time.Hour),
			LikeCount: 3,
		}
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("failed to create post: %v", err)
		}
		if p.ID == 0 {
			t.Fatal("expected assigned id")
		}
		if p.Visibility != post.VisibilityPublic {
			t.Errorf("expected default public visibility, got %q", p.Visibility)
		}

		got, err := posts.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("failed to get post: %v", err)
		}
		if got.AuthorID != 2 || got.Content != p.Content || got.LikeCount != 3 {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("get missing post", func(t *testing.T) {
		_, err := posts.GetByID(ctx, 999999)
		if err != post.ErrPostNotFound {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})

	t.Run("friendship edges resolve from either side", func(t *testing.T) {
		mustExec(t, db, `INSERT INTO friendships (user_id, friend_id, status) VALUES (1, 2, 'accepted')`)
		mustExec(t, db, `INSERT INTO friendships (user_id, friend_id, status) VALUES (3, 1, 'accepted')`)
		mustExec(t, db, `INSERT INTO friendships (user_id, friend_id, status) VALUES (1, 4, 'pending')`)

		friends, err := graphRepo.FriendIDs(ctx, 1)
		if err != nil {
			t.Fatalf("failed to query friends: %v", err)
		}
		if !sameIDs(friends, []int64{2, 3}) {
			t.Errorf("expected friends [2 3], got %v", friends)
		}
	})

	t.Run("follows are directed", func(t *testing.T) {
		mustExec(t, db, `INSERT INTO follows (follower_id, followee_id) VALUES (1, 5)`)
		mustExec(t, db, `INSERT INTO follows (follower_id, followee_id) VALUES (5, 4)`)

		following, err := graphRepo.FollowingIDs(ctx, 1)
		if err != nil {
			t.Fatalf("failed to query follows: %v", err)
		}
		if !sameIDs(following, []int64{5}) {
			t.Errorf("expected following [5], got %v", following)
		}
	})

	t.Run("candidates honor visibility and window", func(t *testing.T) {
		friendsOnly := &post.Post{
			AuthorID:   2,
			Content:    "practica for close friends only",
			Visibility: post.VisibilityFriends,
			CreatedAt:  now.Add(-2 * time.Hour),
		}
		private := &post.Post{
			AuthorID:   2,
			Content:    "draft notes",
			Visibility: post.VisibilityPrivate,
			CreatedAt:  now.Add(-2 * time.Hour),
		}
		strangerFriendsOnly := &post.Post{
			AuthorID:   4,
			Content:    "not for viewer 1",
			Visibility: post.VisibilityFriends,
			CreatedAt:  now.Add(-2 * time.Hour),
		}
		stale := &post.Post{
			AuthorID:  3,
			Content:   "ancient history",
			CreatedAt: now.Add(-200 * time.Hour),
		}
		for _, p := range []*post.Post{friendsOnly, private, strangerFriendsOnly, stale} {
			if err := posts.Create(ctx, p); err != nil {
				t.Fatalf("failed to create post: %v", err)
			}
		}

		candidates, err := posts.CandidatesSince(ctx, post.CandidateQuery{
			Since:         now.Add(-7 * 24 * time.Hour),
			ExcludeAuthor: 1,
			ConnectedIDs:  []int64{2, 3},
		})
		if err != nil {
			t.Fatalf("failed to query candidates: %v", err)
		}

		ids := make(map[int64]bool, len(candidates))
		for _, c := range candidates {
			ids[c.ID] = true
		}
		if !ids[friendsOnly.ID] {
			t.Error("expected connection's friends-only post to be a candidate")
		}
		if ids[private.ID] {
			t.Error("private post must never be a candidate")
		}
		if ids[strangerFriendsOnly.ID] {
			t.Error("stranger's friends-only post must not be a candidate")
		}
		if ids[stale.ID] {
			t.Error("post outside the window must not be a candidate")
		}
	})

	t.Run("joined counters match interaction rows", func(t *testing.T) {
		p := &post.Post{
			AuthorID:  3,
			Content:   "new tanda playlist",
			CreatedAt: now.Add(-30 * time.Minute),
		}
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("failed to create post: %v", err)
		}
		mustExec(t, db, `INSERT INTO reactions (user_id, post_id, type) VALUES (1, $1, 'like'), (2, $1, 'like')`, p.ID)
		mustExec(t, db, `INSERT INTO comments (user_id, post_id, content) VALUES (4, $1, 'lovely selection')`, p.ID)
		mustExec(t, db, `INSERT INTO shares (user_id, post_id) VALUES (5, $1)`, p.ID)

		candidates, err := posts.CandidatesSince(ctx, post.CandidateQuery{
			Since:         now.Add(-1 * time.Hour),
			ExcludeAuthor: 99,
			PublicOnly:    true,
			Counters:      post.CountersJoined,
		})
		if err != nil {
			t.Fatalf("failed to query candidates: %v", err)
		}

		var found *post.Post
		for _, c := range candidates {
			if c.ID == p.ID {
				found = c
			}
		}
		if found == nil {
			t.Fatal("expected post in candidate pool")
		}
		if found.LikeCount != 2 || found.CommentCount != 1 || found.ShareCount != 1 {
			t.Errorf("expected counters 2/1/1, got %d/%d/%d",
				found.LikeCount, found.CommentCount, found.ShareCount)
		}
	})

	t.Run("author restricted candidates skip visibility", func(t *testing.T) {
		candidates, err := posts.CandidatesSince(ctx, post.CandidateQuery{
			Since:         now.Add(-7 * 24 * time.Hour),
			ExcludeAuthor: 1,
			OnlyAuthors:   []int64{2},
		})
		if err != nil {
			t.Fatalf("failed to query candidates: %v", err)
		}
		for _, c := range candidates {
			if c.AuthorID != 2 {
				t.Errorf("expected only author 2, got author %d", c.AuthorID)
			}
		}
		sawFriendsOnly := false
		for _, c := range candidates {
			if c.Visibility == post.VisibilityFriends {
				sawFriendsOnly = true
			}
		}
		if !sawFriendsOnly {
			t.Error("expected friends-only post in author-restricted pool")
		}
	})

	t.Run("recent interactions union with post author", func(t *testing.T) {
		recent, err := interactions.RecentByUser(ctx, 1, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("failed to query interactions: %v", err)
		}
		if len(recent) == 0 {
			t.Fatal("expected at least one interaction for user 1")
		}
		for _, in := range recent {
			if in.UserID != 1 {
				t.Errorf("expected only user 1 interactions, got user %d", in.UserID)
			}
			if in.PostAuthorID == 0 {
				t.Error("expected post author to be joined in")
			}
		}
	})

	t.Run("commenters dedup by latest comment", func(t *testing.T) {
		commenters, err := interactions.CommentersSince(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("failed to query commenters: %v", err)
		}
		seen := make(map[int64]int)
		for _, c := range commenters {
			seen[c.UserID]++
		}
		for userID, count := range seen {
			if count > 1 {
				t.Errorf("user %d appears %d times, expected one entry", userID, count)
			}
		}
	})

	t.Run("active authors keep latest post time", func(t *testing.T) {
		activity, err := posts.AuthorsActiveSince(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("failed to query active authors: %v", err)
		}
		for i := 1; i < len(activity); i++ {
			if activity[i].LastActiveAt.After(activity[i-1].LastActiveAt) {
				t.Error("expected activity ordered by last active time descending")
			}
		}
	})
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

func sameIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	g := append([]int64(nil), got...)
	w := append([]int64(nil), want...)
	sort.Slice(g, func(i, j int) bool { return g[i] < g[j] })
	sort.Slice(w, func(i, j int) bool { return w[i] < w[j] })
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}
