package post

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PostgresPostRepository implements PostRepository using PostgreSQL.
// Both counter materialization strategies are supported: stored counter
// columns on the posts table, or join subqueries over the reactions,
// comments, and shares tables.
type PostgresPostRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPostRepository creates a new PostgresPostRepository.
func NewPostgresPostRepository(db *sql.DB, logger *slog.Logger) *PostgresPostRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPostRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new post, assigning its ID from the posts sequence.
func (r *PostgresPostRepository) Create(ctx context.Context, p *Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}

	query := `
		INSERT INTO posts (author_id, content, visibility, created_at, like_count, comment_count, share_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		p.AuthorID, p.Content, string(p.Visibility), p.CreatedAt,
		p.LikeCount, p.CommentCount, p.ShareCount,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by id using the stored counter columns.
func (r *PostgresPostRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	query := `
		SELECT id, author_id, content, visibility, created_at, like_count, comment_count, share_count
		FROM posts
		WHERE id = $1
	`
	p := &Post{}
	var visibility string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.AuthorID, &p.Content, &visibility, &p.CreatedAt,
		&p.LikeCount, &p.CommentCount, &p.ShareCount,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}
	p.Visibility = Visibility(visibility)
	return p, nil
}

// counterColumns returns the SELECT expressions for the requested
// counter materialization strategy.
func counterColumns(source CounterSource) string {
	if source == CountersJoined {
		return `
		COALESCE((SELECT COUNT(*) FROM reactions re WHERE re.post_id = p.id AND re.type = 'like'), 0) AS like_count,
		COALESCE((SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id), 0) AS comment_count,
		COALESCE((SELECT COUNT(*) FROM shares s WHERE s.post_id = p.id), 0) AS share_count`
	}
	return `
		p.like_count, p.comment_count, p.share_count`
}

// CandidatesSince returns the candidate pool for a feed request.
func (r *PostgresPostRepository) CandidatesSince(ctx context.Context, q CandidateQuery) ([]*Post, error) {
	var query string
	var args []interface{}

	if len(q.OnlyAuthors) > 0 {
		// Author-restricted mode (following feed): membership in the
		// author set implies permission, no visibility predicate.
		query = `
		SELECT p.id, p.author_id, p.content, p.visibility, p.created_at,` + counterColumns(q.Counters) + `
		FROM posts p
		WHERE p.created_at >= $1
		  AND p.author_id <> $2
		  AND p.author_id = ANY($3)
		ORDER BY p.created_at DESC, p.id ASC
		`
		args = []interface{}{q.Since, q.ExcludeAuthor, pq.Array(q.OnlyAuthors)}
	} else if q.PublicOnly {
		query = `
		SELECT p.id, p.author_id, p.content, p.visibility, p.created_at,` + counterColumns(q.Counters) + `
		FROM posts p
		WHERE p.created_at >= $1
		  AND p.author_id <> $2
		  AND p.visibility = 'public'
		ORDER BY p.created_at DESC, p.id ASC
		`
		args = []interface{}{q.Since, q.ExcludeAuthor}
	} else {
		// Public posts are always eligible; friends-visibility posts
		// only when authored by one of the viewer's connections.
		query = `
		SELECT p.id, p.author_id, p.content, p.visibility, p.created_at,` + counterColumns(q.Counters) + `
		FROM posts p
		WHERE p.created_at >= $1
		  AND p.author_id <> $2
		  AND (p.visibility = 'public'
		       OR (p.visibility = 'friends' AND p.author_id = ANY($3)))
		ORDER BY p.created_at DESC, p.id ASC
		`
		args = []interface{}{q.Since, q.ExcludeAuthor, pq.Array(q.ConnectedIDs)}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close candidate rows", "error", err)
		}
	}()

	var candidates []*Post
	for rows.Next() {
		p := &Post{}
		var visibility string
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.Content, &visibility, &p.CreatedAt,
			&p.LikeCount, &p.CommentCount, &p.ShareCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		p.Visibility = Visibility(visibility)
		candidates = append(candidates, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// AuthorsActiveSince returns authors who posted at or after the given time.
func (r *PostgresPostRepository) AuthorsActiveSince(ctx context.Context, since time.Time) ([]AuthorActivity, error) {
	query := `
		SELECT author_id, MAX(created_at) AS last_active_at
		FROM posts
		WHERE created_at >= $1
		GROUP BY author_id
		ORDER BY last_active_at DESC, author_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active authors: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close activity rows", "error", err)
		}
	}()

	var activity []AuthorActivity
	for rows.Next() {
		var a AuthorActivity
		if err := rows.Scan(&a.UserID, &a.LastActiveAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity: %w", err)
	}
	return activity, nil
}
