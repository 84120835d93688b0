package interaction

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PostgresInteractionRepository implements InteractionRepository using
// PostgreSQL. Interactions are read from the reactions, comments, and
// shares tables as a union; the post author is joined in so callers get
// the derived prior-engagement signal without a second round trip.
type PostgresInteractionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresInteractionRepository creates a new
// PostgresInteractionRepository.
func NewPostgresInteractionRepository(db *sql.DB, logger *slog.Logger) *PostgresInteractionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresInteractionRepository{
		db:     db,
		logger: logger,
	}
}

// RecentByUser returns the user's interactions at or after the given time.
func (r *PostgresInteractionRepository) RecentByUser(ctx context.Context, userID int64, since time.Time) ([]Interaction, error) {
	query := `
		SELECT i.user_id, i.post_id, p.author_id, i.type, i.created_at
		FROM (
			SELECT user_id, post_id, type, created_at FROM reactions
			UNION ALL
			SELECT user_id, post_id, 'comment', created_at FROM comments
			UNION ALL
			SELECT user_id, post_id, 'share', created_at FROM shares
		) i
		JOIN posts p ON p.id = i.post_id
		WHERE i.user_id = $1
		  AND i.created_at >= $2
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close interaction rows", "error", err)
		}
	}()

	var recent []Interaction
	for rows.Next() {
		var in Interaction
		var typ string
		if err := rows.Scan(&in.UserID, &in.PostID, &in.PostAuthorID, &typ, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.Type = Type(typ)
		recent = append(recent, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return recent, nil
}

// CommentersSince returns users who commented at or after the given time.
func (r *PostgresInteractionRepository) CommentersSince(ctx context.Context, since time.Time) ([]CommenterActivity, error) {
	query := `
		SELECT user_id, MAX(created_at) AS last_active_at
		FROM comments
		WHERE created_at >= $1
		GROUP BY user_id
		ORDER BY last_active_at DESC, user_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query commenters: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close commenter rows", "error", err)
		}
	}()

	var activity []CommenterActivity
	for rows.Next() {
		var a CommenterActivity
		if err := rows.Scan(&a.UserID, &a.LastActiveAt); err != nil {
			return nil, fmt.Errorf("failed to scan commenter: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commenters: %w", err)
	}
	return activity, nil
}
