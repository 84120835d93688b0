package graph

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// PostgresGraphRepository implements GraphRepository using PostgreSQL.
type PostgresGraphRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresGraphRepository creates a new PostgresGraphRepository.
func NewPostgresGraphRepository(db *sql.DB, logger *slog.Logger) *PostgresGraphRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGraphRepository{
		db:     db,
		logger: logger,
	}
}

// FriendIDs returns the partner ids of the user's accepted friendships.
// The user may be on either side of the stored edge.
func (r *PostgresGraphRepository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT CASE WHEN user_id = $1 THEN friend_id ELSE user_id END
		FROM friendships
		WHERE (user_id = $1 OR friend_id = $1)
		  AND status = 'accepted'
	`
	return r.queryIDs(ctx, query, userID)
}

// FollowingIDs returns the ids the user follows.
func (r *PostgresGraphRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT followee_id
		FROM follows
		WHERE follower_id = $1
	`
	return r.queryIDs(ctx, query, userID)
}

func (r *PostgresGraphRepository) queryIDs(ctx context.Context, query string, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph edges: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close graph rows", "error", err)
		}
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan graph edge: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate graph edges: %w", err)
	}
	return ids, nil
}
