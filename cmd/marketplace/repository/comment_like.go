package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/db"
)

// CommentLikeRepository handles database operations for comment likes
type CommentLikeRepository struct {
	db *db.DB
}

// NewCommentLikeRepository creates a new comment like repository
func NewCommentLikeRepository(db *db.DB) *CommentLikeRepository {
	return &CommentLikeRepository{db: db}
}

// Create inserts a like for (user, comment)
func (r *CommentLikeRepository) Create(ctx context.Context, like *models.CommentLike) error {
	query := `
		INSERT INTO comment_likes (comment_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, comment_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, like.CommentID, like.UserID, like.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}

	return nil
}

// Delete removes a like; returns whether a row was removed
func (r *CommentLikeRepository) Delete(ctx context.Context, userID string, commentID uuid.UUID) (bool, error) {
	query := `DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2`

	result, err := r.db.Exec(ctx, query, userID, commentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// CountByExtension returns like counts keyed by comment id for every
// comment on an extension
func (r *CommentLikeRepository) CountByExtension(ctx context.Context, extensionID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT cl.comment_id, COUNT(*)
		FROM comment_likes cl
		JOIN comments c ON c.id = cl.comment_id
		WHERE c.extension_id = $1
		GROUP BY cl.comment_id
	`

	rows, err := r.db.Query(ctx, query, extensionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var commentID uuid.UUID
		var count int
		if err := rows.Scan(&commentID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan like count: %w", err)
		}
		counts[commentID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating like counts: %w", err)
	}

	return counts, nil
}

// ListUserLiked returns the ids of comments on an extension the user has liked
func (r *CommentLikeRepository) ListUserLiked(ctx context.Context, userID string, extensionID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT cl.comment_id
		FROM comment_likes cl
		JOIN comments c ON c.id = cl.comment_id
		WHERE cl.user_id = $1 AND c.extension_id = $2
	`

	rows, err := r.db.Query(ctx, query, userID, extensionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user likes: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan liked comment id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user likes: %w", err)
	}

	return ids, nil
}
