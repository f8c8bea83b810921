package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/db"
)

const commentColumns = `
	id, extension_id, parent_id, content, author_user_id, author_name,
	is_deleted, created_at
`

// CommentRepository handles database operations for comments
type CommentRepository struct {
	db *db.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *db.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (
			id, extension_id, parent_id, content, author_user_id, author_name,
			is_deleted, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		comment.ID,
		comment.ExtensionID,
		comment.ParentID,
		comment.Content,
		comment.Author.UserID,
		comment.Author.Name,
		comment.IsDeleted,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment by id, nil if missing
func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment := &models.Comment{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.ExtensionID,
		&comment.ParentID,
		&comment.Content,
		&comment.Author.UserID,
		&comment.Author.Name,
		&comment.IsDeleted,
		&comment.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListByExtension retrieves every comment for an extension, soft-deleted
// tombstones included, in insertion order
func (r *CommentRepository) ListByExtension(ctx context.Context, extensionID uuid.UUID) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments WHERE extension_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, extensionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{}
		err := rows.Scan(
			&comment.ID,
			&comment.ExtensionID,
			&comment.ParentID,
			&comment.Content,
			&comment.Author.UserID,
			&comment.Author.Name,
			&comment.IsDeleted,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// SoftDelete marks a comment as deleted; the record and its replies persist
func (r *CommentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE comments SET is_deleted = TRUE WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("comment not found")
	}

	return nil
}

// CountActive returns the number of non-deleted comments on an extension
func (r *CommentRepository) CountActive(ctx context.Context, extensionID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM comments WHERE extension_id = $1 AND NOT is_deleted`

	var count int
	err := r.db.QueryRow(ctx, query, extensionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}
