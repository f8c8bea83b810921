package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/db"
)

// pgUniqueViolation is the Postgres error code for unique constraint failures
const pgUniqueViolation = "23505"

const extensionColumns = `
	id, product_id, type, display_name, description, repo_url, homepage_url,
	tags, installation, author_user_id, author_name, author_email,
	status, rejection_reason, reviewed_at, reviewed_by, created_at, updated_at
`

// ExtensionRepository handles database operations for extensions
type ExtensionRepository struct {
	db *db.DB
}

// NewExtensionRepository creates a new extension repository
func NewExtensionRepository(db *db.DB) *ExtensionRepository {
	return &ExtensionRepository{db: db}
}

// Create inserts a new extension. A duplicate product id surfaces as a
// Conflict via the unique index, so there is no check-then-insert race.
func (r *ExtensionRepository) Create(ctx context.Context, ext *models.Extension) error {
	query := `
		INSERT INTO extensions (
			id, product_id, type, display_name, description, repo_url, homepage_url,
			tags, installation, author_user_id, author_name, author_email,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		ext.ID,
		ext.ProductID,
		ext.Type,
		ext.DisplayName,
		ext.Description,
		ext.RepoURL,
		ext.HomepageURL,
		ext.Tags,
		ext.Installation,
		ext.Author.UserID,
		ext.Author.Name,
		ext.Author.Email,
		ext.Status,
		ext.CreatedAt,
		ext.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperr.Conflict("an extension with this product ID already exists")
		}
		return fmt.Errorf("failed to create extension: %w", err)
	}

	return nil
}

// GetByID retrieves an extension by id, nil if missing
func (r *ExtensionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Extension, error) {
	query := `SELECT ` + extensionColumns + ` FROM extensions WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByProductID retrieves an extension by product id, nil if missing
func (r *ExtensionRepository) GetByProductID(ctx context.Context, productID string) (*models.Extension, error) {
	query := `SELECT ` + extensionColumns + ` FROM extensions WHERE product_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, productID))
}

// ProductIDExists checks if a product id is already taken (any status)
func (r *ExtensionRepository) ProductIDExists(ctx context.Context, productID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM extensions WHERE product_id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product id: %w", err)
	}

	return exists, nil
}

// ListByStatus retrieves all extensions with the given status
func (r *ExtensionRepository) ListByStatus(ctx context.Context, status models.ExtensionStatus) ([]*models.Extension, error) {
	query := `SELECT ` + extensionColumns + `
		FROM extensions WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListAll retrieves every extension regardless of status
func (r *ExtensionRepository) ListAll(ctx context.Context) ([]*models.Extension, error) {
	query := `SELECT ` + extensionColumns + ` FROM extensions ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListByAuthor retrieves all extensions submitted by a user
func (r *ExtensionRepository) ListByAuthor(ctx context.Context, userID string) ([]*models.Extension, error) {
	query := `SELECT ` + extensionColumns + `
		FROM extensions WHERE author_user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions by author: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListRecentlyApproved retrieves the most recently approved extensions
func (r *ExtensionRepository) ListRecentlyApproved(ctx context.Context, limit int) ([]*models.Extension, error) {
	query := `SELECT ` + extensionColumns + `
		FROM extensions
		WHERE status = 'approved'
		ORDER BY reviewed_at DESC NULLS LAST
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recently approved: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Update persists the mutable fields of an extension
func (r *ExtensionRepository) Update(ctx context.Context, ext *models.Extension) error {
	query := `
		UPDATE extensions
		SET display_name = $2, description = $3, repo_url = $4, homepage_url = $5,
		    tags = $6, installation = $7, status = $8,
		    rejection_reason = $9, reviewed_at = $10, reviewed_by = $11,
		    updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		ext.ID,
		ext.DisplayName,
		ext.Description,
		ext.RepoURL,
		ext.HomepageURL,
		ext.Tags,
		ext.Installation,
		ext.Status,
		ext.RejectionReason,
		ext.ReviewedAt,
		ext.ReviewedBy,
		ext.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update extension: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("extension not found")
	}

	return nil
}

// Delete hard-deletes an extension; comments and likes cascade at the store
func (r *ExtensionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM extensions WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete extension: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("extension not found")
	}

	return nil
}

// Counts returns extension totals per status
func (r *ExtensionRepository) Counts(ctx context.Context) (*models.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*)
		FROM extensions
	`

	counts := &models.StatusCounts{}
	err := r.db.QueryRow(ctx, query).Scan(
		&counts.Pending,
		&counts.Approved,
		&counts.Rejected,
		&counts.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count extensions: %w", err)
	}

	return counts, nil
}

func (r *ExtensionRepository) scanOne(row pgx.Row) (*models.Extension, error) {
	ext := &models.Extension{}
	err := row.Scan(
		&ext.ID,
		&ext.ProductID,
		&ext.Type,
		&ext.DisplayName,
		&ext.Description,
		&ext.RepoURL,
		&ext.HomepageURL,
		&ext.Tags,
		&ext.Installation,
		&ext.Author.UserID,
		&ext.Author.Name,
		&ext.Author.Email,
		&ext.Status,
		&ext.RejectionReason,
		&ext.ReviewedAt,
		&ext.ReviewedBy,
		&ext.CreatedAt,
		&ext.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan extension: %w", err)
	}

	return ext, nil
}

func (r *ExtensionRepository) scanAll(rows pgx.Rows) ([]*models.Extension, error) {
	var extensions []*models.Extension
	for rows.Next() {
		ext := &models.Extension{}
		err := rows.Scan(
			&ext.ID,
			&ext.ProductID,
			&ext.Type,
			&ext.DisplayName,
			&ext.Description,
			&ext.RepoURL,
			&ext.HomepageURL,
			&ext.Tags,
			&ext.Installation,
			&ext.Author.UserID,
			&ext.Author.Name,
			&ext.Author.Email,
			&ext.Status,
			&ext.RejectionReason,
			&ext.ReviewedAt,
			&ext.ReviewedBy,
			&ext.CreatedAt,
			&ext.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extension: %w", err)
		}
		extensions = append(extensions, ext)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extensions: %w", err)
	}

	return extensions, nil
}
