package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/cache"
	"github.com/opencode-cafe/marketplace/common/logger"
)

// approvedCacheKey caches the public approved-extensions listing
const approvedCacheKey = "extensions:approved"

// ExtensionStore is the persistence surface the submission workflow needs
type ExtensionStore interface {
	Create(ctx context.Context, ext *models.Extension) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Extension, error)
	GetByProductID(ctx context.Context, productID string) (*models.Extension, error)
	ProductIDExists(ctx context.Context, productID string) (bool, error)
	ListByStatus(ctx context.Context, status models.ExtensionStatus) ([]*models.Extension, error)
	ListAll(ctx context.Context) ([]*models.Extension, error)
	ListByAuthor(ctx context.Context, userID string) ([]*models.Extension, error)
	ListRecentlyApproved(ctx context.Context, limit int) ([]*models.Extension, error)
	Update(ctx context.Context, ext *models.Extension) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (*models.StatusCounts, error)
}

// SubmitRequest carries the fields of a new submission
type SubmitRequest struct {
	ProductID    string               `json:"productId"`
	Type         models.ExtensionType `json:"type"`
	DisplayName  string               `json:"displayName"`
	Description  string               `json:"description"`
	RepoURL      string               `json:"repoUrl"`
	HomepageURL  *string              `json:"homepageUrl,omitempty"`
	Tags         []string             `json:"tags"`
	Installation string               `json:"installation"`
}

// UpdateRequest carries the editable fields of an extension
type UpdateRequest struct {
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	RepoURL      string   `json:"repoUrl"`
	HomepageURL  *string  `json:"homepageUrl,omitempty"`
	Tags         []string `json:"tags"`
	Installation string   `json:"installation"`
}

// UpdateResult reports the outcome of an author edit
type UpdateResult struct {
	Success   bool                   `json:"success"`
	NewStatus models.ExtensionStatus `json:"newStatus"`
}

// ExtensionService implements the submission and review workflow
type ExtensionService struct {
	store          ExtensionStore
	screener       *Screener
	notifier       Notifier
	cache          cache.Cache
	cacheTTL       time.Duration
	resubmitOnEdit bool
	log            *logger.Logger
}

// NewExtensionService creates a new extension service
func NewExtensionService(
	store ExtensionStore,
	screener *Screener,
	notifier Notifier,
	c cache.Cache,
	cacheTTL time.Duration,
	resubmitOnEdit bool,
	log *logger.Logger,
) *ExtensionService {
	return &ExtensionService{
		store:          store,
		screener:       screener,
		notifier:       notifier,
		cache:          c,
		cacheTTL:       cacheTTL,
		resubmitOnEdit: resubmitOnEdit,
		log:            log,
	}
}

// Submit validates and persists a new extension with status pending
func (s *ExtensionService) Submit(ctx context.Context, identity *models.Identity, req *SubmitRequest) (*models.Extension, error) {
	if identity == nil {
		return nil, apperr.Unauthenticated("you must be signed in to submit an extension")
	}

	if !models.ValidProductID(req.ProductID) {
		return nil, apperr.InvalidInput("product ID must contain only lowercase letters and hyphens, and start/end with a letter")
	}

	if !req.Type.Valid() {
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown extension type: %s", req.Type)
	}

	if req.DisplayName == "" || req.Description == "" || req.RepoURL == "" {
		return nil, apperr.InvalidInput("display name, description, and repository URL are required")
	}

	now := time.Now().UTC()
	ext := &models.Extension{
		ID:           uuid.New(),
		ProductID:    req.ProductID,
		Type:         req.Type,
		DisplayName:  req.DisplayName,
		Description:  req.Description,
		RepoURL:      req.RepoURL,
		HomepageURL:  req.HomepageURL,
		Tags:         req.Tags,
		Installation: req.Installation,
		Author: models.Author{
			UserID: identity.Subject,
			Name:   identity.DisplayName(),
			Email:  identity.Email,
		},
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ext.Tags == nil {
		ext.Tags = []string{}
	}

	if err := s.screener.Check(ext); err != nil {
		return nil, err
	}

	// The unique index on product_id turns a duplicate into Conflict here
	if err := s.store.Create(ctx, ext); err != nil {
		return nil, err
	}

	s.log.Info("extension submitted",
		"extension_id", ext.ID, "product_id", ext.ProductID, "author", ext.Author.UserID)

	s.notifier.ExtensionSubmitted(ctx, ext)

	return ext, nil
}

// Update applies an author edit. Editing an approved extension returns it
// to pending and clears the review fields; a rejected one follows the
// configured resubmission policy.
func (s *ExtensionService) Update(ctx context.Context, identity *models.Identity, id uuid.UUID, req *UpdateRequest) (*UpdateResult, error) {
	if identity == nil {
		return nil, apperr.Unauthenticated("you must be signed in to edit an extension")
	}

	ext, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, apperr.NotFound("extension not found")
	}

	if ext.Author.UserID != identity.Subject {
		return nil, apperr.Forbidden("you can only edit your own extensions")
	}

	ext.DisplayName = req.DisplayName
	ext.Description = req.Description
	ext.RepoURL = req.RepoURL
	ext.HomepageURL = req.HomepageURL
	ext.Tags = req.Tags
	if ext.Tags == nil {
		ext.Tags = []string{}
	}
	ext.Installation = req.Installation
	ext.UpdatedAt = time.Now().UTC()

	newStatus, clearReview := models.StatusAfterEdit(ext.Status, s.resubmitOnEdit)
	ext.Status = newStatus
	if clearReview {
		ext.RejectionReason = nil
		ext.ReviewedAt = nil
		ext.ReviewedBy = nil
	}

	if err := s.store.Update(ctx, ext); err != nil {
		return nil, err
	}

	s.invalidateApproved(ctx)
	s.log.Info("extension updated",
		"extension_id", ext.ID, "product_id", ext.ProductID, "status", ext.Status)

	return &UpdateResult{Success: true, NewStatus: ext.Status}, nil
}

// Approve marks an extension approved and records the reviewer
func (s *ExtensionService) Approve(ctx context.Context, identity *models.Identity, id uuid.UUID) error {
	ext, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ext == nil {
		return apperr.NotFound("extension not found")
	}

	now := time.Now().UTC()
	reviewedBy := identity.ReviewedBy()

	ext.Status = models.StatusApproved
	ext.RejectionReason = nil
	ext.ReviewedAt = &now
	ext.ReviewedBy = &reviewedBy
	ext.UpdatedAt = now

	if err := s.store.Update(ctx, ext); err != nil {
		return err
	}

	s.invalidateApproved(ctx)
	s.log.Info("extension approved",
		"extension_id", ext.ID, "product_id", ext.ProductID, "reviewed_by", reviewedBy)

	s.notifier.ExtensionApproved(ctx, ext)

	return nil
}

// Reject marks an extension rejected with a mandatory reason
func (s *ExtensionService) Reject(ctx context.Context, identity *models.Identity, id uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.InvalidInput("a rejection reason is required")
	}

	ext, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ext == nil {
		return apperr.NotFound("extension not found")
	}

	now := time.Now().UTC()
	reviewedBy := identity.ReviewedBy()

	ext.Status = models.StatusRejected
	ext.RejectionReason = &reason
	ext.ReviewedAt = &now
	ext.ReviewedBy = &reviewedBy
	ext.UpdatedAt = now

	if err := s.store.Update(ctx, ext); err != nil {
		return err
	}

	s.invalidateApproved(ctx)
	s.log.Info("extension rejected",
		"extension_id", ext.ID, "product_id", ext.ProductID, "reviewed_by", reviewedBy)

	s.notifier.ExtensionRejected(ctx, ext, reason)

	return nil
}

// Delete hard-deletes an extension; comments and likes cascade
func (s *ExtensionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateApproved(ctx)
	s.log.Info("extension deleted", "extension_id", id)

	return nil
}

// AdminPatch applies an RFC 7386 merge patch to the editable metadata
// fields. Unlike an author edit it never touches the review status, so
// admins can fix metadata during review without resetting the workflow.
func (s *ExtensionService) AdminPatch(ctx context.Context, id uuid.UUID, patch []byte) (*models.Extension, error) {
	ext, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, apperr.NotFound("extension not found")
	}

	editable := &UpdateRequest{
		DisplayName:  ext.DisplayName,
		Description:  ext.Description,
		RepoURL:      ext.RepoURL,
		HomepageURL:  ext.HomepageURL,
		Tags:         ext.Tags,
		Installation: ext.Installation,
	}

	original, err := json.Marshal(editable)
	if err != nil {
		return nil, err
	}

	patched, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, "invalid merge patch")
	}

	updated := &UpdateRequest{}
	if err := json.Unmarshal(patched, updated); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, "patch produced invalid fields")
	}

	ext.DisplayName = updated.DisplayName
	ext.Description = updated.Description
	ext.RepoURL = updated.RepoURL
	ext.HomepageURL = updated.HomepageURL
	ext.Tags = updated.Tags
	if ext.Tags == nil {
		ext.Tags = []string{}
	}
	ext.Installation = updated.Installation
	ext.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, ext); err != nil {
		return nil, err
	}

	s.invalidateApproved(ctx)
	s.log.Info("extension patched", "extension_id", ext.ID, "product_id", ext.ProductID)

	return ext, nil
}

// ListApproved returns the public catalog, served from cache when warm
func (s *ExtensionService) ListApproved(ctx context.Context) ([]*models.Extension, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, approvedCacheKey); err == nil && ok {
			var cached []*models.Extension
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	extensions, err := s.store.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(extensions); err == nil {
			_ = s.cache.Set(ctx, approvedCacheKey, data, s.cacheTTL)
		}
	}

	return extensions, nil
}

// ListByAuthor returns the caller's submissions; empty when anonymous
func (s *ExtensionService) ListByAuthor(ctx context.Context, identity *models.Identity) ([]*models.Extension, error) {
	if identity == nil {
		return []*models.Extension{}, nil
	}
	return s.store.ListByAuthor(ctx, identity.Subject)
}

// ListAll returns every extension, optionally filtered by status
func (s *ExtensionService) ListAll(ctx context.Context, status *models.ExtensionStatus) ([]*models.Extension, error) {
	if status != nil {
		if !status.Valid() {
			return nil, apperr.Newf(apperr.KindInvalidInput, "unknown status: %s", *status)
		}
		return s.store.ListByStatus(ctx, *status)
	}
	return s.store.ListAll(ctx)
}

// ListPending returns the review queue
func (s *ExtensionService) ListPending(ctx context.Context) ([]*models.Extension, error) {
	return s.store.ListByStatus(ctx, models.StatusPending)
}

// Counts returns extension totals per status
func (s *ExtensionService) Counts(ctx context.Context) (*models.StatusCounts, error) {
	return s.store.Counts(ctx)
}

// GetByID retrieves one extension
func (s *ExtensionService) GetByID(ctx context.Context, id uuid.UUID) (*models.Extension, error) {
	ext, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, apperr.NotFound("extension not found")
	}
	return ext, nil
}

// GetByProductID retrieves one extension by product id
func (s *ExtensionService) GetByProductID(ctx context.Context, productID string) (*models.Extension, error) {
	ext, err := s.store.GetByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, apperr.NotFound("extension not found")
	}
	return ext, nil
}

// CheckProductIDAvailable reports whether a product id is still free
func (s *ExtensionService) CheckProductIDAvailable(ctx context.Context, productID string) (bool, error) {
	exists, err := s.store.ProductIDExists(ctx, productID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// SuggestProductID derives a candidate product id from a display name,
// normalized to the product-id alphabet (lowercase letters and hyphens)
func SuggestProductID(displayName string) string {
	candidate := slug.Make(displayName)

	// The slug may contain digits or leading/trailing hyphens the
	// product-id format forbids
	var b strings.Builder
	for _, ch := range candidate {
		if (ch >= 'a' && ch <= 'z') || ch == '-' {
			b.WriteRune(ch)
		}
	}

	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")

	return out
}

func (s *ExtensionService) invalidateApproved(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, approvedCacheKey)
	}
}
