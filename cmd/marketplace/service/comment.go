package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/logger"
	"github.com/opencode-cafe/marketplace/common/markdown"
	"github.com/opencode-cafe/marketplace/common/ratelimit"
)

// CommentAction is the rate-limited action name for posting comments
const CommentAction = "comment"

// CommentStore is the persistence surface the thread engine needs
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListByExtension(ctx context.Context, extensionID uuid.UUID) ([]*models.Comment, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountActive(ctx context.Context, extensionID uuid.UUID) (int, error)
}

// LikeStore is the persistence surface for comment likes
type LikeStore interface {
	Create(ctx context.Context, like *models.CommentLike) error
	Delete(ctx context.Context, userID string, commentID uuid.UUID) (bool, error)
	CountByExtension(ctx context.Context, extensionID uuid.UUID) (map[uuid.UUID]int, error)
	ListUserLiked(ctx context.Context, userID string, extensionID uuid.UUID) ([]uuid.UUID, error)
}

// RateLimiter checks and records one user action atomically
type RateLimiter interface {
	CheckUserAction(ctx context.Context, userID, action string, limit int64, window time.Duration) (*ratelimit.Result, error)
}

// CommentService implements the threaded comment engine
type CommentService struct {
	comments   CommentStore
	likes      LikeStore
	extensions ExtensionStore
	limiter    RateLimiter
	limit      int64
	window     time.Duration
	notifier   Notifier
	log        *logger.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	comments CommentStore,
	likes LikeStore,
	extensions ExtensionStore,
	limiter RateLimiter,
	limit int64,
	window time.Duration,
	notifier Notifier,
	log *logger.Logger,
) *CommentService {
	return &CommentService{
		comments:   comments,
		likes:      likes,
		extensions: extensions,
		limiter:    limiter,
		limit:      limit,
		window:     window,
		notifier:   notifier,
		log:        log,
	}
}

// Add creates a comment or a reply. Replies nest exactly one level deep.
func (s *CommentService) Add(ctx context.Context, identity *models.Identity, extensionID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error) {
	if identity == nil {
		return nil, apperr.Unauthenticated("you must be signed in to comment")
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, apperr.InvalidInput("comment cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCommentLength {
		return nil, apperr.Newf(apperr.KindInvalidInput,
			"comment is too long (max %d characters)", models.MaxCommentLength)
	}

	// Check and record in one atomic step; a comment that later fails
	// validation still consumes quota
	result, err := s.limiter.CheckUserAction(ctx, identity.Subject, CommentAction, s.limit, s.window)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return nil, apperr.Newf(apperr.KindRateLimited,
			"rate limit exceeded: you can post up to %d comments per hour, try again later", s.limit)
	}

	ext, err := s.extensions.GetByID(ctx, extensionID)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, apperr.NotFound("extension not found")
	}

	if parentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperr.NotFound("parent comment not found")
		}
		if parent.ExtensionID != extensionID {
			return nil, apperr.InvalidInput("parent comment belongs to a different extension")
		}
		if parent.ParentID != nil {
			return nil, apperr.InvalidInput("cannot reply to a reply")
		}
	}

	comment := &models.Comment{
		ID:          uuid.New(),
		ExtensionID: extensionID,
		ParentID:    parentID,
		Content:     trimmed,
		Author: models.CommentAuthor{
			UserID: identity.Subject,
			Name:   identity.DisplayName(),
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.log.Info("comment added",
		"comment_id", comment.ID, "extension_id", extensionID, "author", identity.Subject)

	// Notify the extension author about new top-level comments from others
	if ext.Author.UserID != identity.Subject && parentID == nil {
		s.notifier.CommentCreated(ctx, ext, comment.Author.Name, PreviewOf(trimmed))
	}

	return comment, nil
}

// Remove soft-deletes the caller's own comment
func (s *CommentService) Remove(ctx context.Context, identity *models.Identity, commentID uuid.UUID) error {
	if identity == nil {
		return apperr.Unauthenticated("you must be signed in")
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperr.NotFound("comment not found")
	}

	if comment.Author.UserID != identity.Subject {
		return apperr.Forbidden("you can only delete your own comments")
	}

	return s.softDelete(ctx, comment)
}

// AdminRemove soft-deletes any comment, bypassing the author check
func (s *CommentService) AdminRemove(ctx context.Context, commentID uuid.UUID) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperr.NotFound("comment not found")
	}

	return s.softDelete(ctx, comment)
}

func (s *CommentService) softDelete(ctx context.Context, comment *models.Comment) error {
	if err := s.comments.SoftDelete(ctx, comment.ID); err != nil {
		return err
	}

	s.log.Info("comment removed", "comment_id", comment.ID, "extension_id", comment.ExtensionID)
	return nil
}

// ToggleLike flips the caller's like on a comment and reports the new state
func (s *CommentService) ToggleLike(ctx context.Context, identity *models.Identity, commentID uuid.UUID) (bool, error) {
	if identity == nil {
		return false, apperr.Unauthenticated("you must be signed in to like comments")
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}
	if comment == nil {
		return false, apperr.NotFound("comment not found")
	}

	removed, err := s.likes.Delete(ctx, identity.Subject, commentID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}

	like := &models.CommentLike{
		CommentID: commentID,
		UserID:    identity.Subject,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.likes.Create(ctx, like); err != nil {
		return false, err
	}

	return true, nil
}

// ListByExtension returns the threaded comment listing with like counts.
// Soft-deleted comments appear as tombstones with empty content so their
// replies stay addressable.
func (s *CommentService) ListByExtension(ctx context.Context, extensionID uuid.UUID, sortBy models.CommentSort) ([]*models.ThreadedComment, error) {
	if sortBy == "" {
		sortBy = models.SortNewest
	}
	if !sortBy.Valid() {
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown sort order: %s", sortBy)
	}

	comments, err := s.comments.ListByExtension(ctx, extensionID)
	if err != nil {
		return nil, err
	}

	likeCounts, err := s.likes.CountByExtension(ctx, extensionID)
	if err != nil {
		return nil, err
	}

	var topLevel []*models.ThreadedComment
	repliesByParent := make(map[uuid.UUID][]*models.ThreadedComment)

	for _, comment := range comments {
		entry := &models.ThreadedComment{
			Comment:   *comment,
			LikeCount: likeCounts[comment.ID],
		}
		if comment.IsDeleted {
			// Tombstone: hide content, keep the thread slot
			entry.Content = ""
		} else {
			entry.ContentHTML = markdown.Render(comment.Content)
		}

		if comment.ParentID == nil {
			topLevel = append(topLevel, entry)
		} else {
			repliesByParent[*comment.ParentID] = append(repliesByParent[*comment.ParentID], entry)
		}
	}

	// Stable sorts keep insertion order for ties
	switch sortBy {
	case models.SortNewest:
		sort.SliceStable(topLevel, func(i, j int) bool {
			return topLevel[i].CreatedAt.After(topLevel[j].CreatedAt)
		})
	case models.SortOldest:
		sort.SliceStable(topLevel, func(i, j int) bool {
			return topLevel[i].CreatedAt.Before(topLevel[j].CreatedAt)
		})
	case models.SortPopular:
		sort.SliceStable(topLevel, func(i, j int) bool {
			return topLevel[i].LikeCount > topLevel[j].LikeCount
		})
	}

	// Replies are always chronological within their thread
	for _, comment := range topLevel {
		replies := repliesByParent[comment.ID]
		sort.SliceStable(replies, func(i, j int) bool {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		})
		comment.Replies = replies
	}

	if topLevel == nil {
		topLevel = []*models.ThreadedComment{}
	}

	return topLevel, nil
}

// Count returns the number of non-deleted comments on an extension
func (s *CommentService) Count(ctx context.Context, extensionID uuid.UUID) (int, error) {
	return s.comments.CountActive(ctx, extensionID)
}

// UserLikes returns the ids of comments the caller has liked on an
// extension. Anonymous callers get an empty list, not an error.
func (s *CommentService) UserLikes(ctx context.Context, identity *models.Identity, extensionID uuid.UUID) ([]uuid.UUID, error) {
	if identity == nil {
		return []uuid.UUID{}, nil
	}

	ids, err := s.likes.ListUserLiked(ctx, identity.Subject, extensionID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return ids, nil
}
