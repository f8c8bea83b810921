package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/logger"
	"github.com/opencode-cafe/marketplace/common/ratelimit"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

// fakeExtensionStore is an in-memory ExtensionStore. It enforces the
// product id uniqueness the real store gets from its unique index.
type fakeExtensionStore struct {
	extensions map[uuid.UUID]*models.Extension
}

func newFakeExtensionStore() *fakeExtensionStore {
	return &fakeExtensionStore{extensions: make(map[uuid.UUID]*models.Extension)}
}

func (f *fakeExtensionStore) Create(ctx context.Context, ext *models.Extension) error {
	for _, existing := range f.extensions {
		if existing.ProductID == ext.ProductID {
			return apperr.Conflict("an extension with this product ID already exists")
		}
	}
	cp := *ext
	f.extensions[ext.ID] = &cp
	return nil
}

func (f *fakeExtensionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Extension, error) {
	ext, ok := f.extensions[id]
	if !ok {
		return nil, nil
	}
	cp := *ext
	return &cp, nil
}

func (f *fakeExtensionStore) GetByProductID(ctx context.Context, productID string) (*models.Extension, error) {
	for _, ext := range f.extensions {
		if ext.ProductID == productID {
			cp := *ext
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeExtensionStore) ProductIDExists(ctx context.Context, productID string) (bool, error) {
	ext, _ := f.GetByProductID(ctx, productID)
	return ext != nil, nil
}

func (f *fakeExtensionStore) ListByStatus(ctx context.Context, status models.ExtensionStatus) ([]*models.Extension, error) {
	var out []*models.Extension
	for _, ext := range f.extensions {
		if ext.Status == status {
			cp := *ext
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeExtensionStore) ListAll(ctx context.Context) ([]*models.Extension, error) {
	var out []*models.Extension
	for _, ext := range f.extensions {
		cp := *ext
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeExtensionStore) ListByAuthor(ctx context.Context, userID string) ([]*models.Extension, error) {
	var out []*models.Extension
	for _, ext := range f.extensions {
		if ext.Author.UserID == userID {
			cp := *ext
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeExtensionStore) ListRecentlyApproved(ctx context.Context, limit int) ([]*models.Extension, error) {
	approved, _ := f.ListByStatus(ctx, models.StatusApproved)
	sort.Slice(approved, func(i, j int) bool {
		var a, b time.Time
		if approved[i].ReviewedAt != nil {
			a = *approved[i].ReviewedAt
		}
		if approved[j].ReviewedAt != nil {
			b = *approved[j].ReviewedAt
		}
		return a.After(b)
	})
	if len(approved) > limit {
		approved = approved[:limit]
	}
	return approved, nil
}

func (f *fakeExtensionStore) Update(ctx context.Context, ext *models.Extension) error {
	if _, ok := f.extensions[ext.ID]; !ok {
		return apperr.NotFound("extension not found")
	}
	cp := *ext
	f.extensions[ext.ID] = &cp
	return nil
}

func (f *fakeExtensionStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.extensions, id)
	return nil
}

func (f *fakeExtensionStore) Counts(ctx context.Context) (*models.StatusCounts, error) {
	counts := &models.StatusCounts{}
	for _, ext := range f.extensions {
		switch ext.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
		counts.Total++
	}
	return counts, nil
}

// fakeCommentStore is an in-memory CommentStore
type fakeCommentStore struct {
	comments map[uuid.UUID]*models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[uuid.UUID]*models.Comment)}
}

func (f *fakeCommentStore) Create(ctx context.Context, comment *models.Comment) error {
	cp := *comment
	f.comments[comment.ID] = &cp
	return nil
}

func (f *fakeCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *comment
	return &cp, nil
}

func (f *fakeCommentStore) ListByExtension(ctx context.Context, extensionID uuid.UUID) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, comment := range f.comments {
		if comment.ExtensionID == extensionID {
			cp := *comment
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeCommentStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	comment, ok := f.comments[id]
	if !ok {
		return apperr.NotFound("comment not found")
	}
	comment.IsDeleted = true
	return nil
}

func (f *fakeCommentStore) CountActive(ctx context.Context, extensionID uuid.UUID) (int, error) {
	count := 0
	for _, comment := range f.comments {
		if comment.ExtensionID == extensionID && !comment.IsDeleted {
			count++
		}
	}
	return count, nil
}

// fakeLikeStore is an in-memory LikeStore
type fakeLikeStore struct {
	comments *fakeCommentStore
	likes    map[string]map[uuid.UUID]bool // userID -> commentID -> liked
}

func newFakeLikeStore(comments *fakeCommentStore) *fakeLikeStore {
	return &fakeLikeStore{
		comments: comments,
		likes:    make(map[string]map[uuid.UUID]bool),
	}
}

func (f *fakeLikeStore) Create(ctx context.Context, like *models.CommentLike) error {
	if f.likes[like.UserID] == nil {
		f.likes[like.UserID] = make(map[uuid.UUID]bool)
	}
	f.likes[like.UserID][like.CommentID] = true
	return nil
}

func (f *fakeLikeStore) Delete(ctx context.Context, userID string, commentID uuid.UUID) (bool, error) {
	if f.likes[userID] == nil || !f.likes[userID][commentID] {
		return false, nil
	}
	delete(f.likes[userID], commentID)
	return true, nil
}

func (f *fakeLikeStore) CountByExtension(ctx context.Context, extensionID uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, liked := range f.likes {
		for commentID := range liked {
			if comment, ok := f.comments.comments[commentID]; ok && comment.ExtensionID == extensionID {
				counts[commentID]++
			}
		}
	}
	return counts, nil
}

func (f *fakeLikeStore) ListUserLiked(ctx context.Context, userID string, extensionID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for commentID := range f.likes[userID] {
		if comment, ok := f.comments.comments[commentID]; ok && comment.ExtensionID == extensionID {
			out = append(out, commentID)
		}
	}
	return out, nil
}

// fakeLimiter keeps timestamped entries per key and prunes ones that fell
// out of the trailing window, mirroring the sliding-window semantics of
// the Redis limiter. Tests can pin `now` to drive the clock.
type fakeLimiter struct {
	entries map[string][]time.Time
	now     func() time.Time
	calls   int
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (f *fakeLimiter) CheckUserAction(ctx context.Context, userID, action string, limit int64, window time.Duration) (*ratelimit.Result, error) {
	f.calls++
	key := userID + ":" + action
	now := f.now()
	cutoff := now.Add(-window)

	live := f.entries[key][:0]
	for _, ts := range f.entries[key] {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	f.entries[key] = live

	if int64(len(live)) >= limit {
		retryAfter := int64(live[0].Add(window).Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &ratelimit.Result{
			Allowed:           false,
			CurrentCount:      int64(len(live)),
			Limit:             limit,
			RetryAfterSeconds: retryAfter,
		}, nil
	}

	f.entries[key] = append(live, now)
	return &ratelimit.Result{
		Allowed:      true,
		CurrentCount: int64(len(f.entries[key])),
		Limit:        limit,
	}, nil
}

// recorded returns the live entry count for a user action
func (f *fakeLimiter) recorded(userID, action string) int {
	return len(f.entries[userID+":"+action])
}

// recordedEvent captures one notifier invocation
type recordedEvent struct {
	eventType EventType
	ext       *models.Extension
	reason    string
	commenter string
	preview   string
}

// fakeNotifier records notification calls
type fakeNotifier struct {
	events []recordedEvent
}

func (f *fakeNotifier) ExtensionSubmitted(ctx context.Context, ext *models.Extension) {
	f.events = append(f.events, recordedEvent{eventType: EventExtensionSubmitted, ext: ext})
}

func (f *fakeNotifier) ExtensionApproved(ctx context.Context, ext *models.Extension) {
	f.events = append(f.events, recordedEvent{eventType: EventExtensionApproved, ext: ext})
}

func (f *fakeNotifier) ExtensionRejected(ctx context.Context, ext *models.Extension, reason string) {
	f.events = append(f.events, recordedEvent{eventType: EventExtensionRejected, ext: ext, reason: reason})
}

func (f *fakeNotifier) CommentCreated(ctx context.Context, ext *models.Extension, commenterName, preview string) {
	f.events = append(f.events, recordedEvent{eventType: EventCommentCreated, ext: ext, commenter: commenterName, preview: preview})
}
