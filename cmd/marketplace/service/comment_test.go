package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentFixture struct {
	svc       *CommentService
	comments  *fakeCommentStore
	limiter   *fakeLimiter
	notifier  *fakeNotifier
	extension *models.Extension
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()

	extensions := newFakeExtensionStore()
	notifier := &fakeNotifier{}
	extSvc := newExtensionService(extensions, notifier, false)

	ext, err := extSvc.Submit(context.Background(), author(), submitRequest())
	require.NoError(t, err)
	notifier.events = nil // drop the submission event

	comments := newFakeCommentStore()
	likes := newFakeLikeStore(comments)
	limiter := newFakeLimiter()

	svc := NewCommentService(comments, likes, extensions, limiter, 10, time.Hour, notifier, testLogger())
	return &commentFixture{
		svc:       svc,
		comments:  comments,
		limiter:   limiter,
		notifier:  notifier,
		extension: ext,
	}
}

func commenter() *models.Identity {
	return &models.Identity{Subject: "user-9", Name: "Grace"}
}

func TestAddComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.svc.Add(ctx, commenter(), f.extension.ID, nil, "  Great theme!  ")
	require.NoError(t, err)

	assert.Equal(t, "Great theme!", comment.Content)
	assert.Equal(t, "user-9", comment.Author.UserID)
	assert.Equal(t, "Grace", comment.Author.Name)
	assert.Nil(t, comment.ParentID)

	// The extension author gets notified about top-level comments
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, EventCommentCreated, f.notifier.events[0].eventType)
	assert.Equal(t, "Grace", f.notifier.events[0].commenter)
}

func TestAddCommentAnonymousAuthorName(t *testing.T) {
	f := newCommentFixture(t)

	unnamed := &models.Identity{Subject: "user-10"}
	comment, err := f.svc.Add(context.Background(), unnamed, f.extension.ID, nil, "nice")
	require.NoError(t, err)

	assert.Equal(t, models.AnonymousName, comment.Author.Name)
}

func TestAddCommentValidation(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, nil, f.extension.ID, nil, "hello")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = f.svc.Add(ctx, commenter(), f.extension.ID, nil, "   ")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	long := strings.Repeat("x", models.MaxCommentLength+1)
	_, err = f.svc.Add(ctx, commenter(), f.extension.ID, nil, long)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	// Neither empty nor oversized content consumed quota
	assert.Equal(t, 0, f.limiter.calls)
}

func TestAddCommentLengthCountsCharacters(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	// 4000 characters of a 2-byte rune is 8000 bytes but well under the
	// character limit
	multibyte := strings.Repeat("é", 4000)
	comment, err := f.svc.Add(ctx, commenter(), f.extension.ID, nil, multibyte)
	require.NoError(t, err)
	assert.Equal(t, multibyte, comment.Content)

	// One character over the limit is rejected regardless of encoding
	_, err = f.svc.Add(ctx, commenter(), f.extension.ID, nil, strings.Repeat("é", models.MaxCommentLength+1))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestAddCommentUnknownExtensionConsumesQuota(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.Add(context.Background(), commenter(), uuid.New(), nil, "hello")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// The rate limit check runs before the existence check, so the
	// attempt still counts against the window
	assert.Equal(t, 1, f.limiter.calls)
	assert.Equal(t, 1, f.limiter.recorded("user-9", CommentAction))
}

func TestAddCommentRateLimited(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	for i := 0; i < 10; i++ {
		_, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "spam-ish")
		require.NoError(t, err)
	}

	_, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "one too many")
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))

	// Another user is unaffected
	_, err = f.svc.Add(ctx, &models.Identity{Subject: "user-11"}, f.extension.ID, nil, "hello")
	assert.NoError(t, err)
}

func TestAddCommentWindowSlides(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	clock := time.Now().UTC()
	f.limiter.now = func() time.Time { return clock }

	// First comment at t0, nine more half an hour later: window full
	_, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "first")
	require.NoError(t, err)

	clock = clock.Add(30 * time.Minute)
	for i := 0; i < 9; i++ {
		_, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "filler")
		require.NoError(t, err)
	}

	clock = clock.Add(29 * time.Minute)
	_, err = f.svc.Add(ctx, grace, f.extension.ID, nil, "still inside the window")
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))

	// Once the window rolls past the first comment's timestamp, a new
	// comment fits again
	clock = clock.Add(2 * time.Minute)
	_, err = f.svc.Add(ctx, grace, f.extension.ID, nil, "welcome back")
	assert.NoError(t, err)
}

func TestAddReply(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	top, err := f.svc.Add(ctx, commenter(), f.extension.ID, nil, "top")
	require.NoError(t, err)

	reply, err := f.svc.Add(ctx, commenter(), f.extension.ID, &top.ID, "reply")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	// One level of nesting only
	_, err = f.svc.Add(ctx, commenter(), f.extension.ID, &reply.ID, "reply to reply")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	// Unknown parent
	missing := uuid.New()
	_, err = f.svc.Add(ctx, commenter(), f.extension.ID, &missing, "orphan")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReplyNotificationOnlyForTopLevel(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	top, err := f.svc.Add(ctx, commenter(), f.extension.ID, nil, "top")
	require.NoError(t, err)
	require.Len(t, f.notifier.events, 1)

	_, err = f.svc.Add(ctx, commenter(), f.extension.ID, &top.ID, "reply")
	require.NoError(t, err)
	assert.Len(t, f.notifier.events, 1, "replies should not notify")
}

func TestNoSelfNotification(t *testing.T) {
	f := newCommentFixture(t)

	// The extension author comments on their own extension
	_, err := f.svc.Add(context.Background(), author(), f.extension.ID, nil, "thanks all")
	require.NoError(t, err)
	assert.Empty(t, f.notifier.events)
}

func TestRemoveComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	comment, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "oops")
	require.NoError(t, err)

	// Someone else cannot remove it
	err = f.svc.Remove(ctx, &models.Identity{Subject: "user-11"}, comment.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, f.svc.Remove(ctx, grace, comment.ID))

	count, err := f.svc.Count(ctx, f.extension.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAdminRemoveBypassesOwnership(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.svc.Add(ctx, commenter(), f.extension.ID, nil, "spam")
	require.NoError(t, err)

	require.NoError(t, f.svc.AdminRemove(ctx, comment.ID))

	stored, err := f.comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
}

func TestToggleLike(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	comment, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "likeable")
	require.NoError(t, err)

	liked, err := f.svc.ToggleLike(ctx, grace, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = f.svc.ToggleLike(ctx, grace, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = f.svc.ToggleLike(ctx, nil, comment.ID)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = f.svc.ToggleLike(ctx, grace, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListThreading(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	// Fix timestamps so ordering is deterministic
	base := time.Now().UTC().Add(-time.Hour)
	first, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "first")
	require.NoError(t, err)
	second, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "second")
	require.NoError(t, err)
	replyLate, err := f.svc.Add(ctx, grace, f.extension.ID, &first.ID, "late reply")
	require.NoError(t, err)
	replyEarly, err := f.svc.Add(ctx, grace, f.extension.ID, &first.ID, "early reply")
	require.NoError(t, err)

	f.comments.comments[first.ID].CreatedAt = base
	f.comments.comments[second.ID].CreatedAt = base.Add(10 * time.Minute)
	f.comments.comments[replyLate.ID].CreatedAt = base.Add(30 * time.Minute)
	f.comments.comments[replyEarly.ID].CreatedAt = base.Add(20 * time.Minute)

	listing, err := f.svc.ListByExtension(ctx, f.extension.ID, models.SortNewest)
	require.NoError(t, err)

	require.Len(t, listing, 2)
	assert.Equal(t, "second", listing[0].Content)
	assert.Equal(t, "first", listing[1].Content)

	// Replies are chronological regardless of the top-level sort
	require.Len(t, listing[1].Replies, 2)
	assert.Equal(t, "early reply", listing[1].Replies[0].Content)
	assert.Equal(t, "late reply", listing[1].Replies[1].Content)

	oldest, err := f.svc.ListByExtension(ctx, f.extension.ID, models.SortOldest)
	require.NoError(t, err)
	assert.Equal(t, "first", oldest[0].Content)
}

func TestListPopularSort(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	quiet, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "quiet")
	require.NoError(t, err)
	popular, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "popular")
	require.NoError(t, err)

	_, err = f.svc.ToggleLike(ctx, grace, popular.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(ctx, &models.Identity{Subject: "user-11"}, popular.ID)
	require.NoError(t, err)

	listing, err := f.svc.ListByExtension(ctx, f.extension.ID, models.SortPopular)
	require.NoError(t, err)

	require.Len(t, listing, 2)
	assert.Equal(t, popular.ID, listing[0].ID)
	assert.Equal(t, 2, listing[0].LikeCount)
	assert.Equal(t, quiet.ID, listing[1].ID)
}

func TestListRendersMarkdownAndTombstones(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	kept, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "**bold** take")
	require.NoError(t, err)
	deleted, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "regrettable")
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, grace, f.extension.ID, &deleted.ID, "still here")
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, grace, deleted.ID))

	listing, err := f.svc.ListByExtension(ctx, f.extension.ID, models.SortOldest)
	require.NoError(t, err)
	require.Len(t, listing, 2)

	assert.Equal(t, kept.ID, listing[0].ID)
	assert.Contains(t, listing[0].ContentHTML, "<strong>bold</strong>")

	// The deleted comment is a tombstone but its reply survives
	tombstone := listing[1]
	assert.True(t, tombstone.IsDeleted)
	assert.Empty(t, tombstone.Content)
	assert.Empty(t, tombstone.ContentHTML)
	require.Len(t, tombstone.Replies, 1)
	assert.Equal(t, "still here", tombstone.Replies[0].Content)
}

func TestListRejectsUnknownSort(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.ListByExtension(context.Background(), f.extension.ID, models.CommentSort("spiciest"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestUserLikes(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	grace := commenter()

	comment, err := f.svc.Add(ctx, grace, f.extension.ID, nil, "likeable")
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(ctx, grace, comment.ID)
	require.NoError(t, err)

	ids, err := f.svc.UserLikes(ctx, grace, f.extension.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{comment.ID}, ids)

	// Anonymous callers get an empty list
	ids, err = f.svc.UserLikes(ctx, nil, f.extension.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
