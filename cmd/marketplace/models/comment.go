package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCommentLength is the content limit in characters after trimming
const MaxCommentLength = 5000

// CommentSort orders a comment listing
type CommentSort string

const (
	SortNewest  CommentSort = "newest"
	SortOldest  CommentSort = "oldest"
	SortPopular CommentSort = "popular"
)

// Valid reports whether s is a known sort order
func (s CommentSort) Valid() bool {
	return s == SortNewest || s == SortOldest || s == SortPopular
}

// CommentAuthor identifies the commenting user, captured at creation time
type CommentAuthor struct {
	UserID string `db:"author_user_id" json:"userId"`
	Name   string `db:"author_name" json:"name"`
}

// Comment is a message attached to an extension, optionally a reply.
// Replies nest exactly one level deep.
// Maps to: comments table
type Comment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ExtensionID uuid.UUID  `db:"extension_id" json:"extensionId"`
	ParentID    *uuid.UUID `db:"parent_id" json:"parentId,omitempty"`

	// Comment content (markdown)
	Content string        `db:"content" json:"content"`
	Author  CommentAuthor `json:"author"`

	// Soft delete: content hidden, thread structure preserved
	IsDeleted bool `db:"is_deleted" json:"isDeleted"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CommentLike is a join record: user X likes comment Y.
// Existence is the liked state.
// Maps to: comment_likes table
type CommentLike struct {
	CommentID uuid.UUID `db:"comment_id" json:"commentId"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ThreadedComment is a listing entry: a comment with its like count,
// rendered content, and ordered replies
type ThreadedComment struct {
	Comment
	LikeCount   int                `json:"likeCount"`
	ContentHTML string             `json:"contentHtml"`
	Replies     []*ThreadedComment `json:"replies,omitempty"`
}
