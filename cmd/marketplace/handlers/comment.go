package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/middleware"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/service"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/logger"
)

// CommentHandler handles the comment thread endpoints
type CommentHandler struct {
	commentSvc *service.CommentService
	log        *logger.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentSvc *service.CommentService, log *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentSvc: commentSvc,
		log:        log,
	}
}

// AddCommentRequest is the request body for posting a comment
type AddCommentRequest struct {
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
}

// Add posts a comment or reply on an extension
// POST /api/v1/extensions/:id/comments
func (h *CommentHandler) Add(c echo.Context) error {
	extensionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	req := &AddCommentRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}

	identity := middleware.GetIdentity(c)
	comment, err := h.commentSvc.Add(c.Request().Context(), identity, extensionID, req.ParentID, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, comment)
}

// List returns the threaded comments on an extension
// GET /api/v1/extensions/:id/comments?sort=newest
func (h *CommentHandler) List(c echo.Context) error {
	extensionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	sortBy := models.CommentSort(c.QueryParam("sort"))
	comments, err := h.commentSvc.ListByExtension(c.Request().Context(), extensionID, sortBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"comments": comments,
	})
}

// Count returns the number of active comments on an extension
// GET /api/v1/extensions/:id/comments/count
func (h *CommentHandler) Count(c echo.Context) error {
	extensionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	count, err := h.commentSvc.Count(c.Request().Context(), extensionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": count,
	})
}

// UserLikes returns the comment ids the caller has liked on an extension
// GET /api/v1/extensions/:id/comments/likes
func (h *CommentHandler) UserLikes(c echo.Context) error {
	extensionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	identity := middleware.GetIdentity(c)
	ids, err := h.commentSvc.UserLikes(c.Request().Context(), identity, extensionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"commentIds": ids,
	})
}

// Remove soft-deletes the caller's own comment
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Remove(c echo.Context) error {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid comment id")
	}

	identity := middleware.GetIdentity(c)
	if err := h.commentSvc.Remove(c.Request().Context(), identity, commentID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// ToggleLike flips the caller's like on a comment
// POST /api/v1/comments/:id/like
func (h *CommentHandler) ToggleLike(c echo.Context) error {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid comment id")
	}

	identity := middleware.GetIdentity(c)
	liked, err := h.commentSvc.ToggleLike(c.Request().Context(), identity, commentID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"liked": liked,
	})
}
