package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/middleware"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/service"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/logger"
)

// AdminHandler handles the moderation endpoints. Route-level guarding is
// done by middleware.RequireAdmin, not here.
type AdminHandler struct {
	extensionSvc *service.ExtensionService
	commentSvc   *service.CommentService
	log          *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(extensionSvc *service.ExtensionService, commentSvc *service.CommentService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		extensionSvc: extensionSvc,
		commentSvc:   commentSvc,
		log:          log,
	}
}

// RejectRequest is the request body for rejecting an extension
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ListExtensions returns every extension, optionally filtered by status
// GET /api/v1/admin/extensions?status=pending
func (h *AdminHandler) ListExtensions(c echo.Context) error {
	var status *models.ExtensionStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.ExtensionStatus(raw)
		status = &s
	}

	extensions, err := h.extensionSvc.ListAll(c.Request().Context(), status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"extensions": extensions,
		"count":      len(extensions),
	})
}

// ListPending returns the review queue
// GET /api/v1/admin/extensions/pending
func (h *AdminHandler) ListPending(c echo.Context) error {
	extensions, err := h.extensionSvc.ListPending(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"extensions": extensions,
		"count":      len(extensions),
	})
}

// Counts returns extension totals per status
// GET /api/v1/admin/extensions/counts
func (h *AdminHandler) Counts(c echo.Context) error {
	counts, err := h.extensionSvc.Counts(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, counts)
}

// Approve approves a pending extension
// POST /api/v1/admin/extensions/:id/approve
func (h *AdminHandler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	identity := middleware.GetIdentity(c)
	if err := h.extensionSvc.Approve(c.Request().Context(), identity, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Reject rejects an extension with a reason
// POST /api/v1/admin/extensions/:id/reject
func (h *AdminHandler) Reject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	req := &RejectRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}

	identity := middleware.GetIdentity(c)
	if err := h.extensionSvc.Reject(c.Request().Context(), identity, id, req.Reason); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// PatchExtension applies a merge patch to an extension's metadata
// PATCH /api/v1/admin/extensions/:id
func (h *AdminHandler) PatchExtension(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.InvalidInput("failed to read request body")
	}

	ext, err := h.extensionSvc.AdminPatch(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ext)
}

// DeleteExtension hard-deletes an extension and its comment thread
// DELETE /api/v1/admin/extensions/:id
func (h *AdminHandler) DeleteExtension(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	if err := h.extensionSvc.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// DeleteComment soft-deletes any comment regardless of author
// DELETE /api/v1/admin/comments/:id
func (h *AdminHandler) DeleteComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid comment id")
	}

	if err := h.commentSvc.AdminRemove(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
