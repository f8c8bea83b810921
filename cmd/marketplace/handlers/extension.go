package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/middleware"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/service"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/logger"
)

// ExtensionHandler handles the public extension endpoints
type ExtensionHandler struct {
	extensionSvc *service.ExtensionService
	log          *logger.Logger
}

// NewExtensionHandler creates a new extension handler
func NewExtensionHandler(extensionSvc *service.ExtensionService, log *logger.Logger) *ExtensionHandler {
	return &ExtensionHandler{
		extensionSvc: extensionSvc,
		log:          log,
	}
}

// Submit submits a new extension for review
// POST /api/v1/extensions
func (h *ExtensionHandler) Submit(c echo.Context) error {
	req := &service.SubmitRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}

	identity := middleware.GetIdentity(c)
	ext, err := h.extensionSvc.Submit(c.Request().Context(), identity, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ext)
}

// Update applies an author edit to an extension
// PUT /api/v1/extensions/:id
func (h *ExtensionHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	req := &service.UpdateRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}

	identity := middleware.GetIdentity(c)
	result, err := h.extensionSvc.Update(c.Request().Context(), identity, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ListApproved returns the public catalog of approved extensions
// GET /api/v1/extensions
func (h *ExtensionHandler) ListApproved(c echo.Context) error {
	extensions, err := h.extensionSvc.ListApproved(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"extensions": extensions,
		"count":      len(extensions),
	})
}

// ListMine returns the caller's own submissions, any status
// GET /api/v1/extensions/mine
func (h *ExtensionHandler) ListMine(c echo.Context) error {
	identity := middleware.GetIdentity(c)
	extensions, err := h.extensionSvc.ListByAuthor(c.Request().Context(), identity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"extensions": extensions,
		"count":      len(extensions),
	})
}

// GetByID retrieves one extension by id
// GET /api/v1/extensions/:id
func (h *ExtensionHandler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid extension id")
	}

	ext, err := h.extensionSvc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ext)
}

// GetByProductID retrieves one extension by its product id
// GET /api/v1/extensions/by-product/:productId
func (h *ExtensionHandler) GetByProductID(c echo.Context) error {
	ext, err := h.extensionSvc.GetByProductID(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ext)
}

// CheckProductID reports whether a product id is still available
// GET /api/v1/extensions/check-product-id?productId=my-extension
func (h *ExtensionHandler) CheckProductID(c echo.Context) error {
	productID := c.QueryParam("productId")
	if productID == "" {
		return apperr.InvalidInput("productId query parameter is required")
	}

	available, err := h.extensionSvc.CheckProductIDAvailable(c.Request().Context(), productID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"productId": productID,
		"available": available,
	})
}

// SuggestProductID derives a product id candidate from a display name
// GET /api/v1/extensions/suggest-product-id?displayName=My%20Extension
func (h *ExtensionHandler) SuggestProductID(c echo.Context) error {
	displayName := c.QueryParam("displayName")
	if displayName == "" {
		return apperr.InvalidInput("displayName query parameter is required")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"productId": service.SuggestProductID(displayName),
	})
}
