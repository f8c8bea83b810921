package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/service"
	"github.com/opencode-cafe/marketplace/common/logger"
)

// FeedHandler serves the Atom feed of recently approved extensions
type FeedHandler struct {
	feedSvc *service.FeedService
	log     *logger.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedSvc *service.FeedService, log *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedSvc: feedSvc,
		log:     log,
	}
}

// Atom serves the feed
// GET /feed.xml
func (h *FeedHandler) Atom(c echo.Context) error {
	body, err := h.feedSvc.Atom(c.Request().Context())
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(body))
}
