package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/container"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/handlers"
)

// RegisterFeedRoutes registers the Atom feed route
func RegisterFeedRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewFeedHandler(c.FeedService, c.Components.Logger)

	e.GET("/feed.xml", h.Atom) // GET /feed.xml
}
