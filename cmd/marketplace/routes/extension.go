package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/container"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/handlers"
)

// RegisterExtensionRoutes registers the public extension routes
func RegisterExtensionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewExtensionHandler(c.ExtensionService, c.Components.Logger)

	ext := e.Group("/api/v1/extensions")
	{
		ext.GET("", h.ListApproved)                           // GET /api/v1/extensions
		ext.POST("", h.Submit)                                // POST /api/v1/extensions
		ext.GET("/mine", h.ListMine)                          // GET /api/v1/extensions/mine
		ext.GET("/check-product-id", h.CheckProductID)        // GET /api/v1/extensions/check-product-id?productId=x
		ext.GET("/suggest-product-id", h.SuggestProductID)    // GET /api/v1/extensions/suggest-product-id?displayName=x
		ext.GET("/by-product/:productId", h.GetByProductID)   // GET /api/v1/extensions/by-product/my-extension
		ext.GET("/:id", h.GetByID)                            // GET /api/v1/extensions/{id}
		ext.PUT("/:id", h.Update)                             // PUT /api/v1/extensions/{id}
	}
}
