package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/container"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/handlers"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/middleware"
)

// RegisterAdminRoutes registers the moderation routes behind the admin guard
func RegisterAdminRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAdminHandler(c.ExtensionService, c.CommentService, c.Components.Logger)

	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/extensions", h.ListExtensions)              // GET /api/v1/admin/extensions?status=pending
		admin.GET("/extensions/pending", h.ListPending)         // GET /api/v1/admin/extensions/pending
		admin.GET("/extensions/counts", h.Counts)               // GET /api/v1/admin/extensions/counts
		admin.POST("/extensions/:id/approve", h.Approve)        // POST /api/v1/admin/extensions/{id}/approve
		admin.POST("/extensions/:id/reject", h.Reject)          // POST /api/v1/admin/extensions/{id}/reject
		admin.PATCH("/extensions/:id", h.PatchExtension)        // PATCH /api/v1/admin/extensions/{id}
		admin.DELETE("/extensions/:id", h.DeleteExtension)      // DELETE /api/v1/admin/extensions/{id}
		admin.DELETE("/comments/:id", h.DeleteComment)          // DELETE /api/v1/admin/comments/{id}
	}
}
