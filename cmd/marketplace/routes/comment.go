package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/container"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/handlers"
)

// RegisterCommentRoutes registers the comment thread routes
func RegisterCommentRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCommentHandler(c.CommentService, c.Components.Logger)

	threads := e.Group("/api/v1/extensions/:id/comments")
	{
		threads.GET("", h.List)             // GET /api/v1/extensions/{id}/comments?sort=popular
		threads.POST("", h.Add)             // POST /api/v1/extensions/{id}/comments
		threads.GET("/count", h.Count)      // GET /api/v1/extensions/{id}/comments/count
		threads.GET("/likes", h.UserLikes)  // GET /api/v1/extensions/{id}/comments/likes
	}

	comments := e.Group("/api/v1/comments")
	{
		comments.DELETE("/:id", h.Remove)         // DELETE /api/v1/comments/{id}
		comments.POST("/:id/like", h.ToggleLike)  // POST /api/v1/comments/{id}/like
	}
}
