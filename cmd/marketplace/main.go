package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/container"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/middleware"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/routes"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/bootstrap"
	"github.com/opencode-cafe/marketplace/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "marketplace")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap marketplace: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	e := setupEcho(components)
	setupMiddleware(e, serviceContainer)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho(components *bootstrap.Components) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(components)
	return e
}

// errorHandler maps classified errors to their status codes so handlers
// can return service errors directly
func errorHandler(components *bootstrap.Components) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status := apperr.HTTPStatus(appErr.Kind)
			if status >= http.StatusInternalServerError {
				components.Logger.Error("request failed", "path", c.Path(), "error", err)
			}
			_ = c.JSON(status, map[string]interface{}{
				"error": appErr.Message,
				"kind":  string(appErr.Kind),
			})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, map[string]interface{}{
				"error": fmt.Sprintf("%v", httpErr.Message),
			})
			return
		}

		components.Logger.Error("unhandled error", "path", c.Path(), "error", err)
		_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
	}
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, serviceContainer *container.Container) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())
	e.Use(middleware.ExtractIdentity())

	if limit := serviceContainer.Components.Config.RateLimit.GlobalLimit; limit > 0 {
		e.Use(middleware.GlobalRateLimit(serviceContainer.Limiter, limit))
	}
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "marketplace",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterExtensionRoutes(e, serviceContainer)
	routes.RegisterCommentRoutes(e, serviceContainer)
	routes.RegisterAdminRoutes(e, serviceContainer)
	routes.RegisterFeedRoutes(e, serviceContainer)
}

// startServer runs the HTTP server with graceful shutdown
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("marketplace", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
