package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// IdentityKey is the context key for the resolved request identity
	IdentityKey ContextKey = "identity"
)

// Identity headers set by the authenticating gateway after token
// verification. An absent X-User-ID means the request is anonymous.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// ExtractIdentity resolves gateway identity headers into a models.Identity
// and stores it in the request context. Anonymous requests pass through
// with no identity set; handlers that require one use RequireIdentity.
//
// Usage:
//
//	e := echo.New()
//	e.Use(middleware.ExtractIdentity())
func ExtractIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject := c.Request().Header.Get(HeaderUserID)
			if subject != "" {
				c.Set(string(IdentityKey), &models.Identity{
					Subject: subject,
					Name:    c.Request().Header.Get(HeaderUserName),
					Email:   c.Request().Header.Get(HeaderUserEmail),
					Role:    c.Request().Header.Get(HeaderUserRole),
				})
			}

			return next(c)
		}
	}
}

// GetIdentity retrieves the identity from the request context.
// Returns nil for anonymous requests.
func GetIdentity(c echo.Context) *models.Identity {
	identity := c.Get(string(IdentityKey))
	if identity == nil {
		return nil
	}
	return identity.(*models.Identity)
}

// RequireIdentity ensures the request carries an identity
func RequireIdentity(c echo.Context) (*models.Identity, error) {
	identity := GetIdentity(c)
	if identity == nil {
		return nil, apperr.Unauthenticated("you must be signed in")
	}
	return identity, nil
}

// RequireAdmin is a guard middleware for admin route groups. It produces a
// uniform Forbidden outcome instead of per-handler role checks.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := GetIdentity(c)
			if identity == nil {
				return apperr.Unauthenticated("you must be signed in")
			}
			if !identity.IsAdmin() {
				return apperr.Forbidden("admin access required")
			}
			return next(c)
		}
	}
}
