package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// Middleware returns an Echo middleware that validates JWT access tokens.
// It extracts "Bearer <token>" from the Authorization header, validates it,
// and sets "user_id" in the Echo context.
func (ts *TokenService) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ts.ValidateAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDKey, claims.UserID)
			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user ID from the Echo context.
func GetUserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// SharedKeyMiddleware admits requests whose raw Authorization header equals
// key. Requests are rejected with status when the header differs or when no
// key is configured.
func SharedKeyMiddleware(key string, status int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get("Authorization")
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return echo.NewHTTPError(status, http.StatusText(status))
			}
			return next(c)
		}
	}
}

// BotTokenMiddleware guards the bot message endpoints.
func BotTokenMiddleware(token string) echo.MiddlewareFunc {
	return SharedKeyMiddleware(token, http.StatusForbidden)
}

// AdminKeyMiddleware guards endpoints called by the media worker.
func AdminKeyMiddleware(key string) echo.MiddlewareFunc {
	return SharedKeyMiddleware(key, http.StatusUnauthorized)
}
