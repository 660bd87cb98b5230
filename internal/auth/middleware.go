package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyClaims is the key for storing validated token claims in context
	ContextKeyClaims = "claims"

	// HeaderAPIKey carries the admin API key
	HeaderAPIKey = "X-API-Key"
)

// Middleware guards gateway and admin routes.
type Middleware struct {
	issuer    *Issuer
	adminKeys []string
}

// NewMiddleware creates the middleware. An empty adminKeys list leaves the
// admin API open.
func NewMiddleware(issuer *Issuer, adminKeys []string) *Middleware {
	return &Middleware{issuer: issuer, adminKeys: adminKeys}
}

// RequireBearer requires a valid token when enabled reports true. enabled is
// consulted per request so project reloads can toggle security.
func (m *Middleware) RequireBearer(enabled func() bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled() {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], TokenType) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			claims, err := m.issuer.Validate(parts[1])
			if err != nil {
				if err == ErrExpiredToken {
					return echo.NewHTTPError(http.StatusUnauthorized, "token has expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

// RequireAPIKey protects the admin API with bcrypt-hashed keys.
func (m *Middleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(m.adminKeys) == 0 {
			return next(c)
		}

		key := c.Request().Header.Get(HeaderAPIKey)
		if key == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
		}
		if err := CompareAPIKey(key, m.adminKeys); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
		}
		return next(c)
	}
}

// GetClaims extracts validated token claims from Echo context
func GetClaims(c echo.Context) (jwt.MapClaims, bool) {
	claims, ok := c.Get(ContextKeyClaims).(jwt.MapClaims)
	return claims, ok
}
