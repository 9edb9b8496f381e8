package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrSessionEnded is returned by a SessionStore when the session is not live.
var ErrSessionEnded = errors.New("session ended")

// SessionStore resolves live sessions to their user.
type SessionStore interface {
	SessionUserID(ctx context.Context, sessionID string) (int64, error)
}

// Authenticator validates a bearer token against the token signature and the
// live session store.
type Authenticator struct {
	tokens   *TokenService
	sessions SessionStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *TokenService, sessions SessionStore) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions}
}

// Authenticate returns the claims for a token whose session is still live.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	uid, err := a.sessions.SessionUserID(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if uid != claims.UserID {
		return nil, ErrSessionEnded
	}
	return claims, nil
}

// Middleware returns an Echo middleware that requires a live session.
// It extracts "Bearer <token>" from the Authorization header and sets
// "user_id" and "session_id" in the Echo context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
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

			claims, err := a.Authenticate(c.Request().Context(), token)
			if err != nil {
				slog.Debug("rejected session token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set("user_id", claims.UserID)
			c.Set("session_id", claims.SessionID())
			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user ID from the Echo context.
func GetUserID(c echo.Context) int64 {
	return c.Get("user_id").(int64)
}

// GetSessionID extracts the authenticated session ID from the Echo context.
func GetSessionID(c echo.Context) string {
	id, _ := c.Get("session_id").(string)
	return id
}
