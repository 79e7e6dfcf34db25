package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corvus-faas/control-plane/auth"
)

// contextKey avoids collisions with context keys set by other packages
// (including other middleware the router may gain later).
type contextKey string

const userUUIDContextKey contextKey = "user_uuid"

// requireAuth validates the Bearer token on every request it wraps,
// resolves the subject to a real user, and attaches the user's UUID to
// the request context for downstream handlers. Every failure mode maps to its own exact message
// per the guard's contract, never a generic "unauthorized".
func requireAuth(authService *auth.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				writeErrorJsonAndLogIt(responseWriter, http.StatusUnauthorized, "Missing authorization header", logger)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				writeErrorJsonAndLogIt(responseWriter, http.StatusUnauthorized, "Invalid authorization header format", logger)
				return
			}

			userUUID, err := authService.ValidateToken(parts[1])
			if err != nil {
				writeErrorJsonAndLogIt(responseWriter, http.StatusUnauthorized, "Invalid or expired token", logger)
				return
			}

			if _, err := authService.FindByUUID(userUUID); err != nil {
				if errors.Is(err, auth.ErrUserNotFound) {
					writeErrorJsonAndLogIt(responseWriter, http.StatusUnauthorized, "User not found", logger)
					return
				}
				writeErrorJsonAndLogIt(responseWriter, http.StatusInternalServerError, "failed to resolve user", logger)
				return
			}

			ctx := context.WithValue(request.Context(), userUUIDContextKey, userUUID)
			next.ServeHTTP(responseWriter, request.WithContext(ctx))
		})
	}
}

// userUUIDFromContext recovers the UUID requireAuth attached to the
// request context. Only ever called from a handler registered behind
// requireAuth, so the value is always present.
func userUUIDFromContext(ctx context.Context) string {
	uuid, _ := ctx.Value(userUUIDContextKey).(string)
	return uuid
}
