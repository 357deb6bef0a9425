package middleware

import (
	"context"
	"net/http"
	"strings"

	"focus/internal/model"
	"focus/internal/service"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// UserFrom pulls the authenticated user out of the request context.
func UserFrom(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*model.User)
	return u, ok
}

// AuthMiddleware validates the bearer token and injects the account into the
// request context.
func AuthMiddleware(auth service.AuthService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Authorization header missing or malformed", http.StatusUnauthorized)
				return
			}
			u, err := auth.UserFromAccessToken(r.Context(), token)
			if err != nil {
				logger.Debug().Err(err).Msg("token rejected")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware runs after AuthMiddleware and rejects non-admin accounts.
func AdminMiddleware(audit service.LogService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFrom(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !u.IsAdmin() {
				http.Error(w, "Admin access required", http.StatusForbidden)
				return
			}
			audit.Record(r.Context(), model.AuditLog{
				UserID:   &u.ID,
				Action:   model.ActionAdminAccess,
				Message:  "admin endpoint accessed",
				Endpoint: r.URL.Path,
			})
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
