package middleware

import (
	"log/slog"
	"net/http"

	"prospero-server/internal/auth"
	"prospero-server/internal/shared/errors"
	"prospero-server/internal/shared/response"
)

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "admin",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing admin authorization")

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		if claims.Role != auth.RoleAdmin {
			logger.Warn("Non-admin user attempted to access admin endpoint",
				"subject", claims.Subject,
				"role", claims.Role)
			response.Error(w, r, logger, errors.Forbidden("admin access required"))
			return
		}

		logger.Debug("Admin authorization successful", "subject", claims.Subject)

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects every request when issuer is nil, which is the case
// when no JWT secret is configured.
func RequireAdmin(issuer *auth.Issuer, next http.Handler) http.Handler {
	if issuer == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := slog.With("middleware", "admin", "path", r.URL.Path)
			response.Error(w, r, logger, errors.Forbidden("admin endpoints are disabled"))
		})
	}
	return JWTMiddleware(issuer)(AdminMiddleware(next))
}
