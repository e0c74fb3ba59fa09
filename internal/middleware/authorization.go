package middleware

import (
	"net/http"

	"libmarket/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the user has admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.KindAdmin)
}

// RequireRole middleware ensures the user has one of the specified roles
func RequireRole(logger *zap.Logger, allowed ...domain.RoleKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			for _, kind := range allowed {
				if role == kind {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("User role not authorized",
				zap.String("role", string(role)),
				zap.String("path", r.URL.Path),
			)
			RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// RequireVerified rejects buyers and sellers whose account an admin has
// not approved yet. When enforce is false it passes every request through.
func RequireVerified(enforce bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSession(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if session.User.Role.Kind() != domain.KindAdmin && !session.User.IsVerified() {
				logger.Debug("Unverified account blocked",
					zap.String("user_id", session.User.ID.String()),
					zap.String("status", string(session.User.Status)),
				)
				RespondWithError(w, http.StatusForbidden, "account verification pending")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
