package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"libmarket/internal/domain"
	"libmarket/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	SessionKey  contextKey = "session"
)

// SessionAuthenticator is the part of the auth service the middleware needs
type SessionAuthenticator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}

// AuthMiddleware validates the bearer token, loads the session it names
// and puts the session and user claims into the request context
func AuthMiddleware(auth SessionAuthenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			// Check for Bearer token format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := auth.ValidateToken(parts[1])
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			session, err := auth.Session(r.Context(), claims.SessionID)
			if err != nil {
				if errors.Is(err, service.ErrSessionNotFound) {
					logger.Debug("Session expired", zap.String("sid", claims.SessionID))
					RespondWithError(w, http.StatusUnauthorized, "session expired")
					return
				}
				logger.Error("Failed to load session", zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, "failed to load session")
				return
			}

			if session.User.ID != claims.UserID {
				logger.Warn("Token does not match session owner",
					zap.String("sid", claims.SessionID),
					zap.String("user_id", claims.UserID.String()),
				)
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			// role is read from the session so a refreshed profile wins
			logger.Debug("User authenticated",
				zap.String("user_id", session.User.ID.String()),
				zap.String("role", string(session.User.Role.Kind())),
			)

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// getUserID extracts user ID from request context
func getUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (domain.RoleKind, bool) {
	role, ok := ctx.Value(UserRoleKey).(domain.RoleKind)
	return role, ok
}

// GetSession returns the session loaded by AuthMiddleware
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok
}

// WithSession stores a session in ctx the way AuthMiddleware does
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, session.User.ID)
	ctx = context.WithValue(ctx, UserRoleKey, session.User.Role.Kind())
	return context.WithValue(ctx, SessionKey, session)
}
