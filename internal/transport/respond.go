package transport

import (
	"errors"
	"net/http"
	"strconv"

	"libmarket/internal/domain"
	"libmarket/internal/middleware"
	"libmarket/internal/repository"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Guards are the middlewares handlers attach to their protected routes
type Guards struct {
	// Authenticate loads the session; every protected route uses it
	Authenticate func(http.Handler) http.Handler
	// Verified optionally blocks accounts an admin has not approved
	Verified func(http.Handler) http.Handler
}

// errorStatuses maps service and domain errors to HTTP statuses. The
// error text is safe to show to clients.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrSessionNotFound, http.StatusUnauthorized},

	{service.ErrAdminRegistration, http.StatusForbidden},
	{service.ErrNotBuyer, http.StatusForbidden},
	{service.ErrNotSeller, http.StatusForbidden},
	{service.ErrNotOfferSeller, http.StatusForbidden},
	{service.ErrNotListingOwner, http.StatusForbidden},

	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrProductNotFound, http.StatusNotFound},
	{service.ErrProductUnavailable, http.StatusNotFound},
	{service.ErrOfferNotFound, http.StatusNotFound},

	{repository.ErrUserAlreadyExists, http.StatusConflict},
	{repository.ErrRoleIDTaken, http.StatusConflict},
	{domain.ErrOfferClosed, http.StatusConflict},
	{domain.ErrStatusTransition, http.StatusConflict},

	{service.ErrPasswordMismatch, http.StatusBadRequest},
	{service.ErrInvalidListing, http.StatusBadRequest},
	{service.ErrAmountTooLarge, http.StatusBadRequest},
	{service.ErrInvalidModeration, http.StatusBadRequest},
	{domain.ErrUnknownRole, http.StatusBadRequest},
	{domain.ErrUnknownOfferAction, http.StatusBadRequest},
	{domain.ErrCounterPriceRequired, http.StatusBadRequest},
}

// respondServiceError writes the status for a known error, or a 500 with
// the fallback message
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	for _, known := range errorStatuses {
		if errors.Is(err, known.err) {
			logger.Debug("Request rejected", zap.Error(err), zap.Int("status", known.status))
			middleware.RespondWithError(w, known.status, known.err.Error())
			return
		}
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// decodeRequest decodes and validates a JSON body, writing the 400 itself
// when it fails
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// idParam parses a UUID path parameter, writing the 400 itself on failure
func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentSession returns the session the auth middleware loaded
func currentSession(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*domain.Session, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		logger.Error("Session not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return session, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
