package transport

import (
	"net/http"

	"libmarket/internal/domain"
	"libmarket/internal/middleware"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ModerateProductRequest sets a listing's status
type ModerateProductRequest struct {
	Status string `json:"status" validate:"required,oneof=active rejected"`
}

// AdminHandler exposes account review and moderation
type AdminHandler struct {
	admin  service.AdminService
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// RegisterRoutes registers the admin routes
func (h *AdminHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/users", h.Users)
		r.Post("/users/{id}/verify", h.VerifyUser)
		r.Post("/users/{id}/reject", h.RejectUser)
		r.Patch("/products/{id}/status", h.ModerateProduct)
		r.Get("/stats", h.Stats)
	})
}

// Users handles GET /api/admin/users?status=pending
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	status := domain.VerificationStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.StatusPending, domain.StatusVerified, domain.StatusRejected:
	default:
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	users, err := h.admin.Users(r.Context(), status)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list users")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.admin.VerifyUser(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to verify user")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) RejectUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.admin.RejectUser(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to reject user")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) ModerateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req ModerateProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.admin.ModerateProduct(r.Context(), id, domain.ProductStatus(req.Status))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to moderate product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load stats")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
