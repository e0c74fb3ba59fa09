package transport

import (
	"net/http"

	"libmarket/internal/domain"
	"libmarket/internal/middleware"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateListingRequest describes a new product
type CreateListingRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price" validate:"gte=0,lte=9999999999.99"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url,max=500"`
	Category    string          `json:"category" validate:"max=50"`
}

// UpdateListingRequest changes price and/or stock. Absent fields stay.
type UpdateListingRequest struct {
	Price *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=9999999999.99"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0"`
}

// SellerHandler manages a seller's own listings
type SellerHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewSellerHandler creates a new SellerHandler
func NewSellerHandler(catalog service.CatalogService, logger *zap.Logger) *SellerHandler {
	return &SellerHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the listing routes
func (h *SellerHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/seller/products", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.Use(middleware.RequireRole(h.logger, domain.KindSeller))
		r.Get("/", h.Listings)
		r.With(guards.Verified).Post("/", h.CreateListing)
		r.With(guards.Verified).Patch("/{id}", h.UpdateListing)
	})
}

func (h *SellerHandler) Listings(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.catalog.SellerListings(r.Context(), session.User, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list listings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *SellerHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateListingRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.catalog.CreateListing(r.Context(), session.User, service.ListingInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *SellerHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateListingRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.catalog.UpdateListing(r.Context(), session.User, id, service.ListingUpdate{
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}
