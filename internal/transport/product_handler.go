package transport

import (
	"net/http"

	"libmarket/internal/middleware"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler serves the public catalog
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the public catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/categories", h.Categories)
		r.Get("/{id}", h.Get)
	})
}

// List handles GET /api/products?page=&page_size=&sort_by=&sort_order=&category=&q=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.catalog.List(r.Context(), service.ListQuery{
		Page:      queryInt(r, "page"),
		PageSize:  queryInt(r, "page_size"),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Category:  query.Get("category"),
		Search:    query.Get("q"),
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}
