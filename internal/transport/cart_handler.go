package transport

import (
	"net/http"

	"libmarket/internal/domain"
	"libmarket/internal/middleware"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddItemRequest adds one unit of a product
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// UpdateQuantityRequest sets a line's quantity. Zero or less removes the
// line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the cart with its derived totals
type CartResponse struct {
	Lines     []domain.CartLine `json:"lines"`
	Total     string            `json:"total"`
	ItemCount int               `json:"item_count"`
}

func newCartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{
		Lines:     cart.Lines,
		Total:     cart.TotalString(),
		ItemCount: cart.ItemCount(),
	}
}

// CartHandler exposes the session's cart
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// RegisterRoutes registers the cart routes. All of them need a session.
func (h *CartHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.Get("/", h.Get)
		r.Delete("/", h.Reset)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.With(guards.Verified).Post("/checkout", h.Checkout)
	})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), session.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	var req AddItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	cart, err := h.carts.AddToCart(r.Context(), session.ID, req.ProductID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add to cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

// UpdateQuantity leaves the cart unchanged when the product is not in it
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), session.ID, productID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveFromCart(r.Context(), session.ID, productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	receipt, err := h.carts.Checkout(r.Context(), session)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to checkout")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, receipt)
}

func (h *CartHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.carts.Reset(r.Context(), session.ID); err != nil {
		respondServiceError(w, h.logger, err, "failed to reset cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(domain.NewCart()))
}
