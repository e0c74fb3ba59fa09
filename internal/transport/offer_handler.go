package transport

import (
	"net/http"

	"libmarket/internal/domain"
	"libmarket/internal/middleware"
	"libmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MakeOfferRequest is a buyer's price proposal. The amount must be present
// but zero and negative amounts are taken as given.
type MakeOfferRequest struct {
	ProductID  uuid.UUID        `json:"product_id" validate:"required"`
	OfferPrice *decimal.Decimal `json:"offer_price" validate:"required,lte=9999999999.99"`
	Message    string           `json:"message" validate:"required,max=1000"`
}

// RespondOfferRequest is a seller's answer to an offer
type RespondOfferRequest struct {
	Action       string              `json:"action" validate:"required,oneof=accept reject counter"`
	CounterPrice decimal.NullDecimal `json:"counter_price" validate:"omitempty,gte=0,lte=9999999999.99"`
}

// OfferHandler exposes offers to buyers and sellers
type OfferHandler struct {
	offers service.OfferService
	logger *zap.Logger
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(offers service.OfferService, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, logger: logger}
}

// RegisterRoutes registers the buyer and seller offer routes
func (h *OfferHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/api/offers", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.Use(middleware.RequireRole(h.logger, domain.KindBuyer))
		r.With(guards.Verified).Post("/", h.MakeOffer)
		r.Get("/", h.BuyerOffers)
	})

	r.Route("/api/seller/offers", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.Use(middleware.RequireRole(h.logger, domain.KindSeller))
		r.Get("/", h.SellerOffers)
		r.With(guards.Verified).Post("/{id}/respond", h.Respond)
	})
}

func (h *OfferHandler) MakeOffer(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	var req MakeOfferRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	offer, err := h.offers.MakeOffer(r.Context(), session.User, req.ProductID, *req.OfferPrice, req.Message)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to make offer")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) BuyerOffers(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	offers, err := h.offers.BuyerOffers(r.Context(), session.User)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list offers")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"offers": offers})
}

func (h *OfferHandler) SellerOffers(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}

	offers, err := h.offers.SellerOffers(r.Context(), session.User)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list offers")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"offers": offers})
}

// Respond applies accept, reject or counter. Unknown offers are 404.
func (h *OfferHandler) Respond(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r, h.logger)
	if !ok {
		return
	}
	offerID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req RespondOfferRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	offer, err := h.offers.RespondToOffer(r.Context(), session.User, offerID, domain.OfferAction(req.Action), req.CounterPrice)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to respond to offer")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}
