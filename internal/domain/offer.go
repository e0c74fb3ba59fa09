package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOfferClosed          = errors.New("offer is no longer pending")
	ErrUnknownOfferAction   = errors.New("unknown offer action")
	ErrCounterPriceRequired = errors.New("counter offer requires a price")
)

// OfferStatus is the negotiation state of an offer
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCountered OfferStatus = "countered"
)

// OfferAction is a seller's response to an offer
type OfferAction string

const (
	ActionAccept  OfferAction = "accept"
	ActionReject  OfferAction = "reject"
	ActionCounter OfferAction = "counter"
)

// target maps an action to the status it produces
func (a OfferAction) target() (OfferStatus, bool) {
	switch a {
	case ActionAccept:
		return OfferAccepted, true
	case ActionReject:
		return OfferRejected, true
	case ActionCounter:
		return OfferCountered, true
	}
	return "", false
}

// Offer is a buyer's proposed price for a product
type Offer struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	ProductID     uuid.UUID           `json:"product_id" db:"product_id"`
	ProductName   string              `json:"product_name" db:"product_name"`
	BuyerID       string              `json:"buyer_id" db:"buyer_id"`
	SellerID      string              `json:"seller_id" db:"seller_id"`
	OriginalPrice decimal.Decimal     `json:"original_price" db:"original_price"`
	OfferPrice    decimal.Decimal     `json:"offer_price" db:"offer_price"`
	CounterPrice  decimal.NullDecimal `json:"counter_price" db:"counter_price"`
	Message       string              `json:"message" db:"message"`
	Status        OfferStatus         `json:"status" db:"status"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// NewOffer creates a pending offer. The product's current price is frozen
// as the original price. The offered price is rounded to cents but not
// range checked.
func NewOffer(product *Product, buyerID string, price decimal.Decimal, message string, now time.Time) *Offer {
	return &Offer{
		ID:            uuid.New(),
		ProductID:     product.ID,
		ProductName:   product.Name,
		BuyerID:       buyerID,
		SellerID:      product.SellerID,
		OriginalPrice: product.Price,
		OfferPrice:    RoundAmount(price),
		Message:       message,
		Status:        OfferPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsPending reports whether the seller can still respond
func (o *Offer) IsPending() bool {
	return o.Status == OfferPending
}

// Respond applies a seller action. Only pending offers transition.
// Repeating the action that produced the current status is a no-op and
// returns changed=false.
func (o *Offer) Respond(action OfferAction, counterPrice decimal.NullDecimal, now time.Time) (changed bool, err error) {
	target, ok := action.target()
	if !ok {
		return false, ErrUnknownOfferAction
	}
	if action == ActionCounter && !counterPrice.Valid {
		return false, ErrCounterPriceRequired
	}
	if counterPrice.Valid {
		counterPrice.Decimal = RoundAmount(counterPrice.Decimal)
	}

	if !o.IsPending() {
		if o.Status == target && (action != ActionCounter || o.CounterPrice.Decimal.Equal(counterPrice.Decimal)) {
			return false, nil
		}
		return false, ErrOfferClosed
	}

	o.Status = target
	if action == ActionCounter {
		o.CounterPrice = counterPrice
	}
	o.UpdatedAt = now
	return true, nil
}
