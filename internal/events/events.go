package events

import (
	"time"

	"github.com/google/uuid"
)

// OfferEvent is published when an offer is created or answered
type OfferEvent struct {
	OfferID      uuid.UUID `json:"offer_id"`
	ProductID    uuid.UUID `json:"product_id"`
	BuyerID      string    `json:"buyer_id"`
	SellerID     string    `json:"seller_id"`
	Status       string    `json:"status"`
	OfferPrice   string    `json:"offer_price"`
	CounterPrice string    `json:"counter_price,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// CheckoutEvent is published when a session checks its cart out
type CheckoutEvent struct {
	SessionID  string    `json:"session_id"`
	UserID     uuid.UUID `json:"user_id"`
	Total      string    `json:"total"`
	ItemCount  int       `json:"item_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserEvent is published when an admin reviews an account
type UserEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProductEvent is published when an admin moderates a listing
type ProductEvent struct {
	ProductID  uuid.UUID `json:"product_id"`
	SellerID   string    `json:"seller_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
