package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the moderation state of a listing
type ProductStatus string

const (
	ProductPending  ProductStatus = "pending"
	ProductActive   ProductStatus = "active"
	ProductRejected ProductStatus = "rejected"
)

// Valid reports whether s is a known product status
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductPending, ProductActive, ProductRejected:
		return true
	}
	return false
}

// Product represents a listing in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Category    string          `json:"category" db:"category"`
	SellerID    string          `json:"seller_id" db:"seller_id"`
	Status      ProductStatus   `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// OwnedBy reports whether the listing belongs to the given seller
func (p *Product) OwnedBy(sellerID string) bool {
	return sellerID != "" && p.SellerID == sellerID
}

// MaxAmount is the largest money amount the NUMERIC(12,2) columns hold
var MaxAmount = decimal.RequireFromString("9999999999.99")

// RoundAmount rounds to cents, the precision money is stored with
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatAmount renders a money amount with exactly two decimal places
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
