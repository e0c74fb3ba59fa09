package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"libmarket/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOfferNotFound = errors.New("offer not found")
)

// OfferRepository defines the interface for offer data access
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	Update(ctx context.Context, offer *domain.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Offer, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Offer, error)
	Count(ctx context.Context) (int, error)
}

type offerRepository struct {
	db *sql.DB
}

const offerColumns = `id, product_id, product_name, buyer_id, seller_id, original_price, offer_price, counter_price, message, status, created_at, updated_at`

// NewOfferRepository creates a new instance of OfferRepository
func NewOfferRepository(db *sql.DB) OfferRepository {
	return &offerRepository{db: db}
}

// Create inserts a new offer
func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		offer.ID,
		offer.ProductID,
		offer.ProductName,
		offer.BuyerID,
		offer.SellerID,
		offer.OriginalPrice,
		offer.OfferPrice,
		offer.CounterPrice,
		offer.Message,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

// Update persists a seller's response. Only a row that is still pending
// is written, so of two concurrent responses the second gets
// domain.ErrOfferClosed.
func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE offers SET status = $2, counter_price = $3, updated_at = $4 WHERE id = $1 AND status = 'pending'`,
		offer.ID, offer.Status, offer.CounterPrice, offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM offers WHERE id = $1)`, offer.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check offer: %w", err)
	}
	if !exists {
		return ErrOfferNotFound
	}
	return domain.ErrOfferClosed
}

// FindByID retrieves an offer by ID
func (r *offerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find offer by ID: %w", err)
	}

	return offer, nil
}

// ListByBuyer returns the buyer's offers, newest first
func (r *offerRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Offer, error) {
	return r.list(ctx, "buyer_id", buyerID)
}

// ListBySeller returns offers on the seller's products, newest first
func (r *offerRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Offer, error) {
	return r.list(ctx, "seller_id", sellerID)
}

// Count returns the number of offers in any status
func (r *offerRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return total, nil
}

// list is only called with a fixed column name
func (r *offerRepository) list(ctx context.Context, column, value string) ([]*domain.Offer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offers
		WHERE %s = $1
		ORDER BY created_at DESC, id
	`, offerColumns, column)

	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []*domain.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

func scanOffer(row rowScanner) (*domain.Offer, error) {
	offer := &domain.Offer{}
	var message sql.NullString
	err := row.Scan(
		&offer.ID,
		&offer.ProductID,
		&offer.ProductName,
		&offer.BuyerID,
		&offer.SellerID,
		&offer.OriginalPrice,
		&offer.OfferPrice,
		&offer.CounterPrice,
		&message,
		&offer.Status,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	offer.Message = message.String
	return offer, nil
}
