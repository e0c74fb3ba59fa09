package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/events"
	"libmarket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OfferService handles price negotiation between buyers and sellers
type OfferService interface {
	MakeOffer(ctx context.Context, buyer *domain.User, productID uuid.UUID, price decimal.Decimal, message string) (*domain.Offer, error)
	BuyerOffers(ctx context.Context, buyer *domain.User) ([]*domain.Offer, error)
	SellerOffers(ctx context.Context, seller *domain.User) ([]*domain.Offer, error)
	RespondToOffer(ctx context.Context, seller *domain.User, offerID uuid.UUID, action domain.OfferAction, counterPrice decimal.NullDecimal) (*domain.Offer, error)
}

type offerService struct {
	offers    repository.OfferRepository
	products  repository.ProductRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewOfferService creates a new instance of OfferService
func NewOfferService(
	offers repository.OfferRepository,
	products repository.ProductRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) OfferService {
	return &offerService{
		offers:    offers,
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

// MakeOffer records a pending offer at the product's current price. The
// offered amount is not range-checked.
func (s *offerService) MakeOffer(ctx context.Context, buyer *domain.User, productID uuid.UUID, price decimal.Decimal, message string) (*domain.Offer, error) {
	buyerID := buyer.BuyerID()
	if buyerID == "" {
		return nil, ErrNotBuyer
	}
	if exceedsMaxAmount(price) {
		return nil, ErrAmountTooLarge
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product.Status != domain.ProductActive {
		return nil, ErrProductUnavailable
	}

	offer := domain.NewOffer(product, buyerID, price, message, time.Now().UTC())
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.logger.Info("Offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("buyer_id", buyerID),
		zap.String("seller_id", offer.SellerID),
	)
	s.publish(ctx, events.SubjectOfferCreated, offer)

	return offer, nil
}

func (s *offerService) BuyerOffers(ctx context.Context, buyer *domain.User) ([]*domain.Offer, error) {
	if buyer.BuyerID() == "" {
		return nil, ErrNotBuyer
	}
	offers, err := s.offers.ListByBuyer(ctx, buyer.BuyerID())
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

func (s *offerService) SellerOffers(ctx context.Context, seller *domain.User) ([]*domain.Offer, error) {
	if seller.SellerID() == "" {
		return nil, ErrNotSeller
	}
	offers, err := s.offers.ListBySeller(ctx, seller.SellerID())
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// RespondToOffer applies the seller's action. Repeating an action that
// already took effect returns the offer unchanged.
func (s *offerService) RespondToOffer(ctx context.Context, seller *domain.User, offerID uuid.UUID, action domain.OfferAction, counterPrice decimal.NullDecimal) (*domain.Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}

	if seller.SellerID() == "" || offer.SellerID != seller.SellerID() {
		return nil, ErrNotOfferSeller
	}
	if counterPrice.Valid && exceedsMaxAmount(counterPrice.Decimal) {
		return nil, ErrAmountTooLarge
	}

	changed, err := offer.Respond(action, counterPrice, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		return offer, nil
	}

	if err := s.offers.Update(ctx, offer); err != nil {
		if errors.Is(err, domain.ErrOfferClosed) {
			// another response was stored after this one was loaded
			return nil, err
		}
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	s.logger.Info("Offer answered",
		zap.String("offer_id", offer.ID.String()),
		zap.String("status", string(offer.Status)),
	)
	s.publish(ctx, events.SubjectOfferResponded, offer)

	return offer, nil
}

func (s *offerService) publish(ctx context.Context, subject string, offer *domain.Offer) {
	event := events.OfferEvent{
		OfferID:    offer.ID,
		ProductID:  offer.ProductID,
		BuyerID:    offer.BuyerID,
		SellerID:   offer.SellerID,
		Status:     string(offer.Status),
		OfferPrice: domain.FormatAmount(offer.OfferPrice),
		OccurredAt: offer.UpdatedAt,
	}
	if offer.CounterPrice.Valid {
		event.CounterPrice = domain.FormatAmount(offer.CounterPrice.Decimal)
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("Failed to publish offer event", zap.String("subject", subject), zap.Error(err))
	}
}

// exceedsMaxAmount reports whether an amount, once rounded to cents, is too
// large for the offer price columns
func exceedsMaxAmount(amount decimal.Decimal) bool {
	return domain.RoundAmount(amount).GreaterThan(domain.MaxAmount)
}
