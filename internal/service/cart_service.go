package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/events"
	"libmarket/internal/repository"
	"libmarket/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService applies cart operations to the cart mirrored for a session.
// Operations on products that are not in the cart leave it unchanged.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error)
	Checkout(ctx context.Context, session *domain.Session) (*domain.Receipt, error)
	Reset(ctx context.Context, sessionID string) error
}

type cartService struct {
	carts     store.CartStore
	products  repository.ProductRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	carts store.CartStore,
	products repository.ProductRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) CartService {
	return &cartService{
		carts:     carts,
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// AddToCart adds one unit of an active product
func (s *cartService) AddToCart(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error) {
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

	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.Add(product)
	})
}

func (s *cartService) RemoveFromCart(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error) {
	return s.mutateLine(ctx, sessionID, productID, func(cart *domain.Cart) {
		cart.Remove(productID)
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	return s.mutateLine(ctx, sessionID, productID, func(cart *domain.Cart) {
		cart.UpdateQuantity(productID, quantity)
	})
}

// Checkout reports the cart total and empties the cart. Stock, payment and
// verification are not checked.
func (s *cartService) Checkout(ctx context.Context, session *domain.Session) (*domain.Receipt, error) {
	cart, err := s.GetCart(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	receipt := cart.Checkout(time.Now().UTC())
	if err := s.carts.Save(ctx, session.ID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Info("Cart checked out",
		zap.String("session_id", session.ID),
		zap.Int("lines", len(receipt.Lines)),
		zap.String("total", receipt.Total),
		zap.Int("item_count", receipt.ItemCount),
	)

	if receipt.ItemCount > 0 {
		event := events.CheckoutEvent{
			SessionID:  session.ID,
			UserID:     session.User.ID,
			Total:      receipt.Total,
			ItemCount:  receipt.ItemCount,
			OccurredAt: receipt.PlacedAt,
		}
		if err := s.publisher.Publish(ctx, events.SubjectCartCheckedOut, event); err != nil {
			s.logger.Warn("Failed to publish checkout event", zap.Error(err))
		}
	}

	return receipt, nil
}

// Reset empties the cart without producing a receipt
func (s *cartService) Reset(ctx context.Context, sessionID string) error {
	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to reset cart: %w", err)
	}
	return nil
}

// mutate is the load, apply, save cycle shared by the cart operations
func (s *cartService) mutate(ctx context.Context, sessionID string, apply func(*domain.Cart)) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	apply(cart)
	return s.save(ctx, sessionID, cart)
}

func (s *cartService) save(ctx context.Context, sessionID string, cart *domain.Cart) (*domain.Cart, error) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// mutateLine runs apply only when the cart holds productID. Otherwise the
// stored cart is returned as is and nothing is written.
func (s *cartService) mutateLine(ctx context.Context, sessionID string, productID uuid.UUID, apply func(*domain.Cart)) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := cart.Line(productID); !ok {
		return cart, nil
	}

	apply(cart)
	return s.save(ctx, sessionID, cart)
}
