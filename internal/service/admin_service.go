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
	"go.uber.org/zap"
)

// Stats summarises the marketplace for the admin panel
type Stats struct {
	TotalUsers           int `json:"total_users"`
	PendingVerifications int `json:"pending_verifications"`
	TotalProducts        int `json:"total_products"`
	TotalOffers          int `json:"total_offers"`
}

// AdminService covers account review and listing moderation
type AdminService interface {
	Users(ctx context.Context, status domain.VerificationStatus) ([]*domain.User, error)
	VerifyUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	RejectUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ModerateProduct(ctx context.Context, id uuid.UUID, status domain.ProductStatus) (*domain.Product, error)
	Stats(ctx context.Context) (*Stats, error)
}

type adminService struct {
	users     repository.UserRepository
	products  repository.ProductRepository
	offers    repository.OfferRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(
	users repository.UserRepository,
	products repository.ProductRepository,
	offers repository.OfferRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) AdminService {
	return &adminService{
		users:     users,
		products:  products,
		offers:    offers,
		publisher: publisher,
		logger:    logger,
	}
}

// Users lists accounts, optionally only those in one status
func (s *adminService) Users(ctx context.Context, status domain.VerificationStatus) ([]*domain.User, error) {
	users, err := s.users.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *adminService) VerifyUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.review(ctx, id, (*domain.User).Verify, events.SubjectUserVerified)
}

func (s *adminService) RejectUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.review(ctx, id, (*domain.User).Reject, events.SubjectUserRejected)
}

func (s *adminService) review(ctx context.Context, id uuid.UUID, decide func(*domain.User, time.Time) error, subject string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := decide(user, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.users.UpdateStatus(ctx, user.ID, user.Status, user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	s.logger.Info("User reviewed",
		zap.String("user_id", user.ID.String()),
		zap.String("status", string(user.Status)),
	)

	event := events.UserEvent{
		UserID:     user.ID,
		Role:       string(user.Role.Kind()),
		Status:     string(user.Status),
		OccurredAt: user.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("Failed to publish user event", zap.Error(err))
	}

	return user, nil
}

// ModerateProduct activates or rejects a listing
func (s *adminService) ModerateProduct(ctx context.Context, id uuid.UUID, status domain.ProductStatus) (*domain.Product, error) {
	if status != domain.ProductActive && status != domain.ProductRejected {
		return nil, ErrInvalidModeration
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product.Status == status {
		return product, nil
	}

	product.Status = status
	product.UpdatedAt = time.Now().UTC()
	if err := s.products.UpdateStatus(ctx, product.ID, product.Status, product.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update product status: %w", err)
	}

	event := events.ProductEvent{
		ProductID:  product.ID,
		SellerID:   product.SellerID,
		Status:     string(product.Status),
		OccurredAt: product.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, events.SubjectProductModerated, event); err != nil {
		s.logger.Warn("Failed to publish product event", zap.Error(err))
	}

	return product, nil
}

func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats Stats
		err   error
	)

	if stats.TotalUsers, err = s.users.CountByStatus(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.PendingVerifications, err = s.users.CountByStatus(ctx, domain.StatusPending); err != nil {
		return nil, fmt.Errorf("failed to count pending users: %w", err)
	}
	if stats.TotalProducts, err = s.products.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.TotalOffers, err = s.offers.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}

	return &stats, nil
}
