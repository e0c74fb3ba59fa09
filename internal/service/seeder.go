package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DemoPassword is shared by every seeded account
const DemoPassword = "demo123"

type demoAccount struct {
	name    string
	email   string
	role    domain.Role
	phone   string
	address string
}

var demoAccounts = []demoAccount{
	{"reviveshine", "reviveshine@mylibmarketplace.com", domain.Seller{SellerID: "RSH001"}, "+231-555-0001", "Nimba County, Liberia"},
	{"John Buyer", "buyer@test.com", domain.Buyer{BuyerID: "BUY001"}, "+231-555-0002", "Monrovia, Liberia"},
	{"Admin User", "admin@mylibmarketplace.com", domain.Admin{}, "+231-555-0000", "Monrovia, Liberia"},
}

type demoProduct struct {
	name        string
	description string
	price       string
	stock       int
	category    string
	imageURL    string
}

var demoCatalog = []demoProduct{
	{"Traditional Kente Cloth", "Handwoven authentic kente cloth from Liberian artisans", "89.99", 15, "Textiles", "https://images.unsplash.com/photo-1515378791036-0648a814c963?w=300&h=200&fit=crop"},
	{"Nimba County Coffee", "Premium arabica coffee beans from Nimba mountains", "24.99", 50, "Food", "https://images.unsplash.com/photo-1559056199-641a0ac8b55e?w=300&h=200&fit=crop"},
	{"Carved Wooden Elephant", "Beautiful elephant sculpture representing Liberian wildlife", "45.00", 8, "Crafts", "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=300&h=200&fit=crop"},
	{"Pure Palm Oil", "Authentic red palm oil from Liberian palm trees", "19.99", 30, "Food", "https://images.unsplash.com/photo-1474979266404-7eaacbcd87c5?w=300&h=200&fit=crop"},
	{"Traditional Talking Drum", "Hand-carved talking drum", "125.00", 5, "Crafts", "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=300&h=200&fit=crop"},
	{"Liberian Flag Jewelry", "Beaded jewelry in the national colours", "35.99", 20, "Jewelry", "https://images.unsplash.com/photo-1515562141207-7a88fb7ce338?w=300&h=200&fit=crop"},
}

// Seeder loads the demo accounts and catalog
type Seeder struct {
	users    repository.UserRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(users repository.UserRepository, products repository.ProductRepository, logger *zap.Logger) *Seeder {
	return &Seeder{users: users, products: products, logger: logger}
}

// Seed is idempotent: existing accounts are left alone and the catalog is
// only loaded into an empty products table.
func (s *Seeder) Seed(ctx context.Context) error {
	hash, err := HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	now := time.Now().UTC()
	created := 0
	for _, acct := range demoAccounts {
		_, err := s.users.FindByEmail(ctx, acct.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("failed to check demo account %s: %w", acct.email, err)
		}

		user := &domain.User{
			ID:           uuid.New(),
			Name:         acct.name,
			Email:        acct.email,
			PasswordHash: hash,
			Role:         acct.role,
			Status:       domain.StatusVerified,
			Phone:        acct.phone,
			Address:      acct.address,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create demo account %s: %w", acct.email, err)
		}
		created++
	}

	count, err := s.products.Count(ctx)
	if err != nil {
		return err
	}
	seededProducts := 0
	if count == 0 {
		for i, p := range demoCatalog {
			at := now.Add(time.Duration(i) * time.Second)
			product := &domain.Product{
				ID:          uuid.New(),
				Name:        p.name,
				Description: p.description,
				Price:       decimal.RequireFromString(p.price),
				Stock:       p.stock,
				ImageURL:    p.imageURL,
				Category:    p.category,
				SellerID:    "RSH001",
				Status:      domain.ProductActive,
				CreatedAt:   at,
				UpdatedAt:   at,
			}
			if err := s.products.Create(ctx, product); err != nil {
				return fmt.Errorf("failed to create demo product %s: %w", p.name, err)
			}
			seededProducts++
		}
	}

	s.logger.Info("Demo data seeded",
		zap.Int("accounts", created),
		zap.Int("products", seededProducts),
	)
	return nil
}
