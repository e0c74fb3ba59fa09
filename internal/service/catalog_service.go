package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery selects a page of the public catalog
type ListQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	Category  string
	Search    string
}

// ProductPage is one page of products with the total match count
type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ListingInput describes a new listing
type ListingInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
	Category    string
}

// ListingUpdate carries the fields a seller may change. Nil means unchanged.
type ListingUpdate struct {
	Price *decimal.Decimal
	Stock *int
}

// CatalogService serves the public catalog and seller listings
type CatalogService interface {
	List(ctx context.Context, q ListQuery) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Categories(ctx context.Context) ([]repository.CategoryCount, error)
	CreateListing(ctx context.Context, seller *domain.User, in ListingInput) (*domain.Product, error)
	SellerListings(ctx context.Context, seller *domain.User, page, pageSize int) (*ProductPage, error)
	UpdateListing(ctx context.Context, seller *domain.User, id uuid.UUID, upd ListingUpdate) (*domain.Product, error)
}

type catalogService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, logger *zap.Logger) CatalogService {
	return &catalogService{products: products, logger: logger}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// List returns active products only
func (s *catalogService) List(ctx context.Context, q ListQuery) (*ProductPage, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	var (
		products []*domain.Product
		total    int
		err      error
	)
	if strings.TrimSpace(q.Search) != "" {
		products, total, err = s.products.Search(ctx, q.Search, page, pageSize)
	} else {
		filter := repository.ProductFilter{Status: domain.ProductActive, Category: q.Category}
		order := repository.SortOrder(strings.ToUpper(q.SortOrder))
		products, total, err = s.products.List(ctx, filter, page, pageSize, q.SortBy, order)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{Products: products, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get returns an active product. Unlisted products read as not found.
func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product.Status != domain.ProductActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]repository.CategoryCount, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateListing adds a product for the seller. It stays pending until an
// admin activates it.
func (s *catalogService) CreateListing(ctx context.Context, seller *domain.User, in ListingInput) (*domain.Product, error) {
	sellerID := seller.SellerID()
	if sellerID == "" {
		return nil, ErrNotSeller
	}
	price := domain.RoundAmount(in.Price)
	if !validPrice(price) || in.Stock < 0 {
		return nil, ErrInvalidListing
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		SellerID:    sellerID,
		Status:      domain.ProductPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info("Listing created",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", sellerID),
	)
	return product, nil
}

// SellerListings returns the seller's products in every status
func (s *catalogService) SellerListings(ctx context.Context, seller *domain.User, page, pageSize int) (*ProductPage, error) {
	if seller.SellerID() == "" {
		return nil, ErrNotSeller
	}
	page, pageSize = normalizePage(page, pageSize)

	products, total, err := s.products.List(ctx, repository.ProductFilter{SellerID: seller.SellerID()},
		page, pageSize, "created_at", repository.SortOrderDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return &ProductPage{Products: products, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateListing changes price or stock of a listing the seller owns
func (s *catalogService) UpdateListing(ctx context.Context, seller *domain.User, id uuid.UUID, upd ListingUpdate) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !product.OwnedBy(seller.SellerID()) {
		return nil, ErrNotListingOwner
	}

	if upd.Price != nil {
		price := domain.RoundAmount(*upd.Price)
		if !validPrice(price) {
			return nil, ErrInvalidListing
		}
		product.Price = price
	}
	if upd.Stock != nil {
		if *upd.Stock < 0 {
			return nil, ErrInvalidListing
		}
		product.Stock = *upd.Stock
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return product, nil
}

// validPrice reports whether a rounded listing price fits the price column
func validPrice(price decimal.Decimal) bool {
	return !price.IsNegative() && price.LessThanOrEqual(domain.MaxAmount)
}
