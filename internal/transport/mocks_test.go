package transport

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/repository"

	"github.com/google/uuid"
)

// In-memory repositories; they keep copies so handlers never share state
// with the store.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
		if (user.SellerID() != "" && u.SellerID() == user.SellerID()) ||
			(user.BuyerID() != "" && u.BuyerID() == user.BuyerID()) {
			return repository.ErrRoleIDTaken
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *mockUserRepository) List(ctx context.Context, status domain.VerificationStatus) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []*domain.User{}
	for _, u := range m.users {
		if status == "" || u.Status == status {
			u := u
			users = append(users, &u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (m *mockUserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	u.UpdatedAt = updatedAt
	m.users[id] = u
	return nil
}

func (m *mockUserRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	users, err := m.List(ctx, status)
	return len(users), err
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ProductStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	m.products[id] = p
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) filter(keep func(domain.Product) bool, page, pageSize int) ([]*domain.Product, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			p := p
			matched = append(matched, &p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []*domain.Product{}, len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched)
}

func (m *mockProductRepository) List(ctx context.Context, f repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	products, total := m.filter(func(p domain.Product) bool {
		return (f.Status == "" || p.Status == f.Status) &&
			(f.SellerID == "" || p.SellerID == f.SellerID) &&
			(f.Category == "" || p.Category == f.Category)
	}, page, pageSize)
	return products, total, nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	q := strings.ToLower(query)
	products, total := m.filter(func(p domain.Product) bool {
		return p.Status == domain.ProductActive && strings.Contains(strings.ToLower(p.Name), q)
	}, page, pageSize)
	return products, total, nil
}

func (m *mockProductRepository) Categories(ctx context.Context) ([]repository.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, p := range m.products {
		if p.Status == domain.ProductActive && p.Category != "" {
			counts[p.Category]++
		}
	}
	categories := []repository.CategoryCount{}
	for name, n := range counts {
		categories = append(categories, repository.CategoryCount{Name: name, Count: n})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

type mockOfferRepository struct {
	mu     sync.Mutex
	offers map[uuid.UUID]domain.Offer
}

func newMockOfferRepository() *mockOfferRepository {
	return &mockOfferRepository{offers: make(map[uuid.UUID]domain.Offer)}
}

func (m *mockOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers[offer.ID] = *offer
	return nil
}

func (m *mockOfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.offers[offer.ID]
	if !ok {
		return repository.ErrOfferNotFound
	}
	if !current.IsPending() {
		return domain.ErrOfferClosed
	}
	m.offers[offer.ID] = *offer
	return nil
}

func (m *mockOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	return &o, nil
}

func (m *mockOfferRepository) list(keep func(domain.Offer) bool) []*domain.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	offers := []*domain.Offer{}
	for _, o := range m.offers {
		if keep(o) {
			o := o
			offers = append(offers, &o)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].CreatedAt.After(offers[j].CreatedAt) })
	return offers
}

func (m *mockOfferRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Offer, error) {
	return m.list(func(o domain.Offer) bool { return o.BuyerID == buyerID }), nil
}

func (m *mockOfferRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Offer, error) {
	return m.list(func(o domain.Offer) bool { return o.SellerID == sellerID }), nil
}

func (m *mockOfferRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.offers), nil
}
