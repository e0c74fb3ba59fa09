package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"libmarket/internal/domain"
	"libmarket/internal/repository"
	"libmarket/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop()

// Mock repositories for testing
type mockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	// roleIDConflicts makes the next n creates fail as if the role id was taken
	roleIDConflicts int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.roleIDConflicts > 0 {
		m.roleIDConflicts--
		return repository.ErrRoleIDTaken
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
		if (user.SellerID() != "" && u.SellerID() == user.SellerID()) ||
			(user.BuyerID() != "" && u.BuyerID() == user.BuyerID()) {
			return repository.ErrRoleIDTaken
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			found := *u
			return &found, nil
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
	found := *u
	return &found, nil
}

func (m *mockUserRepository) List(ctx context.Context, status domain.VerificationStatus) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []*domain.User{}
	for _, u := range m.users {
		if status == "" || u.Status == status {
			found := *u
			users = append(users, &found)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
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
	return nil
}

func (m *mockUserRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	users, _ := m.List(ctx, status)
	return len(users), nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
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
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
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
	found := *p
	return &found, nil
}

func (m *mockProductRepository) matching(keep func(*domain.Product) bool) []*domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			found := *p
			products = append(products, &found)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products
}

func paginate(products []*domain.Product, page, pageSize int) []*domain.Product {
	start := (page - 1) * pageSize
	if start >= len(products) {
		return []*domain.Product{}
	}
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	products := m.matching(func(p *domain.Product) bool {
		return (filter.Status == "" || p.Status == filter.Status) &&
			(filter.SellerID == "" || p.SellerID == filter.SellerID) &&
			(filter.Category == "" || p.Category == filter.Category)
	})
	return paginate(products, page, pageSize), len(products), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	q := strings.ToLower(query)
	products := m.matching(func(p *domain.Product) bool {
		return p.Status == domain.ProductActive &&
			(strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q))
	})
	return paginate(products, page, pageSize), len(products), nil
}

func (m *mockProductRepository) Categories(ctx context.Context) ([]repository.CategoryCount, error) {
	counts := map[string]int{}
	for _, p := range m.matching(func(p *domain.Product) bool { return p.Status == domain.ProductActive && p.Category != "" }) {
		counts[p.Category]++
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
	offers map[uuid.UUID]*domain.Offer
}

func newMockOfferRepository() *mockOfferRepository {
	return &mockOfferRepository{offers: make(map[uuid.UUID]*domain.Offer)}
}

func (m *mockOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *offer
	m.offers[offer.ID] = &stored
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
	stored := *offer
	m.offers[offer.ID] = &stored
	return nil
}

func (m *mockOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	found := *o
	return &found, nil
}

func (m *mockOfferRepository) list(keep func(*domain.Offer) bool) []*domain.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	offers := []*domain.Offer{}
	for _, o := range m.offers {
		if keep(o) {
			found := *o
			offers = append(offers, &found)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].CreatedAt.After(offers[j].CreatedAt) })
	return offers
}

func (m *mockOfferRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Offer, error) {
	return m.list(func(o *domain.Offer) bool { return o.BuyerID == buyerID }), nil
}

func (m *mockOfferRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Offer, error) {
	return m.list(func(o *domain.Offer) bool { return o.SellerID == sellerID }), nil
}

func (m *mockOfferRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.offers), nil
}

// Mock stores
type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.User
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]domain.User)}
}

func (m *mockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session.User
	return nil
}

func (m *mockSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &domain.Session{ID: sessionID, User: &user}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

type mockCartStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
	saves int
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]domain.Cart)}
}

func (m *mockCartStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.carts[sessionID]
	if !ok {
		return domain.NewCart(), nil
	}
	cart := stored
	cart.Lines = append(make([]domain.CartLine, 0, len(stored.Lines)), stored.Lines...)
	return &cart, nil
}

func (m *mockCartStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	stored := *cart
	stored.Lines = append(make([]domain.CartLine, 0, len(cart.Lines)), cart.Lines...)
	m.carts[sessionID] = stored
	return nil
}

func (m *mockCartStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type mockPublisher struct {
	mock.Mock
}

// newMockPublisher accepts every publish; tests assert on the recorded calls
func newMockPublisher() *mockPublisher {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return p
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() {}

// fixtures

func testUser(role domain.Role, status domain.VerificationStatus) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        uuid.New(),
		Name:      "Test " + string(role.Kind()),
		Email:     uuid.NewString()[:8] + "@libmarket.test",
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testProduct(name, price string, status domain.ProductStatus) *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     mustDecimal(price),
		Stock:     10,
		Category:  "Crafts",
		SellerID:  "RSH001",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
