package service

import (
	"context"
	"testing"

	"libmarket/internal/domain"
	"libmarket/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	carts     *mockCartStore
	products  *mockProductRepository
	publisher *mockPublisher
	service   CartService
}

func newCartFixture(products ...*domain.Product) *cartFixture {
	f := &cartFixture{
		carts:     newMockCartStore(),
		products:  newMockProductRepository(products...),
		publisher: newMockPublisher(),
	}
	f.service = NewCartService(f.carts, f.products, f.publisher, testLogger)
	return f
}

func TestCartService_TotalsAcrossOperations(t *testing.T) {
	kente := testProduct("Traditional Kente Cloth", "89.99", domain.ProductActive)
	coffee := testProduct("Nimba County Coffee", "24.99", domain.ProductActive)
	f := newCartFixture(kente, coffee)
	ctx := context.Background()

	_, err := f.service.AddToCart(ctx, "sid", kente.ID)
	require.NoError(t, err)
	_, err = f.service.AddToCart(ctx, "sid", coffee.ID)
	require.NoError(t, err)
	cart, err := f.service.AddToCart(ctx, "sid", kente.ID)
	require.NoError(t, err)

	assert.Equal(t, "204.97", cart.TotalString())
	assert.Equal(t, 3, cart.ItemCount())
	assert.Equal(t, 2, cart.Len())

	cart, err = f.service.UpdateQuantity(ctx, "sid", coffee.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "279.94", cart.TotalString())

	cart, err = f.service.RemoveFromCart(ctx, "sid", kente.ID)
	require.NoError(t, err)
	assert.Equal(t, "99.96", cart.TotalString())

	stored, err := f.service.GetCart(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, cart.Lines, stored.Lines)
}

func TestCartService_SessionsAreIsolated(t *testing.T) {
	oil := testProduct("Pure Palm Oil", "19.99", domain.ProductActive)
	f := newCartFixture(oil)
	ctx := context.Background()

	_, err := f.service.AddToCart(ctx, "first", oil.ID)
	require.NoError(t, err)

	other, err := f.service.GetCart(ctx, "second")
	require.NoError(t, err)
	assert.Zero(t, other.Len())
}

func TestCartService_AddRequiresActiveProduct(t *testing.T) {
	pending := testProduct("Talking Drum", "125.00", domain.ProductPending)
	f := newCartFixture(pending)
	ctx := context.Background()

	_, err := f.service.AddToCart(ctx, "sid", pending.ID)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = f.service.AddToCart(ctx, "sid", uuid.New())
	assert.ErrorIs(t, err, ErrProductUnavailable)

	cart, err := f.service.GetCart(ctx, "sid")
	require.NoError(t, err)
	assert.Zero(t, cart.Len())
}

func TestCartService_AbsentLinesLeaveCartUnchanged(t *testing.T) {
	oil := testProduct("Pure Palm Oil", "19.99", domain.ProductActive)
	f := newCartFixture(oil)
	ctx := context.Background()

	before, err := f.service.AddToCart(ctx, "sid", oil.ID)
	require.NoError(t, err)

	after, err := f.service.RemoveFromCart(ctx, "sid", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, before.Lines, after.Lines)

	after, err = f.service.UpdateQuantity(ctx, "sid", uuid.New(), 7)
	require.NoError(t, err)
	assert.Equal(t, before.Lines, after.Lines)

	// only the add was written
	assert.Equal(t, 1, f.carts.saves)
}

func TestCartService_ZeroQuantityRemovesLine(t *testing.T) {
	oil := testProduct("Pure Palm Oil", "19.99", domain.ProductActive)
	f := newCartFixture(oil)
	ctx := context.Background()

	_, err := f.service.AddToCart(ctx, "sid", oil.ID)
	require.NoError(t, err)

	cart, err := f.service.UpdateQuantity(ctx, "sid", oil.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, cart.Len())
	assert.Equal(t, "0.00", cart.TotalString())

	_, err = f.service.AddToCart(ctx, "sid", oil.ID)
	require.NoError(t, err)
	cart, err = f.service.UpdateQuantity(ctx, "sid", oil.ID, -1)
	require.NoError(t, err)
	assert.Zero(t, cart.Len())
}

func TestCartService_CheckoutPublishesAndClears(t *testing.T) {
	elephant := testProduct("Carved Wooden Elephant", "45.00", domain.ProductActive)
	f := newCartFixture(elephant)
	ctx := context.Background()
	session := &domain.Session{ID: "sid", User: testUser(domain.Buyer{BuyerID: "BUY001"}, domain.StatusVerified)}

	_, err := f.service.AddToCart(ctx, session.ID, elephant.ID)
	require.NoError(t, err)
	_, err = f.service.UpdateQuantity(ctx, session.ID, elephant.ID, 2)
	require.NoError(t, err)

	receipt, err := f.service.Checkout(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "90.00", receipt.Total)
	assert.Equal(t, 2, receipt.ItemCount)
	require.Len(t, receipt.Lines, 1)

	cart, err := f.service.GetCart(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, cart.Len())

	f.publisher.AssertCalled(t, "Publish", mock.Anything, events.SubjectCartCheckedOut,
		mock.MatchedBy(func(e events.CheckoutEvent) bool {
			return e.Total == "90.00" && e.ItemCount == 2 && e.UserID == session.User.ID
		}))
}

func TestCartService_EmptyCheckoutDoesNotPublish(t *testing.T) {
	f := newCartFixture()
	session := &domain.Session{ID: "sid", User: testUser(domain.Buyer{BuyerID: "BUY001"}, domain.StatusPending)}

	receipt, err := f.service.Checkout(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "0.00", receipt.Total)
	assert.Zero(t, receipt.ItemCount)

	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_Reset(t *testing.T) {
	oil := testProduct("Pure Palm Oil", "19.99", domain.ProductActive)
	f := newCartFixture(oil)
	ctx := context.Background()

	_, err := f.service.AddToCart(ctx, "sid", oil.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Reset(ctx, "sid"))

	cart, err := f.service.GetCart(ctx, "sid")
	require.NoError(t, err)
	assert.Zero(t, cart.Len())
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
