package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libmarket/internal/events"
	"libmarket/internal/middleware"
	"libmarket/internal/service"
	"libmarket/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testAPI is the full HTTP surface over in-memory repositories and a
// miniredis session store, seeded with the demo data
type testAPI struct {
	router   http.Handler
	users    *mockUserRepository
	products *mockProductRepository
	offers   *mockOfferRepository
	auth     service.AuthService
}

func newTestAPI(t *testing.T, requireVerified bool) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	api := &testAPI{
		users:    newMockUserRepository(),
		products: newMockProductRepository(),
		offers:   newMockOfferRepository(),
	}
	require.NoError(t, service.NewSeeder(api.users, api.products, logger).Seed(context.Background()))

	sessions := store.NewSessionStore(client, time.Hour)
	carts := store.NewCartStore(client, time.Hour)
	publisher := events.NopPublisher{}

	api.auth = service.NewAuthService(api.users, sessions, carts, "test-secret", time.Hour, logger)
	catalog := service.NewCatalogService(api.products, logger)

	guards := Guards{
		Authenticate: middleware.AuthMiddleware(api.auth, logger),
		Verified:     middleware.RequireVerified(requireVerified, logger),
	}

	router := chi.NewRouter()
	NewUserHandler(api.auth, logger).RegisterRoutes(router, guards)
	NewProductHandler(catalog, logger).RegisterRoutes(router)
	NewCartHandler(service.NewCartService(carts, api.products, publisher, logger), logger).RegisterRoutes(router, guards)
	NewOfferHandler(service.NewOfferService(api.offers, api.products, publisher, logger), logger).RegisterRoutes(router, guards)
	NewSellerHandler(catalog, logger).RegisterRoutes(router, guards)
	NewAdminHandler(service.NewAdminService(api.users, api.products, api.offers, publisher, logger), logger).RegisterRoutes(router, guards)
	api.router = router

	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	w := a.do(t, "POST", "/api/users/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (a *testAPI) buyerToken(t *testing.T) string {
	return a.login(t, "buyer@test.com", service.DemoPassword)
}

func (a *testAPI) sellerToken(t *testing.T) string {
	return a.login(t, "reviveshine@mylibmarketplace.com", service.DemoPassword)
}

func (a *testAPI) adminToken(t *testing.T) string {
	return a.login(t, "admin@mylibmarketplace.com", service.DemoPassword)
}

// productID finds a seeded product by name
func (a *testAPI) productID(t *testing.T, name string) uuid.UUID {
	t.Helper()
	a.products.mu.Lock()
	defer a.products.mu.Unlock()
	for id, p := range a.products.products {
		if p.Name == name {
			return id
		}
	}
	t.Fatalf("no product named %q", name)
	return uuid.Nil
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// errorMessage returns error.message from an error response
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.ErrorResponse
	decodeJSON(t, w, &resp)
	return resp.Error.Message
}
