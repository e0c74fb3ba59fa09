package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"libmarket/internal/config"
	"libmarket/internal/database"
	"libmarket/internal/events"
	custommiddleware "libmarket/internal/middleware"
	"libmarket/internal/repository"
	"libmarket/internal/service"
	"libmarket/internal/store"
	"libmarket/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitPrefix = "ratelimit"

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	db        database.Service
	redis     *redis.Client
	publisher events.Publisher
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, publisher events.Publisher) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(middleware.Recoverer)
	router.Use(custommiddleware.CORSMiddleware(cfg))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	limits := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         rateLimitPrefix,
	}
	rateLimit := custommiddleware.RateLimitMiddleware(redisClient, limits, logger)

	// Anonymous callers are limited per address
	router.Use(rateLimit)

	// Health check endpoint
	router.Get("/health", healthHandler(db, redisClient))

	// Initialize stores
	sessions := store.NewSessionStore(redisClient, cfg.Session.TTL)
	carts := store.NewCartStore(redisClient, cfg.Session.TTL)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	offerRepo := repository.NewOfferRepository(db.DB())

	// Initialize services
	accessExpiry := time.Duration(cfg.JWT.AccessExpiry) * time.Minute
	authService := service.NewAuthService(userRepo, sessions, carts, cfg.JWT.Secret, accessExpiry, logger)
	catalogService := service.NewCatalogService(productRepo, logger)
	cartService := service.NewCartService(carts, productRepo, publisher, logger)
	offerService := service.NewOfferService(offerRepo, productRepo, publisher, logger)
	adminService := service.NewAdminService(userRepo, productRepo, offerRepo, publisher, logger)

	// Authenticated callers are additionally limited per session
	authenticate := custommiddleware.AuthMiddleware(authService, logger)
	guards := transport.Guards{
		Authenticate: func(next http.Handler) http.Handler {
			return authenticate(rateLimit(next))
		},
		Verified: custommiddleware.RequireVerified(cfg.Market.RequireVerified, logger),
	}

	// Register routes
	transport.NewUserHandler(authService, logger).RegisterRoutes(router, guards)
	transport.NewProductHandler(catalogService, logger).RegisterRoutes(router)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, guards)
	transport.NewOfferHandler(offerService, logger).RegisterRoutes(router, guards)
	transport.NewSellerHandler(catalogService, logger).RegisterRoutes(router, guards)
	transport.NewAdminHandler(adminService, logger).RegisterRoutes(router, guards)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:    cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}

	return server
}

// healthHandler reports database and redis reachability. Either one down
// makes the whole service unavailable.
func healthHandler(db database.Service, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		dbHealth := db.Health()
		redisStatus := "up"
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}

		status, code := "ok", http.StatusOK
		if dbHealth["status"] != "up" || redisStatus != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		custommiddleware.RespondWithJSON(w, code, map[string]interface{}{
			"status":   status,
			"database": dbHealth,
			"redis":    redisStatus,
		})
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.publisher.Close()

	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis connection", zap.Error(err))
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
