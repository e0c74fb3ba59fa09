package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"libmarket/internal/domain"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// CartStore mirrors a session's cart
type CartStore interface {
	// Get returns the stored cart, or an empty cart if none exists
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type redisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore creates a Redis-backed CartStore
func NewCartStore(client *redis.Client, ttl time.Duration) CartStore {
	return &redisCartStore{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

func (s *redisCartStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(), nil
		}
		return nil, fmt.Errorf("failed to get cart for session %s: %w", sessionID, err)
	}

	cart := domain.NewCart()
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart for session %s: %w", sessionID, err)
	}
	if cart.Lines == nil {
		cart.Lines = make([]domain.CartLine, 0)
	}
	return cart, nil
}

// Save writes the cart with the session TTL. An empty cart removes the key.
func (s *redisCartStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if cart.Len() == 0 {
		return s.Delete(ctx, sessionID)
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart for session %s: %w", sessionID, err)
	}
	return nil
}

func (s *redisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart for session %s: %w", sessionID, err)
	}
	return nil
}
