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

// SessionKeyPrefix is prepended to the session id to form the profile key
const SessionKeyPrefix = "libmarketplace_user:"

var ErrNotFound = errors.New("not found in store")

// SessionStore persists the user profile bound to a session
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed SessionStore. Every save refreshes
// the ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return SessionKeyPrefix + sessionID
}

func (s *redisSessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.User == nil {
		return errors.New("cannot save a session without id or user")
	}

	data, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to marshal session profile: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	user := &domain.User{}
	if err := json.Unmarshal(data, user); err != nil {
		_ = s.Delete(ctx, sessionID)
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}

	return &domain.Session{ID: sessionID, User: user}, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
