package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "statues/internal/errors"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions in Redis with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// Ensure RedisSessionStore implements SessionStore
var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a new Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Save stores the session as JSON under session:<id>.
func (s *RedisSessionStore) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w: %v", apperrors.ErrUnavailable, err)
	}
	return nil
}

// Get loads a session. Redis outages are reported as ErrUnavailable, not as a missing session.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w: %v", apperrors.ErrUnavailable, err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session from Redis.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w: %v", apperrors.ErrUnavailable, err)
	}
	return nil
}
