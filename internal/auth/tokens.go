package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when no credential is stored for a viewer.
var ErrTokenNotFound = errors.New("auth token not found")

// TokenProvider hands out the opaque credential attached to scan requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same credential.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", ErrTokenNotFound
	}
	return string(t), nil
}

// RedisTokenStore keeps per-viewer credentials in Redis.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisTokenStore(client *redis.Client, prefix string, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisTokenStore) key(viewerID string) string {
	return s.prefix + viewerID
}

// Save stores the credential for a viewer, refreshing its TTL.
func (s *RedisTokenStore) Save(ctx context.Context, viewerID, token string) error {
	if err := s.client.Set(ctx, s.key(viewerID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Load(ctx context.Context, viewerID string) (string, error) {
	token, err := s.client.Get(ctx, s.key(viewerID)).Result()
	if err == redis.Nil {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load auth token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, viewerID string) error {
	if err := s.client.Del(ctx, s.key(viewerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}

// ForViewer binds the store to one viewer so it can be injected as a
// TokenProvider.
func (s *RedisTokenStore) ForViewer(viewerID string) TokenProvider {
	return viewerToken{store: s, viewerID: viewerID}
}

type viewerToken struct {
	store    *RedisTokenStore
	viewerID string
}

func (v viewerToken) Token(ctx context.Context) (string, error) {
	return v.store.Load(ctx, v.viewerID)
}
