// Package redis provides a Redis-backed driven.TransientStore, for running
// the hand-off slot outside the process, e.g. when several chatrelay
// servers share one browser.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure TransientStore implements the interface.
var _ driven.TransientStore = (*TransientStore)(nil)

// keyPrefix namespaces chatrelay keys in a shared database.
const keyPrefix = "chatrelay:"

// DefaultTTL expires a payload that was never consumed.
const DefaultTTL = time.Hour

// TransientStore keeps slot values as plain Redis strings.
type TransientStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTransientStore connects to the Redis server at addr.
// A ttl of zero keeps values until they are replaced or deleted.
func NewTransientStore(addr string, ttl time.Duration) *TransientStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &TransientStore{client: rdb, ttl: ttl}
}

// Ping checks the server is reachable.
func (s *TransientStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failure: %w", err)
	}
	return nil
}

// Put stores value under key, replacing any previous value.
func (s *TransientStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failure: %w", err)
	}
	return nil
}

// Get returns the value under key.
func (s *TransientStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failure: %w", err)
	}
	return value, nil
}

// Delete removes key.
func (s *TransientStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del failure: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *TransientStore) Close() error {
	return s.client.Close()
}
