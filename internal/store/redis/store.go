package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/gomarketplace/pkg/database"
	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

// Store implements store.Store on a single Redis string key.
type Store struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// New creates a Redis-backed store. A zero ttl stores the cart without expiry.
func New(client redis.UniversalClient, key string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Load reads the payload stored under the key.
func (s *Store) Load(ctx context.Context) (data []byte, err error) {
	ctx, end := database.Trace(ctx, "redis", "LoadCart", "GET")
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	data, err = s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", s.key)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return data, nil
}

// Save writes the payload with the configured TTL.
func (s *Store) Save(ctx context.Context, data []byte) (err error) {
	ctx, end := database.Trace(ctx, "redis", "SaveCart", "SET")
	defer func() { end(err) }()

	if err = s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
