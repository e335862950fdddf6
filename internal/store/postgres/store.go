package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/gomarketplace/pkg/database"
	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

const (
	selectSnapshotSQL = `SELECT payload FROM cart_snapshots WHERE storage_key = $1`
	upsertSnapshotSQL = `INSERT INTO cart_snapshots (storage_key, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (storage_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// Store implements store.Store on the cart_snapshots table, one row per key.
type Store struct {
	pool database.DBTX
	key  string
}

// New creates a PostgreSQL-backed store.
func New(pool database.DBTX, key string) *Store {
	return &Store{pool: pool, key: key}
}

// Load reads the payload row for the key.
func (s *Store) Load(ctx context.Context) (data []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "LoadCartSnapshot", selectSnapshotSQL)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	err = s.pool.QueryRow(ctx, selectSnapshotSQL, s.key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart", s.key)
		}
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}
	return data, nil
}

// Save upserts the payload row for the key.
func (s *Store) Save(ctx context.Context, data []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "SaveCartSnapshot", upsertSnapshotSQL)
	defer func() { end(err) }()

	if _, err = s.pool.Exec(ctx, upsertSnapshotSQL, s.key, data); err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}
