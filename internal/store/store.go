package store

import (
	"context"
)

// DefaultKey is the well-known key the session cart is stored under.
const DefaultKey = "@GoMarketplace:cart"

// Store persists the serialized session cart under a single key.
type Store interface {
	// Load returns the stored payload. A missing key is reported as an error
	// wrapping apperrors.ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces whatever is stored under the key.
	Save(ctx context.Context, data []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
