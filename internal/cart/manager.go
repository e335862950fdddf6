// Package cart owns the session cart: it loads the persisted snapshot once,
// applies mutations one at a time, publishes immutable snapshots to readers
// and mirrors every change to the store in the background.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/utafrali/gomarketplace/internal/domain"
	"github.com/utafrali/gomarketplace/internal/store"
	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

var (
	// ErrNoManager is the panic value when a manager is requested from a
	// context that was never given one.
	ErrNoManager = errors.New("cart manager used outside of an initialized scope")

	// ErrManagerClosed is the panic value when a closed manager is mutated
	// or subscribed to.
	ErrManagerClosed = errors.New("cart manager used after close")
)

// Manager is the single owner of the session cart. Mutations are serialized;
// Snapshot is lock-free.
type Manager struct {
	store     store.Store
	logger    *slog.Logger
	persister *persister

	current atomic.Pointer[domain.Cart]

	mu      sync.Mutex
	version uint64
	closed  bool
	subs    map[*subscriber]struct{}
}

// Open loads the persisted cart and returns a ready manager. A missing,
// unreadable or corrupt snapshot yields an empty cart; Open fails only when
// ctx ends before loading finishes.
func Open(ctx context.Context, st store.Store, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if st == nil {
		return nil, fmt.Errorf("open cart manager: %w", apperrors.InvalidInput("store is required"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	initial, err := load(ctx, st, logger, o)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:     st,
		logger:    logger,
		persister: newPersister(st, logger, o),
		subs:      make(map[*subscriber]struct{}),
	}
	m.current.Store(&initial)
	snapshotVersion.Set(0)

	logger.Info("cart manager ready",
		slog.Int("items", initial.Len()),
		slog.Int("item_count", initial.ItemCount()),
	)
	return m, nil
}

func load(ctx context.Context, st store.Store, logger *slog.Logger, o options) (domain.Cart, error) {
	loadCtx, cancel := context.WithTimeout(ctx, o.loadTimeout)
	defer cancel()

	data, err := st.Load(loadCtx)
	switch {
	case err == nil:
	case apperrors.IsNotFound(err):
		logger.Info("no persisted cart, starting empty")
		return domain.Cart{}, nil
	case ctx.Err() != nil:
		return domain.Cart{}, fmt.Errorf("load cart: %w", ctx.Err())
	default:
		logger.Warn("failed to load persisted cart, starting empty",
			slog.String("error", err.Error()),
		)
		return domain.Cart{}, nil
	}

	c, err := domain.Unmarshal(data)
	if err != nil {
		logger.Warn("persisted cart is corrupt, starting empty",
			slog.String("error", err.Error()),
			slog.Int("bytes", len(data)),
		)
		return domain.Cart{}, nil
	}
	return c.WithVersion(0), nil
}

// Snapshot returns the current cart. It never blocks on mutations.
func (m *Manager) Snapshot() domain.Cart {
	return *m.current.Load()
}

// AddToCart adds one unit of cand. An item already in the cart is
// incremented in place.
func (m *Manager) AddToCart(ctx context.Context, cand domain.Candidate) domain.Cart {
	if cand.ID == "" {
		m.logger.WarnContext(ctx, "ignoring add to cart without an id")
	}
	return m.apply(ctx, "add", cand.ID, func(c domain.Cart) (domain.Cart, bool) {
		return c.Add(cand)
	})
}

// Increment raises the quantity of id by one. Unknown ids are ignored.
func (m *Manager) Increment(ctx context.Context, id string) domain.Cart {
	return m.apply(ctx, "increment", id, func(c domain.Cart) (domain.Cart, bool) {
		return c.Increment(id)
	})
}

// Decrement lowers the quantity of id by one, never below one. Unknown ids
// are ignored.
func (m *Manager) Decrement(ctx context.Context, id string) domain.Cart {
	return m.apply(ctx, "decrement", id, func(c domain.Cart) (domain.Cart, bool) {
		return c.Decrement(id)
	})
}

func (m *Manager) apply(ctx context.Context, op, id string, fn func(domain.Cart) (domain.Cart, bool)) domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		panic(ErrManagerClosed)
	}

	cur := *m.current.Load()
	next, changed := fn(cur)
	if !changed {
		mutationsTotal.WithLabelValues(op, "noop").Inc()
		m.logger.DebugContext(ctx, "cart unchanged",
			slog.String("operation", op),
			slog.String("item_id", id),
		)
		return cur
	}

	m.version++
	next = next.WithVersion(m.version)
	m.current.Store(&next)
	snapshotVersion.Set(float64(m.version))
	mutationsTotal.WithLabelValues(op, "changed").Inc()

	m.persister.schedule(next)
	for s := range m.subs {
		s.offer(next)
	}

	m.logger.DebugContext(ctx, "cart updated",
		slog.String("operation", op),
		slog.String("item_id", id),
		slog.Uint64("version", m.version),
	)
	return next
}

// Subscribe returns a channel that receives the current snapshot immediately
// and then every new one. A slow reader only ever sees the latest snapshot.
// The channel is closed by cancel or by Close.
func (m *Manager) Subscribe() (<-chan domain.Cart, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		panic(ErrManagerClosed)
	}

	s := &subscriber{ch: make(chan domain.Cart, 1)}
	s.offer(*m.current.Load())
	m.subs[s] = struct{}{}

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[s]; ok {
			delete(m.subs, s)
			close(s.ch)
		}
	}
	return s.ch, cancel
}

// Flush waits until every change made so far has been written to the store
// or abandoned after retries.
func (m *Manager) Flush(ctx context.Context) error {
	return m.persister.flush(ctx)
}

// Close flushes pending writes, stops the persister and closes subscriber
// channels. Writes still running when ctx ends are cancelled.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for s := range m.subs {
		delete(m.subs, s)
		close(s.ch)
	}
	m.mu.Unlock()

	err := m.persister.flush(ctx)
	m.persister.stop()
	if err != nil {
		return fmt.Errorf("flush cart: %w", err)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

type subscriber struct {
	ch chan domain.Cart
}

// offer replaces any unread snapshot with c. Only called with Manager.mu held,
// so there is a single sender.
func (s *subscriber) offer(c domain.Cart) {
	for {
		select {
		case s.ch <- c:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
