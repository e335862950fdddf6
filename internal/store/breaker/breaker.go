// Package breaker guards a store's writes with a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/gomarketplace/internal/store"
	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

// ErrOpen is returned by Save while the breaker rejects writes.
var ErrOpen = gobreaker.ErrOpenState

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "cart_store_breaker_state",
		Help: "Current state of the store circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

// Config holds the breaker settings.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of trial writes allowed while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. 0 never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once reached, after MinRequests writes.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Store wraps another store.Store. Only Save goes through the breaker; Load
// runs once at startup and Ping must keep reporting the real backend state.
type Store struct {
	next    store.Store
	breaker *gobreaker.CircuitBreaker[struct{}]
	name    string
}

// New wraps next with a circuit breaker built from cfg.
func New(next store.Store, cfg Config, logger *slog.Logger) *Store {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Store{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		name:    cfg.Name,
	}
}

// Load reads straight from the wrapped store.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	return s.next.Load(ctx)
}

// Save writes through the breaker. While open, it fails fast with an error
// wrapping both ErrOpen and apperrors.ErrServiceUnavail.
func (s *Store) Save(ctx context.Context, data []byte) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Save(ctx, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Unavailable("cart store "+s.name+" unavailable", err)
	}
	return err
}

// Ping checks the wrapped store.
func (s *Store) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// State returns the current breaker state.
func (s *Store) State() gobreaker.State {
	return s.breaker.State()
}
