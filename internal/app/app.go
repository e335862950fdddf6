package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/utafrali/gomarketplace/internal/cart"
	"github.com/utafrali/gomarketplace/internal/config"
	"github.com/utafrali/gomarketplace/internal/event"
	handler "github.com/utafrali/gomarketplace/internal/handler/http"
	"github.com/utafrali/gomarketplace/pkg/backoff"
	"github.com/utafrali/gomarketplace/pkg/health"
	pkgkafka "github.com/utafrali/gomarketplace/pkg/kafka"
	"github.com/utafrali/gomarketplace/pkg/middleware"
	"github.com/utafrali/gomarketplace/pkg/tracing"
)

// Shutdown budgets, one per phase.
const (
	httpShutdownTimeout   = 10 * time.Second
	flushTimeout          = 10 * time.Second
	tracerShutdownTimeout = 5 * time.Second
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	manager        *cart.Manager
	closeStore     func()
	producer       *pkgkafka.Producer
	relay          *event.Relay
	relayDone      chan struct{}
	httpServer     *http.Server
	listening      chan struct{}
	addr           net.Addr
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "cart",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       true,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	manager, err := cart.Open(ctx, st, logger,
		cart.WithLoadTimeout(cfg.LoadTimeout()),
		cart.WithWriteTimeout(cfg.PersistTimeout()),
		cart.WithRetry(backoff.Exponential(cfg.RetryBase(), cfg.RetryMax())),
		cart.WithMaxAttempts(cfg.MaxAttempts),
	)
	if err != nil {
		closeStore()
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("open cart: %w", err)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("store", manager.Ping)

	a := &App{
		cfg:            cfg,
		logger:         logger,
		manager:        manager,
		closeStore:     closeStore,
		tracerShutdown: tracerShutdown,
	}

	// Kafka is optional; without it snapshots are only persisted.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.relay = event.NewRelay(manager, event.NewProducer(a.producer, cfg.StorageKey, logger), logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(manager, healthHandler, logger, handler.RouterConfig{
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		CORS:       corsCfg,
	})

	// Request contexts derive from baseCtx, cancelled when shutdown begins so
	// open snapshot streams end instead of holding Shutdown open.
	baseCtx, cancelRequests := context.WithCancel(context.Background())

	// No WriteTimeout: the snapshot stream is long-lived.
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	a.httpServer.RegisterOnShutdown(cancelRequests)
	a.listening = make(chan struct{})

	return a, nil
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if a.relay != nil {
		a.relayDone = make(chan struct{})
		go func() {
			defer close(a.relayDone)
			a.relay.Run(context.Background())
		}()
	}

	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		_ = a.Shutdown()
		return fmt.Errorf("http listen: %w", err)
	}
	a.addr = ln.Addr()
	close(a.listening)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.addr.String()),
		)
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. The cart is flushed to the store
// before the store connection is closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancelHTTP()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), flushTimeout)
	defer cancelFlush()

	var flushErr error
	if err := a.manager.Close(flushCtx); err != nil {
		a.logger.Error("cart flush error", slog.String("error", err.Error()))
		flushErr = err
	}

	// Closing the manager ends the relay's subscription.
	if a.relayDone != nil {
		select {
		case <-a.relayDone:
		case <-flushCtx.Done():
			a.logger.Warn("event relay did not stop in time")
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.closeStore()

	tracerCtx, cancelTracer := context.WithTimeout(context.Background(), tracerShutdownTimeout)
	defer cancelTracer()
	if err := a.tracerShutdown(tracerCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return flushErr
}
