package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/gomarketplace/internal/cart"
	"github.com/utafrali/gomarketplace/pkg/health"
	"github.com/utafrali/gomarketplace/pkg/middleware"
)

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	PprofCIDRs []string
	CORS       middleware.CORSConfig
}

// NewRouter creates a chi router with all cart routes registered.
func NewRouter(
	manager *cart.Manager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart"))
	r.Use(middleware.Tracing("cart"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(WithManager(manager))

		// The stream is long-lived and must not be compressed or timed out.
		r.Get("/stream", cartHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(30 * time.Second))
			r.Use(ContentTypeJSON)

			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{id}/increment", cartHandler.IncrementItem)
			r.Post("/items/{id}/decrement", cartHandler.DecrementItem)
		})
	})

	return r
}
