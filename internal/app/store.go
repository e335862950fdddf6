package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/gomarketplace/internal/config"
	"github.com/utafrali/gomarketplace/internal/store"
	"github.com/utafrali/gomarketplace/internal/store/breaker"
	"github.com/utafrali/gomarketplace/internal/store/memory"
	pgstore "github.com/utafrali/gomarketplace/internal/store/postgres"
	"github.com/utafrali/gomarketplace/internal/store/postgres/migrations"
	redisstore "github.com/utafrali/gomarketplace/internal/store/redis"
	"github.com/utafrali/gomarketplace/pkg/database"
)

// openStore connects the configured backend. The returned close function
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	var (
		st      store.Store
		closeFn = func() {}
	)

	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPass,
			DB:           cfg.RedisDB,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		st = redisstore.New(rdb, cfg.StorageKey, cfg.CartTTLDuration())
		closeFn = func() {
			if err := rdb.Close(); err != nil {
				logger.Error("redis close error", slog.String("error", err.Error()))
			}
		}

	case config.BackendPostgres:
		pgCfg := database.PostgresConfig{
			Host:            cfg.PostgresHost,
			Port:            cfg.PostgresPort,
			User:            cfg.PostgresUser,
			Password:        cfg.PostgresPass,
			DBName:          cfg.PostgresDB,
			SSLMode:         cfg.PostgresSSL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
			MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
		}
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "cart"); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		st = pgstore.New(pool, cfg.StorageKey)
		closeFn = pool.Close

	case config.BackendMemory:
		logger.Warn("using in-memory cart store, the cart will not survive a restart")
		st = memory.New(nil, cfg.StorageKey)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.BreakerEnabled {
		st = breaker.New(st, breakerConfig(cfg), logger)
	}

	return st, closeFn, nil
}

// breakerConfig starts from the breaker defaults and overrides only the
// settings given in the environment.
func breakerConfig(cfg *config.Config) breaker.Config {
	bc := breaker.DefaultConfig("cart-store-" + cfg.StoreBackend)
	if cfg.BreakerMaxRequests > 0 {
		bc.MaxRequests = cfg.BreakerMaxRequests
	}
	if cfg.BreakerInterval > 0 {
		bc.Interval = time.Duration(cfg.BreakerInterval) * time.Second
	}
	if cfg.BreakerTimeout > 0 {
		bc.Timeout = time.Duration(cfg.BreakerTimeout) * time.Second
	}
	if cfg.BreakerFailureRatio > 0 {
		bc.FailureRatio = cfg.BreakerFailureRatio
	}
	if cfg.BreakerMinRequests > 0 {
		bc.MinRequests = cfg.BreakerMinRequests
	}
	return bc
}
