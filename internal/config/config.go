package config

import (
	"fmt"
	"net/netip"
	"time"

	pkgconfig "github.com/utafrali/gomarketplace/pkg/config"
)

// Store backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Storage
	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`
	StorageKey   string `env:"CART_STORAGE_KEY" envDefault:"@GoMarketplace:cart"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours, 0 keeps the cart forever.
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"gomarketplace"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"gomarketplace"`
	PostgresDB   string `env:"CART_DB_NAME" envDefault:"cart_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Persistence
	LoadTimeoutMs    int `env:"CART_LOAD_TIMEOUT_MS" envDefault:"5000"`
	PersistTimeoutMs int `env:"PERSIST_TIMEOUT_MS" envDefault:"5000"`
	RetryBaseMs      int `env:"PERSIST_RETRY_BASE_MS" envDefault:"200"`
	RetryMaxMs       int `env:"PERSIST_RETRY_MAX_MS" envDefault:"10000"`
	MaxAttempts      int `env:"PERSIST_MAX_ATTEMPTS" envDefault:"5"`

	// Circuit breaker around store writes
	BreakerEnabled      bool    `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerMaxRequests  uint32  `env:"BREAKER_MAX_REQUESTS" envDefault:"1"`
	BreakerInterval     int     `env:"BREAKER_INTERVAL_SECONDS" envDefault:"60"`
	BreakerTimeout      int     `env:"BREAKER_TIMEOUT_SECONDS" envDefault:"30"`
	BreakerFailureRatio float64 `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32  `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := pkgconfig.Parse[Config]()
	if err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StoreBackend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY is required")
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative")
	}
	if c.PersistTimeoutMs <= 0 || c.LoadTimeoutMs <= 0 {
		return fmt.Errorf("CART_LOAD_TIMEOUT_MS and PERSIST_TIMEOUT_MS must be positive")
	}
	if c.RetryBaseMs <= 0 || c.RetryMaxMs < c.RetryBaseMs {
		return fmt.Errorf("PERSIST_RETRY_BASE_MS must be positive and not above PERSIST_RETRY_MAX_MS")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("PERSIST_MAX_ATTEMPTS must be at least 1")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.BreakerFailureRatio)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for _, cidr := range c.PprofAllowedCIDRs {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			return fmt.Errorf("invalid PPROF_ALLOWED_CIDRS entry %q: %w", cidr, err)
		}
	}
	return nil
}

// CartTTLDuration returns the Redis TTL for the cart key.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// LoadTimeout bounds the initial cart load.
func (c *Config) LoadTimeout() time.Duration { return ms(c.LoadTimeoutMs) }

// PersistTimeout bounds each snapshot write.
func (c *Config) PersistTimeout() time.Duration { return ms(c.PersistTimeoutMs) }

// RetryBase is the first backoff after a failed write.
func (c *Config) RetryBase() time.Duration { return ms(c.RetryBaseMs) }

// RetryMax caps the write backoff.
func (c *Config) RetryMax() time.Duration { return ms(c.RetryMaxMs) }
