package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/gomarketplace/internal/store"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8003, cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, store.DefaultKey, cfg.StorageKey)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Zero(t, cfg.CartTTLDuration())
	assert.Equal(t, 5*time.Second, cfg.LoadTimeout())
	assert.Equal(t, 5*time.Second, cfg.PersistTimeout())
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBase())
	assert.Equal(t, 10*time.Second, cfg.RetryMax())
	assert.False(t, cfg.KafkaEnabled)
	assert.True(t, cfg.BreakerEnabled)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("CART_STORAGE_KEY", "session:42")
	t.Setenv("CART_TTL_HOURS", "168")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "session:42", cfg.StorageKey)
	assert.Equal(t, 168*time.Hour, cfg.CartTTLDuration())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port", map[string]string{"CART_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"backend", map[string]string{"STORE_BACKEND": "sqlite"}, "unknown STORE_BACKEND"},
		{"ttl", map[string]string{"CART_TTL_HOURS": "-1"}, "CART_TTL_HOURS"},
		{"retry", map[string]string{"PERSIST_RETRY_BASE_MS": "500", "PERSIST_RETRY_MAX_MS": "100"}, "PERSIST_RETRY_BASE_MS"},
		{"attempts", map[string]string{"PERSIST_MAX_ATTEMPTS": "0"}, "PERSIST_MAX_ATTEMPTS"},
		{"breaker ratio", map[string]string{"BREAKER_FAILURE_RATIO": "1.5"}, "BREAKER_FAILURE_RATIO"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"pprof cidr", map[string]string{"PPROF_ALLOWED_CIDRS": "not-a-cidr"}, "PPROF_ALLOWED_CIDRS"},
		{"bad int", map[string]string{"REDIS_DB": "abc"}, "load cart config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
