package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int      `env:"TEST_CFG_PORT" envDefault:"8003"`
	Backend string   `env:"TEST_CFG_BACKEND" envDefault:"redis"`
	Brokers []string `env:"TEST_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Enabled bool     `env:"TEST_CFG_ENABLED" envDefault:"false"`
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse[testConfig]()
	require.NoError(t, err)

	assert.Equal(t, 8003, cfg.Port)
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.False(t, cfg.Enabled)
}

func TestParse_FromProcessEnv(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_BACKEND", "postgres")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TEST_CFG_ENABLED", "true")

	cfg, err := Parse[testConfig]()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.True(t, cfg.Enabled)
}

func TestParse_WithEnvironment_IgnoresProcessEnv(t *testing.T) {
	t.Setenv("TEST_CFG_BACKEND", "postgres")

	cfg, err := Parse[testConfig](WithEnvironment(map[string]string{"TEST_CFG_PORT": "7001"}))
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, "redis", cfg.Backend)
}

func TestParse_InvalidType(t *testing.T) {
	_, err := Parse[testConfig](WithEnvironment(map[string]string{"TEST_CFG_PORT": "not-a-number"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type prefixedConfig struct {
	Port int `env:"PORT" envDefault:"1"`
}

func TestParse_WithPrefix(t *testing.T) {
	cfg, err := Parse[prefixedConfig](
		WithPrefix("CART_"),
		WithEnvironment(map[string]string{"CART_PORT": "7000", "PORT": "9"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
}

type requiredConfig struct {
	Key string `env:"TEST_CFG_STORAGE_KEY,required"`
}

func TestParse_RequiredFieldMissing(t *testing.T) {
	_, err := Parse[requiredConfig](WithEnvironment(map[string]string{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
