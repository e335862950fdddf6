package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Option adjusts how Parse reads variables.
type Option func(*env.Options)

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) { o.Prefix = prefix }
}

// WithEnvironment reads from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) { o.Environment = vars }
}

// Parse builds a T from `env` and `envDefault` struct tags.
//
//	type Config struct {
//	    Port     int    `env:"CART_HTTP_PORT" envDefault:"8003"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
//	cfg, err := config.Parse[Config]()
func Parse[T any](opts ...Option) (*T, error) {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	cfg := new(T)
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
