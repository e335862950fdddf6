package cart

import (
	"time"

	"github.com/utafrali/gomarketplace/pkg/backoff"
)

const (
	DefaultLoadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	DefaultMaxAttempts  = 5
)

type options struct {
	loadTimeout  time.Duration
	writeTimeout time.Duration
	retry        backoff.Policy
	maxAttempts  int
}

func defaultOptions() options {
	return options{
		loadTimeout:  DefaultLoadTimeout,
		writeTimeout: DefaultWriteTimeout,
		retry:        backoff.Exponential(200*time.Millisecond, 10*time.Second),
		maxAttempts:  DefaultMaxAttempts,
	}
}

// Option configures a Manager.
type Option func(*options)

// WithLoadTimeout bounds the initial Load.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.loadTimeout = d
		}
	}
}

// WithWriteTimeout bounds each Save attempt.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithRetry sets the backoff between failed writes.
func WithRetry(p backoff.Policy) Option {
	return func(o *options) {
		if p.Base > 0 {
			o.retry = p
		}
	}
}

// WithMaxAttempts caps how many times one snapshot is written before it is
// abandoned. The next mutation writes the whole cart again.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}
