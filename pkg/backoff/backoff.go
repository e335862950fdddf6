package backoff

import (
	"context"
	"math/rand/v2"
	"time"
)

// DefaultJitter is the fraction of each delay that is randomised (±25%).
const DefaultJitter = 0.25

// Policy describes an exponential backoff: Base, 2*Base, 4*Base, ... capped
// at Max, each delay randomised by ±Jitter.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// Exponential returns a policy with the default jitter.
func Exponential(base, max time.Duration) Policy {
	return Policy{Base: base, Max: max, Jitter: DefaultJitter}
}

// Delay returns the wait before retry number attempt (0-indexed).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if p.Base <= 0 {
		return 0
	}

	d := p.Base
	for i := 0; i < attempt; i++ {
		if p.Max > 0 && d >= p.Max {
			break
		}
		d <<= 1
		if d <= 0 { // overflow
			d = p.Max
			break
		}
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}

	if p.Jitter > 0 {
		d += time.Duration(float64(d) * p.Jitter * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter
	}
	return d
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
