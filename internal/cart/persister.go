package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/gomarketplace/internal/domain"
	"github.com/utafrali/gomarketplace/internal/store"
)

// persister writes snapshots to the store from a single goroutine. It keeps
// only the latest unwritten snapshot, so a burst of mutations costs one write,
// and it never writes a version lower than one already written.
type persister struct {
	store  store.Store
	logger *slog.Logger
	opts   options

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	pending   *domain.Cart
	issued    uint64
	written   uint64
	settled   uint64
	settledCh chan struct{}
}

func newPersister(st store.Store, logger *slog.Logger, opts options) *persister {
	ctx, cancel := context.WithCancel(context.Background())
	p := &persister{
		store:     st,
		logger:    logger,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		settledCh: make(chan struct{}),
	}
	go p.run()
	return p
}

// schedule replaces the pending snapshot. It never blocks.
func (p *persister) schedule(c domain.Cart) {
	p.mu.Lock()
	if p.pending != nil {
		persistSupersededTotal.Inc()
	}
	p.pending = &c
	if v := c.Version(); v > p.issued {
		p.issued = v
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		if job, ok := p.take(); ok {
			p.write(job)
			continue
		}
		select {
		case <-p.wake:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *persister) take() (domain.Cart, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return domain.Cart{}, false
	}
	job := *p.pending
	p.pending = nil
	return job, true
}

func (p *persister) hasPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

func (p *persister) write(job domain.Cart) {
	version := job.Version()

	p.mu.Lock()
	stale := version <= p.written
	p.mu.Unlock()
	if stale {
		persistSupersededTotal.Inc()
		p.settle(version)
		return
	}

	data, err := domain.Marshal(job)
	if err != nil {
		// Not reachable for a valid cart; retrying would fail the same way.
		p.logger.Error("failed to encode cart snapshot",
			slog.Uint64("version", version),
			slog.String("error", err.Error()),
		)
		persistWritesTotal.WithLabelValues("abandoned").Inc()
		p.settle(version)
		return
	}

	for attempt := 1; ; attempt++ {
		if err = p.save(data); err == nil {
			persistWritesTotal.WithLabelValues("success").Inc()
			p.mu.Lock()
			p.written = version
			p.mu.Unlock()
			p.settle(version)
			p.logger.Debug("cart snapshot persisted",
				slog.Uint64("version", version),
				slog.Int("items", job.Len()),
			)
			return
		}

		persistWritesTotal.WithLabelValues("error").Inc()
		if attempt >= p.opts.maxAttempts || p.ctx.Err() != nil {
			persistWritesTotal.WithLabelValues("abandoned").Inc()
			p.logger.Error("giving up on cart snapshot write",
				slog.Uint64("version", version),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			p.settle(version)
			return
		}

		wait := p.opts.retry.Delay(attempt - 1)
		p.logger.Warn("cart snapshot write failed, retrying",
			slog.Uint64("version", version),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.opts.maxAttempts),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)

		if superseded := p.waitRetry(wait); superseded {
			persistSupersededTotal.Inc()
			p.settle(version)
			return
		}
		if p.ctx.Err() != nil {
			persistWritesTotal.WithLabelValues("abandoned").Inc()
			p.settle(version)
			return
		}
	}
}

// waitRetry sleeps for d and reports whether a newer snapshot arrived in the
// meantime.
func (p *persister) waitRetry(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return p.hasPending()
	case <-p.wake:
		if p.hasPending() {
			return true
		}
		// Spurious wake; finish the wait.
		select {
		case <-timer.C:
		case <-p.ctx.Done():
		}
		return p.hasPending()
	case <-p.ctx.Done():
		return false
	}
}

func (p *persister) save(data []byte) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.opts.writeTimeout)
	defer cancel()

	start := time.Now()
	err := p.store.Save(ctx, data)
	persistWriteDuration.Observe(time.Since(start).Seconds())
	return err
}

func (p *persister) settle(version uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if version <= p.settled {
		return
	}
	p.settled = version
	close(p.settledCh)
	p.settledCh = make(chan struct{})
}

// flush waits until every snapshot issued before the call has been written,
// superseded or abandoned.
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	target := p.issued
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.settled >= target {
			p.mu.Unlock()
			return nil
		}
		ch := p.settledCh
		p.mu.Unlock()

		select {
		case <-ch:
		case <-p.done:
			return context.Canceled
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// stop cancels any in-flight write and waits for the goroutine to exit.
func (p *persister) stop() {
	p.cancel()
	<-p.done
}
