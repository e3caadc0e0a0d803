// Package cache provides TTL-backed views of remote list resources.
//
// Each resource follows the dashboard's consistency model: fetch on first
// read, serve cached data until the TTL lapses or a mutation invalidates it,
// overwrite wholesale on refetch (last write wins, no merging). A failed
// refetch keeps the previous value so the caller can render it as a
// fallback alongside the error.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/covergrid/docqa-console/pkg/metrics"
)

// Defaults applied when a resource is created with zero values.
const (
	DefaultTTL          = 30 * time.Second
	DefaultFetchRetries = 2
	retryBackoff        = 250 * time.Millisecond
)

// FetchFunc loads the current remote value.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Resource is a cached view of one remote resource.
// It is safe for concurrent use.
type Resource[T any] struct {
	name    string
	fetch   FetchFunc[T]
	ttl     time.Duration
	retries int
	log     *slog.Logger

	mu        sync.Mutex
	value     T
	hasValue  bool
	fetchedAt time.Time
	inflight  chan struct{} // non-nil while a fetch is running

	cancel context.CancelFunc
	done   chan struct{}
}

// Config tunes a resource.
type Config struct {
	// TTL is how long a fetched value stays fresh.
	TTL time.Duration

	// FetchRetries is how many extra attempts a failed fetch gets before
	// the error is surfaced.
	FetchRetries int

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a cached resource named name over fetch.
func New[T any](name string, fetch FetchFunc[T], cfg Config) *Resource[T] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 0
	} else if cfg.FetchRetries == 0 {
		cfg.FetchRetries = DefaultFetchRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resource[T]{
		name:    name,
		fetch:   fetch,
		ttl:     cfg.TTL,
		retries: cfg.FetchRetries,
		log:     cfg.Logger,
	}
}

// Get returns the cached value, refetching when stale or absent. When the
// refetch fails and a previous value exists, that value is returned together
// with the error so callers can render it as a fallback.
func (r *Resource[T]) Get(ctx context.Context) (T, error) {
	for {
		r.mu.Lock()
		if r.hasValue && time.Since(r.fetchedAt) < r.ttl {
			v := r.value
			r.mu.Unlock()
			return v, nil
		}
		if ch := r.inflight; ch != nil {
			r.mu.Unlock()
			select {
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			case <-ch:
				continue // re-read under lock
			}
		}
		ch := make(chan struct{})
		r.inflight = ch
		r.mu.Unlock()

		value, err := r.fetchWithRetry(ctx)

		r.mu.Lock()
		r.inflight = nil
		if err == nil {
			r.value = value
			r.hasValue = true
			r.fetchedAt = time.Now()
		}
		stale := r.value
		hadValue := r.hasValue
		r.mu.Unlock()
		close(ch)

		if err != nil {
			if hadValue {
				return stale, err
			}
			var zero T
			return zero, err
		}
		return value, nil
	}
}

// fetchWithRetry runs the fetch with the configured bounded retry count.
func (r *Resource[T]) fetchWithRetry(ctx context.Context) (T, error) {
	var (
		value T
		err   error
	)
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return value, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		value, err = r.fetch(ctx)
		if err == nil {
			metrics.CacheFetches.WithLabelValues(r.name, metrics.OutcomeOK).Inc()
			return value, nil
		}
		r.log.Warn("cache fetch failed", "resource", r.name, "attempt", attempt+1, "error", err)
	}
	metrics.CacheFetches.WithLabelValues(r.name, metrics.OutcomeError).Inc()
	return value, err
}

// Invalidate discards freshness so the next Get refetches. The previous
// value remains available as fallback data.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

// Refresh forces a refetch regardless of freshness.
func (r *Resource[T]) Refresh(ctx context.Context) (T, error) {
	r.Invalidate()
	return r.Get(ctx)
}

// StartPolling refetches the resource at the given interval until Close is
// called. Poll failures are logged and the cached value retained.
func (r *Resource[T]) StartPolling(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
					r.log.Warn("poll refresh failed", "resource", r.name, "error", err)
				}
			}
		}
	}()
}

// Close stops the polling goroutine, if any.
func (r *Resource[T]) Close() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
