package cache

import (
	"context"
	"sync"
)

// Keyed is a family of cached resources sharing one fetch strategy, keyed by
// a query parameter such as a company ID. Entries are created lazily on
// first access.
type Keyed[T any] struct {
	name    string
	factory func(key string) FetchFunc[T]
	cfg     Config

	mu      sync.Mutex
	entries map[string]*Resource[T]
}

// NewKeyed creates a keyed resource family. factory builds the fetch for a
// given key.
func NewKeyed[T any](name string, factory func(key string) FetchFunc[T], cfg Config) *Keyed[T] {
	return &Keyed[T]{
		name:    name,
		factory: factory,
		cfg:     cfg,
		entries: make(map[string]*Resource[T]),
	}
}

// Get returns the cached value for key, fetching when stale or absent.
func (k *Keyed[T]) Get(ctx context.Context, key string) (T, error) {
	return k.entry(key).Get(ctx)
}

// Invalidate marks the entry for key stale. Absent keys are a no-op.
func (k *Keyed[T]) Invalidate(key string) {
	k.mu.Lock()
	r, ok := k.entries[key]
	k.mu.Unlock()
	if ok {
		r.Invalidate()
	}
}

// InvalidateAll marks every entry stale.
func (k *Keyed[T]) InvalidateAll() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, r := range k.entries {
		r.Invalidate()
	}
}

func (k *Keyed[T]) entry(key string) *Resource[T] {
	k.mu.Lock()
	defer k.mu.Unlock()

	r, ok := k.entries[key]
	if !ok {
		r = New(k.name, k.factory(key), k.cfg)
		k.entries[key] = r
	}
	return r
}
