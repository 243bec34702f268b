package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tair/supply-dashboard/internal/metrics"
)

// Fetcher loads the value for a single key from the backend.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Keyed is a per-key cache that also tracks in-flight loads and the last
// failure for each key. Concurrent loads of the same key share one
// backend call.
type Keyed[V any] struct {
	name     string
	describe func(error) string
	metrics  *metrics.Registry

	mu      sync.RWMutex
	items   map[string]V
	loading map[string]bool
	errs    map[string]string

	group singleflight.Group
}

// NewKeyed creates an empty cache. describe turns a load error into the
// message stored for the key.
func NewKeyed[V any](name string, describe func(error) string, m *metrics.Registry) *Keyed[V] {
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}
	return &Keyed[V]{
		name:     name,
		describe: describe,
		metrics:  m,
		items:    make(map[string]V),
		loading:  make(map[string]bool),
		errs:     make(map[string]string),
	}
}

// Get returns the cached value without touching the backend.
func (k *Keyed[V]) Get(key string) (V, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.items[key]
	return v, ok
}

// Load returns the cached value when present, otherwise fetches it.
func (k *Keyed[V]) Load(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	if v, ok := k.Get(key); ok {
		k.metrics.CacheHit(k.name)
		return v, nil
	}
	k.metrics.CacheMiss(k.name)
	return k.Reload(ctx, key, fetch)
}

// Reload always fetches, replacing any cached value on success. A failed
// fetch keeps the previous value.
func (k *Keyed[V]) Reload(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	v, err, _ := k.group.Do(key, func() (any, error) {
		k.mu.Lock()
		k.loading[key] = true
		delete(k.errs, key)
		k.mu.Unlock()

		val, err := fetch(ctx)

		k.mu.Lock()
		defer k.mu.Unlock()
		k.loading[key] = false
		if err != nil {
			k.errs[key] = k.describe(err)
			return nil, err
		}
		k.items[key] = val
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (k *Keyed[V]) Set(key string, v V) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.items[key] = v
	delete(k.errs, key)
}

// Delete drops every trace of key.
func (k *Keyed[V]) Delete(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.items, key)
	delete(k.loading, key)
	delete(k.errs, key)
}

func (k *Keyed[V]) SetLoading(key string, loading bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.loading[key] = loading
}

// Fail records msg as the key's error and clears its loading flag.
func (k *Keyed[V]) Fail(key, msg string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.loading[key] = false
	k.errs[key] = msg
}

func (k *Keyed[V]) IsLoading(key string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.loading[key]
}

// Err returns the last failure message for key, or "".
func (k *Keyed[V]) Err(key string) string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.errs[key]
}

// Len reports how many values are cached.
func (k *Keyed[V]) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.items)
}
