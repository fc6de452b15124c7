// Package modelcache caches Engine-B's loaded model bundle across a run,
// amortizing its slow startup across many files (spec.md §4.5). Unlike the
// process-wide global singleton this was grounded on, Cache is an owned
// value: the orchestrator constructs exactly one per run and passes it to
// Phase-2, per spec.md §9's explicit-construction redesign note.
package modelcache

import (
	"runtime"
	"sync"
	"time"
)

// Loader loads Engine-B's model bundle for the given device (empty string
// means "auto-select"), returning the bundle, the device string actually
// used, and any error.
type Loader func(device string) (bundle interface{}, deviceUsed string, err error)

// Cleanup releases GPU memory caches (MPS/CUDA) without touching the model
// cache itself.
type Cleanup func()

type entry struct {
	bundle   interface{}
	device   string
	loadedAt time.Time
}

// Cache is a one-entry, TTL-expiring cache of an Engine-B model bundle.
type Cache struct {
	mu  sync.Mutex
	ttl time.Duration
	e   *entry
}

// New constructs a Cache with the given TTL (spec.md default 1800s,
// overridable by configuration).
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

func (c *Cache) freshLocked() bool {
	return c.e != nil && time.Since(c.e.loadedAt) < c.ttl
}

// GetModels returns the cached bundle if present and unexpired. On a miss,
// it releases the lock before calling load (so concurrent readers are never
// blocked on a slow model load), then reacquires the lock to install the
// result — discarding its own load and returning the winner's if another
// caller populated the cache first (spec.md §4.5).
func (c *Cache) GetModels(device string, load Loader) (interface{}, string, error) {
	c.mu.Lock()
	if c.freshLocked() {
		bundle, dev := c.e.bundle, c.e.device
		c.mu.Unlock()
		return bundle, dev, nil
	}
	c.mu.Unlock()

	bundle, deviceUsed, err := load(device)
	if err != nil {
		return nil, "", err
	}
	loadedAt := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.freshLocked() {
		return c.e.bundle, c.e.device, nil
	}
	c.e = &entry{bundle: bundle, device: deviceUsed, loadedAt: loadedAt}
	return bundle, deviceUsed, nil
}

// IsLoaded reports whether the cache currently holds an unexpired bundle.
func (c *Cache) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freshLocked()
}

// Evict removes the cached entry (if any) and runs cleanup to release GPU
// memory, then forces a GC cycle (spec.md §4.5).
func (c *Cache) Evict(cleanup Cleanup) {
	c.mu.Lock()
	c.e = nil
	c.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}
	runtime.GC()
}

// CleanupBetweenDocuments clears GPU memory caches without evicting the
// model cache entry, used between successive Phase-2 sub-batches and after
// an Engine-B CPU fallback (spec.md §4.5, §4.9).
func CleanupBetweenDocuments(cleanup Cleanup) {
	if cleanup != nil {
		cleanup()
	}
	runtime.GC()
}
