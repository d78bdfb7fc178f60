// Package cache holds GPU resources (textures, meshes, pipelines) built from source data, keyed by name.
// A Cache is owned by the caller and released explicitly; there is no process-wide registry.
package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when a key has no cached resource.
	ErrNotFound = errors.New("cache: resource not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("cache: closed")

	// ErrDuplicateKey is returned by Preload when two sources share a key.
	ErrDuplicateKey = errors.New("cache: duplicate key")
)

// Releaser is implemented by cached resources that hold device memory.
type Releaser interface {
	Release()
}

// Source describes how to produce a resource. Read loads the raw bytes and may run on any goroutine;
// Build turns them into the resource and always runs on the goroutine that called Load, Reload or Preload,
// which is the one owning the device.
type Source[T Releaser] struct {
	Key   string
	Read  func() ([]byte, error)
	Build func(data []byte) (T, error)
}

// Cache stores resources by key and releases them when replaced, removed or closed.
type Cache[T Releaser] interface {
	// Load returns the resource for source.Key, building it from source if it is not cached yet.
	//
	// Parameters:
	//   - source: the source to read and build from on a miss
	//
	// Returns:
	//   - T: the cached or newly built resource
	//   - error: the read or build error, or ErrClosed
	Load(source Source[T]) (T, error)

	// Get returns the cached resource for key.
	//
	// Returns:
	//   - T: the resource
	//   - error: ErrNotFound if the key is not cached, or ErrClosed
	Get(key string) (T, error)

	// Reload rebuilds the resource for key from the source it was loaded with.
	// The old resource is released only after the new one was built; on failure the old one stays.
	//
	// Returns:
	//   - T: the rebuilt resource
	//   - error: ErrNotFound, ErrClosed, or the read or build error
	Reload(key string) (T, error)

	// Release releases and forgets the resource for key.
	//
	// Returns:
	//   - error: ErrNotFound if the key is not cached, or ErrClosed
	Release(key string) error

	// Preload reads every uncached source concurrently on a worker pool, then builds them in order on
	// the calling goroutine. Sources that fail are reported together; the rest stay cached.
	//
	// Returns:
	//   - error: the joined read and build errors, or nil
	Preload(sources ...Source[T]) error

	// Keys returns the cached keys in insertion order.
	Keys() []string

	// Len returns the number of cached resources.
	Len() int

	// Close releases every resource in reverse insertion order. Calling it again is a no-op.
	Close()
}

type entry[T Releaser] struct {
	value  T
	source Source[T]
}

// cache is the implementation of the Cache interface.
type cache[T Releaser] struct {
	mu *sync.Mutex

	entries map[string]*entry[T]
	order   []string
	closed  bool

	workers     int
	idleTimeout time.Duration
	logger      logrus.FieldLogger
}

var _ Cache[Releaser] = &cache[Releaser]{}

// NewCache creates an empty Cache.
//
// Parameters:
//   - options: functional options for cache configuration
//
// Returns:
//   - Cache[T]: the new cache
func NewCache[T Releaser](options ...CacheBuilderOption) Cache[T] {
	cfg := cacheConfig{
		workers:     4,
		idleTimeout: time.Second,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(&cfg)
	}
	return &cache[T]{
		mu:          &sync.Mutex{},
		entries:     make(map[string]*entry[T]),
		workers:     cfg.workers,
		idleTimeout: cfg.idleTimeout,
		logger:      cfg.logger,
	}
}

func (c *cache[T]) Load(source Source[T]) (T, error) {
	var zero T
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	if e, ok := c.entries[source.Key]; ok {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := build(source)
	if err != nil {
		return zero, err
	}
	return c.store(source, value)
}

func (c *cache[T]) Get(key string) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return zero, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return e.value, nil
}

func (c *cache[T]) Reload(key string) (T, error) {
	var zero T
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	source := e.source
	c.mu.Unlock()

	value, err := build(source)
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		value.Release()
		return zero, ErrClosed
	}
	old, ok := c.entries[key]
	if !ok {
		c.entries[key] = &entry[T]{value: value, source: source}
		c.order = append(c.order, key)
		return value, nil
	}
	old.value.Release()
	old.value = value
	c.logger.WithField("key", key).Debug("cache: resource reloaded")
	return value, nil
}

func (c *cache[T]) Release(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	e.value.Release()
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *cache[T]) Preload(sources ...Source[T]) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var pending []Source[T]
	seen := make(map[string]bool, len(sources))
	var errs []error
	for _, s := range sources {
		if seen[s.Key] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateKey, s.Key))
			continue
		}
		seen[s.Key] = true
		if _, ok := c.entries[s.Key]; !ok {
			pending = append(pending, s)
		}
	}
	c.mu.Unlock()

	if len(pending) == 0 {
		return errors.Join(errs...)
	}

	data := make([][]byte, len(pending))
	readErrs := make([]error, len(pending))

	pool := worker.NewDynamicWorkerPool(min(c.workers, len(pending)), len(pending), c.idleTimeout)
	var wg sync.WaitGroup
	for i, s := range pending {
		wg.Add(1)
		idx, src := i, s
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				if src.Read == nil {
					return nil, nil
				}
				// Errors are collected per source rather than through the pool.
				data[idx], readErrs[idx] = src.Read()
				return nil, nil
			},
		})
	}
	wg.Wait()

	built := 0
	for i, s := range pending {
		if readErrs[i] != nil {
			errs = append(errs, fmt.Errorf("cache: read %q: %w", s.Key, readErrs[i]))
			continue
		}
		value, err := buildFrom(s, data[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := c.store(s, value); err != nil {
			errs = append(errs, err)
			continue
		}
		built++
	}

	c.logger.WithFields(logrus.Fields{
		"requested": len(sources),
		"built":     built,
		"failed":    len(errs),
	}).Debug("cache: preload finished")
	return errors.Join(errs...)
}

func (c *cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

func (c *cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *cache[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for i := len(c.order) - 1; i >= 0; i-- {
		c.entries[c.order[i]].value.Release()
	}
	c.logger.WithField("released", len(c.order)).Debug("cache: closed")
	c.entries = nil
	c.order = nil
}

// store caches value under source.Key. If another caller stored the key meanwhile, value is released
// and the existing resource is returned.
func (c *cache[T]) store(source Source[T], value T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		value.Release()
		var zero T
		return zero, ErrClosed
	}
	if e, ok := c.entries[source.Key]; ok {
		value.Release()
		return e.value, nil
	}
	c.entries[source.Key] = &entry[T]{value: value, source: source}
	c.order = append(c.order, source.Key)
	return value, nil
}

func build[T Releaser](source Source[T]) (T, error) {
	var data []byte
	if source.Read != nil {
		var err error
		if data, err = source.Read(); err != nil {
			var zero T
			return zero, fmt.Errorf("cache: read %q: %w", source.Key, err)
		}
	}
	return buildFrom(source, data)
}

func buildFrom[T Releaser](source Source[T], data []byte) (T, error) {
	var zero T
	if source.Build == nil {
		return zero, fmt.Errorf("cache: source %q has no build step", source.Key)
	}
	value, err := source.Build(data)
	if err != nil {
		return zero, fmt.Errorf("cache: build %q: %w", source.Key, err)
	}
	return value, nil
}
