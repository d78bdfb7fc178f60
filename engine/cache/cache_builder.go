package cache

import (
	"time"

	"github.com/sirupsen/logrus"
)

type cacheConfig struct {
	workers     int
	idleTimeout time.Duration
	logger      logrus.FieldLogger
}

// CacheBuilderOption is a functional option for configuring a Cache.
type CacheBuilderOption func(*cacheConfig)

// WithWorkers sets how many sources Preload reads concurrently. Defaults to 4; values below 1 are ignored.
//
// Parameters:
//   - n: the maximum number of preload workers
//
// Returns:
//   - CacheBuilderOption: option function to apply
func WithWorkers(n int) CacheBuilderOption {
	return func(c *cacheConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithIdleTimeout sets how long idle preload workers linger before exiting. Defaults to 1 second.
func WithIdleTimeout(d time.Duration) CacheBuilderOption {
	return func(c *cacheConfig) {
		if d > 0 {
			c.idleTimeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) CacheBuilderOption {
	return func(c *cacheConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
