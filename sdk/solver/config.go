package solver

import (
	"errors"
	"runtime"
)

// DefaultCacheLimit bounds the memo table at roughly a few hundred megabytes.
const DefaultCacheLimit = 8_000_000

// Config controls solver execution. The value functions themselves have no
// tunables: every setting here changes cost, never results.
type Config struct {
	// Workers caps how many starting hands SolveAll evaluates concurrently.
	Workers int

	// CacheLimit bounds the number of memoised states. When a shard of the
	// table fills up it is flushed whole. Zero means unbounded.
	CacheLimit int
}

// Validate ensures the configuration is safe to use.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if c.CacheLimit < 0 {
		return errors.New("cache limit cannot be negative")
	}
	if c.CacheLimit > 0 && c.CacheLimit < cacheShardCount {
		return errors.New("cache limit must be 0 or at least 64")
	}
	return nil
}

// DefaultConfig returns one worker per CPU and a bounded cache.
func DefaultConfig() Config {
	return Config{
		Workers:    runtime.NumCPU(),
		CacheLimit: DefaultCacheLimit,
	}
}
