package placegate

import (
	"time"

	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/ledger"
)

// Option configures the Gate.
type Option interface {
	apply(*gateConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*gateConfig)

func (f optionFunc) apply(c *gateConfig) { f(c) }

type gateConfig struct {
	cache  cache.Config
	budget ledger.Config

	singleflight bool
	snapshotDir  string
	saveInterval time.Duration
	logger       *zap.Logger
}

// WithMaxSize bounds the number of cached entries. Defaults to 1000.
func WithMaxSize(n int) Option {
	return optionFunc(func(c *gateConfig) {
		c.cache.MaxSize = n
	})
}

// WithDefaultTTL sets the TTL applied when a wrapped call passes
// ttl <= 0. Defaults to one hour.
func WithDefaultTTL(d time.Duration) Option {
	return optionFunc(func(c *gateConfig) {
		c.cache.DefaultTTL = d
	})
}

// WithCleanupInterval sets the expired-entry sweep interval.
// Zero or negative disables the background sweep; expired entries are
// still dropped lazily on access.
func WithCleanupInterval(d time.Duration) Option {
	return optionFunc(func(c *gateConfig) {
		c.cache.CleanupInterval = d
	})
}

// WithDailyBudget sets the daily spend ceiling in USD.
// Zero (the default) means unlimited.
func WithDailyBudget(usd float64) Option {
	return optionFunc(func(c *gateConfig) {
		c.budget.DailyBudget = usd
	})
}

// WithCostPerUnit overrides the built-in per-unit cost of one
// category.
func WithCostPerUnit(category Category, usd float64) Option {
	return optionFunc(func(c *gateConfig) {
		if c.budget.CostPerUnit == nil {
			c.budget.CostPerUnit = make(map[Category]float64)
		}
		c.budget.CostPerUnit[category] = usd
	})
}

// WithSingleflight coalesces concurrent misses of the same key into
// one underlying call.
func WithSingleflight() Option {
	return optionFunc(func(c *gateConfig) {
		c.singleflight = true
	})
}

// WithSnapshotDir enables file persistence: cache and ledger
// snapshots are restored from dir at startup and saved on Close.
func WithSnapshotDir(dir string) Option {
	return optionFunc(func(c *gateConfig) {
		c.snapshotDir = dir
	})
}

// WithSaveInterval adds a periodic snapshot save between startup and
// Close. Only meaningful together with WithSnapshotDir.
func WithSaveInterval(d time.Duration) Option {
	return optionFunc(func(c *gateConfig) {
		c.saveInterval = d
	})
}

// WithLogger attaches a logger for cache, ledger, and persistence
// events. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *gateConfig) {
		c.logger = logger
	})
}
