// Package placegate provides cost-governed memoization of paid place
// lookups for embedding directly in an application, without running
// the HTTP server. A Gate bundles one TTL+LRU cache and one daily
// usage ledger; wrapped functions share both, so the size bound and
// the budget hold across everything the process memoizes.
package placegate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/roamspot/placegate/internal/blob"
	blobFile "github.com/roamspot/placegate/internal/blob/file"
	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
	"github.com/roamspot/placegate/internal/memo"
	"github.com/roamspot/placegate/internal/statekeeper"
)

// Category identifies a class of billable provider calls.
type Category = domain.Category

// Billing categories.
const (
	CategoryGeocoding    = domain.CategoryGeocoding
	CategoryPlaceDetails = domain.CategoryPlaceDetails
	CategoryNearbySearch = domain.CategoryNearbySearch
	CategoryAutocomplete = domain.CategoryAutocomplete
	CategoryMapLoad      = domain.CategoryMapLoad
)

// ErrBudgetExceeded is returned by wrapped calls refused by the
// budget throttle.
var ErrBudgetExceeded = domain.ErrBudgetExceeded

// CacheStats is a read-only snapshot of cache counters.
type CacheStats = cache.Stats

// BudgetStatus reports budget pressure.
type BudgetStatus = ledger.Status

// Gate is the embeddable entry point: one cache, one ledger, and the
// memoization machinery around them.
type Gate struct {
	cache  *cache.Cache
	ledger *ledger.Ledger
	memo   *memo.Memoizer
	keeper *statekeeper.Keeper
}

// New creates a Gate.
func New(opts ...Option) (*Gate, error) {
	cfg := &gateConfig{
		cache:  cache.DefaultConfig(),
		budget: ledger.Config{},
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	c := cache.New(cfg.cache, cfg.logger)

	l, err := ledger.New(cfg.budget, cfg.logger)
	if err != nil {
		c.Stop()
		return nil, fmt.Errorf("placegate: %w", err)
	}

	g := &Gate{
		cache:  c,
		ledger: l,
		memo:   memo.New(c, l, nil, cfg.logger),
	}
	if cfg.singleflight {
		g.memo = g.memo.WithSingleflight()
	}

	if cfg.snapshotDir != "" {
		var cacheBlob, ledgerBlob blob.Store
		cacheBlob = blobFile.New(filepath.Join(cfg.snapshotDir, "cache.json"))
		ledgerBlob = blobFile.New(filepath.Join(cfg.snapshotDir, "ledger.json"))
		g.keeper = statekeeper.New(c, l, cacheBlob, ledgerBlob, cfg.saveInterval, cfg.logger)
		g.keeper.Restore(context.Background())
		g.keeper.Start()
		l.WithSaver(g.keeper)
	}

	return g, nil
}

// Wrap memoizes call through the gate with weight 1 per invocation.
// keyFn must be deterministic; equal keys share a cache entry.
func Wrap[A, R any](
	g *Gate, category Category, ttl time.Duration,
	keyFn func(A) string, call func(context.Context, A) (R, error),
) func(context.Context, A) (R, error) {
	return memo.Wrap(g.memo, category, ttl, keyFn, call)
}

// WrapWeighted memoizes call, taking the billing weight of each
// invocation from weightFn (nil means weight 1).
func WrapWeighted[A, R any](
	g *Gate, category Category, ttl time.Duration,
	keyFn func(A) string, weightFn func(A) int,
	call func(context.Context, A) (R, error),
) func(context.Context, A) (R, error) {
	return memo.WrapWeighted(g.memo, category, ttl, keyFn, weightFn, call)
}

// CacheStats returns current cache counters.
func (g *Gate) CacheStats() CacheStats {
	return g.cache.Stats()
}

// BudgetStatus returns current budget pressure.
func (g *Gate) BudgetStatus() BudgetStatus {
	return g.ledger.Status()
}

// SetDailyBudget replaces the daily spend ceiling. Zero means
// unlimited.
func (g *Gate) SetDailyBudget(usd float64) {
	g.ledger.SetDailyBudget(usd)
}

// ClearCache drops all cached entries. Usage counters are unaffected.
func (g *Gate) ClearCache() {
	g.cache.Clear()
}

// Close saves a final snapshot when persistence is configured and
// stops background goroutines.
func (g *Gate) Close(ctx context.Context) {
	if g.keeper != nil {
		g.keeper.Stop(ctx)
	}
	g.cache.Stop()
}
