// Package memo composes the cache store and the usage ledger around
// arbitrary remote provider calls. The wrapper itself is stateless;
// all mutable state lives in the shared cache and ledger, so memory
// and budget bounds apply across every wrapped endpoint in the
// process, not per endpoint.
package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
	"github.com/roamspot/placegate/internal/metrics"
)

// Memoizer binds one cache and one ledger for wrapped calls.
type Memoizer struct {
	cache      *cache.Cache
	ledger     *ledger.Ledger
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	flight     *singleflight.Group
}

// New creates a memoizer. cacheTotal is a counter vec with labels
// "category" and "result" ("hit"/"miss"), passed explicitly; nil
// disables cache metrics.
func New(c *cache.Cache, l *ledger.Ledger, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Memoizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memoizer{
		cache:      c,
		ledger:     l,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithSingleflight makes concurrent callers of the same uncached key
// share one in-flight provider call instead of issuing duplicates.
// Off by default: without it two concurrent first requests for a key
// may both call the provider and both be billed, an accepted race.
func (m *Memoizer) WithSingleflight() *Memoizer {
	m.flight = &singleflight.Group{}
	return m
}

// Wrap memoizes call with weight 1 per invocation.
func Wrap[A, R any](
	m *Memoizer, category domain.Category, ttl time.Duration,
	keyFn func(A) string, call func(context.Context, A) (R, error),
) func(context.Context, A) (R, error) {
	return WrapWeighted(m, category, ttl, keyFn, nil, call)
}

// WrapWeighted memoizes call, deriving the cache key from keyFn and
// the billing weight from weightFn (nil means weight 1).
//
// Hit: the cached value is returned with no provider call and no
// ledger record. Miss: the ledger is consulted first; a refusal fails
// with domain.ErrBudgetExceeded before the provider is touched. A
// provider error propagates unchanged and is neither memoized nor
// billed. Only a successful call records usage and writes the cache.
func WrapWeighted[A, R any](
	m *Memoizer, category domain.Category, ttl time.Duration,
	keyFn func(A) string, weightFn func(A) int,
	call func(context.Context, A) (R, error),
) func(context.Context, A) (R, error) {
	return func(ctx context.Context, args A) (R, error) {
		var zero R
		key := keyFn(args)

		if data, ok := m.cache.Get(key); ok {
			var out R
			if err := json.Unmarshal(data, &out); err == nil {
				m.incCache(category, "hit")
				return out, nil
			}
			// Undecodable payload, likely a stale format. Drop it and
			// fall through to the provider.
			m.logger.Warn("Dropping undecodable cache entry",
				zap.String("key", key), zap.String("category", category.String()))
			m.cache.Delete(key)
		}
		m.incCache(category, "miss")

		miss := func(ctx context.Context) (R, error) {
			if !m.ledger.Allow(category) {
				metrics.BudgetRefusalsTotal.WithLabelValues(category.String()).Inc()
				return zero, fmt.Errorf("%s: %w", category, domain.ErrBudgetExceeded)
			}

			out, err := call(ctx, args)
			if err != nil {
				return zero, err
			}

			weight := 1
			if weightFn != nil {
				if w := weightFn(args); w > 0 {
					weight = w
				}
			}
			m.ledger.Record(category, 1, weight)
			m.publishBudget()

			if data, err := json.Marshal(out); err != nil {
				m.logger.Warn("Failed to encode value for cache",
					zap.String("key", key), zap.Error(err))
			} else {
				m.cache.Set(key, data, ttl)
			}
			return out, nil
		}

		if m.flight == nil {
			return miss(ctx)
		}

		v, err, _ := m.flight.Do(key, func() (any, error) {
			return miss(ctx)
		})
		if err != nil {
			return zero, err
		}
		return v.(R), nil
	}
}

func (m *Memoizer) incCache(category domain.Category, result string) {
	if m.cacheTotal != nil {
		m.cacheTotal.WithLabelValues(category.String(), result).Inc()
	}
}

func (m *Memoizer) publishBudget() {
	st := m.ledger.Status()
	metrics.BudgetSpendUSD.Set(st.EstimatedSpend)
	metrics.BudgetPercentUsed.Set(st.PercentUsed)
}
