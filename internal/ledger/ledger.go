// Package ledger tracks call volume per provider category and projects
// the estimated spend against a configurable daily budget. The ledger
// is a soft throttle: it reports whether a new billable call should be
// allowed, and callers are responsible for honoring the signal.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/domain"
)

// Alert thresholds as fractions of the daily budget.
const (
	WarningThreshold  = 0.75
	CriticalThreshold = 0.90
)

// AlertLevel grades budget pressure.
type AlertLevel string

// Alert levels reported by Status.
const (
	AlertNone     AlertLevel = "none"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// DefaultCostPerUnit approximates the provider's per-call list prices
// in USD. The table is an estimator, not a billing reconciliation.
var DefaultCostPerUnit = map[domain.Category]float64{
	domain.CategoryGeocoding:    0.005,
	domain.CategoryPlaceDetails: 0.017,
	domain.CategoryNearbySearch: 0.032,
	domain.CategoryAutocomplete: 0.00283,
	domain.CategoryMapLoad:      0.007,
}

// Config holds ledger settings.
type Config struct {
	// DailyBudget is the spend ceiling in USD. 0 means unlimited.
	DailyBudget float64
	// CostPerUnit overrides entries of DefaultCostPerUnit. Unknown
	// categories are rejected at construction.
	CostPerUnit map[domain.Category]float64
}

// Saver persists ledger state. Implementations must tolerate repeated
// calls with identical snapshots.
type Saver interface {
	SaveLedger(ctx context.Context, snap Snapshot) error
}

// Spend is the estimated spend projection.
type Spend struct {
	Total      float64                     `json:"total"`
	ByCategory map[domain.Category]float64 `json:"by_category"`
}

// Status reports budget pressure.
type Status struct {
	WithinBudget   bool       `json:"within_budget"`
	PercentUsed    float64    `json:"percent_used"`
	AlertLevel     AlertLevel `json:"alert_level"`
	EstimatedSpend float64    `json:"estimated_spend"`
	DailyBudget    float64    `json:"daily_budget"`
}

// Ledger is an in-memory daily usage counter with write-behind
// persistence. The hot path (Allow, Record) never leaves memory; saves
// go to the attached Saver on a background context so persistence
// latency stays off the request path.
type Ledger struct {
	mu          sync.Mutex
	counts      map[domain.Category]int64
	units       map[domain.Category]float64
	costPerUnit map[domain.Category]float64
	dailyBudget float64
	lastReset   time.Time

	saver  Saver
	logger *zap.Logger
	now    func() time.Time
}

// New creates a ledger. Cost overrides for unknown categories fail
// construction so a typo cannot silently bill at zero.
func New(cfg Config, logger *zap.Logger) (*Ledger, error) {
	if cfg.DailyBudget < 0 {
		return nil, fmt.Errorf("daily budget must be non-negative, got %v", cfg.DailyBudget)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	costs := make(map[domain.Category]float64, len(DefaultCostPerUnit))
	for cat, cost := range DefaultCostPerUnit {
		costs[cat] = cost
	}
	for cat, cost := range cfg.CostPerUnit {
		if !cat.Valid() {
			return nil, fmt.Errorf("cost table: %w: %q", domain.ErrUnknownCategory, cat)
		}
		if cost < 0 {
			return nil, fmt.Errorf("cost table: negative cost %v for %q", cost, cat)
		}
		costs[cat] = cost
	}

	l := &Ledger{
		counts:      make(map[domain.Category]int64),
		units:       make(map[domain.Category]float64),
		costPerUnit: costs,
		dailyBudget: cfg.DailyBudget,
		logger:      logger,
		now:         time.Now,
	}
	l.lastReset = dayStart(l.now())
	return l, nil
}

// WithSaver attaches write-behind persistence.
func (l *Ledger) WithSaver(s Saver) *Ledger {
	l.mu.Lock()
	l.saver = s
	l.mu.Unlock()
	return l
}

// Record registers count calls of the given category. weight scales
// the billable units per call (e.g. requested field count) without
// changing the raw call count. Crossing into a new day zeroes all
// counters before the increment is applied. Never fails: invalid input
// is clamped or dropped with a log line.
func (l *Ledger) Record(category domain.Category, count, weight int) {
	if !category.Valid() {
		l.logger.Warn("Dropping usage record for unknown category",
			zap.String("category", category.String()))
		return
	}
	if count < 0 {
		count = 0
	}
	if weight < 1 {
		weight = 1
	}

	l.mu.Lock()
	l.resetIfNeeded()
	l.counts[category] += int64(count)
	l.units[category] += float64(count) * float64(weight)
	snap := l.snapshotLocked()
	saver := l.saver
	l.mu.Unlock()

	if saver == nil {
		return
	}

	// Write-behind on a background context so a slow store never
	// blocks the caller beyond the timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := saver.SaveLedger(ctx, snap); err != nil {
		l.logger.Warn("Failed to persist ledger state", zap.Error(err))
	}
}

// EstimatedSpend recomputes the projection from current counters.
func (l *Ledger) EstimatedSpend() Spend {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNeeded()
	return l.spendLocked()
}

func (l *Ledger) spendLocked() Spend {
	s := Spend{ByCategory: make(map[domain.Category]float64)}
	for cat, units := range l.units {
		cost := units * l.costPerUnit[cat]
		if cost == 0 {
			continue
		}
		s.ByCategory[cat] = cost
		s.Total += cost
	}
	return s
}

// Status reports spend against the budget with fixed alert thresholds.
// An unlimited budget (0) is always within budget at alert level none.
func (l *Ledger) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNeeded()
	return l.statusLocked()
}

func (l *Ledger) statusLocked() Status {
	spend := l.spendLocked()
	st := Status{
		WithinBudget:   true,
		AlertLevel:     AlertNone,
		EstimatedSpend: spend.Total,
		DailyBudget:    l.dailyBudget,
	}
	if l.dailyBudget <= 0 {
		return st
	}

	used := spend.Total / l.dailyBudget
	st.PercentUsed = used * 100
	st.WithinBudget = spend.Total <= l.dailyBudget
	switch {
	case used > CriticalThreshold:
		st.AlertLevel = AlertCritical
	case used > WarningThreshold:
		st.AlertLevel = AlertWarning
	}
	return st
}

// Allow reports whether a new call of the category should proceed.
// It refuses only when the alert level is critical and the spend has
// actually crossed the budget.
func (l *Ledger) Allow(category domain.Category) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNeeded()

	st := l.statusLocked()
	if st.AlertLevel == AlertCritical && !st.WithinBudget {
		l.logger.Warn("Refusing call over budget",
			zap.String("category", category.String()),
			zap.Float64("estimated_spend", st.EstimatedSpend),
			zap.Float64("daily_budget", st.DailyBudget),
		)
		return false
	}
	return true
}

// SetDailyBudget reconfigures the ceiling, effective immediately.
func (l *Ledger) SetDailyBudget(amount float64) {
	if amount < 0 {
		amount = 0
	}
	l.mu.Lock()
	l.dailyBudget = amount
	l.mu.Unlock()
}

// DailyBudget returns the configured ceiling.
func (l *Ledger) DailyBudget() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyBudget
}

// Counts returns a copy of today's raw call counters.
func (l *Ledger) Counts() map[domain.Category]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNeeded()
	out := make(map[domain.Category]int64, len(l.counts))
	for cat, n := range l.counts {
		out[cat] = n
	}
	return out
}

// CostPerUnit returns the effective cost of one unit of the category.
func (l *Ledger) CostPerUnit(category domain.Category) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.costPerUnit[category]
}

// resetIfNeeded zeroes all counters when the day rolls over. Must be
// called with the mutex held before any read or increment.
func (l *Ledger) resetIfNeeded() {
	today := dayStart(l.now())
	if !today.After(l.lastReset) {
		return
	}
	l.counts = make(map[domain.Category]int64)
	l.units = make(map[domain.Category]float64)
	l.lastReset = today
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
