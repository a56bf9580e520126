package ledger

import (
	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/domain"
)

// dateLayout keys snapshots by calendar day.
const dateLayout = "2006-01-02"

// Snapshot is the persisted form of one day's counters. The format is
// internal to placegate and carries no compatibility guarantee.
type Snapshot struct {
	Date   string                      `json:"date"`
	Counts map[domain.Category]int64   `json:"counts"`
	Units  map[domain.Category]float64 `json:"units"`
}

// Snapshot captures today's counters.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNeeded()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	snap := Snapshot{
		Date:   l.lastReset.Format(dateLayout),
		Counts: make(map[domain.Category]int64, len(l.counts)),
		Units:  make(map[domain.Category]float64, len(l.units)),
	}
	for cat, n := range l.counts {
		snap.Counts[cat] = n
	}
	for cat, u := range l.units {
		snap.Units[cat] = u
	}
	return snap
}

// Restore reloads counters from a snapshot taken earlier the same day.
// State from a prior day is discarded, since a new day resets anyway.
// Unknown categories and negative counters are dropped. Returns true
// when the snapshot was applied.
func (l *Ledger) Restore(snap Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNeeded()

	if snap.Date != l.lastReset.Format(dateLayout) {
		l.logger.Info("Discarding ledger snapshot from another day",
			zap.String("snapshot_date", snap.Date),
			zap.Time("today", l.lastReset),
		)
		return false
	}

	counts := make(map[domain.Category]int64)
	units := make(map[domain.Category]float64)
	for cat, n := range snap.Counts {
		if !cat.Valid() || n < 0 {
			l.logger.Warn("Dropping invalid ledger snapshot counter",
				zap.String("category", cat.String()), zap.Int64("count", n))
			continue
		}
		counts[cat] = n
	}
	for cat, u := range snap.Units {
		if !cat.Valid() || u < 0 {
			continue
		}
		units[cat] = u
	}

	l.counts = counts
	l.units = units
	return true
}
