package usage

import (
	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
)

// LedgerReader provides read access to today's usage counters.
type LedgerReader interface {
	Counts() map[domain.Category]int64
	EstimatedSpend() ledger.Spend
	Status() ledger.Status
	Snapshot() ledger.Snapshot
}

// BudgetWriter adjusts the daily budget at runtime.
type BudgetWriter interface {
	SetDailyBudget(amount float64)
}
