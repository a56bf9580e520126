package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
)

// Service handles usage reporting and budget adjustments.
type Service struct {
	reader LedgerReader
	writer BudgetWriter
}

// New creates a Service.
func New(reader LedgerReader, writer BudgetWriter) *Service {
	return &Service{reader: reader, writer: writer}
}

// Report is one day's usage rollup.
type Report struct {
	Date              string             `json:"date"`
	Counts            map[string]int64   `json:"counts"`
	SpendByCategory   map[string]float64 `json:"spend_by_category"`
	EstimatedSpendUSD float64            `json:"estimated_spend_usd"`
	DailyBudgetUSD    float64            `json:"daily_budget_usd"`
	PercentUsed       float64            `json:"percent_used"`
	AlertLevel        string             `json:"alert_level"`
	WithinBudget      bool               `json:"within_budget"`
	ResetsAt          int64              `json:"resets_at"`
}

// GetReport builds the usage report for the current day.
func (s *Service) GetReport(_ context.Context) Report {
	snap := s.reader.Snapshot()
	spend := s.reader.EstimatedSpend()
	status := s.reader.Status()

	counts := make(map[string]int64, len(snap.Counts))
	for cat, n := range snap.Counts {
		counts[cat.String()] = n
	}
	byCategory := make(map[string]float64, len(spend.ByCategory))
	for cat, usd := range spend.ByCategory {
		byCategory[cat.String()] = usd
	}

	day, err := time.Parse("2006-01-02", snap.Date)
	if err != nil {
		day = time.Now().UTC()
	}
	resetsAt := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).
		Add(24 * time.Hour).UnixMilli()

	return Report{
		Date:              snap.Date,
		Counts:            counts,
		SpendByCategory:   byCategory,
		EstimatedSpendUSD: spend.Total,
		DailyBudgetUSD:    status.DailyBudget,
		PercentUsed:       status.PercentUsed,
		AlertLevel:        string(status.AlertLevel),
		WithinBudget:      status.WithinBudget,
		ResetsAt:          resetsAt,
	}
}

// SetDailyBudget replaces the daily budget. Zero means unlimited.
func (s *Service) SetDailyBudget(_ context.Context, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: daily budget must be non-negative, got %v", domain.ErrInvalidRequest, amount)
	}
	s.writer.SetDailyBudget(amount)
	return nil
}

// compile-time checks against the concrete ledger
var (
	_ LedgerReader = (*ledger.Ledger)(nil)
	_ BudgetWriter = (*ledger.Ledger)(nil)
)
