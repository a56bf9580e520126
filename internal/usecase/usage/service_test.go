package usage

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
)

func newTestLedger(t *testing.T, budget float64) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(ledger.Config{
		DailyBudget: budget,
		CostPerUnit: map[domain.Category]float64{domain.CategoryGeocoding: 2},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l
}

func TestGetReportRollsUpLedger(t *testing.T) {
	l := newTestLedger(t, 10)
	l.Record(domain.CategoryGeocoding, 3, 1)
	svc := New(l, l)

	report := svc.GetReport(context.Background())

	if report.Counts["geocoding"] != 3 {
		t.Errorf("expected 3 geocoding calls, got %d", report.Counts["geocoding"])
	}
	if report.SpendByCategory["geocoding"] != 6 {
		t.Errorf("expected geocoding spend 6, got %v", report.SpendByCategory["geocoding"])
	}
	if report.EstimatedSpendUSD != 6 {
		t.Errorf("expected total spend 6, got %v", report.EstimatedSpendUSD)
	}
	if report.DailyBudgetUSD != 10 {
		t.Errorf("expected budget 10, got %v", report.DailyBudgetUSD)
	}
	if !report.WithinBudget {
		t.Error("expected within budget at 60%")
	}
	if report.AlertLevel != "none" {
		t.Errorf("expected alert level none, got %q", report.AlertLevel)
	}
	if report.Date == "" {
		t.Error("expected report date to be set")
	}
	if report.ResetsAt == 0 {
		t.Error("expected resets_at to be set")
	}
}

func TestGetReportOverBudget(t *testing.T) {
	l := newTestLedger(t, 10)
	l.Record(domain.CategoryGeocoding, 6, 1) // spend 12 > budget 10
	svc := New(l, l)

	report := svc.GetReport(context.Background())

	if report.WithinBudget {
		t.Error("expected over budget")
	}
	if report.AlertLevel != "critical" {
		t.Errorf("expected alert level critical, got %q", report.AlertLevel)
	}
}

func TestSetDailyBudget(t *testing.T) {
	l := newTestLedger(t, 10)
	svc := New(l, l)

	if err := svc.SetDailyBudget(context.Background(), 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.DailyBudget(); got != 25 {
		t.Errorf("expected budget 25, got %v", got)
	}
}

func TestSetDailyBudgetRejectsNegative(t *testing.T) {
	l := newTestLedger(t, 10)
	svc := New(l, l)

	err := svc.SetDailyBudget(context.Background(), -1)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request error, got %v", err)
	}
	if got := l.DailyBudget(); got != 10 {
		t.Errorf("budget changed on rejected input: %v", got)
	}
}
