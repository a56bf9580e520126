package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. The cache and ledger live in
// process memory and cannot fail independently, so only external
// components are probed.
type Service struct {
	store    StorePinger
	provider ProviderChecker
}

// New creates a Service. Both dependencies can be nil: store when
// persistence is file-backed or disabled, provider when probing would
// issue billable requests.
func New(store StorePinger, provider ProviderChecker) *Service {
	return &Service{store: store, provider: provider}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["persistence"] = CheckError
		} else {
			checks["persistence"] = CheckOK
		}
	}

	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			checks["provider"] = CheckError
		} else {
			checks["provider"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
