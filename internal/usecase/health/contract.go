package health

import "context"

// StorePinger checks persistence backend availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks upstream places provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
