package domain

import "context"

// Provider is the remote places/geocoding provider boundary.
// Implementations perform exactly one attempt per call; retry policy,
// if any, belongs to the caller. Failures surface as errors wrapping
// ErrProviderError.
type Provider interface {
	Geocode(ctx context.Context, req GeocodeRequest) ([]GeocodeResult, error)
	PlaceDetails(ctx context.Context, req PlaceDetailsRequest) (PlaceDetails, error)
	NearbySearch(ctx context.Context, req NearbySearchRequest) ([]NearbyPlace, error)
	Autocomplete(ctx context.Context, req AutocompleteRequest) ([]Prediction, error)
}

// HealthChecker is implemented by providers that can verify upstream
// availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
