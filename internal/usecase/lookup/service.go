// Package lookup exposes the memoized place lookups. Each operation is
// a wrapped provider call sharing one cache and one ledger, so the
// size bound and the daily budget hold across all four endpoints.
package lookup

import (
	"context"
	"time"

	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/memo"
)

// Service handles geocoding, place details, nearby search, and
// autocomplete through their memoized wrappers.
type Service struct {
	geocode      func(context.Context, domain.GeocodeRequest) ([]domain.GeocodeResult, error)
	details      func(context.Context, domain.PlaceDetailsRequest) (domain.PlaceDetails, error)
	nearby       func(context.Context, domain.NearbySearchRequest) ([]domain.NearbyPlace, error)
	autocomplete func(context.Context, domain.AutocompleteRequest) ([]domain.Prediction, error)
}

// Config holds per-category cache TTLs. A zero TTL falls back to the
// cache default.
type Config struct {
	GeocodeTTL      time.Duration
	DetailsTTL      time.Duration
	NearbyTTL       time.Duration
	AutocompleteTTL time.Duration
}

// New creates a lookup service over the provider, memoizing every
// operation through m.
func New(m *memo.Memoizer, provider domain.Provider, cfg Config) *Service {
	return &Service{
		geocode: memo.Wrap(m, domain.CategoryGeocoding, cfg.GeocodeTTL,
			geocodeKey, provider.Geocode),
		details: memo.WrapWeighted(m, domain.CategoryPlaceDetails, cfg.DetailsTTL,
			detailsKey, detailsWeight, provider.PlaceDetails),
		nearby: memo.Wrap(m, domain.CategoryNearbySearch, cfg.NearbyTTL,
			nearbyKey, provider.NearbySearch),
		autocomplete: memo.Wrap(m, domain.CategoryAutocomplete, cfg.AutocompleteTTL,
			autocompleteKey, provider.Autocomplete),
	}
}

// detailsWeight bills one unit per requested field; an unrestricted
// request counts as a single unit.
func detailsWeight(req domain.PlaceDetailsRequest) int {
	if len(req.Fields) == 0 {
		return 1
	}
	return len(req.Fields)
}

// Geocode resolves an address to coordinates, or coordinates to an
// address when the request carries a LatLng.
func (s *Service) Geocode(ctx context.Context, req domain.GeocodeRequest) ([]domain.GeocodeResult, error) {
	return s.geocode(ctx, req)
}

// PlaceDetails fetches the full record of one place.
func (s *Service) PlaceDetails(ctx context.Context, req domain.PlaceDetailsRequest) (domain.PlaceDetails, error) {
	return s.details(ctx, req)
}

// NearbySearch finds venues around a point.
func (s *Service) NearbySearch(ctx context.Context, req domain.NearbySearchRequest) ([]domain.NearbyPlace, error) {
	return s.nearby(ctx, req)
}

// Autocomplete suggests places for a partial input.
func (s *Service) Autocomplete(ctx context.Context, req domain.AutocompleteRequest) ([]domain.Prediction, error) {
	return s.autocomplete(ctx, req)
}
