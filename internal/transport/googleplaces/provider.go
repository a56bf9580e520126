// Package googleplaces adapts the Google Maps Platform SDK to the
// domain.Provider boundary. Each method performs exactly one upstream
// attempt; retry policy belongs to callers.
package googleplaces

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/metrics"
)

// Compile-time check: Provider implements domain.Provider.
var _ domain.Provider = (*Provider)(nil)

// Provider is a places provider backed by the Google Maps Platform.
type Provider struct {
	client *maps.Client
	logger *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey string
	Logger *zap.Logger
}

// New creates a Google Maps provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	client, err := maps.NewClient(maps.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{client: client, logger: logger}, nil
}

// Geocode implements domain.Provider. Address geocodes forward; a
// LatLng geocodes in reverse. Exactly one of the two must be set.
func (p *Provider) Geocode(ctx context.Context, req domain.GeocodeRequest) ([]domain.GeocodeResult, error) {
	if (req.Address == "") == (req.LatLng == nil) {
		return nil, fmt.Errorf("%w: exactly one of address or lat/lng is required", domain.ErrInvalidRequest)
	}

	var (
		results []maps.GeocodingResult
		err     error
	)
	done := p.observe(domain.CategoryGeocoding)
	if req.Address != "" {
		results, err = p.client.Geocode(ctx, &maps.GeocodingRequest{Address: req.Address})
	} else {
		results, err = p.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
			LatLng: &maps.LatLng{Lat: req.LatLng.Lat, Lng: req.LatLng.Lng},
		})
	}
	done(err)
	if err != nil {
		return nil, p.wrapErr("geocode", err)
	}

	out := make([]domain.GeocodeResult, 0, len(results))
	for _, r := range results {
		out = append(out, domain.GeocodeResult{
			PlaceID:          r.PlaceID,
			FormattedAddress: r.FormattedAddress,
			Location: domain.LatLng{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Types: r.Types,
		})
	}
	return out, nil
}

// PlaceDetails implements domain.Provider. Unknown field names are
// rejected before the upstream call so a typo cannot widen the billed
// field mask.
func (p *Provider) PlaceDetails(ctx context.Context, req domain.PlaceDetailsRequest) (domain.PlaceDetails, error) {
	if req.PlaceID == "" {
		return domain.PlaceDetails{}, fmt.Errorf("%w: place id is required", domain.ErrInvalidRequest)
	}

	mReq := &maps.PlaceDetailsRequest{PlaceID: req.PlaceID}
	for _, f := range req.Fields {
		mask, err := maps.ParsePlaceDetailsFieldMask(f)
		if err != nil {
			return domain.PlaceDetails{}, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidRequest, f)
		}
		mReq.Fields = append(mReq.Fields, mask)
	}

	done := p.observe(domain.CategoryPlaceDetails)
	resp, err := p.client.PlaceDetails(ctx, mReq)
	done(err)
	if err != nil {
		return domain.PlaceDetails{}, p.wrapErr("place details", err)
	}

	details := domain.PlaceDetails{
		PlaceID:          resp.PlaceID,
		Name:             resp.Name,
		FormattedAddress: resp.FormattedAddress,
		Location: domain.LatLng{
			Lat: resp.Geometry.Location.Lat,
			Lng: resp.Geometry.Location.Lng,
		},
		Rating:       resp.Rating,
		RatingsTotal: resp.UserRatingsTotal,
		PhoneNumber:  resp.FormattedPhoneNumber,
		Website:      resp.Website,
		Types:        resp.Types,
	}
	if resp.OpeningHours != nil {
		details.OpeningHours = resp.OpeningHours.WeekdayText
	}
	return details, nil
}

// NearbySearch implements domain.Provider.
func (p *Provider) NearbySearch(ctx context.Context, req domain.NearbySearchRequest) ([]domain.NearbyPlace, error) {
	if req.RadiusM <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidRequest)
	}

	done := p.observe(domain.CategoryNearbySearch)
	resp, err := p.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: req.Location.Lat, Lng: req.Location.Lng},
		Radius:   uint(req.RadiusM),
		Keyword:  req.Keyword,
	})
	done(err)
	if err != nil {
		return nil, p.wrapErr("nearby search", err)
	}

	out := make([]domain.NearbyPlace, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, domain.NearbyPlace{
			PlaceID: r.PlaceID,
			Name:    r.Name,
			Location: domain.LatLng{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Vicinity:     r.Vicinity,
			Rating:       r.Rating,
			RatingsTotal: r.UserRatingsTotal,
			Types:        r.Types,
		})
	}
	return out, nil
}

// Autocomplete implements domain.Provider.
func (p *Provider) Autocomplete(ctx context.Context, req domain.AutocompleteRequest) ([]domain.Prediction, error) {
	if req.Input == "" {
		return nil, fmt.Errorf("%w: input is required", domain.ErrInvalidRequest)
	}

	done := p.observe(domain.CategoryAutocomplete)
	resp, err := p.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{Input: req.Input})
	done(err)
	if err != nil {
		return nil, p.wrapErr("autocomplete", err)
	}

	out := make([]domain.Prediction, 0, len(resp.Predictions))
	for _, pr := range resp.Predictions {
		out = append(out, domain.Prediction{
			PlaceID:       pr.PlaceID,
			Description:   pr.Description,
			MainText:      pr.StructuredFormatting.MainText,
			SecondaryText: pr.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}

// observe starts transport metrics for one upstream request and
// returns the completion callback.
func (p *Provider) observe(category domain.Category) func(error) {
	start := time.Now()
	return func(err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ProviderRequestsTotal.WithLabelValues(category.String(), status).Inc()
		if err == nil {
			metrics.ProviderRequestDuration.WithLabelValues(category.String()).Observe(time.Since(start).Seconds())
		}
	}
}

// wrapErr tags upstream failures with domain.ErrProviderError for
// correct 502 mapping in the transport layer.
func (p *Provider) wrapErr(op string, err error) error {
	p.logger.Warn("Places provider request failed",
		zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrProviderError)
}
