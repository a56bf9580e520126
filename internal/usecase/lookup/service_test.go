package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/domain"
	"github.com/roamspot/placegate/internal/ledger"
	"github.com/roamspot/placegate/internal/memo"
)

// mockProvider counts calls per operation and returns canned results.
type mockProvider struct {
	geocodeCalls      int
	detailsCalls      int
	nearbyCalls       int
	autocompleteCalls int
}

func (m *mockProvider) Geocode(_ context.Context, req domain.GeocodeRequest) ([]domain.GeocodeResult, error) {
	m.geocodeCalls++
	return []domain.GeocodeResult{{PlaceID: "p1", FormattedAddress: req.Address}}, nil
}

func (m *mockProvider) PlaceDetails(_ context.Context, req domain.PlaceDetailsRequest) (domain.PlaceDetails, error) {
	m.detailsCalls++
	return domain.PlaceDetails{PlaceID: req.PlaceID, Name: "Cafe"}, nil
}

func (m *mockProvider) NearbySearch(_ context.Context, _ domain.NearbySearchRequest) ([]domain.NearbyPlace, error) {
	m.nearbyCalls++
	return []domain.NearbyPlace{{PlaceID: "n1", Name: "Bar"}}, nil
}

func (m *mockProvider) Autocomplete(_ context.Context, _ domain.AutocompleteRequest) ([]domain.Prediction, error) {
	m.autocompleteCalls++
	return []domain.Prediction{{PlaceID: "a1", Description: "Cafe Luna"}}, nil
}

func newTestService(t *testing.T, budget float64) (*Service, *mockProvider, *ledger.Ledger) {
	t.Helper()
	c := cache.New(cache.Config{MaxSize: 100, DefaultTTL: time.Hour}, zap.NewNop())
	t.Cleanup(c.Stop)
	l, err := ledger.New(ledger.Config{DailyBudget: budget}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := &mockProvider{}
	svc := New(memo.New(c, l, nil, zap.NewNop()), p, Config{})
	return svc, p, l
}

func TestGeocodeMemoizesByNormalizedAddress(t *testing.T) {
	svc, p, _ := newTestService(t, 0)
	ctx := context.Background()

	for _, addr := range []string{"1 Main St", "  1 main st ", "1 MAIN ST"} {
		if _, err := svc.Geocode(ctx, domain.GeocodeRequest{Address: addr}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if p.geocodeCalls != 1 {
		t.Errorf("expected 1 provider call for equivalent addresses, got %d", p.geocodeCalls)
	}
}

func TestReverseGeocodeRoundsCoordinates(t *testing.T) {
	svc, p, _ := newTestService(t, 0)
	ctx := context.Background()

	// Within ~11 m of each other: same rounded key.
	a := domain.LatLng{Lat: 40.71281, Lng: -74.00602}
	b := domain.LatLng{Lat: 40.712807, Lng: -74.006021}
	if _, err := svc.Geocode(ctx, domain.GeocodeRequest{LatLng: &a}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Geocode(ctx, domain.GeocodeRequest{LatLng: &b}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.geocodeCalls != 1 {
		t.Errorf("expected rounded coordinates to share an entry, got %d calls", p.geocodeCalls)
	}

	// A clearly different point must not share it.
	c := domain.LatLng{Lat: 40.7200, Lng: -74.0060}
	if _, err := svc.Geocode(ctx, domain.GeocodeRequest{LatLng: &c}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.geocodeCalls != 2 {
		t.Errorf("expected distinct point to miss, got %d calls", p.geocodeCalls)
	}
}

func TestForwardAndReverseGeocodeDoNotCollide(t *testing.T) {
	svc, p, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.Geocode(ctx, domain.GeocodeRequest{Address: "40.7128,-74.0060"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ll := domain.LatLng{Lat: 40.7128, Lng: -74.0060}
	if _, err := svc.Geocode(ctx, domain.GeocodeRequest{LatLng: &ll}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.geocodeCalls != 2 {
		t.Errorf("expected forward and reverse lookups to use separate entries, got %d calls", p.geocodeCalls)
	}
}

func TestPlaceDetailsFieldOrderInsensitive(t *testing.T) {
	svc, p, _ := newTestService(t, 0)
	ctx := context.Background()

	first := domain.PlaceDetailsRequest{PlaceID: "p1", Fields: []string{"name", "rating"}}
	second := domain.PlaceDetailsRequest{PlaceID: "p1", Fields: []string{"rating", "name"}}
	if _, err := svc.PlaceDetails(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.PlaceDetails(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.detailsCalls != 1 {
		t.Errorf("expected field order not to matter, got %d calls", p.detailsCalls)
	}

	narrower := domain.PlaceDetailsRequest{PlaceID: "p1", Fields: []string{"name"}}
	if _, err := svc.PlaceDetails(ctx, narrower); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.detailsCalls != 2 {
		t.Errorf("expected a different field set to miss, got %d calls", p.detailsCalls)
	}
}

func TestPlaceDetailsBillsPerField(t *testing.T) {
	svc, _, l := newTestService(t, 0)
	ctx := context.Background()

	req := domain.PlaceDetailsRequest{PlaceID: "p1", Fields: []string{"name", "rating", "website"}}
	if _, err := svc.PlaceDetails(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := l.Counts()[domain.CategoryPlaceDetails]; got != 1 {
		t.Errorf("expected 1 recorded call, got %d", got)
	}
	want := 3 * ledger.DefaultCostPerUnit[domain.CategoryPlaceDetails]
	if got := l.EstimatedSpend().Total; got != want {
		t.Errorf("expected spend %v for 3 fields, got %v", want, got)
	}
}

func TestNearbyAndAutocompleteMemoize(t *testing.T) {
	svc, p, _ := newTestService(t, 0)
	ctx := context.Background()

	nreq := domain.NearbySearchRequest{
		Location: domain.LatLng{Lat: 40.7128, Lng: -74.0060},
		RadiusM:  500,
		Keyword:  "coffee",
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.NearbySearch(ctx, nreq); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if p.nearbyCalls != 1 {
		t.Errorf("expected 1 nearby provider call, got %d", p.nearbyCalls)
	}

	for _, input := range []string{"cafe lu", "Cafe Lu", "  cafe   lu "} {
		if _, err := svc.Autocomplete(ctx, domain.AutocompleteRequest{Input: input}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if p.autocompleteCalls != 1 {
		t.Errorf("expected 1 autocomplete provider call, got %d", p.autocompleteCalls)
	}
}

func TestLookupsShareOneBudget(t *testing.T) {
	// Budget covers a single nearby search; the follow-up geocode must
	// be refused because the ledger is shared across categories.
	budget := ledger.DefaultCostPerUnit[domain.CategoryNearbySearch]
	svc, p, _ := newTestService(t, budget)
	ctx := context.Background()

	nreq := domain.NearbySearchRequest{
		Location: domain.LatLng{Lat: 40.7128, Lng: -74.0060},
		RadiusM:  500,
	}
	if _, err := svc.NearbySearch(ctx, nreq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Burn well past the limit so the throttle engages.
	for i := 0; i < 200; i++ {
		svc.NearbySearch(ctx, domain.NearbySearchRequest{
			Location: domain.LatLng{Lat: float64(i), Lng: 0}, RadiusM: 100,
		})
	}

	before := p.geocodeCalls
	_, err := svc.Geocode(ctx, domain.GeocodeRequest{Address: "1 Main St"})
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("expected budget refusal, got %v", err)
	}
	if p.geocodeCalls != before {
		t.Errorf("provider called despite budget refusal")
	}
}
