package lookup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roamspot/placegate/internal/domain"
)

// coordKey renders a coordinate pair rounded to 4 decimal places
// (about 11 m), so requests for the same spot share a cache entry.
func coordKey(ll domain.LatLng) string {
	return fmt.Sprintf("%.4f,%.4f", ll.Lat, ll.Lng)
}

// normalizeText lowercases, trims, and collapses inner whitespace so
// cosmetic input variations do not fan out into distinct entries.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func geocodeKey(req domain.GeocodeRequest) string {
	if req.LatLng != nil {
		return "geocode:rev:" + coordKey(*req.LatLng)
	}
	return "geocode:addr:" + normalizeText(req.Address)
}

func detailsKey(req domain.PlaceDetailsRequest) string {
	if len(req.Fields) == 0 {
		return "place:" + req.PlaceID
	}
	fields := make([]string, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	sort.Strings(fields)
	return "place:" + req.PlaceID + ":" + strings.Join(fields, ",")
}

func nearbyKey(req domain.NearbySearchRequest) string {
	return fmt.Sprintf("nearby:%s:%d:%s",
		coordKey(req.Location), req.RadiusM, normalizeText(req.Keyword))
}

func autocompleteKey(req domain.AutocompleteRequest) string {
	return "ac:" + normalizeText(req.Input)
}
