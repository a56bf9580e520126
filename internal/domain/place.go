package domain

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeRequest asks for coordinates of an address, or an address for
// coordinates when Reverse is set.
type GeocodeRequest struct {
	Address string
	LatLng  *LatLng
}

// GeocodeResult is a single geocoder match.
type GeocodeResult struct {
	PlaceID          string   `json:"place_id"`
	FormattedAddress string   `json:"formatted_address"`
	Location         LatLng   `json:"location"`
	Types            []string `json:"types,omitempty"`
}

// PlaceDetailsRequest asks for the full record of one place.
// Fields narrows the response to the named provider fields; the field
// count doubles as the billing weight for the ledger.
type PlaceDetailsRequest struct {
	PlaceID string
	Fields  []string
}

// PlaceDetails is the full record of a venue.
type PlaceDetails struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Location         LatLng   `json:"location"`
	Rating           float32  `json:"rating,omitempty"`
	RatingsTotal     int      `json:"ratings_total,omitempty"`
	PhoneNumber      string   `json:"phone_number,omitempty"`
	Website          string   `json:"website,omitempty"`
	OpeningHours     []string `json:"opening_hours,omitempty"`
	Types            []string `json:"types,omitempty"`
}

// NearbySearchRequest asks for venues around a point.
type NearbySearchRequest struct {
	Location LatLng
	RadiusM  int
	Keyword  string
}

// NearbyPlace is one hit of a nearby search.
type NearbyPlace struct {
	PlaceID      string   `json:"place_id"`
	Name         string   `json:"name"`
	Location     LatLng   `json:"location"`
	Vicinity     string   `json:"vicinity,omitempty"`
	Rating       float32  `json:"rating,omitempty"`
	RatingsTotal int      `json:"ratings_total,omitempty"`
	Types        []string `json:"types,omitempty"`
}

// AutocompleteRequest asks for place predictions for a partial input.
type AutocompleteRequest struct {
	Input string
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID       string `json:"place_id"`
	Description   string `json:"description"`
	MainText      string `json:"main_text,omitempty"`
	SecondaryText string `json:"secondary_text,omitempty"`
}
