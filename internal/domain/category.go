package domain

import "fmt"

// Category identifies a billable request class against the places
// provider. The set is closed: cost tables and ledgers reject
// categories outside this enumeration at construction time instead of
// silently defaulting a typo to zero cost.
type Category string

// Billable request categories.
const (
	CategoryGeocoding    Category = "geocoding"
	CategoryPlaceDetails Category = "place-details"
	CategoryNearbySearch Category = "nearby-search"
	CategoryAutocomplete Category = "autocomplete"
	CategoryMapLoad      Category = "map-load"
)

// Categories lists every known category in stable order.
func Categories() []Category {
	return []Category{
		CategoryGeocoding,
		CategoryPlaceDetails,
		CategoryNearbySearch,
		CategoryAutocomplete,
		CategoryMapLoad,
	}
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether the category belongs to the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryGeocoding, CategoryPlaceDetails, CategoryNearbySearch,
		CategoryAutocomplete, CategoryMapLoad:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }
