// Package zillow parses rendered Zillow rental pages into structured
// records. It never fetches anything itself. Callers render a search or
// detail page through lib/render and hand the HTML here.
//
// Both page kinds carry an embedded JSON payload that is tried before
// the DOM. Markup classes on Zillow are generated and churn constantly,
// so every DOM field goes through an ordered strategy chain
// (lib/extract) instead of a single selector.
package zillow

import (
	"rentscout/lib/extract"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("rentscout.lib.scrapers.zillow")

const BaseURL = "https://www.zillow.com"

const unknown = extract.Unknown

// Missing scalar fields are recorded as extract.Unknown. The amenity
// fields have their own miss values, kept from the CSV consumers this
// feeds.
const (
	PetsNone    = "No"
	AmenityNone = "None"
)

// Summary is one search-result card, the cheap half of a listing.
type Summary struct {
	ZPID      string
	Address   string
	URL       string
	Price     string
	Bedrooms  string
	Bathrooms string
	Sqft      string
	HomeType  string
}

// Detail is everything a rendered detail page yields.
type Detail struct {
	ZPID         string
	Address      string
	Price        string
	Bedrooms     string
	Bathrooms    string
	Sqft         string
	HomeType     string
	PetsAllowed  string
	Laundry      string
	Parking      string
	Cooling      string
	Heating      string
	LotSize      string
	YearBuilt    string
	WalkScore    string
	TransitScore string
	BikeScore    string
}

// NewDetail returns a Detail with every field at its miss value.
// Parsers overwrite what they find. ZPID stays empty rather than
// Unknown, it is a join key and not a display field.
func NewDetail() Detail {
	return Detail{
		Address:      unknown,
		Price:        unknown,
		Bedrooms:     unknown,
		Bathrooms:    unknown,
		Sqft:         unknown,
		HomeType:     unknown,
		PetsAllowed:  PetsNone,
		Laundry:      AmenityNone,
		Parking:      AmenityNone,
		Cooling:      AmenityNone,
		Heating:      AmenityNone,
		LotSize:      unknown,
		YearBuilt:    unknown,
		WalkScore:    unknown,
		TransitScore: unknown,
		BikeScore:    unknown,
	}
}
