package harvest

import (
	"encoding/csv"
	"fmt"
	"io"
	"rentscout/lib/extract"
)

// Columns are fixed so every run of the same binary produces the same
// schema, whatever subset of fields the site actually yielded.
var csvColumns = []string{
	"zpid", "address", "url", "price",
	"bedrooms", "bathrooms", "sqft", "home_type",
	"pets_allowed", "laundry", "parking", "cooling", "heating",
	"lot_size", "year_built",
	"walk_score", "transit_score", "bike_score",
	"provenance",
}

// WriteCSV serializes the records with the fixed column header. Every
// cell is non-empty, join keys the run never resolved are written as
// the Unknown sentinel.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.row()); err != nil {
			return fmt.Errorf("could not write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r Record) row() []string {
	return []string{
		cell(r.ZPID), cell(r.Address), cell(r.URL), cell(r.Price),
		cell(r.Bedrooms), cell(r.Bathrooms), cell(r.Sqft), cell(r.HomeType),
		cell(r.PetsAllowed), cell(r.Laundry), cell(r.Parking), cell(r.Cooling), cell(r.Heating),
		cell(r.LotSize), cell(r.YearBuilt),
		cell(r.WalkScore), cell(r.TransitScore), cell(r.BikeScore),
		cell(r.Provenance),
	}
}

func cell(s string) string {
	if s == "" {
		return extract.Unknown
	}
	return s
}
