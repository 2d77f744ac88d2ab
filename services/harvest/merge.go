package harvest

import (
	"rentscout/lib/extract"
	"rentscout/lib/scrapers/zillow"
)

// Provenance records which surfaces contributed to a record. Rows kept
// alive by a failed or skipped detail fetch stay "summary-only".
const (
	ProvenanceSummaryOnly   = "summary-only"
	ProvenanceSummaryDetail = "summary+detail"
)

// Record is one merged listing, the unit the run accumulates and the
// CSV serializes.
type Record struct {
	zillow.Detail
	URL        string
	Provenance string
}

func recordFromSummary(s zillow.Summary) Record {
	d := zillow.NewDetail()
	d.ZPID = s.ZPID
	keepKnown(&d.Address, s.Address)
	keepKnown(&d.Price, s.Price)
	keepKnown(&d.Bedrooms, s.Bedrooms)
	keepKnown(&d.Bathrooms, s.Bathrooms)
	keepKnown(&d.Sqft, s.Sqft)
	keepKnown(&d.HomeType, s.HomeType)
	return Record{
		Detail:     d,
		URL:        s.URL,
		Provenance: ProvenanceSummaryOnly,
	}
}

// mergeDetail folds a detail extraction into the record. The detail
// page wins every field it knows, but a miss value on the detail side
// never erases what the card already said.
func (r *Record) mergeDetail(d zillow.Detail) {
	if d.ZPID != "" && r.ZPID == "" {
		r.ZPID = d.ZPID
	}
	takeKnown(&r.Address, d.Address, extract.Unknown)
	takeKnown(&r.Price, d.Price, extract.Unknown)
	takeKnown(&r.Bedrooms, d.Bedrooms, extract.Unknown)
	takeKnown(&r.Bathrooms, d.Bathrooms, extract.Unknown)
	takeKnown(&r.Sqft, d.Sqft, extract.Unknown)
	takeKnown(&r.HomeType, d.HomeType, extract.Unknown)
	takeKnown(&r.YearBuilt, d.YearBuilt, extract.Unknown)
	takeKnown(&r.LotSize, d.LotSize, extract.Unknown)
	takeKnown(&r.WalkScore, d.WalkScore, extract.Unknown)
	takeKnown(&r.TransitScore, d.TransitScore, extract.Unknown)
	takeKnown(&r.BikeScore, d.BikeScore, extract.Unknown)
	takeKnown(&r.PetsAllowed, d.PetsAllowed, zillow.PetsNone)
	takeKnown(&r.Laundry, d.Laundry, zillow.AmenityNone)
	takeKnown(&r.Parking, d.Parking, zillow.AmenityNone)
	takeKnown(&r.Cooling, d.Cooling, zillow.AmenityNone)
	takeKnown(&r.Heating, d.Heating, zillow.AmenityNone)
	r.Provenance = ProvenanceSummaryDetail
}

func keepKnown(dst *string, src string) {
	if src != "" && src != extract.Unknown {
		*dst = src
	}
}

func takeKnown(dst *string, src string, miss string) {
	if src != "" && src != miss {
		*dst = src
	}
}

// dedupeSummaries keeps the first occurrence of each listing, keyed by
// detail URL and falling back to the identifier. Summaries with
// neither can never be joined to anything and are dropped.
func dedupeSummaries(summaries []zillow.Summary) (unique []zillow.Summary, dropped int) {
	seen := map[string]bool{}
	for _, s := range summaries {
		key := s.URL
		if key == "" {
			key = "zpid:" + s.ZPID
		}
		if key == "zpid:" {
			dropped++
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, s)
	}
	return unique, dropped
}
