package zillow

import (
	"context"
	"fmt"
	"log/slog"
	"rentscout/lib/extract"
	"rentscout/lib/htmlutil"
	"rentscout/lib/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// ParseDetailPage extracts one property record from a rendered detail
// page. Payload values win over DOM values field by field, the DOM
// chains only fill what the payload lacks. pageURL feeds the zpid and
// address-slug fallbacks.
func ParseDetailPage(ctx context.Context, pageURL string, html string) (Detail, error) {
	ctx, span := tracer.Start(ctx, "ParseDetailPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageURL))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Detail{}, fmt.Errorf("could not parse detail page: %w", err)
	}

	detail := domDetail(doc)

	payload, err := parseDetailPayload(doc)
	if err != nil {
		slog.DebugContext(ctx, "detail payload unavailable, keeping DOM values",
			"url", pageURL, "err", err)
	} else {
		overlayDetail(&detail, payload.toDetail())
	}

	fillFromURL(&detail, pageURL)
	return detail, nil
}

func domDetail(doc *goquery.Document) Detail {
	d := NewDetail()
	sel := doc.Selection

	d.Price = extract.Value(sel, detailPriceChain)
	d.Address = extract.Value(sel, detailAddressChain)
	d.Bedrooms = extract.Value(sel, detailBedroomsChain)
	d.Bathrooms = extract.Value(sel, detailBathroomsChain)
	d.Sqft = extract.Value(sel, detailSqftChain)
	d.HomeType = extract.Value(sel, detailHomeTypeChain)
	d.YearBuilt = extract.Value(sel, detailYearBuiltChain)

	scanFacts(doc, &d)
	return d
}

// scanFacts walks the fact list containers and files each entry under
// the first amenity whose keywords it mentions. Later entries win,
// inner list items repeat their group's text in tighter form.
func scanFacts(doc *goquery.Document, d *Detail) {
	for _, selector := range factsSelectors {
		doc.Find(selector).Each(func(_ int, group *goquery.Selection) {
			group.Find("span, li, div").Each(func(_ int, item *goquery.Selection) {
				text := htmlutil.Text(item)
				if text == "" {
					return
				}
				switch {
				case textutil.ContainsAny(text, petsKeywords):
					d.PetsAllowed = text
				case textutil.ContainsAny(text, laundryKeywords):
					d.Laundry = text
				case textutil.ContainsAny(text, parkingKeywords):
					d.Parking = text
				case textutil.ContainsAny(text, coolingKeywords):
					d.Cooling = text
				case textutil.ContainsAny(text, heatingKeywords):
					d.Heating = text
				}
			})
		})
		if factsComplete(d) {
			break
		}
	}
}

func factsComplete(d *Detail) bool {
	return d.PetsAllowed != PetsNone &&
		d.Laundry != AmenityNone &&
		d.Parking != AmenityNone &&
		d.Cooling != AmenityNone &&
		d.Heating != AmenityNone
}

// overlayDetail writes src's known fields over dst. Miss values never
// overwrite, a payload that lacks a field must not erase what the DOM
// found.
func overlayDetail(dst *Detail, src Detail) {
	if src.ZPID != "" {
		dst.ZPID = src.ZPID
	}
	overlay(&dst.Address, src.Address, unknown)
	overlay(&dst.Price, src.Price, unknown)
	overlay(&dst.Bedrooms, src.Bedrooms, unknown)
	overlay(&dst.Bathrooms, src.Bathrooms, unknown)
	overlay(&dst.Sqft, src.Sqft, unknown)
	overlay(&dst.HomeType, src.HomeType, unknown)
	overlay(&dst.YearBuilt, src.YearBuilt, unknown)
	overlay(&dst.LotSize, src.LotSize, unknown)
	overlay(&dst.WalkScore, src.WalkScore, unknown)
	overlay(&dst.TransitScore, src.TransitScore, unknown)
	overlay(&dst.BikeScore, src.BikeScore, unknown)
	overlay(&dst.PetsAllowed, src.PetsAllowed, PetsNone)
	overlay(&dst.Laundry, src.Laundry, AmenityNone)
	overlay(&dst.Parking, src.Parking, AmenityNone)
	overlay(&dst.Cooling, src.Cooling, AmenityNone)
	overlay(&dst.Heating, src.Heating, AmenityNone)
}

func overlay(dst *string, src string, miss string) {
	if src != "" && src != miss {
		*dst = src
	}
}

func fillFromURL(d *Detail, pageURL string) {
	if d.ZPID == "" {
		if m := zpidPattern.FindStringSubmatch(pageURL); m != nil {
			d.ZPID = m[1]
		}
	}
	if d.Address == unknown {
		if m := slugPattern.FindStringSubmatch(pageURL); m != nil {
			d.Address = textutil.TitleFromSlug(m[1])
		}
	}
}
