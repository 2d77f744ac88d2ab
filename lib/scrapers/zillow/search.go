package zillow

import (
	"context"
	"fmt"
	"log/slog"
	"rentscout/lib/extract"
	"rentscout/lib/htmlutil"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// SearchPage is everything one rendered results page yields.
type SearchPage struct {
	Summaries []Summary
	// Source names where the summaries came from, a payload carrier
	// or "cards".
	Source string
	// CardCount is how many cards the DOM holds regardless of source.
	// The caller compares it against expectations to decide whether
	// the page rendered fully.
	CardCount int
	// NextURL points at the next results page, empty on the last one.
	NextURL    string
	TotalPages int
}

// ParseSearchPage extracts listing summaries from a rendered search
// page. The embedded payload is tried first. When it is absent or
// malformed the page degrades to card markup, which yields fewer
// fields but keeps the run alive.
func ParseSearchPage(ctx context.Context, html string) (*SearchPage, error) {
	ctx, span := tracer.Start(ctx, "ParseSearchPage")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("could not parse search page: %w", err)
	}

	page := &SearchPage{
		CardCount: doc.Find(cardSelector).Length(),
	}
	page.NextURL, page.TotalPages = paginationInfo(ctx, doc)

	summaries, carrier, err := parseSearchPayload(doc)
	if err == nil {
		page.Summaries = summaries
		page.Source = carrier
	} else {
		slog.WarnContext(ctx, "no usable search payload, falling back to cards", "err", err)
		page.Summaries = cardSummaries(doc)
		page.Source = "cards"
	}

	span.SetAttributes(
		attribute.String("source", page.Source),
		attribute.Int("cards", page.CardCount),
		attribute.Int("summaries", len(page.Summaries)),
	)
	return page, nil
}

func cardSummaries(doc *goquery.Document) []Summary {
	var summaries []Summary
	seen := map[string]bool{}

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		summary := summaryFromCard(card)
		if summary.URL != "" {
			seen[summary.URL] = true
		}
		summaries = append(summaries, summary)
	})

	// catch detail links the card markup didn't wrap, stray listings
	// render as bare anchors at the bottom of some pages
	doc.Find(`a[href*="/homedetails/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		url := absoluteURL(href)
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		zpid, _ := extract.First(a, []extract.Strategy{{Kind: extract.KindRegex, Attr: "href", Pattern: zpidPattern}})
		summaries = append(summaries, Summary{
			ZPID:      zpid,
			Address:   unknown,
			URL:       url,
			Price:     unknown,
			Bedrooms:  unknown,
			Bathrooms: unknown,
			Sqft:      unknown,
			HomeType:  unknown,
		})
	})

	return summaries
}

func summaryFromCard(card *goquery.Selection) Summary {
	zpid := zpidFromCardID(card)
	if zpid == "" {
		zpid, _ = extract.First(card, cardZPIDChain)
	}

	url, _ := extract.First(card, cardURLChain)
	return Summary{
		ZPID:      zpid,
		Address:   extract.Value(card, cardAddressChain),
		URL:       absoluteURL(url),
		Price:     extract.Value(card, cardPriceChain),
		Bedrooms:  extract.Value(card, cardBedroomsChain),
		Bathrooms: extract.Value(card, cardBathroomsChain),
		Sqft:      extract.Value(card, cardSqftChain),
		HomeType:  extract.Value(card, cardHomeTypeChain),
	}
}

// card ids look like "zpid_44120987" or "property-card-44120987"
func zpidFromCardID(card *goquery.Selection) string {
	id, _ := card.Attr("id")
	id = strings.TrimPrefix(id, "zpid_")
	id = strings.TrimPrefix(id, "property-card-")
	if id == "" || strings.IndexFunc(id, notDigit) >= 0 {
		return ""
	}
	return id
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}

// paginationInfo reads the pagination nav for the next page link and
// the highest numbered page. Pages without the nav are single pages.
func paginationInfo(ctx context.Context, doc *goquery.Document) (nextURL string, totalPages int) {
	totalPages = 1
	nav := doc.Find(`nav[aria-label="Pagination"]`).First()
	if nav.Length() == 0 {
		return "", totalPages
	}

	for _, anchor := range htmlutil.Anchors(ctx, nav.Find("a")) {
		if n, err := strconv.Atoi(anchor.Name); err == nil && n > totalPages {
			totalPages = n
		}
	}

	next := nav.Find(`a[rel="next"]`).First()
	if next.Length() == 0 {
		next = nav.Find(`a[title="Next page"]`).First()
	}
	if _, disabled := next.Attr("disabled"); disabled {
		return "", totalPages
	}
	href, _ := next.Attr("href")
	if href == "" || href == "#" {
		return "", totalPages
	}
	return absoluteURL(href), totalPages
}
