package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"rentscout/lib/extract"
	"rentscout/lib/render"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSearchURL = "https://www.zillow.com/bloomington-il/rentals/"

// scriptedRenderer serves canned HTML keyed by url, with special cases
// for the click and rescue flows so one url can answer differently per
// interaction.
type scriptedRenderer struct {
	searchPages map[string]string
	rescuePages map[string]string
	detailPages map[string]string
	clickPages  map[int]string
	failures    map[string]error
	calls       []string
}

var nthChildPattern = regexp.MustCompile(`nth-child\((\d+)\)`)

func (r *scriptedRenderer) Name() string { return "scripted" }

func (r *scriptedRenderer) Render(_ context.Context, req render.Request) (string, error) {
	r.calls = append(r.calls, req.URL)
	if err := r.failures[req.URL]; err != nil {
		return "", err
	}

	flow, err := json.Marshal(req.Flow)
	if err != nil {
		return "", err
	}
	if bytes.Contains(flow, []byte("wait_and_click")) {
		match := nthChildPattern.FindSubmatch(flow)
		if match == nil {
			return "", &render.Error{URL: req.URL, Reason: render.ReasonBackend, Attempts: 1, Message: "click flow without a position"}
		}
		position, _ := strconv.Atoi(string(match[1]))
		if html, ok := r.clickPages[position]; ok {
			return html, nil
		}
		return "", &render.Error{URL: req.URL, Reason: render.ReasonStatus, Attempts: 1, Message: "no scripted click page"}
	}
	if bytes.Contains(flow, []byte(`"footer"`)) {
		if html, ok := r.rescuePages[req.URL]; ok {
			return html, nil
		}
	}
	if html, ok := r.detailPages[req.URL]; ok {
		return html, nil
	}
	if html, ok := r.searchPages[req.URL]; ok {
		return html, nil
	}
	return "", &render.Error{URL: req.URL, Reason: render.ReasonStatus, Attempts: 1, Message: "no scripted page"}
}

func cardHTML(zpid, href, address, price, meta string) string {
	return fmt.Sprintf(`<article data-test="property-card" id="zpid_%s">
  <a data-test="property-card-link" href="%s"><address data-test="property-card-addr">%s</address></a>
  <span data-test="property-card-price">%s</span>
  <ul><li>%s</li></ul>
</article>`, zpid, href, address, price, meta)
}

func searchHTML(nav string, cards ...string) string {
	return `<html><body><div id="search-page-list-container">` +
		strings.Join(cards, "\n") + `</div>` + nav + `</body></html>`
}

func nextPageNav(href string) string {
	return fmt.Sprintf(`<nav aria-label="Pagination"><a rel="next" title="Next page" href="%s">Next</a></nav>`, href)
}

func detailDOM(price, address, facts string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if price != "" {
		b.WriteString(`<span data-testid="price">` + price + `</span>`)
	}
	if address != "" {
		b.WriteString(`<h1 data-testid="home-details-address">` + address + `</h1>`)
	}
	if facts != "" {
		b.WriteString(`<div data-testid="facts-and-features"><ul>` + facts + `</ul></div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func testOptions() Options {
	return Options{
		SearchURL:        testSearchURL,
		MinExpectedCards: 1,
		DelayMax:         time.Millisecond,
	}
}

func TestRunMergesSummaryAndDetail(t *testing.T) {
	detailURL := "https://www.zillow.com/homedetails/407-N-Madison-St-Bloomington-IL-61701/44120987_zpid/"
	renderer := &scriptedRenderer{
		searchPages: map[string]string{
			testSearchURL: searchHTML("", cardHTML("44120987", detailURL,
				"407 N Madison St, Bloomington, IL 61701", "$1,095/mo", "2 bds 1 ba 800 sqft")),
		},
		detailPages: map[string]string{
			detailURL: detailDOM("$1,150/mo", "407 N Madison St, Bloomington, IL 61701", "<li>In unit laundry</li>"),
		},
	}

	result, err := NewService(renderer, testOptions()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	record := result.Records[0]
	require.Equal(t, "44120987", record.ZPID)
	require.Equal(t, detailURL, record.URL)
	// the detail render saw the live price, it wins
	require.Equal(t, "$1,150/mo", record.Price)
	// the detail page never mentioned bedrooms, the card value stays
	require.Equal(t, "2", record.Bedrooms)
	require.Equal(t, "In unit laundry", record.Laundry)
	require.Equal(t, ProvenanceSummaryDetail, record.Provenance)

	require.Equal(t, 1, result.Stats.PagesFetched)
	require.Equal(t, 1, result.Stats.Summaries)
	require.Equal(t, 1, result.Stats.DetailFetched)
	require.Equal(t, "cards", result.Stats.Source)
}

func TestRunSummaryWinsOverUnknownDetail(t *testing.T) {
	// no slug in the url, so nothing can backfill the detail address
	detailURL := "https://www.zillow.com/homedetails/111_zpid/"
	card := fmt.Sprintf(`<article data-test="property-card" id="zpid_111">
  <a data-test="property-card-link" href="%s"><address data-test="property-card-addr">123 Main St, Bloomington, IL 61701</address></a>
</article>`, detailURL)
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("", card)},
		detailPages: map[string]string{detailURL: detailDOM("$1,200/mo", "", "")},
	}

	result, err := NewService(renderer, testOptions()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	record := result.Records[0]
	require.Equal(t, "123 Main St, Bloomington, IL 61701", record.Address)
	require.Equal(t, "$1,200/mo", record.Price)
	require.Equal(t, ProvenanceSummaryDetail, record.Provenance)
}

func TestRunDeduplicatesSharedURL(t *testing.T) {
	detailURL := "https://www.zillow.com/homedetails/407-N-Madison-St-Bloomington-IL-61701/44120987_zpid/"
	card := cardHTML("44120987", detailURL, "407 N Madison St, Bloomington, IL 61701", "$1,095/mo", "2 bds 1 ba")
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("", card, card)},
	}

	opts := testOptions()
	opts.SummaryOnly = true
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, 2, result.Stats.CardsSeen)
	require.Equal(t, 1, result.Stats.Summaries)
}

func TestRunDropsCardWithoutURLOrZPID(t *testing.T) {
	keyless := `<article data-test="property-card"><span data-test="property-card-price">$900/mo</span></article>`
	good := cardHTML("44120987", "https://www.zillow.com/homedetails/a/44120987_zpid/",
		"407 N Madison St, Bloomington, IL 61701", "$1,095/mo", "2 bds 1 ba")
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("", keyless, good)},
	}

	opts := testOptions()
	opts.SummaryOnly = true
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, 1, result.Stats.Dropped)
}

func TestRunEmptyPageIsNotAnError(t *testing.T) {
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("")},
	}

	result, err := NewService(renderer, testOptions()).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Records)
	require.Empty(t, result.Records)
	require.Equal(t, 0, result.Stats.Summaries)
}

func TestRunSearchFailureIsTerminal(t *testing.T) {
	renderer := &scriptedRenderer{
		failures: map[string]error{
			testSearchURL: &render.Error{URL: testSearchURL, Reason: render.ReasonStatus, Attempts: 3, Message: "403"},
		},
	}

	result, err := NewService(renderer, testOptions()).Run(context.Background())
	require.ErrorContains(t, err, "could not fetch search page")
	require.Nil(t, result)
	require.Len(t, renderer.calls, 1)
}

func TestRunDetailFailureKeepsSummary(t *testing.T) {
	detailURL := "https://www.zillow.com/homedetails/a/44120987_zpid/"
	renderer := &scriptedRenderer{
		searchPages: map[string]string{
			testSearchURL: searchHTML("", cardHTML("44120987", detailURL,
				"407 N Madison St, Bloomington, IL 61701", "$1,095/mo", "2 bds 1 ba")),
		},
		failures: map[string]error{
			detailURL: &render.Error{URL: detailURL, Reason: render.ReasonChallenge, Attempts: 1, Message: "press and hold"},
		},
	}

	result, err := NewService(renderer, testOptions()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	record := result.Records[0]
	require.Equal(t, ProvenanceSummaryOnly, record.Provenance)
	require.Equal(t, "$1,095/mo", record.Price)
	require.Equal(t, extract.Unknown, record.Sqft)
	require.Equal(t, 1, result.Stats.DetailFailed)
	require.Equal(t, 0, result.Stats.DetailFetched)
}

func TestRunMaxListingsTruncates(t *testing.T) {
	var cards []string
	for i := 1; i <= 3; i++ {
		cards = append(cards, cardHTML(strconv.Itoa(1000+i),
			fmt.Sprintf("https://www.zillow.com/homedetails/card-%d/%d_zpid/", i, 1000+i),
			fmt.Sprintf("%d Front St, Bloomington, IL 61701", i), "$950/mo", "1 bd 1 ba"))
	}
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("", cards...)},
	}

	opts := testOptions()
	opts.SummaryOnly = true
	opts.MaxListings = 2
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Equal(t, 3, result.Stats.Summaries)
}

func TestRunFollowsPagination(t *testing.T) {
	page2URL := "https://www.zillow.com/bloomington-il/rentals/2_p/"
	cardA := cardHTML("1001", "https://www.zillow.com/homedetails/a/1001_zpid/",
		"1 Front St, Bloomington, IL 61701", "$950/mo", "1 bd 1 ba")
	cardB := cardHTML("1002", "https://www.zillow.com/homedetails/b/1002_zpid/",
		"2 Front St, Bloomington, IL 61701", "$975/mo", "2 bds 1 ba")
	renderer := &scriptedRenderer{
		searchPages: map[string]string{
			testSearchURL: searchHTML(nextPageNav("/bloomington-il/rentals/2_p/"), cardA),
			page2URL:      searchHTML("", cardB),
		},
	}

	opts := testOptions()
	opts.SummaryOnly = true
	opts.MaxPages = 2
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Equal(t, 2, result.Stats.PagesFetched)
	require.Equal(t, "1001", result.Records[0].ZPID)
	require.Equal(t, "1002", result.Records[1].ZPID)
}

func TestRunStopsAtMaxPages(t *testing.T) {
	cardA := cardHTML("1001", "https://www.zillow.com/homedetails/a/1001_zpid/",
		"1 Front St, Bloomington, IL 61701", "$950/mo", "1 bd 1 ba")
	renderer := &scriptedRenderer{
		searchPages: map[string]string{
			testSearchURL: searchHTML(nextPageNav("/bloomington-il/rentals/2_p/"), cardA),
		},
	}

	opts := testOptions()
	opts.SummaryOnly = true
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, 1, result.Stats.PagesFetched)
}

func TestRunRescueScrollRecoversShortPage(t *testing.T) {
	short := searchHTML("", cardHTML("1001", "https://www.zillow.com/homedetails/a/1001_zpid/",
		"1 Front St, Bloomington, IL 61701", "$950/mo", "1 bd 1 ba"))
	var cards []string
	for i := 1; i <= 3; i++ {
		cards = append(cards, cardHTML(strconv.Itoa(1000+i),
			fmt.Sprintf("https://www.zillow.com/homedetails/card-%d/%d_zpid/", i, 1000+i),
			fmt.Sprintf("%d Front St, Bloomington, IL 61701", i), "$950/mo", "1 bd 1 ba"))
	}
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: short},
		rescuePages: map[string]string{testSearchURL: searchHTML("", cards...)},
	}

	opts := testOptions()
	opts.SummaryOnly = true
	opts.MinExpectedCards = 5
	opts.DebugDir = t.TempDir()
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	require.Equal(t, 3, result.Stats.CardsSeen)

	dump, err := os.ReadFile(filepath.Join(opts.DebugDir, "search_page_1_debug.html"))
	require.NoError(t, err)
	require.Equal(t, short, string(dump))
}

func TestRunClickMismatchFallsBackToDirectURL(t *testing.T) {
	directURL := "https://www.zillow.com/homedetails/b/1002_zpid/"
	cardA := cardHTML("1001", "https://www.zillow.com/homedetails/a/1001_zpid/",
		"407 N Madison St, Bloomington, IL 61701", "$950/mo", "1 bd 1 ba")
	cardB := cardHTML("1002", directURL,
		"306 E Locust St, Bloomington, IL 61701", "$975/mo", "2 bds 1 ba")
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("", cardA, cardB)},
		clickPages: map[int]string{
			1: detailDOM("$960/mo", "407 N Madison St, Bloomington, IL 61701", ""),
			// the overlay opened the wrong listing
			2: detailDOM("$2,400/mo", "1413 W Hovey Ave, Normal, IL 61761", ""),
		},
		detailPages: map[string]string{
			directURL: detailDOM("$980/mo", "306 E Locust St, Bloomington, IL 61701", ""),
		},
	}

	opts := testOptions()
	opts.UseClicks = true
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	require.Equal(t, ProvenanceSummaryDetail, result.Records[0].Provenance)
	require.Equal(t, "$960/mo", result.Records[0].Price)

	// the mis-click was recovered by direct navigation
	require.Equal(t, ProvenanceSummaryDetail, result.Records[1].Provenance)
	require.Equal(t, "$980/mo", result.Records[1].Price)
	require.Equal(t, 1, result.Stats.ClickMismatches)
	require.Equal(t, 2, result.Stats.DetailFetched)
}

func TestRunClickMismatchWithoutURLKeepsSummary(t *testing.T) {
	card := `<article data-test="property-card" id="zpid_3003">
  <address data-test="property-card-addr">808 S Lee St, Bloomington, IL 61701</address>
  <span data-test="property-card-price">$850/mo</span>
</article>`
	renderer := &scriptedRenderer{
		searchPages: map[string]string{testSearchURL: searchHTML("", card)},
		clickPages: map[int]string{
			1: detailDOM("$2,400/mo", "1413 W Hovey Ave, Normal, IL 61761", ""),
		},
	}

	opts := testOptions()
	opts.UseClicks = true
	result, err := NewService(renderer, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	require.Equal(t, ProvenanceSummaryOnly, result.Records[0].Provenance)
	require.Equal(t, "$850/mo", result.Records[0].Price)
	require.Equal(t, 1, result.Stats.ClickMismatches)
	require.Equal(t, 0, result.Stats.DetailFetched)
}
