package extract

import (
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func selection(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func TestFirstStopsAtFirstHit(t *testing.T) {
	sel := selection(t, `
		<div>
			<span class="price">$1,800/mo</span>
			<span class="price-alt">$9,999/mo</span>
		</div>
	`)

	value, ok := First(sel, []Strategy{
		Text("span.price"),
		Text("span.price-alt"),
	})
	require.True(t, ok)
	require.Equal(t, "$1,800/mo", value)
}

func TestFirstFallsThroughMisses(t *testing.T) {
	sel := selection(t, `<div><span class="price-alt">$2,100/mo</span></div>`)

	value, ok := First(sel, []Strategy{
		Text("span.price"),
		Text("span.missing-too"),
		Text("span.price-alt"),
	})
	require.True(t, ok)
	require.Equal(t, "$2,100/mo", value)
}

func TestValueSentinelWhenAllMiss(t *testing.T) {
	sel := selection(t, `<div><p>nothing useful here</p></div>`)

	value := Value(sel, []Strategy{
		Text("span.price"),
		Regex(regexp.MustCompile(`\$([\d,]+)/mo`)),
	})
	require.Equal(t, Unknown, value)
}

func TestFirstOrCustomFallback(t *testing.T) {
	sel := selection(t, `<div></div>`)

	value := FirstOr(sel, []Strategy{Text("span.pets")}, "No")
	require.Equal(t, "No", value)
}

func TestAttrStrategy(t *testing.T) {
	sel := selection(t, `<a class="card-link" href="https://example.com/homedetails/1-main-st/12345_zpid/">home</a>`)

	value, ok := First(sel, []Strategy{Attr("a.card-link", "href")})
	require.True(t, ok)
	require.Equal(t, "https://example.com/homedetails/1-main-st/12345_zpid/", value)
}

func TestRegexOverText(t *testing.T) {
	sel := selection(t, `<li>3 bds &middot; 2 ba &middot; 1,250 sqft</li>`)

	beds := Value(sel, []Strategy{Regex(regexp.MustCompile(`(\d+)\s*bds?`))})
	require.Equal(t, "3", beds)

	sqft := Value(sel, []Strategy{Regex(regexp.MustCompile(`([\d,]+)\s*sqft`))})
	require.Equal(t, "1,250", sqft)
}

func TestRegexOverAttribute(t *testing.T) {
	sel := selection(t, `<a class="card-link" href="/homedetails/1-main-st/44120987_zpid/">home</a>`)

	zpid := Value(sel, []Strategy{{
		Kind:     KindRegex,
		Selector: "a.card-link",
		Attr:     "href",
		Pattern:  regexp.MustCompile(`/(\d+)_zpid`),
	}})
	require.Equal(t, "44120987", zpid)
}

func TestRegexScopedToSelector(t *testing.T) {
	sel := selection(t, `
		<div>
			<p class="noise">built in 1850, probably</p>
			<span class="facts">Year built: 1998</span>
		</div>
	`)

	year := Value(sel, []Strategy{{
		Kind:     KindRegex,
		Selector: "span.facts",
		Pattern:  regexp.MustCompile(`Year built:\s*(\d{4})`),
	}})
	require.Equal(t, "1998", year)
}

func TestRegexGroupSelection(t *testing.T) {
	sel := selection(t, `<span>2 bd / 1.5 ba</span>`)

	baths := Value(sel, []Strategy{{
		Kind:    KindRegex,
		Pattern: regexp.MustCompile(`(\d+) bd / (\d+(?:\.\d+)?) ba`),
		Group:   2,
	}})
	require.Equal(t, "1.5", baths)
}

func TestWhitespaceCollapsed(t *testing.T) {
	sel := selection(t, "<address>407 N Madison St,\n\t   Bloomington, IL 61701</address>")

	value := Value(sel, []Strategy{Text("address")})
	require.Equal(t, "407 N Madison St, Bloomington, IL 61701", value)
}
