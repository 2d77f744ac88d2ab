package harvest

import (
	"fmt"
	"io"
	"rentscout/lib/extract"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteReport renders the run's records, counters and market insights
// as terminal tables.
func WriteReport(w io.Writer, result *Result) {
	listings := table.NewWriter()
	listings.SetOutputMirror(w)
	listings.SetStyle(table.StyleRounded)
	listings.AppendHeader(table.Row{"zpid", "address", "price", "bd", "ba", "sqft", "provenance"})
	for _, r := range result.Records {
		listings.AppendRow(table.Row{
			cell(r.ZPID), cell(r.Address), cell(r.Price),
			cell(r.Bedrooms), cell(r.Bathrooms), cell(r.Sqft),
			cell(r.Provenance),
		})
	}
	listings.Render()

	stats := table.NewWriter()
	stats.SetOutputMirror(w)
	stats.SetStyle(table.StyleRounded)
	stats.AppendHeader(table.Row{"counter", "value"})
	stats.AppendRow(table.Row{"pages fetched", result.Stats.PagesFetched})
	stats.AppendRow(table.Row{"cards seen", result.Stats.CardsSeen})
	stats.AppendRow(table.Row{"unique summaries", result.Stats.Summaries})
	stats.AppendRow(table.Row{"dropped (no key)", result.Stats.Dropped})
	stats.AppendRow(table.Row{"details fetched", result.Stats.DetailFetched})
	stats.AppendRow(table.Row{"details failed", result.Stats.DetailFailed})
	stats.AppendRow(table.Row{"click mismatches", result.Stats.ClickMismatches})
	stats.AppendRow(table.Row{"summary source", result.Stats.Source})
	stats.Render()

	WriteInsights(w, result.Records)
}

// WriteInsights renders the market-insight rollup (price spread,
// bedroom distribution, provenance and unknown-field counts) for any
// record set, live or pulled back out of the store.
func WriteInsights(w io.Writer, records []Record) {
	if len(records) == 0 {
		return
	}

	var min, max, sum float64
	priced := 0
	bedrooms := map[string]int{}
	provenance := map[string]int{}
	for _, r := range records {
		if value, ok := priceValue(r.Price); ok {
			if priced == 0 || value < min {
				min = value
			}
			if value > max {
				max = value
			}
			sum += value
			priced++
		}
		bedrooms[cell(r.Bedrooms)]++
		provenance[cell(r.Provenance)]++
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"insight", "value"})
	if priced > 0 {
		t.AppendRow(table.Row{"min price", fmt.Sprintf("$%.0f", min)})
		t.AppendRow(table.Row{"avg price", fmt.Sprintf("$%.0f", sum/float64(priced))})
		t.AppendRow(table.Row{"max price", fmt.Sprintf("$%.0f", max)})
	}
	for _, key := range sortedKeys(bedrooms) {
		t.AppendRow(table.Row{fmt.Sprintf("%s bd", key), bedrooms[key]})
	}
	for _, key := range sortedKeys(provenance) {
		t.AppendRow(table.Row{key, provenance[key]})
	}

	unknowns := make([]int, len(csvColumns))
	for _, r := range records {
		for i, value := range r.row() {
			if value == extract.Unknown {
				unknowns[i]++
			}
		}
	}
	for i, count := range unknowns {
		if count > 0 {
			t.AppendRow(table.Row{fmt.Sprintf("unknown %s", csvColumns[i]), count})
		}
	}
	t.Render()
}

// priceValue pulls the dollar amount out of a formatted price like
// "$1,095/mo". Sentinels and unparseable strings report false.
func priceValue(price string) (float64, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(price), "$")
	if i := strings.IndexAny(trimmed, "/+ "); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
