package harvest

import (
	"bytes"
	"rentscout/lib/extract"
	"rentscout/lib/scrapers/zillow"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceValue(t *testing.T) {
	value, ok := priceValue("$1,095/mo")
	require.True(t, ok)
	require.Equal(t, 1095.0, value)

	value, ok = priceValue("$2,300+")
	require.True(t, ok)
	require.Equal(t, 2300.0, value)

	_, ok = priceValue(extract.Unknown)
	require.False(t, ok)
	_, ok = priceValue("")
	require.False(t, ok)
}

func TestWriteReportInsights(t *testing.T) {
	records := []Record{
		recordFromSummary(zillow.Summary{ZPID: "1", Price: "$1,000/mo", Bedrooms: "2"}),
		recordFromSummary(zillow.Summary{ZPID: "2", Price: "$2,000/mo", Bedrooms: "2"}),
	}

	var buf bytes.Buffer
	WriteReport(&buf, &Result{Records: records})
	out := buf.String()

	require.Contains(t, out, "min price")
	require.Contains(t, out, "$1000")
	require.Contains(t, out, "avg price")
	require.Contains(t, out, "$1500")
	require.Contains(t, out, "max price")
	require.Contains(t, out, "$2000")
	require.Contains(t, out, "2 bd")
	require.Contains(t, out, "unknown address")
}
