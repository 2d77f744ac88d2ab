package zillow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const detailPageURL = "https://www.zillow.com/homedetails/407-N-Madison-St-Bloomington-IL-61701/44120987_zpid/"

const detailDomHTML = `
<html><body>
<span data-testid="price">$1,795/mo</span>
<h1 data-testid="home-details-address">407 N Madison St, Bloomington, IL 61701</h1>
<div data-testid="bed-bath-beyond">3 beds, 2 baths, 1,024 sqft</div>
<div data-testid="facts-and-features">
	<ul>
		<li>Cats OK</li>
		<li>In unit laundry</li>
		<li>Garage parking</li>
		<li>Heating: Forced air</li>
	</ul>
</div>
</body></html>`

func TestParseDetailPageFromDom(t *testing.T) {
	detail, err := ParseDetailPage(context.Background(), detailPageURL, detailDomHTML)
	require.NoError(t, err)

	require.Equal(t, "44120987", detail.ZPID)
	require.Equal(t, "407 N Madison St, Bloomington, IL 61701", detail.Address)
	require.Equal(t, "$1,795/mo", detail.Price)
	require.Equal(t, "3", detail.Bedrooms)
	require.Equal(t, "2", detail.Bathrooms)
	require.Equal(t, "1,024", detail.Sqft)

	require.Equal(t, "Cats OK", detail.PetsAllowed)
	require.Equal(t, "In unit laundry", detail.Laundry)
	require.Equal(t, "Garage parking", detail.Parking)
	require.Equal(t, "Heating: Forced air", detail.Heating)
	// nothing on the page mentions cooling
	require.Equal(t, AmenityNone, detail.Cooling)

	require.Equal(t, unknown, detail.HomeType)
	require.Equal(t, unknown, detail.YearBuilt)
	require.Equal(t, unknown, detail.WalkScore)
}

const detailPayloadHTML = `
<html><body>
<span data-testid="price">$1,795/mo</span>
<h1 data-testid="home-details-address">407 N Madison St APT 2, Bloomington, IL</h1>
<div data-testid="facts-and-features">
	<ul>
		<li>In unit laundry</li>
	</ul>
</div>
<script id="hdpApolloPreloadedData">
{"apiCache":{"ForRentQuery{\"zpid\":44120987}":{"property":{
	"zpid":44120987,
	"streetAddress":"407 N Madison St","city":"Bloomington","state":"IL","zipcode":"61701",
	"price":1800,"bedrooms":2,"bathrooms":1.5,"livingArea":950,
	"yearBuilt":1998,"homeType":"APARTMENT",
	"petPolicy":{"dogsAllowed":true,"catsAllowed":true},
	"walkScore":{"score":72},"transitScore":{"score":45},"bikeScore":{"score":60},
	"resoFacts":{"lotSize":"5,227 sqft","heating":["Forced air"],"cooling":["Central"],"parking":["Off-street"]}
}}}}
</script>
</body></html>`

func TestParseDetailPagePayloadWins(t *testing.T) {
	detail, err := ParseDetailPage(context.Background(), detailPageURL, detailPayloadHTML)
	require.NoError(t, err)

	require.Equal(t, "44120987", detail.ZPID)
	// payload values beat the DOM where both exist
	require.Equal(t, "407 N Madison St, Bloomington, IL 61701", detail.Address)
	require.Equal(t, "$1,800/mo", detail.Price)
	require.Equal(t, "2", detail.Bedrooms)
	require.Equal(t, "1.5", detail.Bathrooms)
	require.Equal(t, "950", detail.Sqft)
	require.Equal(t, "APARTMENT", detail.HomeType)
	require.Equal(t, "1998", detail.YearBuilt)
	require.Equal(t, "5,227 sqft", detail.LotSize)
	require.Equal(t, "72", detail.WalkScore)
	require.Equal(t, "45", detail.TransitScore)
	require.Equal(t, "60", detail.BikeScore)
	require.Equal(t, "Dogs OK, Cats OK", detail.PetsAllowed)
	require.Equal(t, "Central", detail.Cooling)
	require.Equal(t, "Forced air", detail.Heating)
	require.Equal(t, "Off-street", detail.Parking)

	// the payload carries no laundry facts, the DOM fills the gap
	require.Equal(t, "In unit laundry", detail.Laundry)
}

func TestParseDetailPageURLFallbacks(t *testing.T) {
	url := "https://www.zillow.com/homedetails/811-S-Clinton-St-Bloomington-IL-61701/88990011_zpid/"
	detail, err := ParseDetailPage(context.Background(), url, "<html><body></body></html>")
	require.NoError(t, err)

	require.Equal(t, "88990011", detail.ZPID)
	require.Equal(t, "811 S Clinton St Bloomington Il 61701", detail.Address)
	require.Equal(t, unknown, detail.Price)
	require.Equal(t, PetsNone, detail.PetsAllowed)
	require.Equal(t, AmenityNone, detail.Laundry)
}

func TestParseDetailPageMalformedPayloadDegrades(t *testing.T) {
	html := `
	<html><body>
	<span data-testid="price">$1,250/mo</span>
	<script id="hdpApolloPreloadedData">{"apiCache": not json</script>
	</body></html>`

	detail, err := ParseDetailPage(context.Background(), detailPageURL, html)
	require.NoError(t, err)
	require.Equal(t, "$1,250/mo", detail.Price)
	require.Equal(t, "44120987", detail.ZPID)
}
