package zillow

import (
	"regexp"
	"rentscout/lib/extract"
)

// Strategy chains, most stable selector first. data-test attributes
// survive redesigns far longer than the generated styled-component
// class names, which are matched with [class*=] as a last resort.

var addressPattern = regexp.MustCompile(`(\d+\s+[A-Za-z\s-]+,\s*[A-Za-z\s]+,\s*[A-Z]{2}\s*\d{5}(?:-\d{4})?)`)

var (
	cardAddressChain = []extract.Strategy{
		extract.Text(`address[data-test="property-card-addr"]`),
		extract.Text(`div[data-test="property-card-addr"]`),
		extract.Text(`span[data-test="property-card-addr"]`),
		extract.Text(`address[class*="address"]`),
		extract.Text(`div[class*="StyledPropertyCardDataArea"]`),
		extract.Text(`span[class*="address"]`),
		extract.Regex(addressPattern),
	}

	cardPriceChain = []extract.Strategy{
		extract.Text(`span[data-test="property-card-price"]`),
		extract.Text(`div[data-test="property-card-price"]`),
		extract.Text(`span[class*="price"]`),
		extract.Regex(regexp.MustCompile(`(\$[\d,]+\+?(?:/mo)?)`)),
	}

	cardBedroomsChain = []extract.Strategy{
		extract.Regex(regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:bds?|beds?)`)),
	}

	cardBathroomsChain = []extract.Strategy{
		extract.Regex(regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ba|baths?)`)),
	}

	cardSqftChain = []extract.Strategy{
		extract.Text(`span[data-test="property-card-size"]`),
		extract.Regex(regexp.MustCompile(`(?i)([\d,]+)\s*sqft`)),
	}

	cardHomeTypeChain = []extract.Strategy{
		extract.Text(`span[data-test="property-card-type"]`),
		extract.Text(`div[data-test="property-card-type"]`),
	}

	cardURLChain = []extract.Strategy{
		extract.Attr(`a[data-test="property-card-link"]`, "href"),
		extract.Attr(`a[href*="/homedetails/"]`, "href"),
	}

	cardZPIDChain = []extract.Strategy{
		{
			Kind:     extract.KindRegex,
			Selector: `a[data-test="property-card-link"]`,
			Attr:     "href",
			Pattern:  zpidPattern,
		},
		{
			Kind:     extract.KindRegex,
			Selector: `a[href*="/homedetails/"]`,
			Attr:     "href",
			Pattern:  zpidPattern,
		},
	}
)

var (
	zpidPattern = regexp.MustCompile(`/(\d+)_zpid`)
	slugPattern = regexp.MustCompile(`/homedetails/(.+?)/\d+_zpid`)
)

var (
	detailPriceChain = []extract.Strategy{
		extract.Text(`span[data-testid="price"]`),
		extract.Text(`div[data-testid="price"]`),
		extract.Text(`span[data-test="price"]`),
		extract.Text(`span[class*="price"]`),
		extract.Text(`div[class*="price"]`),
		extract.Text(`h4[class*="price"]`),
		extract.Text(`span[class*="Price"]`),
		extract.Text(`div[class*="PriceDetails"]`),
	}

	detailAddressChain = []extract.Strategy{
		extract.Text(`h1[data-testid="home-details-address"]`),
		extract.Text(`h1[data-test="home-details-summary-address"]`),
		extract.Text(`h1[class*="address"]`),
		extract.Text(`div[class*="address"]`),
	}

	detailHomeTypeChain = []extract.Strategy{
		extract.Text(`span[data-test="property-type"]`),
		extract.Text(`span[class*="home-type"]`),
	}

	detailYearBuiltChain = []extract.Strategy{
		extract.Text(`span[data-test="year-built"]`),
		extract.Text(`span[class*="year-built"]`),
		extract.Regex(regexp.MustCompile(`(?i)built in\s*(\d{4})`)),
	}
)

// The bed/bath/sqft summary strip on detail pages. Each field is first
// scoped to the strip and then retried against the whole document,
// some layouts render the strip without data-testid.
const bedBathBeyondSelector = `div[data-testid="bed-bath-beyond"]`

var (
	detailBedroomsPattern  = regexp.MustCompile(`(?i)(\d+)\s*bed(?:room|s)?`)
	detailBathroomsPattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*bath(?:room|s)?`)
	detailSqftPattern      = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*)\s*(?:sqft|ft²)`)
)

var detailBedroomsChain = []extract.Strategy{
	{Kind: extract.KindRegex, Selector: bedBathBeyondSelector, Pattern: detailBedroomsPattern},
	{Kind: extract.KindRegex, Pattern: detailBedroomsPattern},
}

var detailBathroomsChain = []extract.Strategy{
	{Kind: extract.KindRegex, Selector: bedBathBeyondSelector, Pattern: detailBathroomsPattern},
	{Kind: extract.KindRegex, Pattern: detailBathroomsPattern},
}

var detailSqftChain = []extract.Strategy{
	{Kind: extract.KindRegex, Selector: bedBathBeyondSelector, Pattern: detailSqftPattern},
	{Kind: extract.KindRegex, Pattern: detailSqftPattern},
}

// Fact list containers scanned for amenity keywords.
var factsSelectors = []string{
	`div[data-testid="facts-and-features"]`,
	`ul[class*="facts-features"]`,
	`div[class*="home-facts"]`,
	`div[class*="facts"]`,
	`div[class*="FactGroup"]`,
}

var (
	petsKeywords    = []string{"cats", "dogs", "no pets"}
	laundryKeywords = []string{"laundry", "washer", "dryer"}
	parkingKeywords = []string{"parking", "garage"}
	coolingKeywords = []string{"air conditioning", "central air"}
	heatingKeywords = []string{"heating", "forced air"}
)
