package zillow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Embedded payload parsing. Server-rendered pages ship the full record
// set in script tags, which is richer and far more stable than the
// markup. Parsers return an explicit error instead of an empty result
// so the caller can log the degrade and fall back to DOM chains.

// flexString tolerates the payload's habit of flipping fields between
// JSON strings and numbers across page versions.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// booleans and objects carry no usable value here
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexList tolerates string-or-array amenity facts.
type flexList []string

func (f *flexList) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*f = flexList{s}
		}
		return nil
	}
	var items []flexString
	if err := json.Unmarshal(b, &items); err != nil {
		*f = nil
		return nil
	}
	for _, item := range items {
		if item != "" {
			*f = append(*f, string(item))
		}
	}
	return nil
}

func (f flexList) join() string {
	return strings.Join(f, ", ")
}

type listResult struct {
	ZPID         flexString `json:"zpid"`
	Address      string     `json:"address"`
	DetailURL    string     `json:"detailUrl"`
	Price        string     `json:"price"`
	Beds         flexString `json:"beds"`
	Baths        flexString `json:"baths"`
	Area         flexString `json:"area"`
	PropertyType string     `json:"propertyType"`
}

type searchResultsEnvelope struct {
	Cat1 struct {
		SearchResults struct {
			ListResults []listResult `json:"listResults"`
			MapResults  []listResult `json:"mapResults"`
		} `json:"searchResults"`
	} `json:"cat1"`
}

func (e searchResultsEnvelope) results() []listResult {
	if len(e.Cat1.SearchResults.ListResults) > 0 {
		return e.Cat1.SearchResults.ListResults
	}
	return e.Cat1.SearchResults.MapResults
}

const initialStateMarker = "window.__INITIAL_STATE__="

// parseSearchPayload extracts result summaries from whichever embedded
// payload carrier the page shipped. carrier names the one that matched
// for logging.
func parseSearchPayload(doc *goquery.Document) (summaries []Summary, carrier string, err error) {
	if script := doc.Find("script#__NEXT_DATA__").First(); script.Length() > 0 {
		summaries, err := parseNextData(script.Text())
		if err != nil {
			return nil, "", fmt.Errorf("__NEXT_DATA__: %w", err)
		}
		return summaries, "__NEXT_DATA__", nil
	}

	var stateJSON string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		if idx := strings.Index(text, initialStateMarker); idx >= 0 {
			stateJSON = text[idx+len(initialStateMarker):]
			return false
		}
		return true
	})
	if stateJSON != "" {
		summaries, err := parseInitialState(stateJSON)
		if err != nil {
			return nil, "", fmt.Errorf("__INITIAL_STATE__: %w", err)
		}
		return summaries, "__INITIAL_STATE__", nil
	}

	return nil, "", errors.New("no embedded search payload found")
}

func parseNextData(text string) ([]Summary, error) {
	var next struct {
		Props struct {
			PageProps struct {
				ComponentProps struct {
					SearchResults searchResultsEnvelope `json:"searchResults"`
				} `json:"componentProps"`
				SearchPageState searchResultsEnvelope `json:"searchPageState"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(text), &next); err != nil {
		return nil, err
	}

	results := next.Props.PageProps.ComponentProps.SearchResults.results()
	if len(results) == 0 {
		results = next.Props.PageProps.SearchPageState.results()
	}
	if len(results) == 0 {
		return nil, errors.New("payload carries no results")
	}
	return toSummaries(results), nil
}

func parseInitialState(text string) ([]Summary, error) {
	var state struct {
		SearchResults struct {
			ListResults []listResult `json:"listResults"`
		} `json:"searchResults"`
	}
	// a json.Decoder stops at the end of the first value, which skips
	// whatever javascript follows the assignment
	decoder := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))
	if err := decoder.Decode(&state); err != nil {
		return nil, err
	}
	if len(state.SearchResults.ListResults) == 0 {
		return nil, errors.New("payload carries no results")
	}
	return toSummaries(state.SearchResults.ListResults), nil
}

func toSummaries(results []listResult) []Summary {
	summaries := make([]Summary, 0, len(results))
	for _, r := range results {
		url := absoluteURL(r.DetailURL)
		if url == "" && r.ZPID != "" {
			url = fmt.Sprintf("%s/homedetails/%s_zpid/", BaseURL, r.ZPID)
		}
		summaries = append(summaries, Summary{
			ZPID:      string(r.ZPID),
			Address:   orUnknown(r.Address),
			URL:       url,
			Price:     orUnknown(r.Price),
			Bedrooms:  orUnknown(string(r.Beds)),
			Bathrooms: orUnknown(string(r.Baths)),
			Sqft:      orUnknown(string(r.Area)),
			HomeType:  orUnknown(r.PropertyType),
		})
	}
	return summaries
}

type scoreBlock struct {
	Score flexString `json:"score"`
}

type petPolicy struct {
	DogsAllowed bool `json:"dogsAllowed"`
	CatsAllowed bool `json:"catsAllowed"`
}

type propertyPayload struct {
	ZPID          flexString `json:"zpid"`
	StreetAddress string     `json:"streetAddress"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	Zipcode       string     `json:"zipcode"`
	Price         flexString `json:"price"`
	Bedrooms      flexString `json:"bedrooms"`
	Bathrooms     flexString `json:"bathrooms"`
	LivingArea    flexString `json:"livingArea"`
	YearBuilt     flexString `json:"yearBuilt"`
	HomeType      string     `json:"homeType"`
	PetPolicy     *petPolicy `json:"petPolicy"`
	WalkScore     scoreBlock `json:"walkScore"`
	TransitScore  scoreBlock `json:"transitScore"`
	BikeScore     scoreBlock `json:"bikeScore"`
	ResoFacts     struct {
		LotSize         flexString `json:"lotSize"`
		Heating         flexList   `json:"heating"`
		Cooling         flexList   `json:"cooling"`
		Parking         flexList   `json:"parking"`
		LaundryFeatures flexList   `json:"laundryFeatures"`
	} `json:"resoFacts"`
}

// parseDetailPayload extracts the property record embedded in a detail
// page. The apiCache carrier maps opaque query keys to cached
// responses, one of which holds the property.
func parseDetailPayload(doc *goquery.Document) (propertyPayload, error) {
	script := doc.Find("script#hdpApolloPreloadedData").First()
	if script.Length() == 0 {
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(s.Text(), "apiCache") {
				script = s
				return false
			}
			return true
		})
	}
	if script.Length() == 0 {
		return propertyPayload{}, errors.New("no preloaded data script found")
	}

	text := strings.TrimSpace(script.Text())
	text = strings.TrimPrefix(text, initialStateMarker)
	text = strings.TrimPrefix(text, "window.__APOLLO_STATE__=")
	text = strings.TrimSuffix(text, ";")

	var preloaded struct {
		ApiCache json.RawMessage `json:"apiCache"`
		Property json.RawMessage `json:"property"`
	}
	if err := json.Unmarshal([]byte(text), &preloaded); err != nil {
		return propertyPayload{}, fmt.Errorf("could not parse preloaded data: %w", err)
	}

	if prop, ok := propertyFromApiCache(preloaded.ApiCache); ok {
		return prop, nil
	}
	if len(preloaded.Property) > 0 {
		var prop propertyPayload
		if err := json.Unmarshal(preloaded.Property, &prop); err == nil && prop.ZPID != "" {
			return prop, nil
		}
	}
	return propertyPayload{}, errors.New("no property record in preloaded data")
}

func propertyFromApiCache(raw json.RawMessage) (propertyPayload, bool) {
	if len(raw) == 0 {
		return propertyPayload{}, false
	}
	// some page versions double-encode the cache as a JSON string
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return propertyPayload{}, false
		}
		raw = json.RawMessage(inner)
	}

	var cache map[string]struct {
		Property *propertyPayload `json:"property"`
	}
	if err := json.Unmarshal(raw, &cache); err != nil {
		return propertyPayload{}, false
	}
	for _, entry := range cache {
		if entry.Property != nil && entry.Property.ZPID != "" {
			return *entry.Property, true
		}
	}
	return propertyPayload{}, false
}

// toDetail maps the payload onto a Detail, leaving miss values in
// place for whatever the payload lacks.
func (p propertyPayload) toDetail() Detail {
	d := NewDetail()
	d.ZPID = string(p.ZPID)

	if p.StreetAddress != "" {
		d.Address = fmt.Sprintf("%s, %s, %s %s", p.StreetAddress, p.City, p.State, p.Zipcode)
	}
	if price := formatMonthlyPrice(string(p.Price)); price != "" {
		d.Price = price
	}
	setKnown(&d.Bedrooms, nonZero(string(p.Bedrooms)))
	setKnown(&d.Bathrooms, nonZero(string(p.Bathrooms)))
	setKnown(&d.Sqft, nonZero(string(p.LivingArea)))
	setKnown(&d.HomeType, p.HomeType)
	setKnown(&d.YearBuilt, nonZero(string(p.YearBuilt)))
	setKnown(&d.LotSize, nonZero(string(p.ResoFacts.LotSize)))
	setKnown(&d.WalkScore, nonZero(string(p.WalkScore.Score)))
	setKnown(&d.TransitScore, nonZero(string(p.TransitScore.Score)))
	setKnown(&d.BikeScore, nonZero(string(p.BikeScore.Score)))

	if p.PetPolicy != nil {
		var pets []string
		if p.PetPolicy.DogsAllowed {
			pets = append(pets, "Dogs OK")
		}
		if p.PetPolicy.CatsAllowed {
			pets = append(pets, "Cats OK")
		}
		if len(pets) > 0 {
			d.PetsAllowed = strings.Join(pets, ", ")
		}
	}
	if v := p.ResoFacts.LaundryFeatures.join(); v != "" {
		d.Laundry = v
	}
	if v := p.ResoFacts.Parking.join(); v != "" {
		d.Parking = v
	}
	if v := p.ResoFacts.Cooling.join(); v != "" {
		d.Cooling = v
	}
	if v := p.ResoFacts.Heating.join(); v != "" {
		d.Heating = v
	}
	return d
}

func setKnown(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// nonZero filters the payload's zero placeholders, which mean "not
// recorded" rather than a real value.
func nonZero(s string) string {
	if s == "" || s == "0" || s == "0.0" {
		return ""
	}
	return s
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknown
	}
	return s
}

func absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return BaseURL + href
	default:
		return BaseURL + "/" + href
	}
}

// formatMonthlyPrice renders a numeric payload price the way the page
// displays it, so payload and DOM values stay comparable. Already
// formatted prices pass through.
func formatMonthlyPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "$") {
		return raw
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return ""
	}
	return "$" + groupThousands(int64(value+0.5)) + "/mo"
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
