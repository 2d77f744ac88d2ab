package zillow

import (
	"fmt"
	"rentscout/lib/render"
	"time"
)

// Selectors the flows key off. Cards stop rendering below the fold
// until scrolled to, so search flows are mostly scroll choreography.
const (
	cardSelector    = `article[data-test="property-card"]`
	spinnerSelector = `div[data-test="loading-spinner"]`
	payloadSelector = `script#hdpApolloPreloadedData`
)

// SearchFlow renders a search page far enough that every lazy card has
// mounted. The timings are deliberately generous, results pages keep
// loading rows well after the viewport settles.
func SearchFlow() []render.Step {
	return []render.Step{
		render.WaitFor{
			Selectors: []string{cardSelector},
			Timeout:   30 * time.Second,
			Visible:   true,
		},
		render.ScrollTo{Selector: cardSelector + ":last-child"},
		render.Wait{Delay: 5 * time.Second},
		render.ScrollTo{Selector: "body"},
		render.Wait{Delay: 5 * time.Second},
		render.InfiniteScroll{
			Duration:         60 * time.Second,
			LoadingSelector:  spinnerSelector,
			DelayAfterScroll: 5 * time.Second,
			IdleTimeout:      10 * time.Second,
		},
		render.Wait{Delay: 10 * time.Second},
	}
}

// RescueScrollFlow is the second, more aggressive pass used when the
// first render came back with fewer cards than the page claims to
// have. It walks fixed card positions before scrolling free.
func RescueScrollFlow() []render.Step {
	return []render.Step{
		render.Wait{Delay: 5 * time.Second},
		render.ScrollTo{Selector: cardSelector + ":nth-child(10)"},
		render.Wait{Delay: 3 * time.Second},
		render.ScrollTo{Selector: cardSelector + ":nth-child(15)"},
		render.Wait{Delay: 3 * time.Second},
		render.ScrollTo{Selector: cardSelector + ":nth-child(18)"},
		render.Wait{Delay: 3 * time.Second},
		render.ScrollTo{Selector: "body"},
		render.Wait{Delay: 3 * time.Second},
		render.ScrollTo{Selector: "footer"},
		render.Wait{Delay: 3 * time.Second},
		render.InfiniteScroll{
			Duration:         30 * time.Second,
			LoadingSelector:  spinnerSelector,
			DelayAfterScroll: 3 * time.Second,
			IdleTimeout:      5 * time.Second,
		},
		render.Wait{Delay: 8 * time.Second},
	}
}

// DetailFlow renders a detail page until the summary header and the
// facts block exist. The facts block mounts lazily, hence the scroll.
func DetailFlow() []render.Step {
	return []render.Step{
		render.WaitFor{
			Selectors: []string{
				`span[data-testid="price"]`,
				`h1[data-testid="home-details-address"]`,
				`div[data-testid="bed-bath-beyond"]`,
			},
			Timeout: 40 * time.Second,
			Visible: true,
		},
		render.ScrollTo{Selector: "body"},
		render.Wait{Delay: 8 * time.Second},
		render.ScrollTo{Selector: `div[data-testid="facts-and-features"]`},
		render.Wait{Delay: 6 * time.Second},
	}
}

// CardClickFlow opens the nth card (1-based) in place instead of
// navigating to its URL, which looks more organic to the target. The
// caller must verify the page that comes back is the card it asked
// for.
func CardClickFlow(position int) []render.Step {
	selector := fmt.Sprintf(
		`%s:nth-child(%d) a[data-test="property-card-link"]`,
		cardSelector, position,
	)
	return []render.Step{
		render.WaitFor{
			Selectors: []string{selector},
			Timeout:   10 * time.Second,
			Visible:   true,
		},
		render.WaitAndClick{
			Selector: selector,
			Timeout:  20 * time.Second,
			Delay:    time.Second,
			Scroll:   true,
		},
		render.Wait{Delay: 2 * time.Second},
		// presence only, script tags never count as visible
		render.WaitFor{
			Selectors: []string{payloadSelector},
			Timeout:   15 * time.Second,
		},
		render.Wait{Delay: 3 * time.Second},
	}
}
