package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStepWireShapes(t *testing.T) {
	steps := []Step{
		WaitFor{
			Selectors: []string{"article[data-test='property-card']", "#grid-search-results"},
			Timeout:   time.Second * 30,
			Visible:   true,
		},
		ScrollTo{Selector: "body", Visible: false},
		Wait{Delay: time.Second * 5},
		WaitAndClick{
			Selector: "article:nth-of-type(3) a",
			Timeout:  time.Second * 20,
			Delay:    time.Millisecond * 500,
			Scroll:   true,
			Visible:  false,
		},
		InfiniteScroll{
			Duration:         time.Second * 60,
			LoadingSelector:  "div[data-test='loading-spinner']",
			DelayAfterScroll: time.Second * 5,
			IdleTimeout:      time.Second * 10,
		},
	}
	expected := []string{
		`{"wait_for":{"selectors":["article[data-test='property-card']","#grid-search-results"],"timeout":30000,"visible":true}}`,
		`{"scroll_to":{"selector":"body","visible":false}}`,
		`{"wait":{"delay":5000}}`,
		`{"wait_and_click":{"selector":"article:nth-of-type(3) a","timeout":20000,"delay":500,"scroll":true,"visible":false}}`,
		`{"infinite_scroll":{"duration":60000,"loading_selector":"div[data-test='loading-spinner']","delay_after_scroll":5000,"idle_timeout":10000}}`,
	}

	for i, step := range steps {
		out, err := json.Marshal(step)
		if err != nil {
			t.Fatal(err)
		}
		require.JSONEq(t, expected[i], string(out))
	}
}

func TestFlowMarshalsAsArray(t *testing.T) {
	flow := []Step{
		WaitFor{Selectors: []string{"h1"}, Timeout: time.Second, Visible: true},
		Wait{Delay: time.Second * 2},
	}
	out, err := json.Marshal(flow)
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(
		t,
		`[{"wait_for":{"selectors":["h1"],"timeout":1000,"visible":true}},{"wait":{"delay":2000}}]`,
		string(out),
	)
}
