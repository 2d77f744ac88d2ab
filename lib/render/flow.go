package render

import (
	"encoding/json"
	"time"
)

// Step is one instruction in a behavior flow. Every variant serializes to
// the wire shape the rendering backend expects: a single-key object named
// after the instruction, durations in integral milliseconds.
type Step interface {
	json.Marshaler
}

func marshalStep(name string, body any) ([]byte, error) {
	return json.Marshal(map[string]any{name: body})
}

// WaitFor blocks until one of the selectors matches, optionally requiring
// the element to be visible.
type WaitFor struct {
	Selectors []string
	Timeout   time.Duration
	Visible   bool
}

func (s WaitFor) MarshalJSON() ([]byte, error) {
	return marshalStep("wait_for", struct {
		Selectors []string `json:"selectors"`
		Timeout   int64    `json:"timeout"`
		Visible   bool     `json:"visible"`
	}{s.Selectors, s.Timeout.Milliseconds(), s.Visible})
}

// ScrollTo scrolls the first element matching the selector into view.
type ScrollTo struct {
	Selector string
	Visible  bool
}

func (s ScrollTo) MarshalJSON() ([]byte, error) {
	return marshalStep("scroll_to", struct {
		Selector string `json:"selector"`
		Visible  bool   `json:"visible"`
	}{s.Selector, s.Visible})
}

// Wait pauses for a fixed settle time.
type Wait struct {
	Delay time.Duration
}

func (s Wait) MarshalJSON() ([]byte, error) {
	return marshalStep("wait", struct {
		Delay int64 `json:"delay"`
	}{s.Delay.Milliseconds()})
}

// WaitAndClick waits for the selector, optionally scrolls it into view,
// clicks it, then pauses Delay before the next step.
type WaitAndClick struct {
	Selector string
	Timeout  time.Duration
	Delay    time.Duration
	Scroll   bool
	Visible  bool
}

func (s WaitAndClick) MarshalJSON() ([]byte, error) {
	return marshalStep("wait_and_click", struct {
		Selector string `json:"selector"`
		Timeout  int64  `json:"timeout"`
		Delay    int64  `json:"delay"`
		Scroll   bool   `json:"scroll"`
		Visible  bool   `json:"visible"`
	}{s.Selector, s.Timeout.Milliseconds(), s.Delay.Milliseconds(), s.Scroll, s.Visible})
}

// InfiniteScroll repeatedly scrolls to the bottom until no new content
// appears (idle timeout) or the total duration elapses. LoadingSelector
// names the spinner whose disappearance signals a settled page.
type InfiniteScroll struct {
	Duration         time.Duration
	LoadingSelector  string
	DelayAfterScroll time.Duration
	IdleTimeout      time.Duration
}

func (s InfiniteScroll) MarshalJSON() ([]byte, error) {
	return marshalStep("infinite_scroll", struct {
		Duration         int64  `json:"duration"`
		LoadingSelector  string `json:"loading_selector"`
		DelayAfterScroll int64  `json:"delay_after_scroll"`
		IdleTimeout      int64  `json:"idle_timeout"`
	}{
		s.Duration.Milliseconds(),
		s.LoadingSelector,
		s.DelayAfterScroll.Milliseconds(),
		s.IdleTimeout.Milliseconds(),
	})
}
