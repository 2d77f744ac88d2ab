// Package render abstracts "give me the fully rendered HTML of this url"
// over interchangeable backends: a remote rendering API, a locally driven
// browser, or a plain HTTP fetch. Callers describe lazy-load defeating
// interactions as an ordered Flow of steps; executing the flow is entirely
// the backend's concern.
package render

import (
	"context"
	"fmt"
	"time"
)

type Request struct {
	URL     string
	Flow    []Step
	Timeout time.Duration
}

type Renderer interface {
	Name() string
	Render(ctx context.Context, req Request) (string, error)
}

type Reason string

const (
	// the request never produced an http response
	ReasonNetwork Reason = "network"
	// the backend answered with a non-2xx status
	ReasonStatus Reason = "status"
	// the backend answered 2xx but reported a non-success result
	ReasonBackend Reason = "backend"
	// the backend answered with a body that is not the documented shape
	ReasonProtocol Reason = "protocol"
	// the target served a captcha or press-and-hold interstitial
	ReasonChallenge Reason = "challenge"
)

type Error struct {
	URL      string
	Reason   Reason
	Attempts int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("render %s failed (%s after %d attempt(s))", e.URL, e.Reason, e.Attempts)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
