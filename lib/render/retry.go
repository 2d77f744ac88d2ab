package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rentscout.lib.render")

// Backoff decides how long to sleep between failed attempts. The jitter
// is deliberate, synchronized retries look like a bot to the target's
// rate limiting.
type Backoff struct {
	MinSeconds  int  `json:"min_seconds"`
	MaxSeconds  int  `json:"max_seconds"`
	Exponential bool `json:"exponential"`
}

func (b Backoff) Delay(attempt int) time.Duration {
	min := b.MinSeconds
	max := b.MaxSeconds
	if min <= 0 && max <= 0 {
		min, max = 3, 5
	}
	if max < min {
		max = min
	}

	if b.Exponential {
		secs := min << (attempt - 1)
		if secs > max {
			secs = max
		}
		return time.Duration(secs) * time.Second
	}

	secs, err := random.IntRange(min, max+1)
	if err != nil {
		secs = min
	}
	return time.Duration(secs) * time.Second
}

// Retrying gives any Renderer the bounded-retry contract: up to
// MaxAttempts calls with a Backoff delay between them. Challenge pages
// are returned immediately, asking the same backend again will not clear
// a captcha.
type Retrying struct {
	Inner       Renderer
	MaxAttempts int
	Backoff     Backoff
}

func (r Retrying) Name() string {
	return fmt.Sprintf("retrying(%s)", r.Inner.Name())
}

func (r Retrying) Render(ctx context.Context, req Request) (string, error) {
	ctx, span := tracer.Start(ctx, "Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", req.URL),
		attribute.String("renderer", r.Inner.Name()),
	)

	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var last *Error
	for attempt := 1; attempt <= attempts; attempt++ {
		html, err := r.Inner.Render(ctx, req)
		if err == nil {
			return html, nil
		}

		var rerr *Error
		if errors.As(err, &rerr) {
			last = rerr
		} else {
			last = &Error{URL: req.URL, Reason: ReasonNetwork, Err: err}
		}
		last.Attempts = attempt

		if last.Reason == ReasonChallenge {
			span.RecordError(last)
			span.SetStatus(codes.Error, "challenged")
			return "", last
		}
		if attempt == attempts {
			break
		}

		delay := r.Backoff.Delay(attempt)
		slog.WarnContext(
			ctx, "render attempt failed, backing off",
			"url", req.URL,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", delay,
			"err", err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", &Error{
				URL:      req.URL,
				Reason:   ReasonNetwork,
				Attempts: attempt,
				Message:  "canceled during backoff",
				Err:      ctx.Err(),
			}
		}
	}

	span.RecordError(last)
	span.SetStatus(codes.Error, "exhausted attempts")
	return "", last
}
