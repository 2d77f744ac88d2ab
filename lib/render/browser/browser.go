// Package browser drives a local headless Chrome through the same
// behavior flows the remote rendering API accepts. It exists so a run can
// work without burning rendering-API credits, and as the fallback pair
// for it.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"rentscout/lib/render"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rentscout.lib.render.browser")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	Headless  bool
	UserAgent string
	// default deadline for a whole render, Request.Timeout overrides
	Timeout time.Duration
}

type Renderer struct {
	opts   Options
	alloc  context.Context
	cancel context.CancelFunc
}

func NewRenderer(opts Options) *Renderer {
	ua := opts.UserAgent
	if ua == "" {
		ua = userAgent
	}
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(ua),
	)
	alloc, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &Renderer{opts: opts, alloc: alloc, cancel: cancel}
}

func (r *Renderer) Name() string {
	return "browser"
}

func (r *Renderer) Close() error {
	r.cancel()
	return nil
}

func (r *Renderer) Render(ctx context.Context, req render.Request) (string, error) {
	ctx, span := tracer.Start(ctx, "browser:Render")
	defer span.End()
	span.SetAttributes(attribute.String("url", req.URL))

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.opts.Timeout
	}
	if timeout <= 0 {
		timeout = time.Second * 120
	}

	// every render gets a fresh tab chained off the shared allocator,
	// canceled when either the deadline passes or the caller gives up
	tab, cancelTab := chromedp.NewContext(r.alloc)
	defer cancelTab()
	tab, cancelTimeout := context.WithTimeout(tab, timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(req.URL)}
	for _, step := range req.Flow {
		action, err := translateStep(step)
		if err != nil {
			return "", &render.Error{
				URL: req.URL, Reason: render.ReasonBackend, Attempts: 1, Err: err,
			}
		}
		actions = append(actions, action)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	err := chromedp.Run(tab, actions...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "browser run failed")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonBackend,
			Attempts: 1,
			Message:  "browser run failed",
			Err:      err,
		}
	}
	if render.DetectChallenge(html) {
		span.SetStatus(codes.Error, "challenged")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonChallenge,
			Attempts: 1,
			Message:  "target served a challenge page",
		}
	}

	return html, nil
}

func translateStep(step render.Step) (chromedp.Action, error) {
	switch s := step.(type) {
	case render.WaitFor:
		return waitForAny(s.Selectors, s.Timeout), nil
	case render.ScrollTo:
		return chromedp.Evaluate(scrollIntoViewExpr(s.Selector), nil), nil
	case render.Wait:
		return chromedp.Sleep(s.Delay), nil
	case render.WaitAndClick:
		return clickAction(s), nil
	case render.InfiniteScroll:
		return infiniteScrollAction(s), nil
	default:
		return nil, fmt.Errorf("unsupported flow step %T", step)
	}
}

func waitForAny(selectors []string, timeout time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		var found bool
		return chromedp.Poll(
			anySelectorExpr(selectors),
			&found,
			chromedp.WithPollingInterval(time.Millisecond*250),
		).Do(ctx)
	})
}

func clickAction(s render.WaitAndClick) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}
		if s.Scroll {
			// best effort, the click still works when scrolling doesn't
			chromedp.Evaluate(scrollIntoViewExpr(s.Selector), nil).Do(ctx)
		}
		err := chromedp.Click(s.Selector, chromedp.ByQuery).Do(ctx)
		if err != nil {
			return err
		}
		if s.Delay > 0 {
			return chromedp.Sleep(s.Delay).Do(ctx)
		}
		return nil
	})
}

func infiniteScrollAction(s render.InfiniteScroll) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		duration := s.Duration
		if duration <= 0 {
			duration = time.Second * 30
		}
		settle := s.DelayAfterScroll
		if settle <= 0 {
			settle = time.Second * 2
		}

		deadline := time.Now().Add(duration)
		idleSince := time.Now()
		var lastHeight int64

		for time.Now().Before(deadline) {
			var height int64
			err := chromedp.Evaluate(
				`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`,
				&height,
			).Do(ctx)
			if err != nil {
				return err
			}

			if err := sleepCtx(ctx, settle); err != nil {
				return err
			}
			if s.LoadingSelector != "" {
				waitSpinnerGone(ctx, s.LoadingSelector, settle)
			}

			if height == lastHeight {
				if s.IdleTimeout > 0 && time.Since(idleSince) >= s.IdleTimeout {
					return nil
				}
			} else {
				lastHeight = height
				idleSince = time.Now()
			}
		}
		return nil
	})
}

// waits until the loading spinner disappears, bounded so a sticky
// spinner can't stall the whole scroll
func waitSpinnerGone(ctx context.Context, selector string, bound time.Duration) {
	wctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	var gone bool
	sel, _ := json.Marshal(selector)
	chromedp.Poll(
		fmt.Sprintf(`document.querySelector(%s) === null`, sel),
		&gone,
		chromedp.WithPollingInterval(time.Millisecond*250),
	).Do(wctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func anySelectorExpr(selectors []string) string {
	list, _ := json.Marshal(selectors)
	return fmt.Sprintf(`%s.some(s => document.querySelector(s) !== null)`, list)
}

func scrollIntoViewExpr(selector string) string {
	sel, _ := json.Marshal(selector)
	return fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); if (el) { el.scrollIntoView({block: "center"}); } return true; })()`,
		sel,
	)
}
