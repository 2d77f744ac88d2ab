// Package static fetches pages with a plain HTTP GET, no JavaScript
// execution. Listing pages render most of their payload into
// server-side script tags, so a static fetch is often enough for detail
// pages and makes a cheap first try before a real browser.
package static

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"rentscout/lib/render"
	"rentscout/lib/restyutil"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rentscout.lib.render.static")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	Timeout time.Duration
	// Debug receives request/response dumps when set.
	Debug restyutil.InstrumentOutput
}

type Renderer struct {
	client *resty.Client
}

func NewRenderer(opts Options) (*Renderer, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 60
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("could not create cookie jar: %w", err)
	}

	client := resty.New().
		SetCookieJar(jar).
		SetHeader("User-Agent", userAgent).
		SetTimeout(timeout)
	client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))
	restyutil.InstrumentClient(client, tracer, opts.Debug)

	return &Renderer{client: client}, nil
}

func (r *Renderer) Name() string {
	return "static"
}

// Render fetches the page body as served. Flow steps need a JavaScript
// runtime and are skipped.
func (r *Renderer) Render(ctx context.Context, req render.Request) (string, error) {
	ctx, span := tracer.Start(ctx, "static:Render")
	defer span.End()
	span.SetAttributes(attribute.String("url", req.URL))

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	res, err := r.client.R().
		SetContext(ctx).
		Get(req.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonNetwork,
			Attempts: 1,
			Message:  "request failed",
			Err:      err,
		}
	}

	body := string(res.Body())
	if render.DetectChallenge(body) {
		span.SetStatus(codes.Error, "challenged")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonChallenge,
			Attempts: 1,
			Message:  fmt.Sprintf("target served a challenge page (status %d)", res.StatusCode()),
		}
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonStatus,
			Attempts: 1,
			Message:  fmt.Sprintf("target returned status %d", res.StatusCode()),
		}
	}
	if body == "" {
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonProtocol,
			Attempts: 1,
			Message:  "target returned an empty body",
		}
	}

	return body, nil
}
