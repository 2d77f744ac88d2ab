// Package nimble talks to the remote headless-browser rendering API. The
// backend loads a url in a real browser, runs the behavior flow we send
// along, and hands back the settled page HTML, so none of the
// anti-scraping machinery runs on our side.
package nimble

import (
	"context"
	"encoding/json"
	"fmt"
	"rentscout/lib/render"
	"rentscout/lib/restyutil"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rentscout.lib.render.nimble")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// realtime render endpoint
	Url string
	// account credential, sent as basic auth
	Key string
	// default request deadline, Request.Timeout overrides per call
	Timeout time.Duration
	// when non-nil, request/response pairs are dumped here
	Debug restyutil.InstrumentOutput
}

type Client struct {
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Url == "" {
		return nil, fmt.Errorf("rendering backend url is required")
	}
	if opts.Key == "" {
		return nil, fmt.Errorf("rendering backend key is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 120
	}

	client := resty.New()
	client.SetBaseURL(opts.Url)
	client.SetHeader("Authorization", fmt.Sprintf("Basic %s", opts.Key))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(timeout)

	restyutil.InstrumentClient(client, tracer, opts.Debug)

	return &Client{http: client}, nil
}

func (c *Client) Name() string {
	return "nimble"
}

type renderBody struct {
	Url        string        `json:"url"`
	Render     bool          `json:"render"`
	Format     string        `json:"format"`
	RenderFlow []render.Step `json:"render_flow"`
}

type renderResponse struct {
	Status      string `json:"status"`
	HtmlContent string `json:"html_content"`
	Message     string `json:"message"`
}

// Render performs exactly one render call. Wrap the client in
// render.Retrying for the bounded-retry behavior.
func (c *Client) Render(ctx context.Context, req render.Request) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Render")
	defer span.End()
	span.SetAttributes(attribute.String("url", req.URL))

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(renderBody{
			Url:        req.URL,
			Render:     true,
			Format:     "json",
			RenderFlow: req.Flow,
		}).
		Post("")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonNetwork,
			Attempts: 1,
			Err:      err,
		}
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		span.SetStatus(codes.Error, "non-2xx status")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonStatus,
			Attempts: 1,
			Message:  fmt.Sprintf("%s: %s", res.Status(), snippet(res.Body())),
		}
	}

	var body renderResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil || body.Status == "" {
		span.SetStatus(codes.Error, "undocumented response shape")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonProtocol,
			Attempts: 1,
			Message:  fmt.Sprintf("undocumented response shape: %s", snippet(res.Body())),
			Err:      err,
		}
	}
	if body.Status != "success" {
		span.SetStatus(codes.Error, "backend reported failure")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonBackend,
			Attempts: 1,
			Message:  fmt.Sprintf("status %q: %s", body.Status, body.Message),
		}
	}
	if body.HtmlContent == "" {
		span.SetStatus(codes.Error, "success without html_content")
		return "", &render.Error{
			URL:      req.URL,
			Reason:   render.ReasonProtocol,
			Attempts: 1,
			Message:  "success response carried no html_content",
		}
	}

	return body.HtmlContent, nil
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
