package commands

import (
	"fmt"
	"rentscout/lib/render"
	"rentscout/lib/render/browser"
	"rentscout/lib/render/nimble"
	"rentscout/lib/render/static"
	"rentscout/lib/restyutil"
	"rentscout/lib/serviceutil"
	"time"
)

// buildRenderer assembles the configured backend, the optional fallback
// backend, and the shared retry wrapper. The returned closer tears down
// backends holding real resources (the local browser).
func buildRenderer(cfg RendererConfig, debug restyutil.InstrumentOutput) (render.Renderer, func()) {
	var closers []func() error

	newBackend := func(name string) render.Renderer {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		switch name {
		case "nimble":
			if cfg.Nimble.Url == "" || cfg.Nimble.Key == "" {
				serviceutil.Fatal("the nimble backend requires renderer.nimble.url and renderer.nimble.key", nil)
			}
			client, err := nimble.NewClient(nimble.ClientOptions{
				Url:     cfg.Nimble.Url,
				Key:     cfg.Nimble.Key,
				Timeout: timeout,
				Debug:   debug,
			})
			if err != nil {
				serviceutil.Fatal("failed to initialize the rendering backend", err)
			}
			return client
		case "browser":
			b := browser.NewRenderer(browser.Options{
				Headless: cfg.Browser.Headless,
				Timeout:  timeout,
			})
			closers = append(closers, b.Close)
			return b
		case "static":
			s, err := static.NewRenderer(static.Options{Timeout: timeout, Debug: debug})
			if err != nil {
				serviceutil.Fatal("failed to initialize the static fetcher", err)
			}
			return s
		case "":
			serviceutil.Fatal("renderer.backend is required: nimble, browser or static", nil)
		default:
			serviceutil.Fatal(fmt.Sprintf("unknown renderer backend: %s", name), nil)
		}
		return nil
	}

	var renderer render.Renderer = newBackend(cfg.Backend)
	if cfg.Fallback != "" {
		renderer = render.Fallback{Primary: renderer, Secondary: newBackend(cfg.Fallback)}
	}
	renderer = render.Retrying{
		Inner:       renderer,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.Backoff,
	}

	return renderer, func() {
		for _, close := range closers {
			close()
		}
	}
}
