package render

import (
	"context"
	"fmt"
	"log/slog"
)

// Fallback tries Primary and switches to Secondary when it fails for any
// reason. Useful for pairing a local browser with the remote rendering
// API so a challenge page doesn't end the run.
type Fallback struct {
	Primary   Renderer
	Secondary Renderer
}

func (f Fallback) Name() string {
	return fmt.Sprintf("fallback(%s, %s)", f.Primary.Name(), f.Secondary.Name())
}

func (f Fallback) Render(ctx context.Context, req Request) (string, error) {
	html, err := f.Primary.Render(ctx, req)
	if err == nil {
		return html, nil
	}
	slog.WarnContext(
		ctx, "primary renderer failed, trying fallback",
		"primary", f.Primary.Name(),
		"fallback", f.Secondary.Name(),
		"url", req.URL,
		"err", err,
	)
	return f.Secondary.Render(ctx, req)
}
