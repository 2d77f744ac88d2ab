package commands

import (
	"fmt"
	"log/slog"
	"os"
	"rentscout/lib/render"
	"rentscout/lib/scrapers/zillow"
	"rentscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var renderFlow *string
var renderOut *string

func init() {
	renderFlow = renderCmd.Flags().String("flow", "search", "Behavior flow to run: search, rescue, detail or none.")
	renderOut = renderCmd.Flags().String("out", "rendered.html", "Where to write the rendered html.")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <url> [--flow search|rescue|detail|none] [--out <path>]",
	Short: "Renders one url and saves the html, for offline selector tuning.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		renderer, closeRenderer := buildRenderer(cfg.Renderer, nil)
		defer closeRenderer()

		var flow []render.Step
		switch *renderFlow {
		case "search":
			flow = zillow.SearchFlow()
		case "rescue":
			flow = zillow.RescueScrollFlow()
		case "detail":
			flow = zillow.DetailFlow()
		case "none":
		default:
			serviceutil.Fatal(fmt.Sprintf("unknown flow: %s", *renderFlow), nil)
		}

		html, err := renderer.Render(cmd.Context(), render.Request{URL: args[0], Flow: flow})
		if err != nil {
			serviceutil.Fatal("render failed", err)
		}
		err = os.WriteFile(*renderOut, []byte(html), 0644)
		if err != nil {
			serviceutil.Fatal("failed to write html", err)
		}
		slog.Info("wrote rendered html", "path", *renderOut, "bytes", len(html))
	},
}
