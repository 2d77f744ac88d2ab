package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"rentscout/lib/listingstore"
	"rentscout/lib/notify"
	"rentscout/lib/restyutil"
	"rentscout/lib/serviceutil"
	"rentscout/services/harvest"
	"time"

	"github.com/spf13/cobra"
)

var csvOut *string

func init() {
	csvOut = scrapeCmd.Flags().String("csv", "", "Write the csv here instead of output.csv from the config.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--csv <path/to/output.csv>]",
	Short: "Harvests the configured search url and writes the listings out.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := mustConfig()
		if cfg.SearchUrl == "" {
			serviceutil.Fatal("search_url is required", nil)
		}

		var debug restyutil.InstrumentOutput
		if cfg.Output.DebugDir != "" {
			debug = restyutil.NewFilesystemOutput(filepath.Join(cfg.Output.DebugDir, "resty"))
		}
		renderer, closeRenderer := buildRenderer(cfg.Renderer, debug)
		defer closeRenderer()

		service := harvest.NewService(renderer, harvest.Options{
			SearchURL:          cfg.SearchUrl,
			UseClicks:          cfg.UseClicks,
			SummaryOnly:        cfg.SummaryOnly,
			MaxListings:        cfg.Limits.MaxListings,
			MaxPages:           cfg.Limits.MaxPages,
			MinExpectedCards:   cfg.Limits.MinExpectedCards,
			DelayMin:           time.Duration(cfg.Limits.DelayMinSeconds) * time.Second,
			DelayMax:           time.Duration(cfg.Limits.DelayMaxSeconds) * time.Second,
			MinRequestInterval: time.Duration(cfg.Limits.MinRequestIntervalSeconds) * time.Second,
			RenderTimeout:      time.Duration(cfg.Renderer.TimeoutSeconds) * time.Second,
			DebugDir:           cfg.Output.DebugDir,
		})

		started := time.Now()
		result, err := service.Run(ctx)
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}
		slog.Info("harvest finished",
			"records", len(result.Records),
			"seconds", time.Since(started).Seconds())

		var csvBuf bytes.Buffer
		err = harvest.WriteCSV(&csvBuf, result.Records)
		if err != nil {
			serviceutil.Fatal("failed to serialize csv", err)
		}
		csvPath := cfg.Output.Csv
		if *csvOut != "" {
			csvPath = *csvOut
		}
		if csvPath == "" {
			csvPath = "listings.csv"
		}
		err = os.WriteFile(csvPath, csvBuf.Bytes(), 0644)
		if err != nil {
			serviceutil.Fatal("failed to write csv", err)
		}
		slog.Info("wrote csv", "path", csvPath, "rows", len(result.Records))

		if cfg.Database.File != "" || cfg.Database.Url != "" {
			storeRun(ctx, cfg, started, renderer.Name(), result)
		}

		harvest.WriteReport(os.Stdout, result)

		if cfg.Smtp.Server != "" {
			var report bytes.Buffer
			harvest.WriteReport(&report, result)
			err := notify.NewMailer(cfg.Smtp).SendRunReport(ctx, notify.RunReport{
				SearchURL: cfg.SearchUrl,
				Records:   len(result.Records),
				Summary:   report.String(),
				CSV:       csvBuf.Bytes(),
				CSVName:   filepath.Base(csvPath),
			})
			if err != nil {
				slog.Error("failed to email the run report", "err", err)
			}
		}
	},
}

func storeRun(ctx context.Context, cfg Config, started time.Time, renderer string, result *harvest.Result) {
	database, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open the listing database", err)
	}
	defer database.Close()

	store := listingstore.NewStore(database)
	err = store.Init(ctx)
	if err != nil {
		serviceutil.Fatal("failed to apply the listing schema", err)
	}

	listings := make([]listingstore.Listing, len(result.Records))
	for i, r := range result.Records {
		listings[i] = listingstore.Listing{
			ZPID:         r.ZPID,
			Address:      r.Address,
			URL:          r.URL,
			Price:        r.Price,
			Bedrooms:     r.Bedrooms,
			Bathrooms:    r.Bathrooms,
			Sqft:         r.Sqft,
			HomeType:     r.HomeType,
			PetsAllowed:  r.PetsAllowed,
			Laundry:      r.Laundry,
			Parking:      r.Parking,
			Cooling:      r.Cooling,
			Heating:      r.Heating,
			LotSize:      r.LotSize,
			YearBuilt:    r.YearBuilt,
			WalkScore:    r.WalkScore,
			TransitScore: r.TransitScore,
			BikeScore:    r.BikeScore,
			Provenance:   r.Provenance,
		}
	}
	runID, err := store.Push(ctx, listingstore.PushRequest{
		StartedAt: started,
		SearchURL: cfg.SearchUrl,
		Renderer:  renderer,
		Listings:  listings,
	})
	if err != nil {
		serviceutil.Fatal("failed to store the run", err)
	}
	slog.Info("stored run", "run_id", runID, "listings", len(listings))
}
