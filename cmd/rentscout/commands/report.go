package commands

import (
	"os"
	"rentscout/lib/extract"
	"rentscout/lib/listingstore"
	"rentscout/lib/scrapers/zillow"
	"rentscout/lib/serviceutil"
	"rentscout/services/harvest"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var reportRun *int64

func init() {
	reportRun = reportCmd.Flags().Int64("run", 0, "Print this run's listings instead of the run index.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--run <id>]",
	Short: "Prints stored runs, or one run's listings with --run.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := mustConfig()
		if cfg.Database.File == "" && cfg.Database.Url == "" {
			serviceutil.Fatal("no database is configured", nil)
		}

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

		if *reportRun <= 0 {
			runs, err := store.Runs(ctx)
			if err != nil {
				serviceutil.Fatal("failed to list runs", err)
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"id", "started", "renderer", "listings", "search url"})
			for _, run := range runs {
				t.AppendRow(table.Row{
					run.ID, run.StartedAt.Format(time.DateTime),
					run.Renderer, run.Listings, run.SearchURL,
				})
			}
			t.Render()
			return
		}

		listings, err := store.Pull(ctx, *reportRun)
		if err != nil {
			serviceutil.Fatal("failed to pull the run", err)
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"zpid", "address", "price", "bd", "ba", "sqft", "provenance"})
		for _, l := range listings {
			t.AppendRow(table.Row{
				displayCell(l.ZPID), displayCell(l.Address), displayCell(l.Price),
				displayCell(l.Bedrooms), displayCell(l.Bathrooms), displayCell(l.Sqft),
				displayCell(l.Provenance),
			})
		}
		t.Render()

		harvest.WriteInsights(os.Stdout, storedRecords(listings))
	},
}

func storedRecords(listings []listingstore.Listing) []harvest.Record {
	records := make([]harvest.Record, len(listings))
	for i, l := range listings {
		records[i] = harvest.Record{
			Detail: zillow.Detail{
				ZPID:         l.ZPID,
				Address:      l.Address,
				Price:        l.Price,
				Bedrooms:     l.Bedrooms,
				Bathrooms:    l.Bathrooms,
				Sqft:         l.Sqft,
				HomeType:     l.HomeType,
				PetsAllowed:  l.PetsAllowed,
				Laundry:      l.Laundry,
				Parking:      l.Parking,
				Cooling:      l.Cooling,
				Heating:      l.Heating,
				LotSize:      l.LotSize,
				YearBuilt:    l.YearBuilt,
				WalkScore:    l.WalkScore,
				TransitScore: l.TransitScore,
				BikeScore:    l.BikeScore,
			},
			URL:        l.URL,
			Provenance: l.Provenance,
		}
	}
	return records
}

func displayCell(s string) string {
	if s == "" {
		return extract.Unknown
	}
	return s
}
