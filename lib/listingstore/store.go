// Package listingstore persists harvested listings so runs can be
// compared and re-reported without scraping again.
package listingstore

import (
	"context"
	"database/sql"
	"rentscout/lib/listingstore/db"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Init applies the schema. Every statement is idempotent so this runs
// on every startup.
func (s Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, db.Schema)
	return err
}

type Listing struct {
	ZPID         string
	Address      string
	URL          string
	Price        string
	Bedrooms     string
	Bathrooms    string
	Sqft         string
	HomeType     string
	PetsAllowed  string
	Laundry      string
	Parking      string
	Cooling      string
	Heating      string
	LotSize      string
	YearBuilt    string
	WalkScore    string
	TransitScore string
	BikeScore    string
	Provenance   string
}

type Run struct {
	ID        int64
	StartedAt time.Time
	SearchURL string
	Renderer  string
	Listings  int
}

type PushRequest struct {
	StartedAt time.Time
	SearchURL string
	Renderer  string
	Listings  []Listing
}

// Push stores one run and its listings atomically, returning the run id.
func (s Store) Push(ctx context.Context, req PushRequest) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	runID, err := txqry.CreateRun(ctx, db.CreateRunParams{
		StartedAt: req.StartedAt.Unix(),
		SearchUrl: req.SearchURL,
		Renderer:  req.Renderer,
	})
	if err != nil {
		return 0, err
	}

	for _, l := range req.Listings {
		err := txqry.CreateListing(ctx, db.CreateListingParams{
			RunID:        runID,
			Zpid:         l.ZPID,
			Address:      l.Address,
			Url:          l.URL,
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
			Provenance:   l.Provenance,
		})
		if err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

// Runs lists stored runs, newest first.
func (s Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.qry.GetRuns(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, len(rows))
	for i, r := range rows {
		runs[i] = Run{
			ID:        r.ID,
			StartedAt: time.Unix(r.StartedAt, 0),
			SearchURL: r.SearchUrl,
			Renderer:  r.Renderer,
			Listings:  int(r.Listings),
		}
	}
	return runs, nil
}

// Pull returns the listings of one run in stored order. An unknown run
// id yields an empty slice, not an error.
func (s Store) Pull(ctx context.Context, runID int64) ([]Listing, error) {
	rows, err := s.qry.GetListings(ctx, runID)
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, len(rows))
	for i, r := range rows {
		listings[i] = Listing{
			ZPID:         r.Zpid,
			Address:      r.Address,
			URL:          r.Url,
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
	return listings, nil
}
