package db

import (
	"context"
)

const createRun = `
INSERT INTO runs (started_at, search_url, renderer)
VALUES (?, ?, ?)
RETURNING id
`

type CreateRunParams struct {
	StartedAt int64
	SearchUrl string
	Renderer  string
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRun, arg.StartedAt, arg.SearchUrl, arg.Renderer)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createListing = `
INSERT INTO listings (
    run_id, zpid, address, url, price,
    bedrooms, bathrooms, sqft, home_type,
    pets_allowed, laundry, parking, cooling, heating,
    lot_size, year_built, walk_score, transit_score, bike_score,
    provenance
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateListingParams struct {
	RunID        int64
	Zpid         string
	Address      string
	Url          string
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

func (q *Queries) CreateListing(ctx context.Context, arg CreateListingParams) error {
	_, err := q.db.ExecContext(ctx, createListing,
		arg.RunID, arg.Zpid, arg.Address, arg.Url, arg.Price,
		arg.Bedrooms, arg.Bathrooms, arg.Sqft, arg.HomeType,
		arg.PetsAllowed, arg.Laundry, arg.Parking, arg.Cooling, arg.Heating,
		arg.LotSize, arg.YearBuilt, arg.WalkScore, arg.TransitScore, arg.BikeScore,
		arg.Provenance,
	)
	return err
}

const getRuns = `
SELECT runs.id, runs.started_at, runs.search_url, runs.renderer, COUNT(listings.id)
FROM runs
LEFT JOIN listings ON listings.run_id = runs.id
GROUP BY runs.id
ORDER BY runs.started_at DESC, runs.id DESC
`

type GetRunsRow struct {
	ID        int64
	StartedAt int64
	SearchUrl string
	Renderer  string
	Listings  int64
}

func (q *Queries) GetRuns(ctx context.Context) ([]GetRunsRow, error) {
	rows, err := q.db.QueryContext(ctx, getRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetRunsRow
	for rows.Next() {
		var r GetRunsRow
		err := rows.Scan(&r.ID, &r.StartedAt, &r.SearchUrl, &r.Renderer, &r.Listings)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getListings = `
SELECT zpid, address, url, price,
    bedrooms, bathrooms, sqft, home_type,
    pets_allowed, laundry, parking, cooling, heating,
    lot_size, year_built, walk_score, transit_score, bike_score,
    provenance
FROM listings
WHERE run_id = ?
ORDER BY id
`

type GetListingsRow struct {
	Zpid         string
	Address      string
	Url          string
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

func (q *Queries) GetListings(ctx context.Context, runID int64) ([]GetListingsRow, error) {
	rows, err := q.db.QueryContext(ctx, getListings, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetListingsRow
	for rows.Next() {
		var r GetListingsRow
		err := rows.Scan(
			&r.Zpid, &r.Address, &r.Url, &r.Price,
			&r.Bedrooms, &r.Bathrooms, &r.Sqft, &r.HomeType,
			&r.PetsAllowed, &r.Laundry, &r.Parking, &r.Cooling, &r.Heating,
			&r.LotSize, &r.YearBuilt, &r.WalkScore, &r.TransitScore, &r.BikeScore,
			&r.Provenance,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
