package sqliteutil

import (
	"database/sql"
	"os"

	_ "modernc.org/sqlite"
)

// OpenFile opens a local sqlite database file, creating it when it does
// not exist yet.
func OpenFile(path string) (*sql.DB, error) {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	return db, nil
}

// OpenMemory opens a throwaway in-memory database, mainly for tests.
func OpenMemory() (*sql.DB, error) {
	return sql.Open("sqlite", ":memory:")
}
