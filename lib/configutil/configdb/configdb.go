package configdb

import (
	"database/sql"
	"fmt"
	"rentscout/lib/sqliteutil"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Struct points at either a local sqlite file or a remote libsql
// database. A non-empty Url wins over File.
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		url := config.Url
		if config.AuthToken != "" {
			url = fmt.Sprintf("%s?authToken=%s", url, config.AuthToken)
		}
		return sql.Open("libsql", url)
	}
	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	return sqliteutil.OpenFile(config.File)
}
