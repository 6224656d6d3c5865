// Package sqlite opens SQLite databases through one of two drivers:
//
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the driver matching the build is used
// and every connection gets the same pragmas.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
)

// BusyTimeoutMillis is how long a connection waits on a locked database.
const BusyTimeoutMillis = 5000

// Pragmas run on every database returned by Open.
var Pragmas = []string{
	"PRAGMA foreign_keys = ON",
	fmt.Sprintf("PRAGMA busy_timeout = %d", BusyTimeoutMillis),
}

// DriverName returns the database/sql driver name of the build.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens the database at path, limits the pool to one connection so
// the pragmas hold for every statement, and applies Pragmas.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, rterrors.NewIO("open database", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range Pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, rterrors.NewIO("configure database", path, err)
		}
	}
	return db, nil
}

// OpenReadOnly opens the database at path in read-only mode.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	return Open(ctx, "file:"+path+"?mode=ro")
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
