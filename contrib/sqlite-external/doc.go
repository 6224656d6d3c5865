// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for builds that opt into it:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/roundtrip
//
// Without the tag the run history database uses the pure Go
// modernc.org/sqlite driver. See core/sqlite.
package sqliteexternal

// Driver describes a database/sql driver linked into the build.
type Driver struct {
	// Name is passed to sql.Open.
	Name string

	// Kind is "cgo" or "purego".
	Kind string

	// Import is the module path providing the driver.
	Import string
}
