//go:build cgo_sqlite

package sqliteexternal

import (
	_ "github.com/mattn/go-sqlite3"
)

// Linked is the mattn/go-sqlite3 driver, registered as "sqlite3".
var Linked = Driver{
	Name:   "sqlite3",
	Kind:   "cgo",
	Import: "github.com/mattn/go-sqlite3",
}
