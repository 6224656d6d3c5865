//go:build cgo_sqlite

package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/semroundtrip/contrib/sqlite-external"
)

var (
	driverName    = sqliteexternal.Linked.Name
	driverType    = sqliteexternal.Linked.Kind
	driverPackage = sqliteexternal.Linked.Import + " (via contrib/sqlite-external)"
)
