//go:build !sqlite

package storage

import "fmt"

// newSQLiteStore fails in builds without the sqlite tag so the default
// binary stays free of the SQLite driver.
func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("sqlite store %q unavailable in this build; rebuild with -tags sqlite", path)
}
