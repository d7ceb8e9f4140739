// Package sqlite provides a blobstore.Store backed by a single SQLite table,
// using the pure-Go modernc.org/sqlite driver.
//
// It is meant for embedded deployments where one file should hold every
// published snapshot and version pointer:
//
//	store, err := sqlite.Open("snapshots.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	cat := catalog.New(store)
package sqlite
