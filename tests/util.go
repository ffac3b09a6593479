// Package testutil carries shared test helpers for packages that need a real
// (in-memory) database.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gsdev/timetable/storage/database"
)

// PrepareDB opens a fresh in-memory sqlite database with the full schema
// applied. It is closed automatically when the test finishes.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	db.SetMaxOpenConns(1)
	if err = database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
