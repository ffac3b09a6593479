package database

import (
	"net/url"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/gsdev/timetable/core"
	appfs "github.com/gsdev/timetable/fs"
)

// Open connects to the embedded sqlite database file, creating it if needed.
func Open(conf *core.Config) (*sqlx.DB, error) {
	q := make(url.Values)
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")

	dsn := "file:" + conf.Database.Path + "?" + q.Encode()
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// sqlite allows a single writer; serializing all access through one
	// connection keeps bulk replaces atomic for concurrent readers too.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
