package main

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	appfs "github.com/gsdev/timetable/fs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	return runGoose(args[0], cli.db.DB, rest...)
}

func runGoose(command string, db *sql.DB, args ...string) error {
	return gooseRunFunc(command, db, "migrations", args...)
}
