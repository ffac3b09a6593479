package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sqlx.DB
	repo *database.ScheduleRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, ...)")
	fmt.Println("  load [-students FILE] [-timetable FILE] - ingest dataset files into the database")
	fmt.Println("  reset - delete all stored data")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loadCmd := flag.NewFlagSet("load", flag.ExitOnError)
	loadStudents := loadCmd.String("students", "", "Path to the student master file (CSV/XLSX).")
	loadTimetable := loadCmd.String("timetable", "", "Path to the timetable file (CSV/XLSX).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "load":
		if err := loadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loadStudents == "" && *loadTimetable == "" {
			loadCmd.Usage()
			return errHelp
		}
		return cli.load(*loadStudents, *loadTimetable)
	case "reset":
		return cli.reset()
	default:
		cli.printUsage()
		return errHelp
	}
}
