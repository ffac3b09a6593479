package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gsdev/timetable/core/ingest"
	"github.com/gsdev/timetable/core/schedule"
)

// load ingests local dataset files and replaces the stored data, mirroring
// what the API's admin upload endpoint does for remote clients.
func (cli *commandLine) load(studentsPath, timetablePath string) error {
	var (
		students []schedule.Student
		patterns []schedule.PatternRow
		warnings []string
	)

	if studentsPath != "" {
		raw, err := os.ReadFile(studentsPath)
		if err != nil {
			return errors.Wrap(err, "reading students file")
		}
		res, err := ingest.ParseStudentFile(raw, filepath.Base(studentsPath), cli.conf.DefaultGrade)
		if err != nil {
			return errors.Wrap(err, "students file")
		}
		students = res.Rows
		warnings = append(warnings, res.Warnings...)
	}

	if timetablePath != "" {
		raw, err := os.ReadFile(timetablePath)
		if err != nil {
			return errors.Wrap(err, "reading timetable file")
		}
		res, err := ingest.ParseTimetableFile(raw, filepath.Base(timetablePath), cli.conf.TargetGrade)
		if err != nil {
			return errors.Wrap(err, "timetable file")
		}
		patterns = res.Rows
		warnings = append(warnings, res.Warnings...)
	}

	meta := map[string]string{
		schedule.MetaLastUpdatedAt: time.Now().Format("2006-01-02 15:04:05"),
		schedule.MetaLastUploadID:  uuid.NewString(),
	}
	if err := cli.repo.ReplaceAll(context.Background(), students, patterns, meta); err != nil {
		return errors.Wrap(err, "replacing dataset")
	}

	for _, warning := range warnings {
		logger.Printf("warning: %s", warning)
	}
	fmt.Printf("loaded %d students, %d timetable rows\n", len(students), len(patterns))
	return nil
}

func (cli *commandLine) reset() error {
	if err := cli.repo.Clear(context.Background()); err != nil {
		return errors.Wrap(err, "clearing dataset")
	}
	fmt.Println("all stored data deleted")
	return nil
}
