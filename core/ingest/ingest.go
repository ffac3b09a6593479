// Package ingest converts heterogeneous spreadsheet/CSV exports into the two
// canonical record sets (student master, timetable patterns). It never fails
// on individual malformed rows - those are dropped with a warning - only when
// a whole file yields nothing usable.
package ingest

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/gsdev/timetable/core/schedule"
)

// Structural failures; each aborts the whole ingestion.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type: only CSV/XLSX/XLS files are accepted")
	ErrUnsupportedEncoding = errors.New("cannot decode the CSV file: save it as UTF-8 or CP949")
	ErrEmptyFile           = errors.New("the file is empty")
)

// errLayoutNotApplicable signals that a layout strategy does not match the
// file shape at all, distinct from a hard parse error, so the caller can try
// the next strategy.
var errLayoutNotApplicable = errors.New("layout not applicable")

type (
	// StudentResult is the canonical outcome of a student file ingestion.
	StudentResult struct {
		Rows     []schedule.Student
		Warnings []string
	}

	// PatternResult is the canonical outcome of a timetable file ingestion.
	PatternResult struct {
		Rows     []schedule.PatternRow
		Warnings []string
	}
)

func isExcelName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

func isCSVName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

// ParseStudentFile ingests a student master file (CSV or spreadsheet).
// Spreadsheets are first probed for the fixed-position layout; the flat
// aliased-column layout is the fallback and the only CSV path.
// defaultGrade seeds synthesized student IDs.
func ParseStudentFile(raw []byte, filename string, defaultGrade int) (*StudentResult, error) {
	switch {
	case isExcelName(filename):
		res, err := parseFixedStudentWorkbook(raw, defaultGrade)
		if err == nil {
			return res, nil
		}
		if errors.Cause(err) != errLayoutNotApplicable {
			return nil, err
		}
		grid, err := excelGrid(raw)
		if err != nil {
			return nil, err
		}
		return parseStudentTable(grid, defaultGrade)

	case isCSVName(filename):
		text, err := decodeCSVBytes(raw)
		if err != nil {
			return nil, err
		}
		grid, err := readCSVGrid(text)
		if err != nil {
			return nil, err
		}
		return parseStudentTable(grid, defaultGrade)
	}
	return nil, ErrUnsupportedFileType
}

// ParseTimetableFile ingests a class timetable file. The column-oriented
// layout is tried first; for CSV files a failed attempt falls through to the
// sectioned per-class layout, and if that also fails the original error is
// returned.
func ParseTimetableFile(raw []byte, filename string, targetGrade int) (*PatternResult, error) {
	switch {
	case isExcelName(filename):
		grid, err := excelGrid(raw)
		if err != nil {
			return nil, err
		}
		return parseTimetableTable(grid)

	case isCSVName(filename):
		text, err := decodeCSVBytes(raw)
		if err != nil {
			return nil, err
		}
		grid, err := readCSVGrid(text)
		if err == nil {
			if res, tblErr := parseTimetableTable(grid); tblErr == nil {
				return res, nil
			} else {
				err = tblErr
			}
		}
		if res, secErr := parseSectionedTimetable(text, targetGrade); secErr == nil {
			return res, nil
		}
		return nil, err
	}
	return nil, ErrUnsupportedFileType
}
