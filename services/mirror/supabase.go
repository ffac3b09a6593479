// Package mirrorsvc replicates the local dataset to a Supabase project over
// the PostgREST API, and can re-seed an empty local database from it.
package mirrorsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/core/schedule"
)

const (
	tableStudents = "student_master"
	tablePatterns = "timetable_pattern"
	tableMeta     = "app_meta"

	// PostgREST caps request size well above this; 500 rows keeps payloads
	// comfortably small for school-sized datasets.
	insertChunkSize = 500
)

// deleteFilters makes the "delete everything" call explicit per table:
// PostgREST refuses an unfiltered DELETE.
var deleteFilters = map[string]string{
	tableStudents: "student_id",
	tablePatterns: "class_no",
	tableMeta:     "meta_key",
}

type metaRow struct {
	Key   string `json:"meta_key"`
	Value string `json:"meta_value"`
}

// Store is the slice of the local repository the mirror needs for re-seeding.
// OverwriteAll must empty local tables the remote has emptied, so the local
// dataset always matches the remote after a sync.
type Store interface {
	OverwriteAll(ctx context.Context, students []schedule.Student, patterns []schedule.PatternRow, meta map[string]string) error
}

type SupabaseMirror struct {
	conf   core.MirrorConfig
	logger core.Logger
}

func NewSupabaseMirror(conf *core.Config, logger core.Logger) *SupabaseMirror {
	return &SupabaseMirror{conf: conf.Mirror, logger: logger}
}

func (m *SupabaseMirror) Configured() bool { return m.conf.Configured() }

func (m *SupabaseMirror) headers() map[string]string {
	return map[string]string{
		"apikey":          m.conf.APIKey,
		"Authorization":   "Bearer " + m.conf.APIKey,
		"Content-Type":    "application/json",
		"Accept-Profile":  m.conf.Schema,
		"Content-Profile": m.conf.Schema,
	}
}

func (m *SupabaseMirror) tableURL(table string) string {
	return m.conf.URL + "/rest/v1/" + table
}

func (m *SupabaseMirror) send(ctx context.Context, req rest.Request) (*rest.Response, error) {
	res, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "calling mirror")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("mirror returned %d: %s", res.StatusCode, res.Body)
	}
	return res, nil
}

func (m *SupabaseMirror) deleteAll(ctx context.Context, table string) error {
	req := rest.Request{
		Method:      rest.Delete,
		BaseURL:     m.tableURL(table),
		Headers:     m.headers(),
		QueryParams: map[string]string{deleteFilters[table]: "not.is.null"},
	}
	_, err := m.send(ctx, req)
	return errors.Wrapf(err, "clearing %s", table)
}

// Clear empties every mirrored table.
func (m *SupabaseMirror) Clear(ctx context.Context) error {
	for _, table := range []string{tableStudents, tablePatterns, tableMeta} {
		if err := m.deleteAll(ctx, table); err != nil {
			return err
		}
	}
	m.logger.Info("mirror cleared")
	return nil
}

func pushTable[T any](ctx context.Context, m *SupabaseMirror, table string, rows []T) error {
	if err := m.deleteAll(ctx, table); err != nil {
		return err
	}
	headers := m.headers()
	headers["Prefer"] = "return=minimal"

	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))
		body, err := json.Marshal(rows[start:end])
		if err != nil {
			return errors.Wrapf(err, "encoding %s rows", table)
		}
		req := rest.Request{
			Method:  rest.Post,
			BaseURL: m.tableURL(table),
			Headers: headers,
			Body:    body,
		}
		if _, err = m.send(ctx, req); err != nil {
			return errors.Wrapf(err, "inserting into %s", table)
		}
	}
	return nil
}

// Push replaces the remote dataset with the given one. Tables are replaced one
// by one; a failure leaves the remote partially updated, which the next push
// repairs.
func (m *SupabaseMirror) Push(
	ctx context.Context,
	students []schedule.Student,
	patterns []schedule.PatternRow,
	meta map[string]string,
) error {
	if err := pushTable(ctx, m, tableStudents, students); err != nil {
		return err
	}
	if err := pushTable(ctx, m, tablePatterns, patterns); err != nil {
		return err
	}
	metaRows := make([]metaRow, 0, len(meta))
	for key, value := range meta {
		metaRows = append(metaRows, metaRow{Key: key, Value: value})
	}
	if err := pushTable(ctx, m, tableMeta, metaRows); err != nil {
		return err
	}
	m.logger.Info(fmt.Sprintf("mirror push done: %d students, %d timetable rows", len(students), len(patterns)))
	return nil
}

func fetchTable[T any](ctx context.Context, m *SupabaseMirror, table string) ([]T, error) {
	req := rest.Request{
		Method:      rest.Get,
		BaseURL:     m.tableURL(table),
		Headers:     m.headers(),
		QueryParams: map[string]string{"select": "*"},
	}
	res, err := m.send(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", table)
	}
	var rows []T
	if err = json.Unmarshal([]byte(res.Body), &rows); err != nil {
		return nil, errors.Wrapf(err, "decoding %s rows", table)
	}
	return rows, nil
}

// Sync pulls the full remote dataset into the local store.
func (m *SupabaseMirror) Sync(ctx context.Context, store Store) (schedule.Stats, error) {
	var stats schedule.Stats

	students, err := fetchTable[schedule.Student](ctx, m, tableStudents)
	if err != nil {
		return stats, err
	}
	patterns, err := fetchTable[schedule.PatternRow](ctx, m, tablePatterns)
	if err != nil {
		return stats, err
	}
	metaRows, err := fetchTable[metaRow](ctx, m, tableMeta)
	if err != nil {
		return stats, err
	}
	meta := make(map[string]string, len(metaRows))
	for _, row := range metaRows {
		meta[row.Key] = row.Value
	}

	if err = store.OverwriteAll(ctx, students, patterns, meta); err != nil {
		return stats, errors.Wrap(err, "storing mirrored dataset")
	}

	stats.StudentCount = len(students)
	stats.TimetableCount = len(patterns)
	if updatedAt, ok := meta[schedule.MetaLastUpdatedAt]; ok {
		stats.LastUpdatedAt.SetValid(updatedAt)
	}
	m.logger.Info(fmt.Sprintf("mirror sync done: %d students, %d timetable rows", len(students), len(patterns)))
	return stats, nil
}
