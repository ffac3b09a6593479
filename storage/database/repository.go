package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/core/schedule"
)

// wrapDBErr wraps a database error; a lost connection becomes a shutdown
// error so the API server stops instead of serving failures forever.
func wrapDBErr(err error, msg string) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return core.NewShutdownError(msg + ": database connection lost")
	}
	return errors.Wrap(err, msg)
}

const studentColumns = `student_id, student_name, class_no, student_no, homeroom_location,
	move_classroom, basic1_classroom, basic2_classroom,
	inquiry1_classroom, inquiry2_classroom, inquiry3_classroom, liberal_classroom`

const patternColumns = `class_no, weekday, period, block_code,
	subject_name, teacher_name, subject_teacher, exception_location`

// ScheduleRepository is the sqlite-backed implementation of schedule.Repository
// plus the bulk replace operations used by admin uploads.
type ScheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*ScheduleRepository)(nil)

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (repo *ScheduleRepository) GetStudentByID(ctx context.Context, id string) (schedule.Student, error) {
	var st schedule.Student
	query := "SELECT " + studentColumns + " FROM student_master WHERE student_id = ?"
	if err := repo.db.GetContext(ctx, &st, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, schedule.ErrStudentNotFound
		}
		return st, wrapDBErr(err, "getting student by id")
	}
	return st, nil
}

func (repo *ScheduleRepository) GetStudentByClassNumber(ctx context.Context, classNo, studentNo int) (schedule.Student, error) {
	var st schedule.Student
	query := "SELECT " + studentColumns + " FROM student_master WHERE class_no = ? AND student_no = ?"
	if err := repo.db.GetContext(ctx, &st, query, classNo, studentNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, schedule.ErrStudentNotFound
		}
		return st, wrapDBErr(err, "getting student by class and number")
	}
	return st, nil
}

func (repo *ScheduleRepository) ListClasses(ctx context.Context) ([]int, error) {
	classes := make([]int, 0)
	query := "SELECT DISTINCT class_no FROM student_master WHERE class_no IS NOT NULL ORDER BY class_no"
	if err := repo.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, wrapDBErr(err, "listing classes")
	}
	return classes, nil
}

func (repo *ScheduleRepository) ListStudentNumbers(ctx context.Context, classNo int) ([]int, error) {
	numbers := make([]int, 0)
	query := "SELECT DISTINCT student_no FROM student_master WHERE class_no = ? AND student_no IS NOT NULL ORDER BY student_no"
	if err := repo.db.SelectContext(ctx, &numbers, query, classNo); err != nil {
		return nil, wrapDBErr(err, "listing student numbers")
	}
	return numbers, nil
}

func (repo *ScheduleRepository) GetPattern(ctx context.Context, classNo int, weekday string, period int) (schedule.PatternRow, error) {
	var row schedule.PatternRow
	query := "SELECT " + patternColumns + " FROM timetable_pattern WHERE class_no = ? AND weekday = ? AND period = ?"
	if err := repo.db.GetContext(ctx, &row, query, classNo, weekday, period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, schedule.ErrPatternNotFound
		}
		return row, wrapDBErr(err, "getting timetable row")
	}
	return row, nil
}

func (repo *ScheduleRepository) ListPatterns(ctx context.Context, classNo int, weekday string) ([]schedule.PatternRow, error) {
	rows := make([]schedule.PatternRow, 0, 7)
	query := "SELECT " + patternColumns + " FROM timetable_pattern WHERE class_no = ? AND weekday = ? ORDER BY period"
	if err := repo.db.SelectContext(ctx, &rows, query, classNo, weekday); err != nil {
		return nil, wrapDBErr(err, "listing timetable rows")
	}
	return rows, nil
}

func (repo *ScheduleRepository) ListAllStudents(ctx context.Context) ([]schedule.Student, error) {
	students := make([]schedule.Student, 0)
	query := "SELECT " + studentColumns + " FROM student_master ORDER BY student_id"
	if err := repo.db.SelectContext(ctx, &students, query); err != nil {
		return nil, wrapDBErr(err, "listing students")
	}
	return students, nil
}

func (repo *ScheduleRepository) ListAllPatterns(ctx context.Context) ([]schedule.PatternRow, error) {
	rows := make([]schedule.PatternRow, 0)
	query := "SELECT " + patternColumns + " FROM timetable_pattern ORDER BY class_no, weekday, period"
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapDBErr(err, "listing all timetable rows")
	}
	return rows, nil
}

func (repo *ScheduleRepository) Stats(ctx context.Context) (schedule.Stats, error) {
	var stats schedule.Stats
	if err := repo.db.GetContext(ctx, &stats.StudentCount, "SELECT COUNT(*) FROM student_master"); err != nil {
		return stats, wrapDBErr(err, "counting students")
	}
	if err := repo.db.GetContext(ctx, &stats.TimetableCount, "SELECT COUNT(*) FROM timetable_pattern"); err != nil {
		return stats, wrapDBErr(err, "counting timetable rows")
	}
	updatedAt, err := repo.GetMeta(ctx, schedule.MetaLastUpdatedAt)
	if err != nil {
		return stats, err
	}
	stats.LastUpdatedAt = updatedAt
	return stats, nil
}

func (repo *ScheduleRepository) GetMeta(ctx context.Context, key string) (null.String, error) {
	var value string
	err := repo.db.GetContext(ctx, &value, "SELECT meta_value FROM app_meta WHERE meta_key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return null.String{}, nil
		}
		return null.String{}, wrapDBErr(err, "getting meta value")
	}
	return null.StringFrom(value), nil
}

func (repo *ScheduleRepository) SetMeta(ctx context.Context, key, value string) error {
	query := `INSERT INTO app_meta (meta_key, meta_value) VALUES (?, ?)
		ON CONFLICT (meta_key) DO UPDATE SET meta_value = excluded.meta_value`
	if _, err := repo.db.ExecContext(ctx, query, key, value); err != nil {
		return wrapDBErr(err, "setting meta value")
	}
	return nil
}

// ReplaceAll swaps the full dataset in one transaction: existing students and
// timetable rows are removed before the new ones are inserted, so readers never
// observe a half-loaded dataset. An empty slice leaves that table untouched,
// so a students-only upload does not wipe the timetable.
func (repo *ScheduleRepository) ReplaceAll(
	ctx context.Context,
	students []schedule.Student,
	patterns []schedule.PatternRow,
	meta map[string]string,
) error {
	return repo.replaceAll(ctx, students, patterns, meta, false)
}

// OverwriteAll swaps the full dataset like ReplaceAll, but empty slices empty
// the corresponding table instead of preserving it. Used when mirroring a
// remote dataset, which must win even when it is empty.
func (repo *ScheduleRepository) OverwriteAll(
	ctx context.Context,
	students []schedule.Student,
	patterns []schedule.PatternRow,
	meta map[string]string,
) error {
	return repo.replaceAll(ctx, students, patterns, meta, true)
}

func (repo *ScheduleRepository) replaceAll(
	ctx context.Context,
	students []schedule.Student,
	patterns []schedule.PatternRow,
	meta map[string]string,
	overwrite bool,
) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if overwrite || len(students) > 0 {
		if _, err = tx.ExecContext(ctx, "DELETE FROM student_master"); err != nil {
			return errors.Wrap(err, "clearing students")
		}
		query := "INSERT INTO student_master (" + studentColumns + ") VALUES (" + studentPlaceholders + ")"
		for _, st := range students {
			_, err = tx.ExecContext(ctx, query,
				st.ID, st.Name, st.ClassNo, st.StudentNo, st.HomeroomLocation,
				st.MoveClassroom, st.Basic1Classroom, st.Basic2Classroom,
				st.Inquiry1Classroom, st.Inquiry2Classroom, st.Inquiry3Classroom, st.LiberalClassroom,
			)
			if err != nil {
				return errors.Wrapf(err, "inserting student %s", st.ID)
			}
		}
	}

	if overwrite || len(patterns) > 0 {
		if _, err = tx.ExecContext(ctx, "DELETE FROM timetable_pattern"); err != nil {
			return errors.Wrap(err, "clearing timetable rows")
		}
		query := "INSERT INTO timetable_pattern (" + patternColumns + ") VALUES (" + patternPlaceholders + ")"
		for _, row := range patterns {
			_, err = tx.ExecContext(ctx, query,
				row.ClassNo, row.Weekday, row.Period, row.BlockCode,
				row.SubjectName, row.TeacherName, row.SubjectTeacher, row.ExceptionLocation,
			)
			if err != nil {
				return errors.Wrapf(err, "inserting timetable row %d반 %s %d교시", row.ClassNo, row.Weekday, row.Period)
			}
		}
	}

	metaQuery := `INSERT INTO app_meta (meta_key, meta_value) VALUES (?, ?)
		ON CONFLICT (meta_key) DO UPDATE SET meta_value = excluded.meta_value`
	for key, value := range meta {
		if _, err = tx.ExecContext(ctx, metaQuery, key, value); err != nil {
			return wrapDBErr(err, "setting meta value")
		}
	}

	return errors.Wrap(tx.Commit(), "committing replace")
}

// Clear drops all stored data, including meta.
func (repo *ScheduleRepository) Clear(ctx context.Context) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"student_master", "timetable_pattern", "app_meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}
	return errors.Wrap(tx.Commit(), "committing clear")
}

var (
	studentPlaceholders = placeholders(12)
	patternPlaceholders = placeholders(8)
)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
