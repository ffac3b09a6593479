package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	_ "modernc.org/sqlite"

	"github.com/gsdev/timetable/core/schedule"
)

func newTestRepo(t *testing.T) *ScheduleRepository {
	t.Helper()

	db, err := sqlx.Connect("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return NewScheduleRepository(db)
}

func seedTestRepo(t *testing.T, repo *ScheduleRepository) {
	t.Helper()

	students := []schedule.Student{
		{
			ID:               "20101",
			Name:             "김민준",
			ClassNo:          null.Int64From(1),
			StudentNo:        null.Int64From(1),
			HomeroomLocation: null.StringFrom("2-1"),
			MoveClassroom:    null.StringFrom("201"),
			Basic1Classroom:  null.StringFrom("수학실"),
		},
		{
			ID:        "20203",
			Name:      "이서연",
			ClassNo:   null.Int64From(2),
			StudentNo: null.Int64From(3),
		},
		{
			ID:        "20205",
			Name:      "박지호",
			ClassNo:   null.Int64From(2),
			StudentNo: null.Int64From(5),
		},
	}
	patterns := []schedule.PatternRow{
		{ClassNo: 1, Weekday: "월", Period: 1, BlockCode: "기초1", SubjectName: null.StringFrom("수학"), TeacherName: null.StringFrom("홍길동"), SubjectTeacher: "수학(홍길동)"},
		{ClassNo: 1, Weekday: "월", Period: 2, BlockCode: "이동반", SubjectTeacher: "국어(김철수)"},
		{ClassNo: 2, Weekday: "화", Period: 1, BlockCode: "공강", SubjectTeacher: "미입력", ExceptionLocation: null.StringFrom(schedule.LocationHomeroom)},
	}
	meta := map[string]string{
		schedule.MetaLastUpdatedAt: "2026-03-02 08:30:00",
		schedule.MetaLastUploadID:  "upload-1",
	}
	require.NoError(t, repo.ReplaceAll(context.Background(), students, patterns, meta))
}

func TestScheduleRepositoryStudents(t *testing.T) {
	repo := newTestRepo(t)
	seedTestRepo(t, repo)
	ctx := context.Background()

	t.Run("GetStudentByID", func(t *testing.T) {
		st, err := repo.GetStudentByID(ctx, "20101")
		require.NoError(t, err)
		assert.Equal(t, "김민준", st.Name)
		assert.Equal(t, int64(1), st.ClassNo.Int64)
		assert.Equal(t, "201", st.MoveClassroom.String)
		assert.False(t, st.LiberalClassroom.Valid)
	})

	t.Run("GetStudentByIDNotFound", func(t *testing.T) {
		_, err := repo.GetStudentByID(ctx, "99999")
		assert.ErrorIs(t, err, schedule.ErrStudentNotFound)
	})

	t.Run("GetStudentByClassNumber", func(t *testing.T) {
		st, err := repo.GetStudentByClassNumber(ctx, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, "이서연", st.Name)

		_, err = repo.GetStudentByClassNumber(ctx, 2, 99)
		assert.ErrorIs(t, err, schedule.ErrStudentNotFound)
	})

	t.Run("ListClasses", func(t *testing.T) {
		classes, err := repo.ListClasses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, classes)
	})

	t.Run("ListStudentNumbers", func(t *testing.T) {
		numbers, err := repo.ListStudentNumbers(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 5}, numbers)

		numbers, err = repo.ListStudentNumbers(ctx, 9)
		require.NoError(t, err)
		assert.Empty(t, numbers)
	})
}

func TestScheduleRepositoryListStudentNumbersDistinct(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// the same class and number in two grades collapses to one picker entry
	students := []schedule.Student{
		{ID: "10203", Name: "한지우", ClassNo: null.Int64From(2), StudentNo: null.Int64From(3)},
		{ID: "20203", Name: "이서연", ClassNo: null.Int64From(2), StudentNo: null.Int64From(3)},
	}
	require.NoError(t, repo.ReplaceAll(ctx, students, nil, nil))

	numbers, err := repo.ListStudentNumbers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, numbers)
}

func TestScheduleRepositoryPatterns(t *testing.T) {
	repo := newTestRepo(t)
	seedTestRepo(t, repo)
	ctx := context.Background()

	t.Run("GetPattern", func(t *testing.T) {
		row, err := repo.GetPattern(ctx, 1, "월", 1)
		require.NoError(t, err)
		assert.Equal(t, "기초1", row.BlockCode)
		assert.Equal(t, "수학(홍길동)", row.SubjectTeacher)
	})

	t.Run("GetPatternNotFound", func(t *testing.T) {
		_, err := repo.GetPattern(ctx, 1, "금", 7)
		assert.ErrorIs(t, err, schedule.ErrPatternNotFound)
	})

	t.Run("ListPatternsOrdered", func(t *testing.T) {
		rows, err := repo.ListPatterns(ctx, 1, "월")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].Period)
		assert.Equal(t, 2, rows[1].Period)
	})
}

func TestScheduleRepositoryStatsAndMeta(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.StudentCount)
	assert.False(t, stats.LastUpdatedAt.Valid)

	seedTestRepo(t, repo)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.StudentCount)
	assert.Equal(t, 3, stats.TimetableCount)
	assert.Equal(t, "2026-03-02 08:30:00", stats.LastUpdatedAt.String)

	require.NoError(t, repo.SetMeta(ctx, schedule.MetaLastUpdatedAt, "2026-03-03 09:00:00"))
	value, err := repo.GetMeta(ctx, schedule.MetaLastUpdatedAt)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03 09:00:00", value.String)
}

func TestScheduleRepositoryReplaceAll(t *testing.T) {
	repo := newTestRepo(t)
	seedTestRepo(t, repo)
	ctx := context.Background()

	// a second upload fully replaces the previous dataset
	students := []schedule.Student{{ID: "20301", Name: "최수아", ClassNo: null.Int64From(3), StudentNo: null.Int64From(1)}}
	patterns := []schedule.PatternRow{{ClassNo: 3, Weekday: "수", Period: 4, BlockCode: "탐1", SubjectTeacher: "생명(박영희)"}}
	require.NoError(t, repo.ReplaceAll(ctx, students, patterns, map[string]string{schedule.MetaLastUploadID: "upload-2"}))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StudentCount)
	assert.Equal(t, 1, stats.TimetableCount)

	_, err = repo.GetStudentByID(ctx, "20101")
	assert.ErrorIs(t, err, schedule.ErrStudentNotFound)

	uploadID, err := repo.GetMeta(ctx, schedule.MetaLastUploadID)
	require.NoError(t, err)
	assert.Equal(t, "upload-2", uploadID.String)

	// empty slices leave the existing rows in place so a students-only upload
	// does not wipe the timetable
	require.NoError(t, repo.ReplaceAll(ctx, nil, nil, nil))
	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StudentCount)
}

func TestScheduleRepositoryOverwriteAll(t *testing.T) {
	repo := newTestRepo(t)
	seedTestRepo(t, repo)
	ctx := context.Background()

	// an empty dataset empties the tables, so a sync from an emptied remote
	// leaves no stale local rows behind
	require.NoError(t, repo.OverwriteAll(ctx, nil, nil, nil))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.StudentCount)
	assert.Zero(t, stats.TimetableCount)
}

func TestScheduleRepositoryClear(t *testing.T) {
	repo := newTestRepo(t)
	seedTestRepo(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.Clear(ctx))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.StudentCount)
	assert.Zero(t, stats.TimetableCount)
	assert.False(t, stats.LastUpdatedAt.Valid)
}
