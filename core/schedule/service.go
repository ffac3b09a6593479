package schedule

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrPatternNotFound = errors.New("timetable row not found")
	ErrInvalidWeekday  = errors.New("weekday must be one of 월~금")
	ErrNoPatternClass  = errors.New("cannot determine the student's pattern class (movement or home class)")
)

type (
	Repository interface {
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByClassNumber(ctx context.Context, classNo, studentNo int) (Student, error)
		ListClasses(ctx context.Context) ([]int, error)
		ListStudentNumbers(ctx context.Context, classNo int) ([]int, error)
		GetPattern(ctx context.Context, classNo int, weekday string, period int) (PatternRow, error)
		// ListPatterns returns all rows for (classNo, weekday) ordered by period.
		ListPatterns(ctx context.Context, classNo int, weekday string) ([]PatternRow, error)
		Stats(ctx context.Context) (Stats, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetStudentByID(ctx context.Context, id string) (Student, error) {
	normalized := DigitsOnly(id)
	if normalized == "" {
		return Student{}, ErrStudentNotFound
	}
	return svc.repo.GetStudentByID(ctx, normalized)
}

func (svc *Service) GetStudentByClassNumber(ctx context.Context, classNo, studentNo int) (Student, error) {
	return svc.repo.GetStudentByClassNumber(ctx, classNo, studentNo)
}

func (svc *Service) ListClasses(ctx context.Context) ([]int, error) {
	return svc.repo.ListClasses(ctx)
}

func (svc *Service) ListStudentNumbers(ctx context.Context, classNo int) ([]int, error) {
	return svc.repo.ListStudentNumbers(ctx, classNo)
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.Stats(ctx)
}

// PatternClassNo determines which class timetable a student follows: the class
// derived from their movement classroom when set, otherwise their home class.
func PatternClassNo(st Student) (int, bool) {
	if st.MoveClassroom.Valid {
		if classNo, ok := ExtractClassNo(st.MoveClassroom.String); ok {
			return classNo, true
		}
	}
	if st.ClassNo.Valid {
		return int(st.ClassNo.Int64), true
	}
	return 0, false
}

// Resolve computes the seven-period schedule for a student on a weekday.
// It is read-only and performs at most one override lookup per period.
func (svc *Service) Resolve(ctx context.Context, st Student, weekday string) ([]PeriodEntry, error) {
	if !IsWeekday(weekday) {
		return nil, ErrInvalidWeekday
	}

	patternClassNo, ok := PatternClassNo(st)
	if !ok {
		return nil, ErrNoPatternClass
	}

	rows, err := svc.repo.ListPatterns(ctx, patternClassNo, weekday)
	if err != nil {
		return nil, errors.Wrap(err, "listing timetable rows")
	}
	byPeriod := make(map[int]PatternRow, len(rows))
	for _, row := range rows {
		byPeriod[row.Period] = row
	}

	entries := make([]PeriodEntry, 0, 7)
	for period := 1; period <= 7; period++ {
		var base *PatternRow
		if row, found := byPeriod[period]; found {
			row := row
			base = &row
		}

		dec, err := svc.decidePeriod(ctx, st, weekday, period, base)
		if err != nil {
			return nil, err
		}

		entry := PeriodEntry{
			Period:         period,
			EffectiveClass: patternClassNo,
			SubjectTeacher: NoScheduleLabel,
			Destination:    svc.displayDestination(st, base, dec.rawDestination),
		}
		if dec.effective != nil {
			entry.EffectiveClass = dec.effectiveClassNo
			entry.BlockCode = dec.effective.BlockCode
			entry.SubjectTeacher = dec.effective.SubjectTeacher
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
