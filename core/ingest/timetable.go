package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gsdev/timetable/core/schedule"
)

type patternKey struct {
	classNo int
	weekday string
	period  int
}

// parseTimetableTable ingests the column-oriented layout: one row per
// (class, weekday, period) with either a combined subject/teacher column or
// separate halves.
func parseTimetableTable(grid [][]string) (*PatternResult, error) {
	tbl, err := newHeaderedTable(grid)
	if err != nil {
		return nil, err
	}
	if len(tbl.rows) == 0 {
		return nil, errors.New("the timetable file has no data rows")
	}

	classCol, hasClass := tbl.pick(timetableAliases["class_no"])
	weekdayCol, hasWeekday := tbl.pick(timetableAliases["weekday"])
	periodCol, hasPeriod := tbl.pick(timetableAliases["period"])
	blockCol, hasBlock := tbl.pick(timetableAliases["block_code"])
	combinedCol, hasCombined := tbl.pick(timetableAliases["subject_teacher"])
	subjectCol, hasSubject := tbl.pick(timetableAliases["subject_name"])
	teacherCol, hasTeacher := tbl.pick(timetableAliases["teacher_name"])
	exceptionCol, hasException := tbl.pick(timetableAliases["exception_location"])

	var missing []string
	for _, req := range []struct {
		ok    bool
		label string
	}{
		{hasClass, "반"},
		{hasWeekday, "요일"},
		{hasPeriod, "교시"},
		{hasBlock, "수업블록"},
	} {
		if !req.ok {
			missing = append(missing, req.label)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("the timetable file is missing required columns: %s", strings.Join(missing, ", "))
	}
	if !hasCombined && !hasSubject {
		return nil, errors.New("the timetable file needs a 과목명/교사 or 과목명 column")
	}

	res := &PatternResult{}
	seen := make(map[patternKey]bool)

	for i, row := range tbl.rows {
		lineNo := i + 2

		classNo := toInt(tbl.cell(row, classCol, hasClass))
		weekday := normalizeWeekday(tbl.cell(row, weekdayCol, hasWeekday))
		period := toInt(tbl.cell(row, periodCol, hasPeriod))
		blockCode := schedule.NormalizeBlock(tbl.cell(row, blockCol, hasBlock))

		if !classNo.Valid || !weekday.Valid || !period.Valid || blockCode == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("timetable row %d: missing required values, skipped", lineNo))
			continue
		}

		combined := cleanText(tbl.cell(row, combinedCol, hasCombined))
		subject := cleanText(tbl.cell(row, subjectCol, hasSubject))
		teacher := cleanText(tbl.cell(row, teacherCol, hasTeacher))

		if combined.Valid && (!subject.Valid || !teacher.Valid) {
			parsedSubject, parsedTeacher := splitSubjectTeacher(combined.String)
			if !subject.Valid {
				subject = parsedSubject
			}
			if !teacher.Valid {
				teacher = parsedTeacher
			}
		}
		subjectTeacher := buildSubjectTeacher(subject, teacher)

		exception := cleanText(tbl.cell(row, exceptionCol, hasException))
		if !exception.Valid {
			exception = schedule.DeriveExceptionLocation(subject.String, subjectTeacher)
		}

		key := patternKey{int(classNo.Int64), weekday.String, int(period.Int64)}
		if seen[key] {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("duplicate timetable key skipped: %d반 %s %d교시", key.classNo, key.weekday, key.period))
			continue
		}
		seen[key] = true

		res.Rows = append(res.Rows, schedule.PatternRow{
			ClassNo:           key.classNo,
			Weekday:           key.weekday,
			Period:            key.period,
			BlockCode:         blockCode,
			SubjectName:       subject,
			TeacherName:       teacher,
			SubjectTeacher:    subjectTeacher,
			ExceptionLocation: exception,
		})
	}

	if len(res.Rows) == 0 {
		return nil, errors.New("no valid timetable rows could be built from the timetable file")
	}
	return res, nil
}

var sectionTitleRe = regexp.MustCompile(`(\d+)\s*학년\s*(\d+)\s*반`)

// inferBlockCode guesses the block code of a sectioned-layout cell from its
// subject text via ordered prefix matching.
func inferBlockCode(subject string) string {
	key := schedule.NormalizeBlock(subject)
	if key == "" {
		return defaultBlockCode
	}
	for _, rule := range blockInferenceRules {
		if strings.HasPrefix(key, rule.Prefix) {
			return rule.Block
		}
	}
	return defaultBlockCode
}

// parseSectionedTimetable ingests the sectioned per-class text layout: a
// title line ("N학년 M반 ... 시간표") opens each class section, data lines
// start with a period marker and carry one subject[/teacher] cell per weekday.
// Sections of other grades are skipped entirely when targetGrade is set (>0).
func parseSectionedTimetable(text string, targetGrade int) (*PatternResult, error) {
	grid, err := readCSVGrid(text)
	if err != nil {
		return nil, err
	}

	res := &PatternResult{}
	seen := make(map[patternKey]bool)

	currentGrade := null.Int64{}
	currentClass := null.Int64{}

	for lineIdx, row := range grid {
		lineNo := lineIdx + 1
		first := strings.TrimSpace(cellAt(row, 0))
		if first == "" {
			continue
		}

		// section title
		if strings.Contains(first, "시간표") && strings.Contains(first, "반") {
			if m := sectionTitleRe.FindStringSubmatch(first); m != nil {
				grade, _ := strconv.Atoi(m[1])
				class, _ := strconv.Atoi(m[2])
				currentGrade = null.Int64From(int64(grade))
				currentClass = null.Int64From(int64(class))
			} else if nums := digitRunRe.FindAllString(first, -1); len(nums) >= 2 {
				grade, _ := strconv.Atoi(nums[0])
				class, _ := strconv.Atoi(nums[1])
				currentGrade = null.Int64From(int64(grade))
				currentClass = null.Int64From(int64(class))
			}
			continue
		}

		if targetGrade > 0 && currentGrade.Valid && int(currentGrade.Int64) != targetGrade {
			continue
		}
		if !currentClass.Valid {
			continue // rows before the first section title
		}

		if !strings.Contains(first, "교시") || !startsWithDigit(first) {
			continue
		}

		periodRuns := digitRunRe.FindAllString(first, -1)
		if len(periodRuns) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("timetable row %d: cannot parse the period, skipped", lineNo))
			continue
		}
		period, _ := strconv.Atoi(periodRuns[0])
		if period < 1 || period > 7 {
			continue
		}

		for colIdx, weekday := range schedule.Weekdays {
			cell := cleanText(cellAt(row, colIdx+1))
			if !cell.Valid {
				continue
			}

			subject, teacher := splitSubjectTeacher(cell.String)
			subjectTeacher := buildSubjectTeacher(subject, teacher)
			blockSource := cell.String
			if subject.Valid {
				blockSource = subject.String
			}
			blockCode := inferBlockCode(blockSource)
			exception := schedule.DeriveExceptionLocation(subject.String, subjectTeacher)

			key := patternKey{int(currentClass.Int64), weekday, period}
			if seen[key] {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("duplicate timetable key skipped: %d반 %s %d교시", key.classNo, key.weekday, key.period))
				continue
			}
			seen[key] = true

			subjectName := subject
			if !subjectName.Valid {
				subjectName = cell
			}
			res.Rows = append(res.Rows, schedule.PatternRow{
				ClassNo:           key.classNo,
				Weekday:           key.weekday,
				Period:            key.period,
				BlockCode:         blockCode,
				SubjectName:       subjectName,
				TeacherName:       teacher,
				SubjectTeacher:    subjectTeacher,
				ExceptionLocation: exception,
			})
		}
	}

	if len(res.Rows) == 0 {
		return nil, errors.New("no valid timetable rows could be extracted from the sectioned CSV")
	}
	return res, nil
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}
