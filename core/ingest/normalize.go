package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/core/schedule"
)

var (
	headerJunkRe    = regexp.MustCompile(`[\s_/()\-]+`)
	floatArtifactRe = regexp.MustCompile(`^(-?\d+)\.0+$`)
	digitRunRe      = regexp.MustCompile(`\d+`)
)

// normalizeHeader case-folds a column label and collapses whitespace,
// underscores, slashes, parentheses and hyphens so alias matching is
// insensitive to the export's labeling quirks.
func normalizeHeader(value string) string {
	return headerJunkRe.ReplaceAllString(core.CleanString(value, true), "")
}

// cleanText trims a cell; genuinely empty cells become null.
func cleanText(value string) null.String {
	text := strings.TrimSpace(value)
	if text == "" {
		return null.String{}
	}
	return null.StringFrom(text)
}

// cleanCodeText cleans a short code cell (room numbers etc.), collapsing
// "-1.0"-style spreadsheet float artifacts back to plain integer text.
func cleanCodeText(value string) null.String {
	text := cleanText(value)
	if !text.Valid {
		return text
	}
	if m := floatArtifactRe.FindStringSubmatch(text.String); m != nil {
		return null.StringFrom(m[1])
	}
	return text
}

// toInt coerces a cell to an integer: float artifacts like "3.0" keep their
// integer part, anything else yields its last run of digits. Unparseable
// cells become null, never an error.
func toInt(value string) null.Int64 {
	text := strings.TrimSpace(value)
	if text == "" {
		return null.Int64{}
	}
	if m := floatArtifactRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return null.Int64From(int64(n))
		}
		return null.Int64{}
	}
	runs := digitRunRe.FindAllString(text, -1)
	if len(runs) == 0 {
		return null.Int64{}
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return null.Int64{}
	}
	return null.Int64From(int64(n))
}

var weekdayPrefixes = map[string]string{
	"mon": "월",
	"tue": "화",
	"wed": "수",
	"thu": "목",
	"fri": "금",
}

// normalizeWeekday maps a weekday cell onto the canonical 5-day set, accepting
// native weekday words (with or without the 요일 suffix) and 3-letter English
// prefixes. Unrecognized values become null.
func normalizeWeekday(value string) null.String {
	text := cleanText(value)
	if !text.Valid {
		return null.String{}
	}
	compact := strings.TrimSpace(strings.ReplaceAll(text.String, "요일", ""))
	if schedule.IsWeekday(compact) {
		return null.StringFrom(compact)
	}

	key := strings.ToLower(compact)
	if len(key) > 3 {
		key = key[:3]
	}
	if wd, ok := weekdayPrefixes[key]; ok {
		return null.StringFrom(wd)
	}
	return null.String{}
}

// splitSubjectTeacher splits a combined "subject / teacher" label: prefer a
// slash, else the last whitespace run, else the whole string is the subject.
func splitSubjectTeacher(combined string) (subject, teacher null.String) {
	text := strings.TrimSpace(combined)
	if text == "" {
		return null.String{}, null.String{}
	}
	if idx := strings.Index(text, "/"); idx >= 0 {
		return cleanText(text[:idx]), cleanText(text[idx+1:])
	}
	if idx := strings.LastIndexAny(text, " \t"); idx >= 0 {
		return cleanText(text[:idx]), cleanText(text[idx+1:])
	}
	return null.StringFrom(text), null.String{}
}

// buildSubjectTeacher derives the combined display label; always non-empty.
func buildSubjectTeacher(subject, teacher null.String) string {
	if subject.Valid && teacher.Valid {
		return subject.String + " / " + teacher.String
	}
	if subject.Valid {
		return subject.String
	}
	if teacher.Valid {
		return teacher.String
	}
	return "미입력"
}

// parseStudentID splits a digits-only student ID into (class, number):
// grade digit first, last two digits are the number, the middle is the class.
func parseStudentID(studentID string) (classNo, studentNo null.Int64) {
	digits := schedule.DigitsOnly(studentID)
	if len(digits) < 4 {
		return null.Int64{}, null.Int64{}
	}
	middle := digits[1 : len(digits)-2]
	if middle == "" {
		return null.Int64{}, null.Int64{}
	}
	class, err := strconv.Atoi(middle)
	if err != nil {
		return null.Int64{}, null.Int64{}
	}
	number, err := strconv.Atoi(digits[len(digits)-2:])
	if err != nil {
		return null.Int64{}, null.Int64{}
	}
	return null.Int64From(int64(class)), null.Int64From(int64(number))
}

// parseClassFromHomeroom digs a class number out of free-text homeroom values
// like "2-4" (take the trailing number) or "403호" (take the first).
func parseClassFromHomeroom(homeroom null.String) null.Int64 {
	if !homeroom.Valid {
		return null.Int64{}
	}
	runs := digitRunRe.FindAllString(homeroom.String, -1)
	if len(runs) == 0 {
		return null.Int64{}
	}
	pick := runs[0]
	if strings.Contains(homeroom.String, "-") {
		pick = runs[len(runs)-1]
	}
	n, err := strconv.Atoi(pick)
	if err != nil {
		return null.Int64{}
	}
	return null.Int64From(int64(n))
}
