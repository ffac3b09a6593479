package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Weekdays is the canonical 5-day set, in order.
var Weekdays = []string{"월", "화", "수", "목", "금"}

// Reserved exception-location tokens. Internal sentinels, never shown to users.
const (
	LocationMove     = "__MOVE_CLASSROOM__"
	LocationHomeroom = "__HOMEROOM__"
)

// Block codes with special resolution behavior.
const (
	BlockFree    = "공강"  // free period: destination is always the homeroom
	BlockClub    = "동아리" // club period: displayed as a fixed self-selection label
	BlockCareer2 = "진로2" // destination is always the movement classroom
)

// Student block-classroom field names; these double as the canonical column
// names in the student master table.
const (
	FieldMove     = "move_classroom"
	FieldBasic1   = "basic1_classroom"
	FieldBasic2   = "basic2_classroom"
	FieldInquiry1 = "inquiry1_classroom"
	FieldInquiry2 = "inquiry2_classroom"
	FieldInquiry3 = "inquiry3_classroom"
	FieldLiberal  = "liberal_classroom"
)

// Display labels.
const (
	NoScheduleLabel    = "시간표 없음"
	SelfSelectionLabel = "본인선택반"
	MoveUnsetLabel     = "이동반교실 미설정"
	HomeroomLabel      = "본반"
)

// ExceptionRule maps a period-type keyword found in subject text to a
// destination: a literal room or one of the reserved tokens. Ordered,
// first match wins.
type ExceptionRule struct {
	Keyword  string
	Location string
}

// ExceptionRules is the ingestion-time keyword table.
var ExceptionRules = []ExceptionRule{
	{Keyword: BlockClub, Location: LocationMove},
	{Keyword: BlockCareer2, Location: LocationMove},
	{Keyword: "스포츠", Location: "체육관"},
	{Keyword: BlockFree, Location: LocationHomeroom},
}

// DeriveExceptionLocation keyword-matches the subject and combined label
// against ExceptionRules.
func DeriveExceptionLocation(subjectName, subjectTeacher string) null.String {
	haystack := strings.ReplaceAll(subjectName+" "+subjectTeacher, " ", "")
	for _, rule := range ExceptionRules {
		if strings.Contains(haystack, rule.Keyword) {
			return null.StringFrom(rule.Location)
		}
	}
	return null.String{}
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeBlock strips all whitespace from a block code.
func NormalizeBlock(code string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(code), "")
}

// blockFieldPrefixes maps block-code prefixes to student block-classroom
// fields. Ordered: more specific spellings come before shorter ones.
var blockFieldPrefixes = []struct {
	prefix string
	field  string
}{
	{"기초1", FieldBasic1},
	{"기초2", FieldBasic2},
	{"탐구1", FieldInquiry1},
	{"탐1", FieldInquiry1},
	{"탐구2", FieldInquiry2},
	{"탐2", FieldInquiry2},
	{"탐구3", FieldInquiry3},
	{"탐3", FieldInquiry3},
	{"교양", FieldLiberal},
	{"이동반", FieldMove},
	{"선택반", FieldMove},
}

// BlockClassroomField maps a block code to the student field holding its
// destination, if any.
func BlockClassroomField(code string) (string, bool) {
	key := NormalizeBlock(code)
	if key == "" {
		return "", false
	}
	for _, bf := range blockFieldPrefixes {
		if strings.HasPrefix(key, bf.prefix) {
			return bf.field, true
		}
	}
	return "", false
}

var nonDigitRe = regexp.MustCompile(`\D`)

// DigitsOnly strips everything but digits from s.
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// ExtractClassNo derives a class number from a room-like value. Room codes of
// three or more digits embed class+seat (e.g. "205" -> class 2); shorter digit
// strings are the class number itself.
func ExtractClassNo(value string) (int, bool) {
	digits := DigitsOnly(value)
	if digits == "" {
		return 0, false
	}
	if len(digits) >= 3 {
		digits = digits[:len(digits)-2]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsWeekday reports whether s is one of the canonical weekdays.
func IsWeekday(s string) bool {
	for _, wd := range Weekdays {
		if s == wd {
			return true
		}
	}
	return false
}

// TodayWeekday returns today's canonical weekday; weekends map to 월.
func TodayWeekday(now time.Time) string {
	switch now.Weekday() {
	case time.Tuesday:
		return "화"
	case time.Wednesday:
		return "수"
	case time.Thursday:
		return "목"
	case time.Friday:
		return "금"
	default:
		return "월"
	}
}
