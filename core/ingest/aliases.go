package ingest

// Alias lists for flat-column layouts. Keys are the canonical field names;
// each alias list is matched after header normalization, first hit wins.

var studentAliases = map[string][]string{
	"student_id":         {"학번", "학생번호", "student_id", "studentid"},
	"student_name":       {"이름", "성명", "학생명", "name"},
	"homeroom_location":  {"본반", "본반교실", "homeroom"},
	"class_no":           {"반", "학급", "class", "class_no"},
	"student_no":         {"번호", "출석번호", "no", "num"},
	"move_classroom":     {"이동반교실", "이동반", "선택반", "선택반교실"},
	"basic1_classroom":   {"기초1교실", "기초1"},
	"basic2_classroom":   {"기초2교실", "기초2"},
	"inquiry1_classroom": {"탐구1교실", "탐1교실", "탐구1", "탐1"},
	"inquiry2_classroom": {"탐구2교실", "탐2교실", "탐구2", "탐2"},
	"inquiry3_classroom": {"탐구3교실", "탐3교실", "탐구3", "탐3"},
	"liberal_classroom":  {"교양교실", "교양"},
}

var timetableAliases = map[string][]string{
	"class_no":           {"반", "학급", "class", "class_no"},
	"weekday":            {"요일", "day", "weekday"},
	"period":             {"교시", "period"},
	"block_code":         {"수업블록", "블록", "block", "block_code"},
	"subject_teacher":    {"과목명/교사", "과목교사", "subject_teacher"},
	"subject_name":       {"과목명", "과목", "subject"},
	"teacher_name":       {"교사", "담당교사", "선생님", "teacher"},
	"exception_location": {"예외장소", "exception_location"},
}

// Fixed-position student sheet: sheets whose name carries this marker are
// scanned first for the header signature.
const preferredSheetMarker = "기초자료"

// Header signature of the fixed-position layout, columns 1-8 (0-based 0-7)
// in canonical order, followed by 반/번호/이름 at columns 10-12 (0-based 9-11).
var (
	fixedLeftHeader  = []string{"본반", "이동반", "기초1", "기초2", "탐구1", "탐구2", "탐구3", "교양"}
	fixedRightHeader = []string{"반", "번호", "이름"}

	// tolerated label variation for the movement-classroom column
	fixedMoveLabels = map[string]bool{
		"이동반":   true,
		"이동반교실": true,
		"선택반":   true,
		"선택반교실": true,
	}
)

// blockInferenceRules infer a block code from free subject text in sectioned
// timetable files. Ordered prefix match, first hit wins; no hit means a
// generic movement-class block.
var blockInferenceRules = []struct {
	Prefix string
	Block  string
}{
	{"기1", "기초1"},
	{"기2", "기초2"},
	{"탐1", "탐1"},
	{"탐2", "탐2"},
	{"탐3", "탐3"},
	{"정보", "교양"},
	{"철학", "교양"},
	{"동아리", "동아리"},
	{"진로2", "진로2"},
	{"스포츠", "스포츠"},
	{"공강", "공강"},
}

const defaultBlockCode = "이동반"
