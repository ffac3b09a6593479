package ingest

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gsdev/timetable/core/schedule"
)

const headerScanLimit = 40

// parseFixedStudentWorkbook scans every sheet of a workbook for the
// fixed-position layout's header signature and reads the rows positionally.
// Returns errLayoutNotApplicable when no sheet carries the signature.
func parseFixedStudentWorkbook(raw []byte, defaultGrade int) (*StudentResult, error) {
	book, err := openWorkbook(raw)
	if err != nil {
		return nil, errLayoutNotApplicable
	}
	defer func() { _ = book.Close() }()

	for _, sheet := range orderedSheets(book, preferredSheetMarker) {
		grid, err := book.GetRows(sheet)
		if err != nil {
			continue
		}
		headerRow, found := findFixedHeaderRow(grid)
		if !found {
			continue
		}
		return parseFixedStudentRows(grid, headerRow, defaultGrade)
	}
	return nil, errLayoutNotApplicable
}

// findFixedHeaderRow looks for the header signature in the first 40 rows:
// columns 10-12 must read 반/번호/이름 and columns 1-8 must carry the eight
// block-classroom labels, exactly or via the tolerated variations.
func findFixedHeaderRow(grid [][]string) (int, bool) {
	limit := len(grid)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for idx := 0; idx < limit; idx++ {
		row := grid[idx]
		if len(row) < 12 {
			continue
		}

		right := make([]string, 3)
		for i := 0; i < 3; i++ {
			right[i] = normalizeHeader(cellAt(row, 9+i))
		}
		if right[0] != fixedRightHeader[0] || right[1] != fixedRightHeader[1] || right[2] != fixedRightHeader[2] {
			continue
		}

		left := make([]string, 8)
		for i := 0; i < 8; i++ {
			left[i] = normalizeHeader(cellAt(row, i))
		}
		if matchesFixedLeftHeader(left) {
			return idx, true
		}
	}
	return 0, false
}

func matchesFixedLeftHeader(left []string) bool {
	exact := true
	for i, want := range fixedLeftHeader {
		if left[i] != want {
			exact = false
			break
		}
	}
	if exact {
		return true
	}

	// tolerated label variation (e.g. "이동반교실", "탐1")
	return left[0] == "본반" &&
		fixedMoveLabels[left[1]] &&
		strings.HasPrefix(left[2], "기초1") &&
		strings.HasPrefix(left[3], "기초2") &&
		(left[4] == "탐1" || left[4] == "탐구1") &&
		(left[5] == "탐2" || left[5] == "탐구2") &&
		(left[6] == "탐3" || left[6] == "탐구3") &&
		strings.HasPrefix(left[7], "교양")
}

// parseFixedStudentRows reads data rows positionally: columns 1-8 are the
// block classrooms, 10-12 are class/number/name. Student IDs are synthesized
// from the default grade.
func parseFixedStudentRows(grid [][]string, headerRow, defaultGrade int) (*StudentResult, error) {
	res := &StudentResult{}
	seen := make(map[string]bool)

	for idx := headerRow + 1; idx < len(grid); idx++ {
		row := grid[idx]
		name := cleanText(cellAt(row, 11))
		classNo := toInt(cellAt(row, 9))
		studentNo := toInt(cellAt(row, 10))

		// blank separator row
		if !name.Valid && !classNo.Valid && !studentNo.Valid {
			continue
		}
		if !name.Valid || !classNo.Valid || !studentNo.Valid {
			res.Warnings = append(res.Warnings, fmt.Sprintf("student row %d: missing required values, skipped", idx+1))
			continue
		}

		studentID := fmt.Sprintf("%d%02d%02d", defaultGrade, classNo.Int64, studentNo.Int64)
		if seen[studentID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate student id skipped: %s", studentID))
			continue
		}
		seen[studentID] = true

		res.Rows = append(res.Rows, schedule.Student{
			ID:                studentID,
			Name:              name.String,
			ClassNo:           classNo,
			StudentNo:         studentNo,
			HomeroomLocation:  cleanCodeText(cellAt(row, 0)),
			MoveClassroom:     cleanCodeText(cellAt(row, 1)),
			Basic1Classroom:   cleanCodeText(cellAt(row, 2)),
			Basic2Classroom:   cleanCodeText(cellAt(row, 3)),
			Inquiry1Classroom: cleanCodeText(cellAt(row, 4)),
			Inquiry2Classroom: cleanCodeText(cellAt(row, 5)),
			Inquiry3Classroom: cleanCodeText(cellAt(row, 6)),
			LiberalClassroom:  cleanCodeText(cellAt(row, 7)),
		})
	}

	if len(res.Rows) == 0 {
		return nil, errors.New("no student data could be extracted from the fixed-position sheet")
	}
	return res, nil
}

// headeredTable resolves alias lists against a grid whose first row is the
// header row.
type headeredTable struct {
	columns map[string]int
	rows    [][]string
}

func newHeaderedTable(grid [][]string) (*headeredTable, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}
	columns := make(map[string]int, len(grid[0]))
	for i, label := range grid[0] {
		key := normalizeHeader(label)
		if key == "" {
			continue
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return &headeredTable{columns: columns, rows: grid[1:]}, nil
}

// pick resolves a canonical field to a source column index via its alias
// list; first alias found wins.
func (t *headeredTable) pick(aliases []string) (int, bool) {
	for _, alias := range aliases {
		if idx, ok := t.columns[normalizeHeader(alias)]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (t *headeredTable) cell(row []string, idx int, ok bool) string {
	if !ok {
		return ""
	}
	return cellAt(row, idx)
}

// parseStudentTable ingests the flat aliased-column layout. It needs a name
// column and either a student-id column or both class and number columns;
// everything else is optional.
func parseStudentTable(grid [][]string, defaultGrade int) (*StudentResult, error) {
	tbl, err := newHeaderedTable(grid)
	if err != nil {
		return nil, err
	}
	if len(tbl.rows) == 0 {
		return nil, errors.New("the student file has no data rows")
	}

	idCol, hasID := tbl.pick(studentAliases["student_id"])
	nameCol, hasName := tbl.pick(studentAliases["student_name"])
	homeroomCol, hasHomeroom := tbl.pick(studentAliases["homeroom_location"])
	classCol, hasClass := tbl.pick(studentAliases["class_no"])
	numberCol, hasNumber := tbl.pick(studentAliases["student_no"])
	moveCol, hasMove := tbl.pick(studentAliases["move_classroom"])

	if !hasName {
		return nil, errors.New("the student file has no name (이름) column")
	}
	if !hasID && !(hasClass && hasNumber) {
		return nil, errors.New("the student file needs a student id (학번) column, or both class (반) and number (번호) columns")
	}

	blockCols := make(map[string]int)
	blockOK := make(map[string]bool)
	for _, field := range []string{
		schedule.FieldBasic1, schedule.FieldBasic2,
		schedule.FieldInquiry1, schedule.FieldInquiry2, schedule.FieldInquiry3,
		schedule.FieldLiberal,
	} {
		blockCols[field], blockOK[field] = tbl.pick(studentAliases[field])
	}

	res := &StudentResult{}
	seen := make(map[string]bool)

	for i, row := range tbl.rows {
		lineNo := i + 2 // 1-based, after the header row

		name := cleanText(tbl.cell(row, nameCol, hasName))
		if !name.Valid {
			continue // silently skip rows with no name
		}

		declaredID := cleanText(tbl.cell(row, idCol, hasID))
		homeroom := cleanCodeText(tbl.cell(row, homeroomCol, hasHomeroom))
		classNo := toInt(tbl.cell(row, classCol, hasClass))
		studentNo := toInt(tbl.cell(row, numberCol, hasNumber))

		if declaredID.Valid && (!classNo.Valid || !studentNo.Valid) {
			parsedClass, parsedNo := parseStudentID(declaredID.String)
			if !classNo.Valid {
				classNo = parsedClass
			}
			if !studentNo.Valid {
				studentNo = parsedNo
			}
		}
		if !classNo.Valid {
			classNo = parseClassFromHomeroom(homeroom)
		}

		studentID := ""
		if declaredID.Valid {
			studentID = declaredID.String
		} else if classNo.Valid && studentNo.Valid {
			studentID = fmt.Sprintf("%d%02d%02d", defaultGrade, classNo.Int64, studentNo.Int64)
		}
		if studentID == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("student row %d: could not build a student id, skipped", lineNo))
			continue
		}

		studentID = schedule.DigitsOnly(studentID)
		if studentID == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("student row %d: malformed student id, skipped", lineNo))
			continue
		}
		if seen[studentID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate student id skipped: %s", studentID))
			continue
		}
		seen[studentID] = true

		blockValue := func(field string) null.String {
			return cleanCodeText(tbl.cell(row, blockCols[field], blockOK[field]))
		}

		res.Rows = append(res.Rows, schedule.Student{
			ID:                studentID,
			Name:              name.String,
			ClassNo:           classNo,
			StudentNo:         studentNo,
			HomeroomLocation:  homeroom,
			MoveClassroom:     cleanCodeText(tbl.cell(row, moveCol, hasMove)),
			Basic1Classroom:   blockValue(schedule.FieldBasic1),
			Basic2Classroom:   blockValue(schedule.FieldBasic2),
			Inquiry1Classroom: blockValue(schedule.FieldInquiry1),
			Inquiry2Classroom: blockValue(schedule.FieldInquiry2),
			Inquiry3Classroom: blockValue(schedule.FieldInquiry3),
			LiberalClassroom:  blockValue(schedule.FieldLiberal),
		})
	}

	if len(res.Rows) == 0 {
		return nil, errors.New("no valid student rows could be built from the student file")
	}
	return res, nil
}
