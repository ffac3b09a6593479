package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	book := excelize.NewFile()
	defer func() { _ = book.Close() }()
	require.NoError(t, book.SetSheetName("Sheet1", sheet))

	for i, row := range rows {
		row := row
		cell := fmt.Sprintf("A%d", i+1)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseStudentFileFixedLayoutWorkbook(t *testing.T) {
	raw := writeWorkbook(t, "2학년 기초자료", [][]interface{}{
		{"2026학년도 이동수업 기초자료"},
		{},
		{"본반", "이동반교실", "기초1", "기초2", "탐1", "탐2", "탐3", "교양", "", "반", "번호", "이름"},
		{"2-1", "205", "301", "302", "탐구실", "", "", "401", "", 1, 1, "김민준"},
		{"2-1", "205.0", "", "", "", "", "", "", "", 1, 2, "이서연"},
		{},
		{"2-2", "", "", "", "", "", "", "", "", 2, 1, "박지호"},
		{"2-2", "", "", "", "", "", "", "", "", 2, 1, "복제인간"},
		{"2-2", "", "", "", "", "", "", "", "", 2, ""},
	})

	res, err := ParseStudentFile(raw, "기초자료.xlsx", 2)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	first := res.Rows[0]
	assert.Equal(t, "20101", first.ID)
	assert.Equal(t, "김민준", first.Name)
	assert.Equal(t, "2-1", first.HomeroomLocation.String)
	assert.Equal(t, "205", first.MoveClassroom.String)
	assert.Equal(t, "301", first.Basic1Classroom.String)
	assert.Equal(t, "탐구실", first.Inquiry1Classroom.String)
	assert.Equal(t, "401", first.LiberalClassroom.String)
	assert.False(t, first.Inquiry2Classroom.Valid)

	second := res.Rows[1]
	assert.Equal(t, "20102", second.ID)
	assert.Equal(t, "205", second.MoveClassroom.String) // float artifact collapsed

	third := res.Rows[2]
	assert.Equal(t, "20201", third.ID)
	assert.Equal(t, "박지호", third.Name)

	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "duplicate student id skipped: 20201")
	assert.Contains(t, joined, "missing required values")
}

func TestParseStudentFileFlatWorkbookFallback(t *testing.T) {
	raw := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"학번", "이름", "반", "번호", "이동반교실"},
		{"20101", "김민준", 1, 1, "205"},
		{"20102", "이서연", 1, 2, ""},
	})

	res, err := ParseStudentFile(raw, "students.xlsx", 2)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "20101", res.Rows[0].ID)
	assert.Equal(t, "205", res.Rows[0].MoveClassroom.String)
	assert.False(t, res.Rows[1].MoveClassroom.Valid)
}

func TestParseTimetableFileColumnarWorkbook(t *testing.T) {
	raw := writeWorkbook(t, "시간표", [][]interface{}{
		{"반", "요일", "교시", "수업블록", "과목명", "교사"},
		{2, "월", 1, "기초1", "수학", "홍길동"},
		{2, "화", 2, "동아리", "동아리", ""},
	})

	res, err := ParseTimetableFile(raw, "timetable.xlsx", 2)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, "수학 / 홍길동", res.Rows[0].SubjectTeacher)
	assert.Equal(t, "동아리", res.Rows[1].BlockCode)
}

func TestFindFixedHeaderRowRequiresFullSignature(t *testing.T) {
	grid := [][]string{
		{"본반", "이동반", "기초1", "기초2", "탐구1", "탐구2", "탐구3", "교양", "", "반", "번호", "이름"},
	}
	idx, found := findFixedHeaderRow(grid)
	require.True(t, found)
	assert.Equal(t, 0, idx)

	// 반/번호/이름 block present but the left half is something else
	grid = [][]string{
		{"가", "나", "다", "라", "마", "바", "사", "아", "", "반", "번호", "이름"},
	}
	_, found = findFixedHeaderRow(grid)
	assert.False(t, found)
}
