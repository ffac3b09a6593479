package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBlock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"기초1", "기초1"},
		{" 기초 1 ", "기초1"},
		{"탐 구 2", "탐구2"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBlock(tt.in), "in=%q", tt.in)
	}
}

func TestDeriveExceptionLocation(t *testing.T) {
	tests := []struct {
		name           string
		subjectName    string
		subjectTeacher string
		want           string
		wantValid      bool
	}{
		{"club", "동아리", "", LocationMove, true},
		{"career", "진로2", "진로2(박영희)", LocationMove, true},
		{"sports", "", "스포츠클럽(최강)", "체육관", true},
		{"free", "공강", "", LocationHomeroom, true},
		{"club keyword wins over free", "동아리", "공강", LocationMove, true},
		{"spaced keyword still matches", "동 아 리", "", LocationMove, true},
		{"plain subject", "수학", "수학(홍길동)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveExceptionLocation(tt.subjectName, tt.subjectTeacher)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.want, got.String)
		})
	}
}

func TestBlockClassroomField(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		found bool
	}{
		{"기초1", FieldBasic1, true},
		{"기초2", FieldBasic2, true},
		{"탐구1", FieldInquiry1, true},
		{"탐1", FieldInquiry1, true},
		{"탐2", FieldInquiry2, true},
		{"탐구3", FieldInquiry3, true},
		{"교양", FieldLiberal, true},
		{"이동반", FieldMove, true},
		{"선택반", FieldMove, true},
		{"탐구 2", FieldInquiry2, true},   // whitespace normalized
		{"기초1A", FieldBasic1, true},     // prefix match
		{"공강", "", false},
		{"동아리", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		field, found := BlockClassroomField(tt.in)
		assert.Equal(t, tt.found, found, "in=%q", tt.in)
		assert.Equal(t, tt.want, field, "in=%q", tt.in)
	}
}

func TestExtractClassNo(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"205", 2, true},   // room code: drop trailing seat digits
		{"1103", 11, true},
		{"3", 3, true},
		{"12", 12, true},
		{"2반", 2, true},
		{"  301호  ", 3, true},
		{"", 0, false},
		{"교실", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractClassNo(tt.in)
		assert.Equal(t, tt.ok, ok, "in=%q", tt.in)
		assert.Equal(t, tt.want, got, "in=%q", tt.in)
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "20105", DigitsOnly(" 2-01-05 "))
	assert.Equal(t, "", DigitsOnly("이동반"))
	assert.Equal(t, "301", DigitsOnly("301호"))
}

func TestIsWeekday(t *testing.T) {
	for _, wd := range Weekdays {
		assert.True(t, IsWeekday(wd))
	}
	assert.False(t, IsWeekday("토"))
	assert.False(t, IsWeekday(""))
	assert.False(t, IsWeekday("Monday"))
}

func TestTodayWeekday(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-03-02", "월"},
		{"2026-03-03", "화"},
		{"2026-03-04", "수"},
		{"2026-03-05", "목"},
		{"2026-03-06", "금"},
		{"2026-03-07", "월"}, // Saturday
		{"2026-03-08", "월"}, // Sunday
	}
	for _, tt := range tests {
		now, err := time.Parse("2006-01-02", tt.date)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, TodayWeekday(now), "date=%s", tt.date)
	}
}
