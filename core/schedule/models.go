package schedule

import (
	"github.com/volatiletech/null/v8"
)

// Meta keys stored in the app_meta table.
const (
	MetaLastUpdatedAt = "last_updated_at"
	MetaLastUploadID  = "last_upload_id"
)

// Student is one row of the student master table. The ID is a digits-only key:
// grade digit + 2-digit class + 2-digit number (e.g. "30205").
type Student struct {
	ID                string      `db:"student_id" json:"student_id"`
	Name              string      `db:"student_name" json:"student_name"`
	ClassNo           null.Int64    `db:"class_no" json:"class_no"`
	StudentNo         null.Int64    `db:"student_no" json:"student_no"`
	HomeroomLocation  null.String `db:"homeroom_location" json:"homeroom_location"`
	MoveClassroom     null.String `db:"move_classroom" json:"move_classroom"`
	Basic1Classroom   null.String `db:"basic1_classroom" json:"basic1_classroom"`
	Basic2Classroom   null.String `db:"basic2_classroom" json:"basic2_classroom"`
	Inquiry1Classroom null.String `db:"inquiry1_classroom" json:"inquiry1_classroom"`
	Inquiry2Classroom null.String `db:"inquiry2_classroom" json:"inquiry2_classroom"`
	Inquiry3Classroom null.String `db:"inquiry3_classroom" json:"inquiry3_classroom"`
	LiberalClassroom  null.String `db:"liberal_classroom" json:"liberal_classroom"`
}

// BlockClassroom returns the student's destination for one of the
// block-classroom fields (FieldMove, FieldBasic1, ...).
func (s Student) BlockClassroom(field string) null.String {
	switch field {
	case FieldMove:
		return s.MoveClassroom
	case FieldBasic1:
		return s.Basic1Classroom
	case FieldBasic2:
		return s.Basic2Classroom
	case FieldInquiry1:
		return s.Inquiry1Classroom
	case FieldInquiry2:
		return s.Inquiry2Classroom
	case FieldInquiry3:
		return s.Inquiry3Classroom
	case FieldLiberal:
		return s.LiberalClassroom
	}
	return null.String{}
}

// PatternRow is one slot of a class timetable, keyed by (class_no, weekday, period).
type PatternRow struct {
	ClassNo           int         `db:"class_no" json:"class_no"`
	Weekday           string      `db:"weekday" json:"weekday"`
	Period            int         `db:"period" json:"period"`
	BlockCode         string      `db:"block_code" json:"block_code"`
	SubjectName       null.String `db:"subject_name" json:"subject_name"`
	TeacherName       null.String `db:"teacher_name" json:"teacher_name"`
	SubjectTeacher    string      `db:"subject_teacher" json:"subject_teacher"`
	ExceptionLocation null.String `db:"exception_location" json:"exception_location"`
}

// PeriodEntry is one resolved period of a student's day.
type PeriodEntry struct {
	Period         int    `json:"period"`
	EffectiveClass int    `json:"effective_class_no"`
	BlockCode      string `json:"block_code,omitempty"`
	SubjectTeacher string `json:"subject_teacher"`
	Destination    string `json:"destination"`
}

type Stats struct {
	StudentCount   int         `json:"student_count"`
	TimetableCount int         `json:"timetable_count"`
	LastUpdatedAt  null.String `json:"last_updated_at"`
}
