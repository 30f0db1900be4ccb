package models

import (
	"time"
)

// Script defines an answer script based on the 'scripts' table. It is the
// central entity of the evaluation state machine: created in UPLOADED state by
// the upload collaborator, mutated only through evaluator submissions.
//
// TeacherMarks and ExternalMarks belong to the dual-evaluation path;
// per-question marks of the legacy path live in the 'marks' table.
type Script struct {
	ID              int64        `json:"id" db:"id" example:"1"`
	SubjectID       *int64       `json:"subjectId,omitempty" db:"subject_id"`
	QuestionPaperID *int64       `json:"questionPaperId,omitempty" db:"question_paper_id"`
	StudentName     string       `json:"studentName" db:"student_name" example:"Asha Rao"`
	RollNumber      *string      `json:"rollNumber,omitempty" db:"roll_number" example:"12A-041"`
	ClassName       *string      `json:"className,omitempty" db:"class_name"`
	FilePath        string       `json:"filePath" db:"file_path"` // opaque reference owned by the storage collaborator
	Status          ScriptStatus `json:"status" db:"status" example:"UPLOADED"`
	TeacherMarks    *float64     `json:"teacherMarks,omitempty" db:"teacher_marks"`
	ExternalMarks   *float64     `json:"externalMarks,omitempty" db:"external_marks"`
	FinalMarks      *float64     `json:"finalMarks,omitempty" db:"final_marks"`
	Remarks         *string      `json:"remarks,omitempty" db:"remarks"`
	UploadedAt      time.Time    `json:"uploadedAt" db:"uploaded_at"`
}

// ComputeFinalMarks returns the two-way mean of the teacher and external marks,
// or nil unless both are present. No rounding is applied here; rounding happens
// only at presentation. Callers re-invoke this on every submission so a
// corrected mark always recomputes the average from the latest values.
func ComputeFinalMarks(teacherMarks, externalMarks *float64) *float64 {
	if teacherMarks == nil || externalMarks == nil {
		return nil
	}
	final := (*teacherMarks + *externalMarks) / 2.0
	return &final
}
