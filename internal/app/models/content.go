package models

import (
	"time"
)

// QuestionPaper defines a question paper based on the 'question_papers' table.
// The file itself is owned by the storage collaborator; only the reference and
// the extracted question content are used here.
type QuestionPaper struct {
	ID             int64     `json:"id" db:"id"`
	SubjectID      *int64    `json:"subjectId,omitempty" db:"subject_id"` // nullable for pre-subject uploads
	Title          string    `json:"title" db:"title"`
	FilePath       string    `json:"filePath" db:"file_path"`
	TotalQuestions int       `json:"totalQuestions" db:"total_questions"`
	UploadedAt     time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// Rubric defines an evaluation rubric based on the 'rubrics' table.
type Rubric struct {
	ID         int64     `json:"id" db:"id"`
	SubjectID  *int64    `json:"subjectId,omitempty" db:"subject_id"`
	Title      string    `json:"title" db:"title"`
	FilePath   string    `json:"filePath" db:"file_path"`
	UploadedAt time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// QuestionContent is one extracted question supplied by the OCR collaborator,
// unique per (question_paper_id, question_number). Question numbers are string
// keys such as "Q1", "2a" or "3.1".
type QuestionContent struct {
	ID              int64     `json:"id" db:"id"`
	QuestionPaperID int64     `json:"questionPaperId" db:"question_paper_id"`
	QuestionNumber  string    `json:"questionNumber" db:"question_number"`
	QuestionText    string    `json:"questionText" db:"question_text"`
	PageNumber      *int      `json:"pageNumber,omitempty" db:"page_number"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// RubricContent is one extracted grading criterion, unique per
// (rubric_id, question_number). MaxMarks stays nil when extraction found no
// numeric weight; it is never defaulted to zero.
type RubricContent struct {
	ID             int64     `json:"id" db:"id"`
	RubricID       int64     `json:"rubricId" db:"rubric_id"`
	QuestionNumber string    `json:"questionNumber" db:"question_number"`
	CriteriaText   string    `json:"criteriaText" db:"criteria_text"`
	MaxMarks       *float64  `json:"maxMarks,omitempty" db:"max_marks"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
