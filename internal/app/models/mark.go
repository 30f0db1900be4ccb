package models

import (
	"time"
)

// Mark defines a per-question mark based on the 'marks' table. This is the
// legacy free-form single-evaluator path; it coexists with the script-level
// dual-evaluation marks because existing data uses either.
type Mark struct {
	ID              int64     `json:"id" db:"id"`
	ScriptID        int64     `json:"scriptId" db:"script_id"`
	QuestionPaperID *int64    `json:"questionPaperId,omitempty" db:"question_paper_id"`
	QuestionNumber  int       `json:"questionNumber" db:"question_number"`
	MarksAwarded    float64   `json:"marksAwarded" db:"marks_awarded"`
	MaxMarks        float64   `json:"maxMarks" db:"max_marks"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}
