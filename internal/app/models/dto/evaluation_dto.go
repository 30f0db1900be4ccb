package dto

import "time"

// SaveMarkRequest upserts one per-question mark on a script. This is the
// single-evaluator path kept for existing data alongside dual evaluation.
type SaveMarkRequest struct {
	QuestionNumber  int     `json:"questionNumber" binding:"required,gte=1"`
	MarksAwarded    float64 `json:"marksAwarded" binding:"gte=0"`
	MaxMarks        float64 `json:"maxMarks" binding:"required,gt=0"`
	QuestionPaperID *int64  `json:"questionPaperId,omitempty"`
}

// MarkRow is one stored per-question mark.
type MarkRow struct {
	QuestionNumber int     `json:"questionNumber"`
	MarksAwarded   float64 `json:"marksAwarded"`
	MaxMarks       float64 `json:"maxMarks"`
}

// MarkTotalsResponse sums the stored per-question marks of a script.
type MarkTotalsResponse struct {
	ScriptID     int64   `json:"scriptId"`
	TotalAwarded float64 `json:"totalAwarded"`
	TotalMax     float64 `json:"totalMax"`
	Questions    int     `json:"questions"`
}

// SaveReportRequest finalizes a single-evaluator report on a script. The
// totals come from the stored per-question marks, so only the remarks travel
// in the request.
type SaveReportRequest struct {
	Remarks *string `json:"remarks,omitempty"`
}

// EvaluatedResultRow is one finalized single-evaluator script on the results
// listing, with its per-question totals summed up.
type EvaluatedResultRow struct {
	ScriptID      int64     `json:"scriptId"`
	StudentName   string    `json:"studentName"`
	QuestionPaper string    `json:"questionPaper"`
	TotalAwarded  float64   `json:"totalAwarded"`
	TotalMax      float64   `json:"totalMax"`
	Percentage    float64   `json:"percentage"`
	Remarks       *string   `json:"remarks,omitempty"`
	EvaluatedAt   time.Time `json:"evaluatedAt"`
}

// MatchRow pairs a question with its grading criterion for side-by-side
// evaluation. Either side may be null when only the other mentions the
// question number.
type MatchRow struct {
	QuestionNumber string   `json:"questionNumber"`
	QuestionText   *string  `json:"questionText"`
	CriteriaText   *string  `json:"criteriaText"`
	MaxMarks       *float64 `json:"maxMarks"`
}

// MatchResponse is the full question-to-rubric alignment for a question paper.
type MatchResponse struct {
	QuestionPaperID int64      `json:"questionPaperId"`
	RubricID        *int64     `json:"rubricId,omitempty"`
	Rows            []MatchRow `json:"rows"`
}
