package dto

// CreateSubjectRequest creates a subject.
type CreateSubjectRequest struct {
	Name         string  `json:"name" binding:"required" example:"Data Structures"`
	ClassName    *string `json:"className,omitempty" example:"CSE-3A"`
	AcademicYear *string `json:"academicYear,omitempty" example:"2025-26"`
}

// AssignEvaluatorRequest sets or clears one evaluator slot on a subject.
// UserID null clears the slot.
type AssignEvaluatorRequest struct {
	Slot   string `json:"slot" binding:"required,oneof=first second" example:"first"`
	UserID *int64 `json:"userId" example:"4"`
}

// SubjectResponse is the full subject view returned to the custodian.
type SubjectResponse struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	ClassName       *string       `json:"className,omitempty"`
	AcademicYear    *string       `json:"academicYear,omitempty"`
	FirstEvaluator  *UserResponse `json:"firstEvaluator,omitempty"`
	SecondEvaluator *UserResponse `json:"secondEvaluator,omitempty"`
	ScriptCount     int           `json:"scriptCount"`
}

// AssignedSubjectResponse is the subject view returned to an evaluator. The
// second evaluator must not learn who performed the first evaluation, so
// evaluator identities are omitted entirely.
type AssignedSubjectResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ClassName    *string `json:"className,omitempty"`
	AcademicYear *string `json:"academicYear,omitempty"`
	Slot         string  `json:"slot" example:"second"`
	ScriptCount  int     `json:"scriptCount"`
}

// StudentRow is one student derived from the scripts registered under a subject.
type StudentRow struct {
	StudentName string  `json:"studentName"`
	RollNumber  *string `json:"rollNumber,omitempty"`
	ClassName   *string `json:"className,omitempty"`
	ScriptID    int64   `json:"scriptId"`
}

// SubjectResultRow is one row of the consolidated results sheet. Percentage is
// present only when the subject carries a known maximum.
type SubjectResultRow struct {
	ScriptID      int64    `json:"scriptId"`
	StudentName   string   `json:"studentName"`
	RollNumber    *string  `json:"rollNumber,omitempty"`
	TeacherMarks  *float64 `json:"teacherMarks,omitempty"`
	ExternalMarks *float64 `json:"externalMarks,omitempty"`
	FinalMarks    *float64 `json:"finalMarks,omitempty"`
	Percentage    *float64 `json:"percentage,omitempty"`
	Status        string   `json:"status"`
}
