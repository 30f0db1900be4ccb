package models

import (
	"time"
)

// Subject defines the subject/class model based on the 'subjects' table.
// A subject owns its scripts, question papers and rubrics (cascade delete)
// and carries the two evaluator assignments as weak references into 'users'.
type Subject struct {
	ID                int64     `json:"id" db:"id" example:"1"`
	Name              string    `json:"name" db:"name" example:"Physics 101"`
	ClassName         *string   `json:"className,omitempty" db:"class_name" example:"Class 12A"`
	AcademicYear      *string   `json:"academicYear,omitempty" db:"academic_year" example:"2025-2026"`
	FirstEvaluatorID  *int64    `json:"firstEvaluatorId,omitempty" db:"first_evaluator_id"`  // assigned teacher (nullable)
	SecondEvaluatorID *int64    `json:"secondEvaluatorId,omitempty" db:"second_evaluator_id"` // assigned external (nullable)
	CreatedBy         *int64    `json:"createdBy,omitempty" db:"created_by"`                  // custodian who created the subject
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// EvaluatorID returns the user id assigned to the given slot, or nil.
func (s *Subject) EvaluatorID(slot EvaluatorSlot) *int64 {
	if slot == SlotFirst {
		return s.FirstEvaluatorID
	}
	return s.SecondEvaluatorID
}
