package models

// RoleType defines the user role type
type RoleType string

const (
	RoleCustodian RoleType = "custodian" // creates subjects, assigns evaluators
	RoleFaculty   RoleType = "faculty"   // eligible as first or second evaluator
)

// EvaluatorSlot identifies one of the two evaluator positions on a subject.
type EvaluatorSlot string

const (
	SlotFirst  EvaluatorSlot = "first"
	SlotSecond EvaluatorSlot = "second"
)

// ScriptStatus is the per-script evaluation state.
type ScriptStatus string

const (
	StatusUploaded   ScriptStatus = "UPLOADED"
	StatusFirstDone  ScriptStatus = "FIRST_DONE"
	StatusSecondDone ScriptStatus = "SECOND_DONE"
	// StatusEvaluated is the terminal state of the legacy single-evaluator
	// flow. It never mixes with the dual-evaluation mark fields.
	StatusEvaluated ScriptStatus = "evaluated"
)

// NormalizeScriptStatus maps legacy status aliases stored by older versions of
// the system onto the canonical enum. Unknown values fall back to UPLOADED so
// pre-migration rows re-enter the workflow at the start.
func NormalizeScriptStatus(raw string) ScriptStatus {
	switch raw {
	case "UPLOADED", "pending", "":
		return StatusUploaded
	case "FIRST_DONE":
		return StatusFirstDone
	case "SECOND_DONE":
		return StatusSecondDone
	case "evaluated":
		return StatusEvaluated
	default:
		return StatusUploaded
	}
}

// IsReadyForSecondEvaluation reports whether the first evaluation has been
// recorded, which is the precondition for accepting an external mark.
func (s ScriptStatus) IsReadyForSecondEvaluation() bool {
	return s == StatusFirstDone || s == StatusSecondDone
}
