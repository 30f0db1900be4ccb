package dto

import (
	"time"

	"github.com/blindgrade/blindgrade/internal/app/models"
)

// RegisterScriptRequest registers an uploaded answer script under a subject.
type RegisterScriptRequest struct {
	StudentName     string  `json:"studentName" binding:"required" example:"R. Iyer"`
	RollNumber      *string `json:"rollNumber,omitempty" example:"21CS045"`
	ClassName       *string `json:"className,omitempty" example:"CSE-3A"`
	FilePath        string  `json:"filePath" binding:"required" example:"scripts/21CS045.pdf"`
	QuestionPaperID *int64  `json:"questionPaperId,omitempty"`
}

// SubmitMarksRequest is the mark submission payload for either evaluator slot.
// Marks presence is validated in the service, after the slot-holder check.
type SubmitMarksRequest struct {
	Marks   *float64 `json:"marks" example:"72"`
	Remarks *string  `json:"remarks,omitempty" example:"Neat work, Q4 incomplete"`
}

// ScriptViewer identifies who is looking at a script. The projection depends
// on it: each evaluator sees only their own slot's marks.
type ScriptViewer struct {
	Role models.RoleType
	Slot models.EvaluatorSlot
}

// CustodianViewer sees every field.
var CustodianViewer = ScriptViewer{Role: models.RoleCustodian}

// ScriptView is the outward projection of a script. Redacted mark fields are
// omitted from the payload entirely, never serialized as null, so a client
// cannot distinguish "hidden" from "not yet entered" by shape.
type ScriptView struct {
	ID              int64     `json:"id"`
	SubjectID       *int64    `json:"subjectId,omitempty"`
	QuestionPaperID *int64    `json:"questionPaperId,omitempty"`
	StudentName     string    `json:"studentName"`
	RollNumber      *string   `json:"rollNumber,omitempty"`
	ClassName       *string   `json:"className,omitempty"`
	FilePath        string    `json:"filePath"`
	Status          string    `json:"status"`
	TeacherMarks    *float64  `json:"teacherMarks,omitempty"`
	ExternalMarks   *float64  `json:"externalMarks,omitempty"`
	FinalMarks      *float64  `json:"finalMarks,omitempty"`
	Remarks         *string   `json:"remarks,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// NewScriptView projects a script for the given viewer. The custodian sees all
// mark fields. Each evaluator sees only their own slot's raw mark; the final
// mark is visible to everyone once computed.
func NewScriptView(script *models.Script, viewer ScriptViewer) *ScriptView {
	view := &ScriptView{
		ID:              script.ID,
		SubjectID:       script.SubjectID,
		QuestionPaperID: script.QuestionPaperID,
		StudentName:     script.StudentName,
		RollNumber:      script.RollNumber,
		ClassName:       script.ClassName,
		FilePath:        script.FilePath,
		Status:          string(script.Status),
		FinalMarks:      script.FinalMarks,
		Remarks:         script.Remarks,
		UploadedAt:      script.UploadedAt,
	}

	if viewer.Role == models.RoleCustodian {
		view.TeacherMarks = script.TeacherMarks
		view.ExternalMarks = script.ExternalMarks
		return view
	}

	switch viewer.Slot {
	case models.SlotFirst:
		view.TeacherMarks = script.TeacherMarks
	case models.SlotSecond:
		view.ExternalMarks = script.ExternalMarks
	}
	return view
}

// NewScriptViews projects a list of scripts for the given viewer.
func NewScriptViews(scripts []*models.Script, viewer ScriptViewer) []*ScriptView {
	views := make([]*ScriptView, 0, len(scripts))
	for _, script := range scripts {
		views = append(views, NewScriptView(script, viewer))
	}
	return views
}
