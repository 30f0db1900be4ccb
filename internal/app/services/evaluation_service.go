package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blindgrade/blindgrade/internal/app/auth"
	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
)

// ScriptStore is the script persistence needed by the evaluation service
type ScriptStore interface {
	GetByID(ctx context.Context, id int64) (*models.Script, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Script, error)
	GetBySubject(ctx context.Context, subjectID int64) ([]*models.Script, error)
	GetByStatus(ctx context.Context, status models.ScriptStatus) ([]*models.Script, error)
	SaveEvaluation(ctx context.Context, tx pgx.Tx, script *models.Script) error
	SaveReport(ctx context.Context, scriptID int64, remarks *string) error
}

// MarkStore is the per-question mark persistence needed by the evaluation service
type MarkStore interface {
	Upsert(ctx context.Context, mark *models.Mark) error
	GetByScript(ctx context.Context, scriptID int64) ([]*models.Mark, error)
	GetTotals(ctx context.Context, scriptID int64) (awarded, max float64, questions int, err error)
}

// EvaluationSubjectStore is the subject lookup needed by the evaluation service
type EvaluationSubjectStore interface {
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
}

// EvaluationService drives the dual-evaluation state machine and the legacy
// single-evaluator marking path.
type EvaluationService struct {
	scriptStore  ScriptStore
	markStore    MarkStore
	subjectStore EvaluationSubjectStore
	contentStore ContentStore
	authz        *auth.AuthorizationService
	tx           TxRunner
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(
	scriptStore ScriptStore,
	markStore MarkStore,
	subjectStore EvaluationSubjectStore,
	contentStore ContentStore,
	authz *auth.AuthorizationService,
	tx TxRunner,
) *EvaluationService {
	return &EvaluationService{
		scriptStore:  scriptStore,
		markStore:    markStore,
		subjectStore: subjectStore,
		contentStore: contentStore,
		authz:        authz,
		tx:           tx,
	}
}

// SubmitMarks records an evaluator's total for a script. The caller must hold
// the given slot on the script's subject. Second evaluations are rejected
// until the first is recorded. Resubmission overwrites the slot's previous
// value and the final average is recomputed from the latest marks every time.
func (s *EvaluationService) SubmitMarks(ctx context.Context, userID, scriptID int64, slot models.EvaluatorSlot, req *dto.SubmitMarksRequest) (*dto.ScriptView, error) {
	var updated *models.Script
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		script, err := s.scriptStore.GetByIDForUpdate(ctx, tx, scriptID)
		if err != nil {
			return err
		}

		if script.SubjectID == nil {
			return auth.ErrNotAssigned
		}
		if _, err := s.authz.ValidateSlotHolder(ctx, *script.SubjectID, userID, slot); err != nil {
			return err
		}

		// The slot check comes first: an outsider gets the authorization
		// error even when the payload is also malformed.
		if req.Marks == nil {
			return apperrors.NewValidationError("marks are required")
		}
		if *req.Marks < 0 {
			return apperrors.NewValidationError("marks cannot be negative")
		}

		if script.Status == models.StatusEvaluated {
			return apperrors.NewValidationError("script was already finalized outside the dual-evaluation workflow")
		}

		if slot == models.SlotSecond && !script.Status.IsReadyForSecondEvaluation() {
			return apperrors.NewSequenceError("first evaluation must be completed before second evaluation")
		}

		switch slot {
		case models.SlotFirst:
			script.TeacherMarks = req.Marks
			if req.Remarks != nil {
				script.Remarks = req.Remarks
			}
			if script.Status == models.StatusUploaded {
				script.Status = models.StatusFirstDone
			}
		case models.SlotSecond:
			script.ExternalMarks = req.Marks
			if req.Remarks != nil {
				appended := appendExternalRemark(script.Remarks, *req.Remarks)
				script.Remarks = &appended
			}
			script.Status = models.StatusSecondDone
		}

		script.FinalMarks = models.ComputeFinalMarks(script.TeacherMarks, script.ExternalMarks)

		if err := s.scriptStore.SaveEvaluation(ctx, tx, script); err != nil {
			return err
		}

		updated = script
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int64("scriptID", scriptID).
		Int64("userID", userID).
		Str("slot", string(slot)).
		Str("status", string(updated.Status)).
		Msg("Recorded evaluation")

	return dto.NewScriptView(updated, dto.ScriptViewer{Role: models.RoleFaculty, Slot: slot}), nil
}

// GetScript returns a script projected for the requesting user
func (s *EvaluationService) GetScript(ctx context.Context, userID, scriptID int64) (*dto.ScriptView, error) {
	script, err := s.scriptStore.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	viewer, err := s.viewerFor(ctx, script, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewScriptView(script, viewer), nil
}

// GetSubjectScripts lists a subject's scripts projected for the requesting
// user. The projection applies to every row so list views leak nothing a
// single view would hide. The second evaluator only sees scripts that have
// cleared the first evaluation.
func (s *EvaluationService) GetSubjectScripts(ctx context.Context, userID, subjectID int64) ([]*dto.ScriptView, error) {
	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	viewer, err := s.viewerForSubject(ctx, subject, userID)
	if err != nil {
		return nil, err
	}

	scripts, err := s.scriptStore.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving scripts: %w", err)
	}

	if viewer.Role != models.RoleCustodian && viewer.Slot == models.SlotSecond {
		ready := scripts[:0]
		for _, script := range scripts {
			if script.Status.IsReadyForSecondEvaluation() {
				ready = append(ready, script)
			}
		}
		scripts = ready
	}

	return dto.NewScriptViews(scripts, viewer), nil
}

// SaveMark upserts one per-question mark on a script. Open to the custodian
// and to either assigned evaluator.
func (s *EvaluationService) SaveMark(ctx context.Context, userID, scriptID int64, req *dto.SaveMarkRequest) (*dto.MarkRow, error) {
	if req.MarksAwarded < 0 {
		return nil, apperrors.NewValidationError("marks cannot be negative")
	}
	if req.MarksAwarded > req.MaxMarks {
		return nil, apperrors.NewValidationError("marks awarded cannot exceed maximum marks")
	}

	script, err := s.scriptStore.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	if _, err := s.viewerFor(ctx, script, userID); err != nil {
		return nil, err
	}

	mark := &models.Mark{
		ScriptID:        scriptID,
		QuestionPaperID: req.QuestionPaperID,
		QuestionNumber:  req.QuestionNumber,
		MarksAwarded:    req.MarksAwarded,
		MaxMarks:        req.MaxMarks,
	}

	if err := s.markStore.Upsert(ctx, mark); err != nil {
		return nil, err
	}

	return &dto.MarkRow{
		QuestionNumber: mark.QuestionNumber,
		MarksAwarded:   mark.MarksAwarded,
		MaxMarks:       mark.MaxMarks,
	}, nil
}

// GetMarks lists the per-question marks of a script
func (s *EvaluationService) GetMarks(ctx context.Context, userID, scriptID int64) ([]*dto.MarkRow, error) {
	script, err := s.scriptStore.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	if _, err := s.viewerFor(ctx, script, userID); err != nil {
		return nil, err
	}

	marks, err := s.markStore.GetByScript(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving marks: %w", err)
	}

	rows := make([]*dto.MarkRow, 0, len(marks))
	for _, mark := range marks {
		rows = append(rows, &dto.MarkRow{
			QuestionNumber: mark.QuestionNumber,
			MarksAwarded:   mark.MarksAwarded,
			MaxMarks:       mark.MaxMarks,
		})
	}

	return rows, nil
}

// GetTotals sums the per-question marks of a script
func (s *EvaluationService) GetTotals(ctx context.Context, userID, scriptID int64) (*dto.MarkTotalsResponse, error) {
	script, err := s.scriptStore.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	if _, err := s.viewerFor(ctx, script, userID); err != nil {
		return nil, err
	}

	awarded, max, questions, err := s.markStore.GetTotals(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	return &dto.MarkTotalsResponse{
		ScriptID:     scriptID,
		TotalAwarded: awarded,
		TotalMax:     max,
		Questions:    questions,
	}, nil
}

// SaveReport finalizes a script through the single-evaluator path: the remarks
// are stored and the script moves to its terminal status. The totals stay in
// the marks table and the final average stays untouched. The legacy path
// carries no evaluator-identity check. Scripts already inside the dual
// workflow cannot be finalized this way.
func (s *EvaluationService) SaveReport(ctx context.Context, userID, scriptID int64, req *dto.SaveReportRequest) error {
	script, err := s.scriptStore.GetByID(ctx, scriptID)
	if err != nil {
		return err
	}

	if script.TeacherMarks != nil || script.ExternalMarks != nil {
		return apperrors.NewValidationError("script is in the dual-evaluation workflow and cannot be finalized directly")
	}

	if err := s.scriptStore.SaveReport(ctx, scriptID, req.Remarks); err != nil {
		return err
	}

	logger.Info().Int64("scriptID", scriptID).Int64("userID", userID).Msg("Saved single-evaluator report")
	return nil
}

// GetEvaluatedResults lists every script finalized through the
// single-evaluator path, with its per-question totals summed and the title of
// its question paper resolved.
func (s *EvaluationService) GetEvaluatedResults(ctx context.Context) ([]*dto.EvaluatedResultRow, error) {
	scripts, err := s.scriptStore.GetByStatus(ctx, models.StatusEvaluated)
	if err != nil {
		return nil, fmt.Errorf("error retrieving evaluated scripts: %w", err)
	}

	rows := make([]*dto.EvaluatedResultRow, 0, len(scripts))
	for _, script := range scripts {
		awarded, max, _, err := s.markStore.GetTotals(ctx, script.ID)
		if err != nil {
			return nil, err
		}

		percentage := 0.0
		if max > 0 {
			percentage = roundTo2(awarded / max * 100)
		}

		title := "Unknown"
		if script.QuestionPaperID != nil {
			paper, err := s.contentStore.GetQuestionPaper(ctx, *script.QuestionPaperID)
			switch {
			case err == nil:
				title = paper.Title
			case !errors.Is(err, apperrors.ErrQuestionPaperNotFound):
				return nil, err
			}
		}

		rows = append(rows, &dto.EvaluatedResultRow{
			ScriptID:      script.ID,
			StudentName:   script.StudentName,
			QuestionPaper: title,
			TotalAwarded:  awarded,
			TotalMax:      max,
			Percentage:    percentage,
			Remarks:       script.Remarks,
			EvaluatedAt:   script.UploadedAt,
		})
	}

	return rows, nil
}

// viewerFor resolves the projection for a user looking at a script
func (s *EvaluationService) viewerFor(ctx context.Context, script *models.Script, userID int64) (dto.ScriptViewer, error) {
	isCustodian, err := s.authz.IsCustodian(ctx, userID)
	if err != nil {
		return dto.ScriptViewer{}, err
	}
	if isCustodian {
		return dto.CustodianViewer, nil
	}

	if script.SubjectID == nil {
		return dto.ScriptViewer{}, auth.ErrNotAssigned
	}

	subject, err := s.subjectStore.GetByID(ctx, *script.SubjectID)
	if err != nil {
		return dto.ScriptViewer{}, err
	}

	slot, held := s.authz.SlotHeldBy(ctx, subject, userID)
	if !held {
		return dto.ScriptViewer{}, auth.ErrNotAssigned
	}

	return dto.ScriptViewer{Role: models.RoleFaculty, Slot: slot}, nil
}

// viewerForSubject resolves the projection for a user looking at a subject's scripts
func (s *EvaluationService) viewerForSubject(ctx context.Context, subject *models.Subject, userID int64) (dto.ScriptViewer, error) {
	isCustodian, err := s.authz.IsCustodian(ctx, userID)
	if err != nil {
		return dto.ScriptViewer{}, err
	}
	if isCustodian {
		return dto.CustodianViewer, nil
	}

	slot, held := s.authz.SlotHeldBy(ctx, subject, userID)
	if !held {
		return dto.ScriptViewer{}, auth.ErrNotAssigned
	}

	return dto.ScriptViewer{Role: models.RoleFaculty, Slot: slot}, nil
}

// appendExternalRemark appends the external evaluator's remark to any existing
// remarks instead of overwriting them.
func appendExternalRemark(existing *string, remark string) string {
	if existing == nil || *existing == "" {
		return "[External]: " + remark
	}
	return *existing + "\n[External]: " + remark
}
