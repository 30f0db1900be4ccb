package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/blindgrade/blindgrade/internal/app/auth"
	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/db"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
)

// SubjectStore is the subject persistence needed by the subject service
type SubjectStore interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
	GetAll(ctx context.Context) ([]*models.Subject, error)
	GetAssignedTo(ctx context.Context, userID int64, slot models.EvaluatorSlot) ([]*models.Subject, error)
	AssignEvaluator(ctx context.Context, tx pgx.Tx, subjectID int64, slot models.EvaluatorSlot, userID *int64) error
	Delete(ctx context.Context, id int64) error
	CountScripts(ctx context.Context, subjectID int64) (int, error)
}

// SubjectScriptStore is the script persistence needed by the subject service
type SubjectScriptStore interface {
	Create(ctx context.Context, script *models.Script) error
	GetBySubject(ctx context.Context, subjectID int64) ([]*models.Script, error)
}

// SubjectUserStore is the user lookup needed by the subject service
type SubjectUserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// MarkTotalsStore exposes per-question mark totals for result percentages
type MarkTotalsStore interface {
	GetTotals(ctx context.Context, scriptID int64) (awarded, max float64, questions int, err error)
}

// TxRunner runs a function within a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// SubjectService handles subject lifecycle, evaluator assignment and results
type SubjectService struct {
	subjectStore SubjectStore
	scriptStore  SubjectScriptStore
	userStore    SubjectUserStore
	markStore    MarkTotalsStore
	authz        *auth.AuthorizationService
	tx           TxRunner
}

// NewSubjectService creates a new subject service instance
func NewSubjectService(
	subjectStore SubjectStore,
	scriptStore SubjectScriptStore,
	userStore SubjectUserStore,
	markStore MarkTotalsStore,
	authz *auth.AuthorizationService,
	tx TxRunner,
) *SubjectService {
	return &SubjectService{
		subjectStore: subjectStore,
		scriptStore:  scriptStore,
		userStore:    userStore,
		markStore:    markStore,
		authz:        authz,
		tx:           tx,
	}
}

// CreateSubject creates a new subject. Custodian only.
func (s *SubjectService) CreateSubject(ctx context.Context, custodianID int64, req *dto.CreateSubjectRequest) (*dto.SubjectResponse, error) {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("subject name cannot be empty")
	}

	subject := &models.Subject{
		Name:         name,
		ClassName:    req.ClassName,
		AcademicYear: req.AcademicYear,
		CreatedBy:    &custodianID,
	}

	if err := s.subjectStore.Create(ctx, subject); err != nil {
		return nil, err
	}

	logger.Info().Int64("subjectID", subject.ID).Str("name", subject.Name).Msg("Created subject")

	return s.toSubjectResponse(ctx, subject)
}

// GetSubjects lists all subjects with evaluator details. Custodian only.
func (s *SubjectService) GetSubjects(ctx context.Context, custodianID int64) ([]*dto.SubjectResponse, error) {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return nil, err
	}

	subjects, err := s.subjectStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}

	responses := make([]*dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		response, err := s.toSubjectResponse(ctx, subject)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return responses, nil
}

// GetSubject retrieves one subject with evaluator details. Custodian only.
func (s *SubjectService) GetSubject(ctx context.Context, custodianID, subjectID int64) (*dto.SubjectResponse, error) {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return nil, err
	}

	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return s.toSubjectResponse(ctx, subject)
}

// DeleteSubject deletes a subject and everything under it. Custodian only.
func (s *SubjectService) DeleteSubject(ctx context.Context, custodianID, subjectID int64) error {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return err
	}

	if err := s.subjectStore.Delete(ctx, subjectID); err != nil {
		return err
	}

	logger.Info().Int64("subjectID", subjectID).Msg("Deleted subject")
	return nil
}

// AssignEvaluator sets or clears one evaluator slot on a subject. Custodian
// only. A nil user ID unassigns the slot; otherwise the user must be a faculty
// member. Holding both slots is not blocked, only logged.
func (s *SubjectService) AssignEvaluator(ctx context.Context, custodianID, subjectID int64, req *dto.AssignEvaluatorRequest) (*dto.SubjectResponse, error) {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return nil, err
	}

	slot := models.EvaluatorSlot(req.Slot)
	if slot != models.SlotFirst && slot != models.SlotSecond {
		return nil, apperrors.NewValidationError("slot must be 'first' or 'second'")
	}

	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if req.UserID != nil {
		user, err := s.userStore.GetByID(ctx, *req.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return nil, apperrors.NewResourceNotFoundError("evaluator user not found")
			}
			return nil, err
		}

		if user.RoleType != models.RoleFaculty {
			return nil, apperrors.NewValidationError("only faculty members can be assigned as evaluators")
		}

		// One user may hold both slots; it is only flagged, never blocked.
		other := subject.EvaluatorID(otherSlot(slot))
		if other != nil && *other == user.ID {
			logger.Warn().
				Int64("subjectID", subjectID).
				Int64("userID", user.ID).
				Msg("User now holds both evaluator slots on the subject")
		}
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.subjectStore.AssignEvaluator(ctx, tx, subjectID, slot, req.UserID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int64("subjectID", subjectID).
		Str("slot", string(slot)).
		Interface("userID", req.UserID).
		Msg("Updated evaluator assignment")

	updated, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return s.toSubjectResponse(ctx, updated)
}

// GetAssignedSubjects lists subjects where the user holds an evaluator slot,
// without exposing who holds the other slot.
func (s *SubjectService) GetAssignedSubjects(ctx context.Context, userID int64) ([]*dto.AssignedSubjectResponse, error) {
	responses := []*dto.AssignedSubjectResponse{}

	for _, slot := range []models.EvaluatorSlot{models.SlotFirst, models.SlotSecond} {
		subjects, err := s.subjectStore.GetAssignedTo(ctx, userID, slot)
		if err != nil {
			return nil, fmt.Errorf("error retrieving assigned subjects: %w", err)
		}

		for _, subject := range subjects {
			count, err := s.subjectStore.CountScripts(ctx, subject.ID)
			if err != nil {
				return nil, err
			}
			responses = append(responses, &dto.AssignedSubjectResponse{
				ID:           subject.ID,
				Name:         subject.Name,
				ClassName:    subject.ClassName,
				AcademicYear: subject.AcademicYear,
				Slot:         string(slot),
				ScriptCount:  count,
			})
		}
	}

	return responses, nil
}

// RegisterScript registers an uploaded answer script under a subject.
// Custodian only.
func (s *SubjectService) RegisterScript(ctx context.Context, custodianID, subjectID int64, req *dto.RegisterScriptRequest) (*dto.ScriptView, error) {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return nil, err
	}

	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.StudentName) == "" {
		return nil, apperrors.NewValidationError("student name cannot be empty")
	}

	script := &models.Script{
		SubjectID:       &subject.ID,
		QuestionPaperID: req.QuestionPaperID,
		StudentName:     strings.TrimSpace(req.StudentName),
		RollNumber:      req.RollNumber,
		ClassName:       req.ClassName,
		FilePath:        req.FilePath,
	}

	if err := s.scriptStore.Create(ctx, script); err != nil {
		return nil, err
	}

	logger.Info().Int64("scriptID", script.ID).Int64("subjectID", subject.ID).Msg("Registered script")

	return dto.NewScriptView(script, dto.CustodianViewer), nil
}

// GetStudents lists the students whose scripts are registered under a subject.
// Accessible to the custodian and to either assigned evaluator.
func (s *SubjectService) GetStudents(ctx context.Context, userID, subjectID int64) ([]*dto.StudentRow, error) {
	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	isCustodian, err := s.authz.IsCustodian(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isCustodian {
		if _, held := s.authz.SlotHeldBy(ctx, subject, userID); !held {
			return nil, auth.ErrNotAssigned
		}
	}

	scripts, err := s.scriptStore.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving scripts: %w", err)
	}

	students := make([]*dto.StudentRow, 0, len(scripts))
	for _, script := range scripts {
		students = append(students, &dto.StudentRow{
			StudentName: script.StudentName,
			RollNumber:  script.RollNumber,
			ClassName:   script.ClassName,
			ScriptID:    script.ID,
		})
	}

	return students, nil
}

// GetResults returns the consolidated results sheet for a subject. Custodian
// only; this is the one view where both raw marks appear side by side.
func (s *SubjectService) GetResults(ctx context.Context, custodianID, subjectID int64) ([]*dto.SubjectResultRow, error) {
	if err := s.authz.ValidateCustodian(ctx, custodianID); err != nil {
		return nil, err
	}

	if _, err := s.subjectStore.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	scripts, err := s.scriptStore.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving scripts: %w", err)
	}

	rows := make([]*dto.SubjectResultRow, 0, len(scripts))
	for _, script := range scripts {
		row := &dto.SubjectResultRow{
			ScriptID:      script.ID,
			StudentName:   script.StudentName,
			RollNumber:    script.RollNumber,
			TeacherMarks:  script.TeacherMarks,
			ExternalMarks: script.ExternalMarks,
			FinalMarks:    script.FinalMarks,
			Status:        string(script.Status),
		}

		if script.FinalMarks != nil {
			_, max, questions, err := s.markStore.GetTotals(ctx, script.ID)
			if err != nil {
				return nil, err
			}
			if questions > 0 && max > 0 {
				pct := roundTo2(*script.FinalMarks / max * 100)
				row.Percentage = &pct
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func (s *SubjectService) toSubjectResponse(ctx context.Context, subject *models.Subject) (*dto.SubjectResponse, error) {
	count, err := s.subjectStore.CountScripts(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	response := &dto.SubjectResponse{
		ID:           subject.ID,
		Name:         subject.Name,
		ClassName:    subject.ClassName,
		AcademicYear: subject.AcademicYear,
		ScriptCount:  count,
	}

	if subject.FirstEvaluatorID != nil {
		if user, err := s.userStore.GetByID(ctx, *subject.FirstEvaluatorID); err == nil {
			response.FirstEvaluator = toUserResponse(user)
		}
	}
	if subject.SecondEvaluatorID != nil {
		if user, err := s.userStore.GetByID(ctx, *subject.SecondEvaluatorID); err == nil {
			response.SecondEvaluator = toUserResponse(user)
		}
	}

	return response, nil
}

func otherSlot(slot models.EvaluatorSlot) models.EvaluatorSlot {
	if slot == models.SlotFirst {
		return models.SlotSecond
	}
	return models.SlotFirst
}

// roundTo2 rounds to two decimal places for presentation. Stored final marks
// are never rounded.
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
