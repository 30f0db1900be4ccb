package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
)

// Authorization errors
var (
	ErrNotCustodian     = errors.New("only the custodian can perform this action")
	ErrNotAssigned      = errors.New("you are not assigned to this subject")
	ErrPermissionDenied = errors.New("you don't have permission for this action")
)

// UserStore is the user lookup needed for authorization checks
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// SubjectStore is the subject lookup needed for authorization checks
type SubjectStore interface {
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
}

// AuthorizationService answers who may act on what. Evaluator identity checks
// always compare against the subject's slot assignments, never against role
// alone, since any faculty member can hold either slot on different subjects.
type AuthorizationService struct {
	userStore    UserStore
	subjectStore SubjectStore
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userStore UserStore, subjectStore SubjectStore) *AuthorizationService {
	return &AuthorizationService{
		userStore:    userStore,
		subjectStore: subjectStore,
	}
}

// IsCustodian checks if the user is the custodian
func (s *AuthorizationService) IsCustodian(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in IsCustodian")
		return false, err
	}
	return user.RoleType == models.RoleCustodian, nil
}

// ValidateCustodian validates that the user is the custodian or returns an error
func (s *AuthorizationService) ValidateCustodian(ctx context.Context, userID int64) error {
	isCustodian, err := s.IsCustodian(ctx, userID)
	if err != nil {
		return err
	}

	if !isCustodian {
		return ErrNotCustodian
	}

	return nil
}

// HoldsSlot checks whether the user is the evaluator assigned to the given
// slot of the subject. An unassigned slot never matches anyone.
func (s *AuthorizationService) HoldsSlot(ctx context.Context, subject *models.Subject, userID int64, slot models.EvaluatorSlot) bool {
	assigned := subject.EvaluatorID(slot)
	return assigned != nil && *assigned == userID
}

// ValidateSlotHolder validates that the user holds the given evaluator slot on
// the subject or returns an error.
func (s *AuthorizationService) ValidateSlotHolder(ctx context.Context, subjectID, userID int64, slot models.EvaluatorSlot) (*models.Subject, error) {
	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSubjectNotFound) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to check subject assignment: %w", err)
	}

	if !s.HoldsSlot(ctx, subject, userID, slot) {
		return nil, ErrNotAssigned
	}

	return subject, nil
}

// SlotHeldBy reports which slot, if any, the user holds on the subject.
func (s *AuthorizationService) SlotHeldBy(ctx context.Context, subject *models.Subject, userID int64) (models.EvaluatorSlot, bool) {
	if s.HoldsSlot(ctx, subject, userID, models.SlotFirst) {
		return models.SlotFirst, true
	}
	if s.HoldsSlot(ctx, subject, userID, models.SlotSecond) {
		return models.SlotSecond, true
	}
	return "", false
}
