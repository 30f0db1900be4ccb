package services

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/db"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
)

// In-memory stores backing the service tests. They satisfy the same interfaces
// the pgx repositories do, so services run unmodified against them.

type stubUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[int64]*models.User), nextID: 1}
}

func (s *stubUserStore) add(user *models.User) *models.User {
	if user.ID == 0 {
		user.ID = s.nextID
	}
	if user.ID >= s.nextID {
		s.nextID = user.ID + 1
	}
	s.users[user.ID] = user
	return user
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.CreatedAt = time.Now()
	s.add(user)
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *stubUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *stubUserStore) CustodianExists(ctx context.Context) (bool, error) {
	for _, user := range s.users {
		if user.RoleType == models.RoleCustodian {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubUserStore) GetByRole(ctx context.Context, role models.RoleType) ([]*models.User, error) {
	var users []*models.User
	for _, user := range s.users {
		if user.RoleType == role {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type stubSubjectStore struct {
	subjects map[int64]*models.Subject
	scripts  *stubScriptStore
	nextID   int64
}

func newStubSubjectStore(scripts *stubScriptStore) *stubSubjectStore {
	return &stubSubjectStore{subjects: make(map[int64]*models.Subject), scripts: scripts, nextID: 1}
}

func (s *stubSubjectStore) add(subject *models.Subject) *models.Subject {
	if subject.ID == 0 {
		subject.ID = s.nextID
	}
	if subject.ID >= s.nextID {
		s.nextID = subject.ID + 1
	}
	s.subjects[subject.ID] = subject
	return subject
}

func (s *stubSubjectStore) Create(ctx context.Context, subject *models.Subject) error {
	subject.CreatedAt = time.Now()
	s.add(subject)
	return nil
}

func (s *stubSubjectStore) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	subject, ok := s.subjects[id]
	if !ok {
		return nil, apperrors.ErrSubjectNotFound
	}
	return subject, nil
}

func (s *stubSubjectStore) GetAll(ctx context.Context) ([]*models.Subject, error) {
	var subjects []*models.Subject
	for _, subject := range s.subjects {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

func (s *stubSubjectStore) GetAssignedTo(ctx context.Context, userID int64, slot models.EvaluatorSlot) ([]*models.Subject, error) {
	var subjects []*models.Subject
	for _, subject := range s.subjects {
		if assigned := subject.EvaluatorID(slot); assigned != nil && *assigned == userID {
			subjects = append(subjects, subject)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

func (s *stubSubjectStore) AssignEvaluator(ctx context.Context, tx pgx.Tx, subjectID int64, slot models.EvaluatorSlot, userID *int64) error {
	subject, ok := s.subjects[subjectID]
	if !ok {
		return apperrors.ErrSubjectNotFound
	}
	if slot == models.SlotFirst {
		subject.FirstEvaluatorID = userID
	} else {
		subject.SecondEvaluatorID = userID
	}
	return nil
}

func (s *stubSubjectStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.subjects[id]; !ok {
		return apperrors.ErrSubjectNotFound
	}
	delete(s.subjects, id)
	return nil
}

func (s *stubSubjectStore) CountScripts(ctx context.Context, subjectID int64) (int, error) {
	if s.scripts == nil {
		return 0, nil
	}
	scripts, _ := s.scripts.GetBySubject(ctx, subjectID)
	return len(scripts), nil
}

type stubScriptStore struct {
	scripts map[int64]*models.Script
	nextID  int64
}

func newStubScriptStore() *stubScriptStore {
	return &stubScriptStore{scripts: make(map[int64]*models.Script), nextID: 1}
}

func (s *stubScriptStore) add(script *models.Script) *models.Script {
	if script.ID == 0 {
		script.ID = s.nextID
	}
	if script.ID >= s.nextID {
		s.nextID = script.ID + 1
	}
	s.scripts[script.ID] = script
	return script
}

func (s *stubScriptStore) Create(ctx context.Context, script *models.Script) error {
	script.Status = models.StatusUploaded
	script.UploadedAt = time.Now()
	s.add(script)
	return nil
}

func (s *stubScriptStore) GetByID(ctx context.Context, id int64) (*models.Script, error) {
	script, ok := s.scripts[id]
	if !ok {
		return nil, apperrors.ErrScriptNotFound
	}
	copied := *script
	return &copied, nil
}

func (s *stubScriptStore) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Script, error) {
	return s.GetByID(ctx, id)
}

func (s *stubScriptStore) GetBySubject(ctx context.Context, subjectID int64) ([]*models.Script, error) {
	var scripts []*models.Script
	for _, script := range s.scripts {
		if script.SubjectID != nil && *script.SubjectID == subjectID {
			copied := *script
			scripts = append(scripts, &copied)
		}
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].ID < scripts[j].ID })
	return scripts, nil
}

func (s *stubScriptStore) SaveEvaluation(ctx context.Context, tx pgx.Tx, script *models.Script) error {
	stored, ok := s.scripts[script.ID]
	if !ok {
		return apperrors.ErrScriptNotFound
	}
	stored.TeacherMarks = script.TeacherMarks
	stored.ExternalMarks = script.ExternalMarks
	stored.FinalMarks = script.FinalMarks
	stored.Remarks = script.Remarks
	stored.Status = script.Status
	return nil
}

func (s *stubScriptStore) GetByStatus(ctx context.Context, status models.ScriptStatus) ([]*models.Script, error) {
	var scripts []*models.Script
	for _, script := range s.scripts {
		if script.Status == status {
			copied := *script
			scripts = append(scripts, &copied)
		}
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].ID < scripts[j].ID })
	return scripts, nil
}

func (s *stubScriptStore) SaveReport(ctx context.Context, scriptID int64, remarks *string) error {
	stored, ok := s.scripts[scriptID]
	if !ok {
		return apperrors.ErrScriptNotFound
	}
	stored.Remarks = remarks
	stored.Status = models.StatusEvaluated
	return nil
}

type markKey struct {
	scriptID       int64
	questionNumber int
}

type stubMarkStore struct {
	marks  map[markKey]*models.Mark
	nextID int64
}

func newStubMarkStore() *stubMarkStore {
	return &stubMarkStore{marks: make(map[markKey]*models.Mark), nextID: 1}
}

func (s *stubMarkStore) Upsert(ctx context.Context, mark *models.Mark) error {
	key := markKey{mark.ScriptID, mark.QuestionNumber}
	if existing, ok := s.marks[key]; ok {
		mark.ID = existing.ID
		mark.CreatedAt = existing.CreatedAt
	} else {
		mark.ID = s.nextID
		s.nextID++
		mark.CreatedAt = time.Now()
	}
	copied := *mark
	s.marks[key] = &copied
	return nil
}

func (s *stubMarkStore) GetByScript(ctx context.Context, scriptID int64) ([]*models.Mark, error) {
	var marks []*models.Mark
	for _, mark := range s.marks {
		if mark.ScriptID == scriptID {
			copied := *mark
			marks = append(marks, &copied)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].QuestionNumber < marks[j].QuestionNumber })
	return marks, nil
}

func (s *stubMarkStore) GetTotals(ctx context.Context, scriptID int64) (awarded, max float64, questions int, err error) {
	for _, mark := range s.marks {
		if mark.ScriptID == scriptID {
			awarded += mark.MarksAwarded
			max += mark.MaxMarks
			questions++
		}
	}
	return awarded, max, questions, nil
}

// stubTxRunner runs the function directly; the stores above need no real
// transaction.
type stubTxRunner struct{}

func (stubTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	return fn(ctx, nil)
}

type stubTokenStore struct {
	tokens  map[string]int64
	revoked map[string]bool
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: make(map[string]int64), revoked: make(map[string]bool)}
}

func (s *stubTokenStore) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	s.tokens[token] = userID
	return nil
}

func (s *stubTokenStore) GetTokenUserID(ctx context.Context, token string) (int64, error) {
	if s.revoked[token] {
		return 0, apperrors.ErrTokenRevoked
	}
	userID, ok := s.tokens[token]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	return userID, nil
}

func (s *stubTokenStore) RevokeToken(ctx context.Context, token string) error {
	s.revoked[token] = true
	return nil
}

func (s *stubTokenStore) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	for token, owner := range s.tokens {
		if owner == userID {
			s.revoked[token] = true
		}
	}
	return nil
}
