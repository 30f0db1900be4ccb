package services

import (
	"context"
	"errors"
	"testing"

	"github.com/blindgrade/blindgrade/internal/app/auth"
	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
)

type subjectFixture struct {
	svc      *SubjectService
	users    *stubUserStore
	subjects *stubSubjectStore
	scripts  *stubScriptStore
	marks    *stubMarkStore

	custodianID int64
	facultyAID  int64
	facultyBID  int64
}

func newSubjectFixture(t *testing.T) *subjectFixture {
	t.Helper()

	users := newStubUserStore()
	custodian := users.add(&models.User{Name: "Custodian", Email: "custodian@school.edu", RoleType: models.RoleCustodian})
	facultyA := users.add(&models.User{Name: "Faculty A", Email: "a@school.edu", RoleType: models.RoleFaculty})
	facultyB := users.add(&models.User{Name: "Faculty B", Email: "b@school.edu", RoleType: models.RoleFaculty})

	scripts := newStubScriptStore()
	subjects := newStubSubjectStore(scripts)
	marks := newStubMarkStore()

	authz := auth.NewAuthorizationService(users, subjects)
	svc := NewSubjectService(subjects, scripts, users, marks, authz, stubTxRunner{})

	return &subjectFixture{
		svc:         svc,
		users:       users,
		subjects:    subjects,
		scripts:     scripts,
		marks:       marks,
		custodianID: custodian.ID,
		facultyAID:  facultyA.ID,
		facultyBID:  facultyB.ID,
	}
}

func (f *subjectFixture) createSubject(t *testing.T) int64 {
	t.Helper()
	resp, err := f.svc.CreateSubject(context.Background(), f.custodianID, &dto.CreateSubjectRequest{Name: "Physics 101"})
	if err != nil {
		t.Fatalf("create subject failed: %v", err)
	}
	return resp.ID
}

func TestCreateSubjectRequiresCustodian(t *testing.T) {
	f := newSubjectFixture(t)

	_, err := f.svc.CreateSubject(context.Background(), f.facultyAID, &dto.CreateSubjectRequest{Name: "Physics 101"})
	if !errors.Is(err, auth.ErrNotCustodian) {
		t.Fatalf("faculty creating a subject should be rejected, got %v", err)
	}
}

func TestCreateSubjectRejectsBlankName(t *testing.T) {
	f := newSubjectFixture(t)

	_, err := f.svc.CreateSubject(context.Background(), f.custodianID, &dto.CreateSubjectRequest{Name: "   "})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("blank subject name should fail validation, got %v", err)
	}
}

func TestAssignEvaluator(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()
	subjectID := f.createSubject(t)

	resp, err := f.svc.AssignEvaluator(ctx, f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: &f.facultyAID,
	})
	if err != nil {
		t.Fatalf("assignment failed: %v", err)
	}
	if resp.FirstEvaluator == nil || resp.FirstEvaluator.ID != f.facultyAID {
		t.Fatalf("first evaluator not reflected in response: %+v", resp.FirstEvaluator)
	}

	// Clearing the slot with a null user ID
	resp, err = f.svc.AssignEvaluator(ctx, f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: nil,
	})
	if err != nil {
		t.Fatalf("unassignment failed: %v", err)
	}
	if resp.FirstEvaluator != nil {
		t.Fatalf("slot should be cleared, got %+v", resp.FirstEvaluator)
	}
}

func TestAssignEvaluatorAllowsSameUserBothSlots(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()
	subjectID := f.createSubject(t)

	if _, err := f.svc.AssignEvaluator(ctx, f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: &f.facultyAID,
	}); err != nil {
		t.Fatalf("first assignment failed: %v", err)
	}

	// The registry does not block one user from taking both slots; it is
	// only flagged in the logs.
	resp, err := f.svc.AssignEvaluator(ctx, f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotSecond), UserID: &f.facultyAID,
	})
	if err != nil {
		t.Fatalf("same user in both slots should be accepted, got %v", err)
	}
	if resp.SecondEvaluator == nil || resp.SecondEvaluator.ID != f.facultyAID {
		t.Fatalf("second evaluator not reflected in response: %+v", resp.SecondEvaluator)
	}
	if resp.FirstEvaluator == nil || resp.FirstEvaluator.ID != f.facultyAID {
		t.Fatalf("first slot should be untouched: %+v", resp.FirstEvaluator)
	}
}

func TestAssignEvaluatorRejectsNonFaculty(t *testing.T) {
	f := newSubjectFixture(t)
	subjectID := f.createSubject(t)

	_, err := f.svc.AssignEvaluator(context.Background(), f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: &f.custodianID,
	})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("custodian as evaluator should fail validation, got %v", err)
	}
}

func TestAssignEvaluatorUnknownUser(t *testing.T) {
	f := newSubjectFixture(t)
	subjectID := f.createSubject(t)
	missing := int64(999)

	_, err := f.svc.AssignEvaluator(context.Background(), f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: &missing,
	})
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("unknown user should be not found, got %v", err)
	}
}

func TestAssignEvaluatorRequiresCustodian(t *testing.T) {
	f := newSubjectFixture(t)
	subjectID := f.createSubject(t)

	_, err := f.svc.AssignEvaluator(context.Background(), f.facultyAID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: &f.facultyBID,
	})
	if !errors.Is(err, auth.ErrNotCustodian) {
		t.Fatalf("faculty assigning evaluators should be rejected, got %v", err)
	}
}

func TestGetAssignedSubjectsHidesOtherEvaluator(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()

	first := f.createSubject(t)
	second := f.createSubject(t)

	assign := func(subjectID int64, slot models.EvaluatorSlot, userID int64) {
		if _, err := f.svc.AssignEvaluator(ctx, f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
			Slot: string(slot), UserID: &userID,
		}); err != nil {
			t.Fatalf("assignment failed: %v", err)
		}
	}
	assign(first, models.SlotFirst, f.facultyAID)
	assign(first, models.SlotSecond, f.facultyBID)
	assign(second, models.SlotSecond, f.facultyAID)

	assigned, err := f.svc.GetAssignedSubjects(ctx, f.facultyAID)
	if err != nil {
		t.Fatalf("get assigned subjects failed: %v", err)
	}
	if len(assigned) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assigned))
	}

	slots := map[int64]string{}
	for _, row := range assigned {
		slots[row.ID] = row.Slot
	}
	if slots[first] != "first" || slots[second] != "second" {
		t.Fatalf("unexpected slot mapping: %v", slots)
	}
}

func TestRegisterScript(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()
	subjectID := f.createSubject(t)

	view, err := f.svc.RegisterScript(ctx, f.custodianID, subjectID, &dto.RegisterScriptRequest{
		StudentName: "  Asha Rao  ",
		FilePath:    "scripts/1.pdf",
	})
	if err != nil {
		t.Fatalf("register script failed: %v", err)
	}
	if view.StudentName != "Asha Rao" {
		t.Fatalf("student name not trimmed: %q", view.StudentName)
	}
	if view.Status != string(models.StatusUploaded) {
		t.Fatalf("new script status = %s, want UPLOADED", view.Status)
	}

	if _, err := f.svc.RegisterScript(ctx, f.facultyAID, subjectID, &dto.RegisterScriptRequest{
		StudentName: "Vikram Shah", FilePath: "scripts/2.pdf",
	}); !errors.Is(err, auth.ErrNotCustodian) {
		t.Fatalf("faculty registering scripts should be rejected, got %v", err)
	}
}

func TestGetResults(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()
	subjectID := f.createSubject(t)

	teacher, external, final := 72.0, 80.0, 76.0
	script := f.scripts.add(&models.Script{
		SubjectID:     &subjectID,
		StudentName:   "Asha Rao",
		Status:        models.StatusSecondDone,
		TeacherMarks:  &teacher,
		ExternalMarks: &external,
		FinalMarks:    &final,
	})
	f.scripts.add(&models.Script{
		SubjectID:   &subjectID,
		StudentName: "Vikram Shah",
		Status:      models.StatusUploaded,
	})

	// Per-question entries supply the maximum for the percentage
	for q := 1; q <= 2; q++ {
		if err := f.marks.Upsert(ctx, &models.Mark{ScriptID: script.ID, QuestionNumber: q, MarksAwarded: 38, MaxMarks: 40}); err != nil {
			t.Fatalf("mark setup failed: %v", err)
		}
	}

	rows, err := f.svc.GetResults(ctx, f.custodianID, subjectID)
	if err != nil {
		t.Fatalf("get results failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 result rows, got %d", len(rows))
	}

	done := rows[0]
	if done.TeacherMarks == nil || done.ExternalMarks == nil || done.FinalMarks == nil {
		t.Fatal("results sheet must show both raw marks and the final")
	}
	if done.Percentage == nil || *done.Percentage != 95.0 {
		t.Fatalf("percentage = %v, want 95 (76 of 80)", done.Percentage)
	}

	pending := rows[1]
	if pending.FinalMarks != nil || pending.Percentage != nil {
		t.Fatalf("unevaluated script should have no final or percentage: %+v", pending)
	}

	if _, err := f.svc.GetResults(ctx, f.facultyAID, subjectID); !errors.Is(err, auth.ErrNotCustodian) {
		t.Fatalf("results are custodian only, got %v", err)
	}
}

func TestGetStudentsAccess(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()
	subjectID := f.createSubject(t)

	if _, err := f.svc.AssignEvaluator(ctx, f.custodianID, subjectID, &dto.AssignEvaluatorRequest{
		Slot: string(models.SlotFirst), UserID: &f.facultyAID,
	}); err != nil {
		t.Fatalf("assignment failed: %v", err)
	}
	f.scripts.add(&models.Script{SubjectID: &subjectID, StudentName: "Asha Rao", Status: models.StatusUploaded})

	students, err := f.svc.GetStudents(ctx, f.facultyAID, subjectID)
	if err != nil {
		t.Fatalf("assigned evaluator should list students: %v", err)
	}
	if len(students) != 1 || students[0].StudentName != "Asha Rao" {
		t.Fatalf("unexpected student rows: %+v", students)
	}

	if _, err := f.svc.GetStudents(ctx, f.facultyBID, subjectID); !errors.Is(err, auth.ErrNotAssigned) {
		t.Fatalf("unassigned faculty should be rejected, got %v", err)
	}
}

func TestDeleteSubject(t *testing.T) {
	f := newSubjectFixture(t)
	ctx := context.Background()
	subjectID := f.createSubject(t)

	if err := f.svc.DeleteSubject(ctx, f.facultyAID, subjectID); !errors.Is(err, auth.ErrNotCustodian) {
		t.Fatalf("faculty deleting a subject should be rejected, got %v", err)
	}

	if err := f.svc.DeleteSubject(ctx, f.custodianID, subjectID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.svc.GetSubject(ctx, f.custodianID, subjectID); !errors.Is(err, apperrors.ErrSubjectNotFound) {
		t.Fatalf("deleted subject should be gone, got %v", err)
	}
}
