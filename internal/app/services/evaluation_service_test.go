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

type evaluationFixture struct {
	svc      *EvaluationService
	users    *stubUserStore
	subjects *stubSubjectStore
	scripts  *stubScriptStore
	marks    *stubMarkStore
	content  *stubContentStore

	custodianID int64
	teacherID   int64
	externalID  int64
	outsiderID  int64
	subjectID   int64
	scriptID    int64
}

func newEvaluationFixture(t *testing.T) *evaluationFixture {
	t.Helper()

	users := newStubUserStore()
	custodian := users.add(&models.User{Name: "Custodian", Email: "custodian@school.edu", RoleType: models.RoleCustodian})
	teacher := users.add(&models.User{Name: "Teacher", Email: "teacher@school.edu", RoleType: models.RoleFaculty})
	external := users.add(&models.User{Name: "External", Email: "external@school.edu", RoleType: models.RoleFaculty})
	outsider := users.add(&models.User{Name: "Outsider", Email: "outsider@school.edu", RoleType: models.RoleFaculty})

	scripts := newStubScriptStore()
	subjects := newStubSubjectStore(scripts)
	subject := subjects.add(&models.Subject{
		Name:              "Physics 101",
		FirstEvaluatorID:  &teacher.ID,
		SecondEvaluatorID: &external.ID,
	})

	script := scripts.add(&models.Script{
		SubjectID:   &subject.ID,
		StudentName: "Asha Rao",
		Status:      models.StatusUploaded,
	})

	marks := newStubMarkStore()
	content := newStubContentStore()
	authz := auth.NewAuthorizationService(users, subjects)
	svc := NewEvaluationService(scripts, marks, subjects, content, authz, stubTxRunner{})

	return &evaluationFixture{
		svc:         svc,
		users:       users,
		subjects:    subjects,
		scripts:     scripts,
		marks:       marks,
		content:     content,
		custodianID: custodian.ID,
		teacherID:   teacher.ID,
		externalID:  external.ID,
		outsiderID:  outsider.ID,
		subjectID:   subject.ID,
		scriptID:    script.ID,
	}
}

func submitReq(marks float64, remarks *string) *dto.SubmitMarksRequest {
	return &dto.SubmitMarksRequest{Marks: &marks, Remarks: remarks}
}

func TestSubmitMarksFullWorkflow(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	view, err := f.svc.SubmitMarks(ctx, f.teacherID, f.scriptID, models.SlotFirst, submitReq(72, nil))
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if view.Status != string(models.StatusFirstDone) {
		t.Fatalf("status after first submission = %s, want FIRST_DONE", view.Status)
	}
	if view.TeacherMarks == nil || *view.TeacherMarks != 72 {
		t.Fatalf("first evaluator should see own marks, got %v", view.TeacherMarks)
	}
	if view.FinalMarks != nil {
		t.Fatal("final marks must not exist after one evaluation")
	}

	view, err = f.svc.SubmitMarks(ctx, f.externalID, f.scriptID, models.SlotSecond, submitReq(80, nil))
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}
	if view.Status != string(models.StatusSecondDone) {
		t.Fatalf("status after second submission = %s, want SECOND_DONE", view.Status)
	}
	if view.TeacherMarks != nil {
		t.Fatal("second evaluator's view must not include teacher marks")
	}
	if view.FinalMarks == nil || *view.FinalMarks != 76 {
		t.Fatalf("final marks should be visible once computed, got %v", view.FinalMarks)
	}

	stored := f.scripts.scripts[f.scriptID]
	if stored.FinalMarks == nil || *stored.FinalMarks != 76 {
		t.Fatalf("stored final marks = %v, want 76", stored.FinalMarks)
	}
}

func TestSubmitMarksSecondBeforeFirst(t *testing.T) {
	f := newEvaluationFixture(t)

	_, err := f.svc.SubmitMarks(context.Background(), f.externalID, f.scriptID, models.SlotSecond, submitReq(80, nil))
	if !errors.Is(err, apperrors.ErrSequence) {
		t.Fatalf("expected sequence violation, got %v", err)
	}
}

func TestSubmitMarksWrongEvaluator(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitMarks(ctx, f.outsiderID, f.scriptID, models.SlotFirst, submitReq(50, nil)); !errors.Is(err, auth.ErrNotAssigned) {
		t.Fatalf("unassigned user should be rejected, got %v", err)
	}

	// Holding one slot grants nothing on the other
	if _, err := f.svc.SubmitMarks(ctx, f.teacherID, f.scriptID, models.SlotSecond, submitReq(50, nil)); !errors.Is(err, auth.ErrNotAssigned) {
		t.Fatalf("teacher submitting into second slot should be rejected, got %v", err)
	}

	// The authorization error wins even when the payload is also invalid
	if _, err := f.svc.SubmitMarks(ctx, f.outsiderID, f.scriptID, models.SlotFirst, submitReq(-5, nil)); !errors.Is(err, auth.ErrNotAssigned) {
		t.Fatalf("outsider with invalid marks should still get the authorization error, got %v", err)
	}
	if _, err := f.svc.SubmitMarks(ctx, f.outsiderID, f.scriptID, models.SlotFirst, &dto.SubmitMarksRequest{}); !errors.Is(err, auth.ErrNotAssigned) {
		t.Fatalf("outsider with missing marks should still get the authorization error, got %v", err)
	}
}

func TestSubmitMarksNegative(t *testing.T) {
	f := newEvaluationFixture(t)

	_, err := f.svc.SubmitMarks(context.Background(), f.teacherID, f.scriptID, models.SlotFirst, submitReq(-1, nil))
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected validation failure for negative marks, got %v", err)
	}
}

func TestSubmitMarksResubmissionRecomputesFinal(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	mustSubmit(t, f, f.teacherID, models.SlotFirst, 72)
	mustSubmit(t, f, f.externalID, models.SlotSecond, 80)

	if _, err := f.svc.SubmitMarks(ctx, f.teacherID, f.scriptID, models.SlotFirst, submitReq(70, nil)); err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}

	stored := f.scripts.scripts[f.scriptID]
	if stored.FinalMarks == nil || *stored.FinalMarks != 75 {
		t.Fatalf("final marks after correction = %v, want 75", stored.FinalMarks)
	}
	if stored.Status != models.StatusSecondDone {
		t.Fatalf("status after correction = %s, want SECOND_DONE", stored.Status)
	}
}

func TestSubmitMarksRemarkHandling(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	neat := "neat work"
	if _, err := f.svc.SubmitMarks(ctx, f.teacherID, f.scriptID, models.SlotFirst, submitReq(72, &neat)); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	check := "checked again"
	if _, err := f.svc.SubmitMarks(ctx, f.externalID, f.scriptID, models.SlotSecond, submitReq(80, &check)); err != nil {
		t.Fatalf("second submission failed: %v", err)
	}

	stored := f.scripts.scripts[f.scriptID]
	want := "neat work\n[External]: checked again"
	if stored.Remarks == nil || *stored.Remarks != want {
		t.Fatalf("remarks = %q, want %q", deref(stored.Remarks), want)
	}

	// First evaluator remarks overwrite, external remarks append
	revised := "revised remark"
	if _, err := f.svc.SubmitMarks(ctx, f.teacherID, f.scriptID, models.SlotFirst, submitReq(72, &revised)); err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}
	if stored.Remarks == nil || *stored.Remarks != revised {
		t.Fatalf("remarks after first-slot resubmission = %q, want %q", deref(stored.Remarks), revised)
	}
}

func TestSubmitMarksFinalizedScriptRejected(t *testing.T) {
	f := newEvaluationFixture(t)
	f.scripts.scripts[f.scriptID].Status = models.StatusEvaluated

	_, err := f.svc.SubmitMarks(context.Background(), f.teacherID, f.scriptID, models.SlotFirst, submitReq(72, nil))
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected rejection for finalized script, got %v", err)
	}
}

func TestSubmitMarksScriptNotFound(t *testing.T) {
	f := newEvaluationFixture(t)

	_, err := f.svc.SubmitMarks(context.Background(), f.teacherID, 999, models.SlotFirst, submitReq(72, nil))
	if !errors.Is(err, apperrors.ErrScriptNotFound) {
		t.Fatalf("expected script not found, got %v", err)
	}
}

func TestGetScriptProjections(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	mustSubmit(t, f, f.teacherID, models.SlotFirst, 72)
	mustSubmit(t, f, f.externalID, models.SlotSecond, 80)

	custodianView, err := f.svc.GetScript(ctx, f.custodianID, f.scriptID)
	if err != nil {
		t.Fatalf("custodian view failed: %v", err)
	}
	if custodianView.TeacherMarks == nil || custodianView.ExternalMarks == nil || custodianView.FinalMarks == nil {
		t.Fatal("custodian must see all three mark fields")
	}

	teacherView, err := f.svc.GetScript(ctx, f.teacherID, f.scriptID)
	if err != nil {
		t.Fatalf("teacher view failed: %v", err)
	}
	if teacherView.ExternalMarks != nil {
		t.Fatal("first evaluator view leaks external marks")
	}
	if teacherView.FinalMarks == nil || *teacherView.FinalMarks != 76 {
		t.Fatalf("first evaluator should see the final marks once computed, got %v", teacherView.FinalMarks)
	}

	if _, err := f.svc.GetScript(ctx, f.outsiderID, f.scriptID); !errors.Is(err, auth.ErrNotAssigned) {
		t.Fatalf("outsider should be rejected, got %v", err)
	}
}

func TestGetSubjectScriptsRedactsEveryRow(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	f.scripts.add(&models.Script{
		SubjectID:   &f.subjectID,
		StudentName: "Vikram Shah",
		Status:      models.StatusUploaded,
	})
	mustSubmit(t, f, f.teacherID, models.SlotFirst, 72)
	mustSubmit(t, f, f.externalID, models.SlotSecond, 80)

	views, err := f.svc.GetSubjectScripts(ctx, f.teacherID, f.subjectID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(views))
	}
	for _, view := range views {
		if view.ExternalMarks != nil {
			t.Fatalf("script %d leaks redacted marks in list view", view.ID)
		}
	}
}

func TestGetSubjectScriptsSecondEvaluatorOnlySeesReadyScripts(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	f.scripts.add(&models.Script{
		SubjectID:   &f.subjectID,
		StudentName: "Vikram Shah",
		Status:      models.StatusUploaded,
	})
	mustSubmit(t, f, f.teacherID, models.SlotFirst, 72)

	views, err := f.svc.GetSubjectScripts(ctx, f.externalID, f.subjectID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 1 || views[0].ID != f.scriptID {
		t.Fatalf("second evaluator should only see scripts past the first evaluation, got %+v", views)
	}
	if views[0].TeacherMarks != nil {
		t.Fatal("second evaluator's list leaks the teacher mark")
	}

	// The custodian still sees the pending upload
	views, err = f.svc.GetSubjectScripts(ctx, f.custodianID, f.subjectID)
	if err != nil {
		t.Fatalf("custodian list failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("custodian should see all scripts, got %d", len(views))
	}
}

func TestSaveMarkValidation(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveMark(ctx, f.teacherID, f.scriptID, &dto.SaveMarkRequest{
		QuestionNumber: 1, MarksAwarded: 6, MaxMarks: 5,
	})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("awarded above max should fail validation, got %v", err)
	}

	mark, err := f.svc.SaveMark(ctx, f.teacherID, f.scriptID, &dto.SaveMarkRequest{
		QuestionNumber: 1, MarksAwarded: 4, MaxMarks: 5,
	})
	if err != nil {
		t.Fatalf("valid mark failed: %v", err)
	}
	if mark.MarksAwarded != 4 || mark.MaxMarks != 5 {
		t.Fatalf("unexpected mark row: %+v", mark)
	}

	// Upsert overwrites the same question
	if _, err := f.svc.SaveMark(ctx, f.teacherID, f.scriptID, &dto.SaveMarkRequest{
		QuestionNumber: 1, MarksAwarded: 5, MaxMarks: 5,
	}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	rows, err := f.svc.GetMarks(ctx, f.teacherID, f.scriptID)
	if err != nil {
		t.Fatalf("get marks failed: %v", err)
	}
	if len(rows) != 1 || rows[0].MarksAwarded != 5 {
		t.Fatalf("expected single overwritten mark of 5, got %+v", rows)
	}
}

func TestGetTotals(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	for q, awarded := range map[int]float64{1: 4, 2: 3.5, 3: 5} {
		if _, err := f.svc.SaveMark(ctx, f.teacherID, f.scriptID, &dto.SaveMarkRequest{
			QuestionNumber: q, MarksAwarded: awarded, MaxMarks: 5,
		}); err != nil {
			t.Fatalf("save mark failed: %v", err)
		}
	}

	totals, err := f.svc.GetTotals(ctx, f.teacherID, f.scriptID)
	if err != nil {
		t.Fatalf("get totals failed: %v", err)
	}
	if totals.TotalAwarded != 12.5 || totals.TotalMax != 15 || totals.Questions != 3 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestSaveReportRejectsDualWorkflowScripts(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	mustSubmit(t, f, f.teacherID, models.SlotFirst, 72)

	err := f.svc.SaveReport(ctx, f.custodianID, f.scriptID, &dto.SaveReportRequest{})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("dual-workflow script must not be finalized directly, got %v", err)
	}
}

func TestSaveReportFinalizesUntouchedScript(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	remarks := "marked on paper"
	if err := f.svc.SaveReport(ctx, f.outsiderID, f.scriptID, &dto.SaveReportRequest{Remarks: &remarks}); err != nil {
		t.Fatalf("save report failed: %v", err)
	}

	stored := f.scripts.scripts[f.scriptID]
	if stored.Status != models.StatusEvaluated {
		t.Fatalf("status = %s, want evaluated", stored.Status)
	}
	if stored.Remarks == nil || *stored.Remarks != remarks {
		t.Fatalf("remarks = %v, want %q", stored.Remarks, remarks)
	}
	// The report stores remarks only; the average of the two evaluations is
	// the sole writer of the final mark.
	if stored.FinalMarks != nil {
		t.Fatalf("report must not touch the final marks, got %v", *stored.FinalMarks)
	}
}

func TestGetEvaluatedResults(t *testing.T) {
	f := newEvaluationFixture(t)
	ctx := context.Background()

	paperID := int64(1)
	f.content.papers[paperID] = &models.QuestionPaper{ID: paperID, Title: "Midterm"}

	remarks := "marked on paper"
	evaluated := f.scripts.add(&models.Script{
		SubjectID:       &f.subjectID,
		QuestionPaperID: &paperID,
		StudentName:     "Vikram Shah",
		Status:          models.StatusEvaluated,
		Remarks:         &remarks,
	})
	noMarks := f.scripts.add(&models.Script{
		SubjectID:   &f.subjectID,
		StudentName: "Meera Nair",
		Status:      models.StatusEvaluated,
	})

	for q, awarded := range map[int]float64{1: 4, 2: 3.5} {
		if err := f.marks.Upsert(ctx, &models.Mark{ScriptID: evaluated.ID, QuestionNumber: q, MarksAwarded: awarded, MaxMarks: 5}); err != nil {
			t.Fatalf("mark setup failed: %v", err)
		}
	}

	rows, err := f.svc.GetEvaluatedResults(ctx)
	if err != nil {
		t.Fatalf("get evaluated results failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 evaluated rows, got %d", len(rows))
	}

	first := rows[0]
	if first.ScriptID != evaluated.ID || first.QuestionPaper != "Midterm" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.TotalAwarded != 7.5 || first.TotalMax != 10 || first.Percentage != 75 {
		t.Fatalf("unexpected totals: %+v", first)
	}
	if first.Remarks == nil || *first.Remarks != remarks {
		t.Fatalf("remarks = %v, want %q", first.Remarks, remarks)
	}

	// No question paper and no stored marks still produce a row
	second := rows[1]
	if second.ScriptID != noMarks.ID || second.QuestionPaper != "Unknown" {
		t.Fatalf("unexpected second row: %+v", second)
	}
	if second.TotalMax != 0 || second.Percentage != 0 {
		t.Fatalf("markless script should have zero totals: %+v", second)
	}
}

func mustSubmit(t *testing.T, f *evaluationFixture, userID int64, slot models.EvaluatorSlot, marks float64) {
	t.Helper()
	if _, err := f.svc.SubmitMarks(context.Background(), userID, f.scriptID, slot, submitReq(marks, nil)); err != nil {
		t.Fatalf("submission by user %d into %s slot failed: %v", userID, slot, err)
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
