package models

import "testing"

func TestNormalizeScriptStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want ScriptStatus
	}{
		{"UPLOADED", StatusUploaded},
		{"pending", StatusUploaded},
		{"", StatusUploaded},
		{"FIRST_DONE", StatusFirstDone},
		{"SECOND_DONE", StatusSecondDone},
		{"evaluated", StatusEvaluated},
		{"garbage", StatusUploaded},
	}
	for _, c := range cases {
		if got := NormalizeScriptStatus(c.raw); got != c.want {
			t.Fatalf("NormalizeScriptStatus(%q)=%q, want %q", c.raw, got, c.want)
		}
	}
}

func TestIsReadyForSecondEvaluation(t *testing.T) {
	cases := []struct {
		status ScriptStatus
		want   bool
	}{
		{StatusUploaded, false},
		{StatusFirstDone, true},
		{StatusSecondDone, true},
		{StatusEvaluated, false},
	}
	for _, c := range cases {
		if got := c.status.IsReadyForSecondEvaluation(); got != c.want {
			t.Fatalf("IsReadyForSecondEvaluation(%q)=%v, want %v", c.status, got, c.want)
		}
	}
}

func TestComputeFinalMarks(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	if got := ComputeFinalMarks(nil, nil); got != nil {
		t.Fatalf("expected nil final marks with no inputs, got %v", *got)
	}
	if got := ComputeFinalMarks(f(72), nil); got != nil {
		t.Fatalf("expected nil final marks with only teacher marks, got %v", *got)
	}
	if got := ComputeFinalMarks(nil, f(80)); got != nil {
		t.Fatalf("expected nil final marks with only external marks, got %v", *got)
	}

	cases := []struct {
		teacher, external, want float64
	}{
		{72, 80, 76},
		{0, 0, 0},
		{71, 80, 75.5},
		{33.5, 34, 33.75},
	}
	for _, c := range cases {
		got := ComputeFinalMarks(&c.teacher, &c.external)
		if got == nil || *got != c.want {
			t.Fatalf("ComputeFinalMarks(%v,%v)=%v, want %v", c.teacher, c.external, got, c.want)
		}
	}
}

func TestSubjectEvaluatorID(t *testing.T) {
	first, second := int64(4), int64(9)
	subject := &Subject{FirstEvaluatorID: &first, SecondEvaluatorID: &second}

	if got := subject.EvaluatorID(SlotFirst); got == nil || *got != first {
		t.Fatalf("EvaluatorID(first)=%v, want %d", got, first)
	}
	if got := subject.EvaluatorID(SlotSecond); got == nil || *got != second {
		t.Fatalf("EvaluatorID(second)=%v, want %d", got, second)
	}

	empty := &Subject{}
	if got := empty.EvaluatorID(SlotFirst); got != nil {
		t.Fatalf("expected nil evaluator for unassigned slot, got %d", *got)
	}
}
