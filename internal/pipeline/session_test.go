package pipeline

import (
	"strings"
	"testing"
)

var testOrder = []string{"one", "two", "three", "four"}

func TestMarkStepComplete(t *testing.T) {
	s := newTestStore(t)
	sess := NewSession(Context{RunID: "a1b2c3d4"})

	err := sess.MarkStepComplete(s, "one", func(c *Context) {
		c.Repo = "acme/widget"
	})
	if err != nil {
		t.Fatalf("MarkStepComplete: %v", err)
	}

	if !sess.IsStepComplete("one") {
		t.Error("IsStepComplete(one) = false after marking")
	}
	if sess.Context.Repo != "acme/widget" {
		t.Errorf("patch not applied: Repo = %q", sess.Context.Repo)
	}

	// Persisted immediately.
	got, err := s.Load("a1b2c3d4")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.IsStepComplete("one") {
		t.Error("completion not persisted")
	}
	if got.Context.Repo != "acme/widget" {
		t.Errorf("persisted Repo = %q", got.Context.Repo)
	}
}

func TestMarkStepCompleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	sess := NewSession(Context{RunID: "a1b2c3d4"})

	for i := 0; i < 2; i++ {
		if err := sess.MarkStepComplete(s, "one", nil); err != nil {
			t.Fatalf("MarkStepComplete: %v", err)
		}
	}
	if len(sess.CompletedSteps) != 1 {
		t.Errorf("CompletedSteps = %v, want single entry", sess.CompletedSteps)
	}
}

func TestValidatePrefix(t *testing.T) {
	sess := NewSession(Context{RunID: "a1b2c3d4"})

	if err := sess.ValidatePrefix(testOrder); err != nil {
		t.Errorf("empty list should be a valid prefix: %v", err)
	}

	sess.CompletedSteps = []string{"one", "two"}
	if err := sess.ValidatePrefix(testOrder); err != nil {
		t.Errorf("valid prefix rejected: %v", err)
	}

	sess.CompletedSteps = []string{"one", "three"}
	if err := sess.ValidatePrefix(testOrder); err == nil {
		t.Error("gap in completed steps should be rejected")
	} else if !strings.Contains(err.Error(), "three") {
		t.Errorf("error should name the offending step: %v", err)
	}

	sess.CompletedSteps = []string{"two"}
	if err := sess.ValidatePrefix(testOrder); err == nil {
		t.Error("list not starting at the first step should be rejected")
	}

	sess.CompletedSteps = []string{"one", "two", "three", "four", "five"}
	if err := sess.ValidatePrefix(testOrder); err == nil {
		t.Error("list longer than the pipeline should be rejected")
	}
}

func TestNextStep(t *testing.T) {
	sess := NewSession(Context{RunID: "a1b2c3d4"})

	if got := sess.NextStep(testOrder); got != "one" {
		t.Errorf("NextStep = %q, want %q", got, "one")
	}

	sess.CompletedSteps = []string{"one", "two"}
	if got := sess.NextStep(testOrder); got != "three" {
		t.Errorf("NextStep = %q, want %q", got, "three")
	}

	sess.CompletedSteps = testOrder
	if got := sess.NextStep(testOrder); got != "" {
		t.Errorf("NextStep = %q, want empty for finished run", got)
	}
}
