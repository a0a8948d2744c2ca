package pipeline

import (
	"fmt"
	"time"
)

// Session is the durable projection of one run: the ordered list of
// completed step names plus a snapshot of the context as of the last
// completion. It is appended to after every successful step and never
// mutated otherwise.
type Session struct {
	RunID          string   `json:"run_id"`
	CompletedSteps []string `json:"completed_steps"`
	Context        Context  `json:"context"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// NewSession creates a fresh session wrapping ctx.
func NewSession(ctx Context) *Session {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Session{
		RunID:          ctx.RunID,
		CompletedSteps: []string{},
		Context:        ctx,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsStepComplete reports whether a step has already been completed.
func (s *Session) IsStepComplete(name string) bool {
	for _, n := range s.CompletedSteps {
		if n == name {
			return true
		}
	}
	return false
}

// MarkStepComplete applies patch to the context, appends the step name to
// the completed list, and persists the session through store. The caller
// must invoke it in step order; ValidatePrefix guards against drift.
func (s *Session) MarkStepComplete(store *Store, name string, patch func(*Context)) error {
	if patch != nil {
		patch(&s.Context)
	}
	if !s.IsStepComplete(name) {
		s.CompletedSteps = append(s.CompletedSteps, name)
	}
	if err := store.Save(s); err != nil {
		return fmt.Errorf("persist session %s: %w", s.RunID, err)
	}
	return nil
}

// ValidatePrefix checks that the completed-step list is a prefix of the
// fixed step order. A session that fails this check was written by a
// different step sequence (or corrupted) and must not be resumed.
func (s *Session) ValidatePrefix(order []string) error {
	if len(s.CompletedSteps) > len(order) {
		return fmt.Errorf("session %s: %d completed steps but pipeline has %d", s.RunID, len(s.CompletedSteps), len(order))
	}
	for i, name := range s.CompletedSteps {
		if order[i] != name {
			return fmt.Errorf("session %s: completed step %d is %q, want %q", s.RunID, i, name, order[i])
		}
	}
	return nil
}

// NextStep returns the name of the first step in order that has not been
// completed, or "" when the whole pipeline is done. Assumes ValidatePrefix
// passed, so the resume point is simply the prefix length.
func (s *Session) NextStep(order []string) string {
	if len(s.CompletedSteps) >= len(order) {
		return ""
	}
	return order[len(s.CompletedSteps)]
}
