// Package executor runs the fixed, ordered pipeline step list against a
// session, enforcing skip-if-completed, bounded retry of transient
// failures, and persist-after-every-step semantics.
package executor

import (
	"context"
	"fmt"
	"time"

	"issuepilot/internal/pipeline"
)

// Step is one named unit of pipeline work. Run reads the fields it needs
// from the context and returns a patch producing its new fields; it never
// mutates the context directly. Failures are returned classified (see
// Error); anything unclassified is treated as fatal.
type Step struct {
	Name string
	Run  func(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error)
}

// EventLogger records step transitions, one append-only record each.
type EventLogger interface {
	AppendEvent(runID, step, status, detail string) error
}

// ProgressFunc is invoked on every step transition for console display.
// index is 1-based; status is one of "skipped", "running", "retrying",
// "completed", "failed".
type ProgressFunc func(index, total int, step, status string)

// StepFailure is the terminal error of an aborted run. It wraps the
// step's classified error and records how many attempts were made.
type StepFailure struct {
	Step     string
	Attempts int
	Err      error
}

func (f *StepFailure) Error() string {
	return fmt.Sprintf("step %s failed after %d attempt(s): %v", f.Step, f.Attempts, f.Err)
}

func (f *StepFailure) Unwrap() error {
	return f.Err
}

// Runner executes the step list sequentially. Each step's state goes
// pending -> running -> completed|failed; the session is persisted after
// every completion and never mid-step, so an aborted run is always
// resumable from its last completed step.
type Runner struct {
	store      *pipeline.Store
	steps      []Step
	events     EventLogger
	progress   ProgressFunc
	maxRetries int
	retryPause time.Duration
}

// NewRunner creates a Runner over the given ordered steps. events may be
// nil. The default policy is one automatic retry for transient failures.
func NewRunner(store *pipeline.Store, steps []Step, events EventLogger) *Runner {
	return &Runner{
		store:      store,
		steps:      steps,
		events:     events,
		maxRetries: 1,
		retryPause: 2 * time.Second,
	}
}

// SetProgress configures an optional per-transition callback.
func (r *Runner) SetProgress(fn ProgressFunc) {
	r.progress = fn
}

// SetRetryPolicy overrides the transient-failure retry bound and the
// pause between attempts. maxRetries < 0 is treated as 0.
func (r *Runner) SetRetryPolicy(maxRetries int, pause time.Duration) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	r.maxRetries = maxRetries
	r.retryPause = pause
}

// Order returns the fixed step-name order.
func (r *Runner) Order() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes every incomplete step in order. It returns nil when all
// steps completed, or a *StepFailure when the pipeline aborted. In both
// cases the session on disk reflects exactly the completed prefix.
func (r *Runner) Run(ctx context.Context, sess *pipeline.Session) error {
	if err := sess.ValidatePrefix(r.Order()); err != nil {
		return Fatal(fmt.Errorf("refusing to run: %w", err))
	}

	total := len(r.steps)
	for i, step := range r.steps {
		if sess.IsStepComplete(step.Name) {
			r.emit(sess.RunID, i, total, step.Name, "skipped", "")
			continue
		}

		// Honor cancellation between steps.
		if err := ctx.Err(); err != nil {
			r.emit(sess.RunID, i, total, step.Name, "failed", "interrupted")
			return &StepFailure{Step: step.Name, Attempts: 0, Err: Fatal(fmt.Errorf("interrupted before step %s: %w", step.Name, err))}
		}

		attempts := 0
		for {
			attempts++
			status := "running"
			if attempts > 1 {
				status = "retrying"
			}
			r.emit(sess.RunID, i, total, step.Name, status, "")

			patch, err := step.Run(ctx, &sess.Context)
			if err == nil {
				if err := sess.MarkStepComplete(r.store, step.Name, patch); err != nil {
					r.emit(sess.RunID, i, total, step.Name, "failed", err.Error())
					return &StepFailure{Step: step.Name, Attempts: attempts, Err: Fatal(err)}
				}
				r.emit(sess.RunID, i, total, step.Name, "completed", "")
				break
			}

			r.emit(sess.RunID, i, total, step.Name, "failed", err.Error())
			if KindOf(err) == KindTransient && attempts <= r.maxRetries {
				// Don't pay the pause or a doomed retry once cancelled.
				if cerr := ctx.Err(); cerr != nil {
					return &StepFailure{Step: step.Name, Attempts: attempts, Err: Fatal(fmt.Errorf("interrupted while retrying step %s: %w", step.Name, cerr))}
				}
				time.Sleep(r.retryPause)
				continue
			}
			return &StepFailure{Step: step.Name, Attempts: attempts, Err: err}
		}
	}
	return nil
}

func (r *Runner) emit(runID string, index, total int, step, status, detail string) {
	if r.events != nil {
		// The event log is observability, not control flow; a failed
		// append must not fail the pipeline.
		_ = r.events.AppendEvent(runID, step, status, detail)
	}
	if r.progress != nil {
		r.progress(index+1, total, step, status)
	}
}
