// Package steps implements the seven pipeline steps, from prerequisite
// checks through pushing the finished branch.
package steps

import (
	"fmt"

	"issuepilot/internal/agent"
	"issuepilot/internal/config"
	"issuepilot/internal/executor"
	"issuepilot/internal/github"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/repo"
)

// Step names, in pipeline order. Stable: they key completed-step lists
// in persisted sessions.
const (
	StepValidate      = "validate-prerequisites"
	StepLocateRepo    = "locate-repository"
	StepLocateIssue   = "locate-issue"
	StepForkClone     = "fork-and-clone"
	StepPrepareBranch = "prepare-branch"
	StepImplement     = "implement"
	StepReviewPush    = "review-and-push"
)

// Order is the fixed step sequence.
var Order = []string{
	StepValidate,
	StepLocateRepo,
	StepLocateIssue,
	StepForkClone,
	StepPrepareBranch,
	StepImplement,
	StepReviewPush,
}

// Reporter receives human-readable step detail lines.
type Reporter interface {
	Info(format string, args ...any)
	Note(format string, args ...any)
}

// Deps bundles the collaborators the steps share.
type Deps struct {
	Config   config.Config
	GitHub   *github.Client
	Checkout *repo.Checkout
	Agent    agent.Invoker
	Store    *pipeline.Store
	Report   Reporter
}

func (d *Deps) info(format string, args ...any) {
	if d.Report != nil {
		d.Report.Info(format, args...)
	}
}

func (d *Deps) note(format string, args ...any) {
	if d.Report != nil {
		d.Report.Note(format, args...)
	}
}

// Build assembles the ordered step list over the shared dependencies.
func Build(d *Deps) []executor.Step {
	return []executor.Step{
		{Name: StepValidate, Run: d.validatePrerequisites},
		{Name: StepLocateRepo, Run: d.locateRepository},
		{Name: StepLocateIssue, Run: d.locateIssue},
		{Name: StepForkClone, Run: d.forkAndClone},
		{Name: StepPrepareBranch, Run: d.prepareBranch},
		{Name: StepImplement, Run: d.implement},
		{Name: StepReviewPush, Run: d.reviewAndPush},
	}
}

// requireIssue guards steps that cannot run without a located issue.
func requireIssue(pc *pipeline.Context) (*github.Issue, error) {
	if pc.Issue == nil {
		return nil, fmt.Errorf("no issue in pipeline context")
	}
	return pc.Issue, nil
}
