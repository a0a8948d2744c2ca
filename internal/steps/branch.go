package steps

import (
	"context"
	"fmt"

	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/selection"
)

// prepareBranch names the work branch, verifies the contributing
// guidelines permit the automated workflow, and creates the branch from
// the upstream default.
func (d *Deps) prepareBranch(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	issue, err := requireIssue(pc)
	if err != nil {
		return nil, executor.Fatal(err)
	}

	name := selection.SuggestBranchName(ctx, d.Agent, issue)
	d.info("branch: %s", name)

	compliance, err := selection.CheckCompliance(ctx, d.Agent, pc.Guidelines, issue)
	if err != nil {
		return nil, executor.Transient(err)
	}
	if !compliance.Proceed {
		return nil, executor.UserActionable(
			fmt.Errorf("contributing guidelines forbid the automated workflow"),
			fmt.Sprintf("The project's guidelines block this run:\n%s\nRead CONTRIBUTING and follow the project's process manually.", compliance.Reason))
	}

	if err := d.Checkout.EnsureBranch(pc.CheckoutPath, name, pc.DefaultBranch); err != nil {
		return nil, executor.Fatal(err)
	}

	return func(pc *pipeline.Context) { pc.BranchName = name }, nil
}
