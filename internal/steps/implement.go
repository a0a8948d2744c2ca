package steps

import (
	"context"
	"fmt"

	"issuepilot/internal/agent"
	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/repo"
)

// implement runs the agent work session in the checkout and captures
// what it changed.
func (d *Deps) implement(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	issue, err := requireIssue(pc)
	if err != nil {
		return nil, executor.Fatal(err)
	}

	if err := repo.WriteBriefing(pc.CheckoutPath, buildBriefing(pc)); err != nil {
		return nil, executor.Fatal(err)
	}
	defer func() {
		if err := repo.RemoveBriefing(pc.CheckoutPath); err != nil {
			d.note("warning: %v", err)
		}
	}()

	result, err := d.Agent.RunSession(ctx, agent.SessionOpts{
		Dir:          pc.CheckoutPath,
		Prompt:       workPrompt(pc),
		SystemPrompt: workerSystemPrompt,
		AllowedTools: workerTools,
		OnEvent:      d.sessionEvent(pc.Verbose),
	})
	if err != nil {
		return nil, executor.Transient(fmt.Errorf("work session: %w", err))
	}
	d.info("work session finished after %d turns", result.Turns)

	committed := false
	dirty, err := d.Checkout.HasChanges(pc.CheckoutPath)
	if err != nil {
		return nil, executor.Fatal(err)
	}
	if dirty {
		msg := fmt.Sprintf("fix: address issue #%d", issue.Number)
		if err := d.Checkout.CommitAll(pc.CheckoutPath, msg); err != nil {
			return nil, executor.Fatal(err)
		}
		committed = true
		d.info("committed leftover changes")
	}

	count, err := d.Checkout.CommitCount(pc.CheckoutPath, pc.DefaultBranch)
	if err != nil {
		return nil, executor.Fatal(err)
	}
	if count == 0 {
		return nil, executor.UserActionable(
			fmt.Errorf("agent session produced no changes"),
			"The agent did not modify the repository. The issue may need clarification,\nor may not be fixable by a code change. Inspect the checkout and retry.")
	}

	if err := d.Checkout.StripCoAuthorTrailers(pc.CheckoutPath, pc.DefaultBranch); err != nil {
		d.note("warning: %v", err)
	}

	diff, err := d.Checkout.Diff(pc.CheckoutPath, pc.DefaultBranch, d.Config.Limits.DiffBytes)
	if err != nil {
		return nil, executor.Fatal(err)
	}
	stat, err := d.Checkout.DiffStat(pc.CheckoutPath, pc.DefaultBranch)
	if err != nil {
		return nil, executor.Fatal(err)
	}
	files, err := d.Checkout.FilesChanged(pc.CheckoutPath, pc.DefaultBranch)
	if err != nil {
		return nil, executor.Fatal(err)
	}
	d.info("%d file(s) changed over %d commit(s)", len(files), count)

	return func(pc *pipeline.Context) {
		pc.Diff = diff
		pc.DiffStat = stat
		pc.FilesChanged = files
		pc.Committed = committed
	}, nil
}

// sessionEvent surfaces agent activity on the console; tool calls only
// in verbose runs.
func (d *Deps) sessionEvent(verbose bool) func(agent.Event) {
	return func(e agent.Event) {
		switch {
		case e.SessionStarted:
			d.info("agent session started")
		case e.IsToolUse() && verbose:
			if e.ToolCommand != "" {
				d.info("agent: %s: %s", e.ToolName, e.ToolCommand)
			} else if e.ToolFilePath != "" {
				d.info("agent: %s %s", e.ToolName, e.ToolFilePath)
			} else {
				d.info("agent: %s", e.ToolName)
			}
		case e.IsText() && verbose:
			d.note("agent: %s", e.Text)
		}
	}
}
