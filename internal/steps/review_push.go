package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"issuepilot/internal/agent"
	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/prdesc"
)

// reviewAndPush self-reviews the captured diff, generates the pull
// request description, pushes the branch to the fork, and produces the
// compare link. It never creates a pull request.
func (d *Deps) reviewAndPush(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	issue, err := requireIssue(pc)
	if err != nil {
		return nil, executor.Fatal(err)
	}

	result, err := d.Agent.RunSession(ctx, agent.SessionOpts{
		Dir:          pc.CheckoutPath,
		Prompt:       reviewPrompt(pc),
		SystemPrompt: reviewerSystemPrompt,
		AllowedTools: reviewerTools,
		OnEvent:      d.sessionEvent(pc.Verbose),
	})
	if err != nil {
		return nil, executor.Transient(fmt.Errorf("review session: %w", err))
	}
	verdict, notes := parseReview(result.FinalText)
	if !verdict {
		return nil, executor.Fatal(fmt.Errorf("self-review rejected the change: %s", notes))
	}
	d.info("self-review approved")

	descDiff := pc.Diff
	if max := d.Config.Limits.DescriptionDiffBytes; max > 0 && len(descDiff) > max {
		descDiff = descDiff[:max] + "\n... (diff truncated)"
	}
	desc := prdesc.Generate(ctx, d.Agent, issue, descDiff)

	if err := d.push(pc); err != nil {
		return nil, err
	}
	d.info("pushed %s to %s", pc.BranchName, pc.Fork)

	descPath := filepath.Join(d.Store.RunDir(pc.RunID), "pull-request.md")
	content := fmt.Sprintf("# %s\n\n%s\n", desc.Title, desc.Body)
	if err := os.WriteFile(descPath, []byte(content), 0o644); err != nil {
		return nil, executor.Fatal(fmt.Errorf("write description file: %w", err))
	}

	compareURL := prdesc.CompareURL(pc.Repo, pc.DefaultBranch, pc.Login, pc.BranchName,
		desc, d.Config.Limits.CompareURLChars)

	return func(pc *pipeline.Context) {
		pc.ReviewApproved = true
		pc.ReviewNotes = notes
		pc.PRTitle = desc.Title
		pc.PRBody = desc.Body
		pc.CompareURL = compareURL
		pc.Pushed = true
	}, nil
}

// push retries once after a refresh; a rejected push usually means the
// remote moved under us.
func (d *Deps) push(pc *pipeline.Context) error {
	if err := d.Checkout.Push(pc.CheckoutPath, pc.BranchName); err == nil {
		return nil
	}
	if err := d.Checkout.Fetch(pc.CheckoutPath, "origin"); err != nil {
		return executor.Transient(err)
	}
	if err := d.Checkout.Push(pc.CheckoutPath, pc.BranchName); err != nil {
		return executor.Transient(err)
	}
	return nil
}

// parseReview reads the verdict off the session's final text: the last
// non-empty line must start with APPROVED. Everything before the
// verdict line is kept as review notes.
func parseReview(finalText string) (approved bool, notes string) {
	lines := strings.Split(strings.TrimSpace(finalText), "\n")
	verdict := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			verdict = line
			notes = strings.TrimSpace(strings.Join(lines[:i], "\n"))
			break
		}
	}
	if strings.HasPrefix(verdict, "APPROVED") {
		return true, notes
	}
	if rest, ok := strings.CutPrefix(verdict, "REJECTED"); ok {
		return false, strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	}
	return false, verdict
}
