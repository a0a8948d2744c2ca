package steps

import (
	"fmt"
	"strings"

	"issuepilot/internal/pipeline"
)

var workerTools = []string{"Bash", "Read", "Write", "Edit", "Glob", "Grep"}

var reviewerTools = []string{"Read", "Glob", "Grep"}

const workerSystemPrompt = `You are implementing a fix for a GitHub issue in an open-source project.
Make the smallest change that resolves the issue. Follow the project's existing
style and conventions. Run the project's tests if the briefing explains how.
Commit your work with a clear message when done. Never open a pull request and
never push.`

const reviewerSystemPrompt = `You are reviewing a proposed fix before it is pushed. Judge whether the
change plausibly resolves the issue without breaking or degrading anything
else. You may read the code to check your conclusions.`

// buildBriefing writes the agent's working brief for the checkout.
func buildBriefing(pc *pipeline.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task\n\nFix issue #%d in %s: %s\n\n", pc.Issue.Number, pc.Repo, pc.Issue.Title)
	fmt.Fprintf(&b, "## Issue\n\n%s\n\n", pc.Issue.Body)
	if pc.Guidelines != "" {
		fmt.Fprintf(&b, "## Contributing guidelines (excerpt)\n\n%s\n\n", pc.Guidelines)
	}
	if pc.RepoContext != "" {
		fmt.Fprintf(&b, "## Repository overview\n\n%s\n\n", pc.RepoContext)
	}
	b.WriteString("## Rules\n\n")
	b.WriteString("- Change only what the fix requires.\n")
	b.WriteString("- Commit your changes; do not push or open a pull request.\n")
	b.WriteString("- Do not edit this file.\n")
	return b.String()
}

// workPrompt is the implementation session's task line; the detail
// lives in the briefing file.
func workPrompt(pc *pipeline.Context) string {
	return fmt.Sprintf("Read CLAUDE.md in the working directory and fix issue #%d (%s). Commit when done.",
		pc.Issue.Number, pc.Issue.Title)
}

// reviewPrompt asks for a verdict over the captured diff.
func reviewPrompt(pc *pipeline.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review this change for issue #%d: %s\n\n", pc.Issue.Number, pc.Issue.Title)
	fmt.Fprintf(&b, "Issue:\n%s\n\n", pc.Issue.Body)
	fmt.Fprintf(&b, "Diff vs upstream:\n%s\n\n", pc.Diff)
	b.WriteString("Respond with your findings, then a final line containing exactly APPROVED, or REJECTED: <reason>.")
	return b.String()
}
