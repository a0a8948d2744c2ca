// Package selection makes the judgment calls the pipeline delegates to
// the agent's quick model: which repository, which issue, what branch
// name, and whether contributing guidelines allow proceeding.
package selection

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"issuepilot/internal/github"
)

// Querier asks the agent's quick model a one-shot question.
type Querier interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// FilterIssues drops closed issues and issues whose labels mark them as
// something other than coding work.
func FilterIssues(issues []github.Issue, skipLabels []string) []github.Issue {
	var kept []github.Issue
	for _, issue := range issues {
		if !strings.EqualFold(issue.State, "open") {
			continue
		}
		if issue.HasAnyLabel(skipLabels) {
			continue
		}
		kept = append(kept, issue)
	}
	return kept
}

// PickIssue asks the quick model to choose the most suitable issue from
// candidates. Falls back to the first candidate when the reply cannot
// be matched to one.
func PickIssue(ctx context.Context, q Querier, repo string, candidates []github.Issue) (*github.Issue, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate issues for %s", repo)
	}
	if len(candidates) == 1 {
		return &candidates[0], nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pick the open issue in %s best suited for a new outside contributor to fix with a code change. ", repo)
	b.WriteString("Prefer well-described, self-contained bugs or small features.\n\n")
	for _, issue := range candidates {
		fmt.Fprintf(&b, "#%d: %s\n", issue.Number, issue.Title)
		if labels := issue.LabelNames(); len(labels) > 0 {
			fmt.Fprintf(&b, "  labels: %s\n", strings.Join(labels, ", "))
		}
		fmt.Fprintf(&b, "  %s\n\n", summarize(issue.Body, 200))
	}
	b.WriteString("Respond with ONLY the issue number, no # prefix, no explanation.")

	reply, err := q.Query(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("pick issue: %w", err)
	}
	if number, ok := parseLeadingInt(reply); ok {
		for i := range candidates {
			if candidates[i].Number == number {
				return &candidates[i], nil
			}
		}
	}
	return &candidates[0], nil
}

// PickRepo asks the quick model to choose the repository that best
// matches the user's description. Falls back to the first (highest
// starred) result.
func PickRepo(ctx context.Context, q Querier, description string, repos []github.Repository) (*github.Repository, error) {
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories matched %q", description)
	}
	if len(repos) == 1 {
		return &repos[0], nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A contributor wants to work on: %s\n\nCandidate repositories:\n\n", description)
	for _, r := range repos {
		fmt.Fprintf(&b, "%s (%s, %d stars, %d open issues)\n  %s\n\n",
			r.FullName, r.Language, r.Stars, r.OpenIssues, summarize(r.Description, 150))
	}
	b.WriteString("Respond with ONLY the owner/repo name of the best match, no explanation.")

	reply, err := q.Query(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("pick repo: %w", err)
	}
	reply = strings.TrimSpace(reply)
	for i := range repos {
		if strings.EqualFold(repos[i].FullName, reply) {
			return &repos[i], nil
		}
	}
	return &repos[0], nil
}

// branchNameRe is the shape a suggested branch name must have.
var branchNameRe = regexp.MustCompile(`^[\w\-./]+$`)

const branchNameMaxLen = 100

// SuggestBranchName asks the quick model for a branch name describing
// the fix. Replies that are not valid git branch names fall back to
// fix/issue-N.
func SuggestBranchName(ctx context.Context, q Querier, issue *github.Issue) string {
	fallback := fmt.Sprintf("fix/issue-%d", issue.Number)
	prompt := fmt.Sprintf(
		"Suggest a short git branch name for a fix of this issue.\n\nIssue #%d: %s\n\n%s\n\nRespond with ONLY the branch name, lowercase, slash-separated like fix/whatever, no explanation.",
		issue.Number, issue.Title, summarize(issue.Body, 300))
	reply, err := q.Query(ctx, prompt)
	if err != nil {
		return fallback
	}
	name := strings.TrimSpace(reply)
	if name == "" || len(name) > branchNameMaxLen || !branchNameRe.MatchString(name) {
		return fallback
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fallback
	}
	return name
}

// ComplianceResult is the outcome of checking contributing guidelines.
type ComplianceResult struct {
	Proceed bool
	Reason  string
}

// CheckCompliance asks the quick model whether the contributing
// guidelines permit an automated contribution workflow: fork, branch,
// push, and a proposed change. Projects with no guidelines proceed, as
// does an unparseable verdict.
func CheckCompliance(ctx context.Context, q Querier, guidelines string, issue *github.Issue) (*ComplianceResult, error) {
	if strings.TrimSpace(guidelines) == "" {
		return &ComplianceResult{Proceed: true}, nil
	}
	prompt := fmt.Sprintf(
		"These are a project's contributing guidelines:\n\n%s\n\nA contributor plans to fix issue #%d (%s) by forking, creating a branch, committing a fix, and pushing the branch for a pull request.\n\nDo the guidelines forbid this workflow (for example: issues must be claimed first, no outside PRs, CLA signature required before any work)? Reply with your reasoning, then a final line containing exactly PROCEED or ABORT.",
		guidelines, issue.Number, issue.Title)
	reply, err := q.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("compliance check: %w", err)
	}

	verdict := lastNonEmptyLine(reply)
	switch {
	case strings.HasPrefix(verdict, "ABORT"):
		return &ComplianceResult{Proceed: false, Reason: reasonFrom(reply)}, nil
	case strings.HasPrefix(verdict, "PROCEED"):
		return &ComplianceResult{Proceed: true}, nil
	default:
		return &ComplianceResult{Proceed: true}, nil
	}
}

func summarize(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so multi-byte text stays valid UTF-8.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// reasonFrom keeps everything before the verdict line as the reason.
func reasonFrom(reply string) string {
	verdict := lastNonEmptyLine(reply)
	idx := strings.LastIndex(reply, verdict)
	if idx <= 0 {
		return strings.TrimSpace(reply)
	}
	return strings.TrimSpace(reply[:idx])
}
