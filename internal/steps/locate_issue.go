package steps

import (
	"context"
	"fmt"
	"strings"

	"issuepilot/internal/executor"
	"issuepilot/internal/github"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/selection"
)

// pickAttemptsPerRepo bounds how many claimed issues we skip past in
// one repository before moving to the next candidate.
const pickAttemptsPerRepo = 3

// locateIssue resolves the issue to work on: an explicit number is
// fetched and vetted; otherwise open issues are searched, filtered, and
// AI-picked, falling back through candidate repositories.
func (d *Deps) locateIssue(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	if pc.IssueArg > 0 {
		issue, err := d.GitHub.GetIssue(pc.Repo, pc.IssueArg)
		if err != nil {
			return nil, executor.UserActionable(err,
				fmt.Sprintf("Issue #%d could not be loaded from %s.", pc.IssueArg, pc.Repo))
		}
		if !strings.EqualFold(issue.State, "open") {
			return nil, executor.UserActionable(
				fmt.Errorf("issue #%d is %s", issue.Number, strings.ToLower(issue.State)),
				"Pick an open issue.")
		}
		reason, err := d.GitHub.ActiveWork(pc.Repo, issue, d.Config.Search.WIPLabels)
		if err != nil {
			return nil, executor.Transient(err)
		}
		if reason != "" {
			return nil, executor.UserActionable(
				fmt.Errorf("issue #%d already has active work: %s", issue.Number, reason),
				"Someone appears to be working on this issue. Pick another one.")
		}
		d.info("issue: #%d %s", issue.Number, issue.Title)
		return func(pc *pipeline.Context) { pc.Issue = issue }, nil
	}

	query := pc.FindIssue
	if query == "" {
		query = d.Config.Search.DefaultIssueQuery
	}

	repos := append([]string{pc.Repo}, fullNames(pc.CandidateRepos)...)
	for _, repoName := range repos {
		issue, err := d.pickWorkableIssue(ctx, repoName, query)
		if err != nil {
			return nil, err
		}
		if issue == nil {
			d.info("no workable issues in %s, trying next candidate", repoName)
			continue
		}
		d.info("issue: %s#%d %s", repoName, issue.Number, issue.Title)
		chosen := repoName
		return func(pc *pipeline.Context) {
			pc.Repo = chosen
			pc.Issue = issue
		}, nil
	}

	return nil, executor.UserActionable(
		fmt.Errorf("no workable open issues found in %s", strings.Join(repos, ", ")),
		"Try a different --find filter, another repository, or pass --issue N explicitly.")
}

// pickWorkableIssue returns nil, nil when the repository has no
// unclaimed candidate.
func (d *Deps) pickWorkableIssue(ctx context.Context, repoName, query string) (*github.Issue, error) {
	issues, err := d.GitHub.ListOpenIssues(repoName, query, d.Config.Search.IssueLimit)
	if err != nil {
		return nil, executor.Transient(err)
	}
	candidates := selection.FilterIssues(issues, d.Config.Search.SkipLabels)

	for attempt := 0; attempt < pickAttemptsPerRepo && len(candidates) > 0; attempt++ {
		issue, err := selection.PickIssue(ctx, d.Agent, repoName, candidates)
		if err != nil {
			return nil, executor.Transient(err)
		}
		reason, err := d.GitHub.ActiveWork(repoName, issue, d.Config.Search.WIPLabels)
		if err != nil {
			return nil, executor.Transient(err)
		}
		if reason == "" {
			return issue, nil
		}
		d.info("skipping #%d: %s", issue.Number, reason)
		candidates = dropIssue(candidates, issue.Number)
	}
	return nil, nil
}

func dropIssue(issues []github.Issue, number int) []github.Issue {
	var kept []github.Issue
	for _, issue := range issues {
		if issue.Number != number {
			kept = append(kept, issue)
		}
	}
	return kept
}

func fullNames(repos []github.Repository) []string {
	var names []string
	for _, r := range repos {
		names = append(names, r.FullName)
	}
	return names
}
