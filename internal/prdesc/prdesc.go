// Package prdesc produces the pull request title, body, and prefilled
// compare link for a pushed branch. It never opens the pull request;
// that stays a human decision.
package prdesc

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"issuepilot/internal/github"
	"issuepilot/internal/selection"
)

const titleMaxLen = 90

// Description is a generated pull request title and body.
type Description struct {
	Title string
	Body  string
}

// Fallback builds the description used when generation fails or
// returns nothing usable.
func Fallback(issue *github.Issue) Description {
	return Description{
		Title: fmt.Sprintf("Fix #%d: %s", issue.Number, issue.Title),
		Body: fmt.Sprintf("Fixes #%d.\n\nSee the linked issue for details.", issue.Number),
	}
}

// Generate asks the quick model for a pull request description based on
// the issue and the (already truncated) diff. Unusable replies fall
// back to the issue-derived template.
func Generate(ctx context.Context, q selection.Querier, issue *github.Issue, diff string) Description {
	prompt := fmt.Sprintf(
		"Write a pull request description for this change.\n\nIssue #%d: %s\n\n%s\n\nDiff:\n%s\n\nFormat: first line is the PR title (under %d characters), then a blank line, then a short body in markdown. The body must reference the issue as \"Fixes #%d\". No preamble.",
		issue.Number, issue.Title, issue.Body, diff, titleMaxLen, issue.Number)

	reply, err := q.Query(ctx, prompt)
	if err != nil {
		return Fallback(issue)
	}
	desc, ok := parse(reply)
	if !ok {
		return Fallback(issue)
	}
	return desc
}

// parse splits a reply into title and body: first non-empty line is the
// title, everything after it the body.
func parse(reply string) (Description, bool) {
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	if len(lines) == 0 {
		return Description{}, false
	}
	title := strings.TrimSpace(strings.TrimPrefix(lines[0], "#"))
	if title == "" || len(title) > titleMaxLen {
		return Description{}, false
	}
	body := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return Description{Title: title, Body: body}, true
}

// CompareURL builds the GitHub compare link that prefills a pull
// request from the pushed fork branch. When the full link would exceed
// maxChars the body is dropped, keeping the link pasteable.
func CompareURL(upstream, defaultBranch, login, branch string, desc Description, maxChars int) string {
	base := fmt.Sprintf("https://github.com/%s/compare/%s...%s:%s",
		upstream, defaultBranch, login, url.PathEscape(branch))

	full := base + "?" + compareQuery(desc.Title, desc.Body)
	if maxChars > 0 && len(full) > maxChars {
		full = base + "?" + compareQuery(desc.Title, "")
	}
	return full
}

func compareQuery(title, body string) string {
	q := url.Values{}
	q.Set("quick_pull", "1")
	if title != "" {
		q.Set("title", title)
	}
	if body != "" {
		q.Set("body", body)
	}
	return q.Encode()
}
