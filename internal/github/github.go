// Package github talks to the GitHub hosting API through the gh CLI.
package github

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CmdRunner provides gh command execution. Interface for testing.
type CmdRunner interface {
	Run(args ...string) (string, error)
}

// GitRunner provides git command execution. Interface for testing.
type GitRunner interface {
	RunGit(dir string, args ...string) (string, error)
}

// ExecRunner runs gh and git commands via exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("gh %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RunGit implements GitRunner using exec.Command.
func (r *ExecRunner) RunGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Client provides GitHub operations.
type Client struct {
	cmd   CmdRunner
	sleep func(time.Duration)
}

// NewClient creates a GitHub client.
func NewClient(cmd CmdRunner) *Client {
	return &Client{cmd: cmd, sleep: time.Sleep}
}

// CheckAuth verifies the gh CLI holds working credentials.
func (c *Client) CheckAuth() error {
	if _, err := c.cmd.Run("auth", "status"); err != nil {
		return fmt.Errorf("gh auth check: %w", err)
	}
	return nil
}

// Login returns the authenticated user's login.
func (c *Client) Login() (string, error) {
	out, err := c.cmd.Run("api", "user", "--jq", ".login")
	if err != nil {
		return "", fmt.Errorf("resolve login: %w", err)
	}
	login := strings.TrimSpace(out)
	if login == "" {
		return "", fmt.Errorf("resolve login: empty response")
	}
	return login, nil
}

// repoFields is the gh --json field list for Repository.
const repoFields = "fullName,description,language,stargazersCount,openIssuesCount"

// viewRepo is the gh repo view shape, which nests counts differently
// than gh search repos.
type viewRepo struct {
	NameWithOwner string `json:"nameWithOwner"`
	Description   string `json:"description"`
	PrimaryLang   struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	StargazerCount int `json:"stargazerCount"`
	Issues         struct {
		TotalCount int `json:"totalCount"`
	} `json:"issues"`
}

// GetRepo fetches repository metadata for an "owner/repo" reference.
func (c *Client) GetRepo(repo string) (*Repository, error) {
	if err := ValidateRepoRef(repo); err != nil {
		return nil, err
	}
	out, err := c.cmd.Run("repo", "view", repo, "--json",
		"nameWithOwner,description,primaryLanguage,stargazerCount,issues")
	if err != nil {
		return nil, fmt.Errorf("view repo %s: %w", repo, err)
	}
	var v viewRepo
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		return nil, fmt.Errorf("parse repo JSON: %w", err)
	}
	return &Repository{
		FullName:    v.NameWithOwner,
		Description: v.Description,
		Language:    v.PrimaryLang.Name,
		Stars:       v.StargazerCount,
		OpenIssues:  v.Issues.TotalCount,
	}, nil
}

// ValidateRepoRef checks an "owner/repo" reference for shape.
func ValidateRepoRef(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid repository %q: expected owner/repo", repo)
	}
	return nil
}

// noiseWords are dropped from natural-language repository descriptions
// before searching.
var noiseWords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "of": true,
	"in": true, "on": true, "to": true, "with": true, "that": true,
	"and": true, "or": true, "is": true, "are": true, "some": true,
	"project": true, "repo": true, "repository": true, "library": true,
	"tool": true, "app": true, "application": true, "written": true,
	"using": true, "build": true, "built": true,
}

// buildRepoQuery reduces a free-form description to search terms.
func buildRepoQuery(description string) []string {
	var terms []string
	for _, word := range strings.Fields(description) {
		w := strings.Trim(strings.ToLower(word), ".,;:!?\"'()")
		if w == "" || noiseWords[w] {
			continue
		}
		terms = append(terms, w)
	}
	if len(terms) == 0 {
		terms = strings.Fields(description)
	}
	return terms
}

// SearchRepos finds public repositories matching a natural-language
// description, filtered by star count and sorted by stars.
func (c *Client) SearchRepos(description string, limit, minStars int) ([]Repository, error) {
	args := []string{"search", "repos"}
	args = append(args, buildRepoQuery(description)...)
	args = append(args,
		"--stars", fmt.Sprintf(">%d", minStars),
		"--sort", "stars",
		"--limit", strconv.Itoa(limit),
		"--json", repoFields,
	)
	out, err := c.cmd.Run(args...)
	if err != nil {
		return nil, fmt.Errorf("search repos: %w", err)
	}
	var repos []Repository
	if err := json.Unmarshal([]byte(out), &repos); err != nil {
		return nil, fmt.Errorf("parse repo search JSON: %w", err)
	}
	return repos, nil
}

// issueFields is the gh --json field list for Issue.
const issueFields = "number,title,body,state,labels,assignees,url"

// GetIssue fetches an issue by number.
func (c *Client) GetIssue(repo string, number int) (*Issue, error) {
	if number <= 0 {
		return nil, fmt.Errorf("invalid issue number %d: must be positive", number)
	}
	out, err := c.cmd.Run("issue", "view", strconv.Itoa(number),
		"--repo", repo, "--json", issueFields)
	if err != nil {
		return nil, fmt.Errorf("get issue %s#%d: %w", repo, number, err)
	}
	var issue Issue
	if err := json.Unmarshal([]byte(out), &issue); err != nil {
		return nil, fmt.Errorf("parse issue JSON: %w", err)
	}
	return &issue, nil
}

// ListOpenIssues fetches open issues for a repository, optionally
// restricted by a search query.
func (c *Client) ListOpenIssues(repo, query string, limit int) ([]Issue, error) {
	args := []string{"issue", "list", "--repo", repo,
		"--state", "open",
		"--limit", strconv.Itoa(limit),
		"--json", issueFields,
	}
	if query != "" {
		args = append(args, "--search", query)
	}
	out, err := c.cmd.Run(args...)
	if err != nil {
		return nil, fmt.Errorf("list issues for %s: %w", repo, err)
	}
	var issues []Issue
	if err := json.Unmarshal([]byte(out), &issues); err != nil {
		return nil, fmt.Errorf("parse issue list JSON: %w", err)
	}
	return issues, nil
}

// referencingPR is the shape returned by the open-PR reference check.
type referencingPR struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	IsDraft bool   `json:"isDraft"`
}

// ActiveWork reports why an issue should be considered claimed, or ""
// if nobody appears to be working on it. It checks assignees, in-progress
// labels, and open or draft pull requests referencing the issue number.
func (c *Client) ActiveWork(repo string, issue *Issue, wipLabels []string) (string, error) {
	if len(issue.Assignees) > 0 {
		return fmt.Sprintf("assigned to %s", issue.Assignees[0].Login), nil
	}
	for _, l := range issue.Labels {
		for _, wip := range wipLabels {
			if strings.EqualFold(l.Name, wip) {
				return fmt.Sprintf("labeled %q", l.Name), nil
			}
		}
	}
	out, err := c.cmd.Run("pr", "list", "--repo", repo,
		"--state", "open",
		"--search", strconv.Itoa(issue.Number),
		"--json", "number,title,body,isDraft",
		"--limit", "20",
	)
	if err != nil {
		return "", fmt.Errorf("check referencing PRs for %s#%d: %w", repo, issue.Number, err)
	}
	var prs []referencingPR
	if err := json.Unmarshal([]byte(out), &prs); err != nil {
		return "", fmt.Errorf("parse PR list JSON: %w", err)
	}
	ref := fmt.Sprintf("#%d", issue.Number)
	for _, pr := range prs {
		if strings.Contains(pr.Title, ref) || strings.Contains(pr.Body, ref) {
			return fmt.Sprintf("referenced by open PR #%d", pr.Number), nil
		}
	}
	return "", nil
}

// forkPollAttempts and forkPollInterval bound the wait for a new fork
// to become visible through the API.
const (
	forkPollAttempts = 6
	forkPollInterval = 5 * time.Second
)

// Fork forks an upstream repository into the user's account and waits
// for the fork to become visible. Returns the fork's "owner/repo" name.
// Forking a repository that is already forked is not an error.
func (c *Client) Fork(repo, login string) (string, error) {
	if _, err := c.cmd.Run("repo", "fork", repo, "--clone=false"); err != nil {
		return "", fmt.Errorf("fork %s: %w", repo, err)
	}
	_, name, _ := strings.Cut(repo, "/")
	fork := login + "/" + name
	var lastErr error
	for attempt := 0; attempt < forkPollAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(forkPollInterval)
		}
		if _, lastErr = c.cmd.Run("repo", "view", fork, "--json", "nameWithOwner"); lastErr == nil {
			return fork, nil
		}
	}
	return "", fmt.Errorf("fork %s not visible after %d attempts: %w", fork, forkPollAttempts, lastErr)
}
