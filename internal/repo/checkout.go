// Package repo manages the local git checkout the coding agent works in.
package repo

import (
	"fmt"
	"strings"

	"issuepilot/internal/github"
)

// Checkout wraps git operations on a cloned fork.
type Checkout struct {
	git github.GitRunner
	gh  github.CmdRunner
}

// New creates a Checkout manager. The gh runner is used once, to set up
// git credentials for pushing to the fork.
func New(git github.GitRunner, gh github.CmdRunner) *Checkout {
	return &Checkout{git: git, gh: gh}
}

// CloneResult describes a fresh clone.
type CloneResult struct {
	Path          string
	DefaultBranch string
}

// Clone shallow-clones the fork to path, adds the upstream remote, and
// detects the upstream default branch.
func (c *Checkout) Clone(fork, upstream, path string) (*CloneResult, error) {
	if _, err := c.gh.Run("auth", "setup-git"); err != nil {
		return nil, fmt.Errorf("configure git credentials: %w", err)
	}

	if _, err := c.git.RunGit("", "clone", "--depth", "50", cloneURL(fork), path); err != nil {
		return nil, fmt.Errorf("clone %s: %w", fork, err)
	}
	if _, err := c.git.RunGit(path, "remote", "add", "upstream", cloneURL(upstream)); err != nil {
		return nil, fmt.Errorf("add upstream remote: %w", err)
	}
	if _, err := c.git.RunGit(path, "fetch", "upstream"); err != nil {
		return nil, fmt.Errorf("fetch upstream: %w", err)
	}

	branch, err := c.detectDefaultBranch(path)
	if err != nil {
		return nil, err
	}
	return &CloneResult{Path: path, DefaultBranch: branch}, nil
}

// detectDefaultBranch prefers upstream/main, then upstream/master, then
// the first upstream branch listed.
func (c *Checkout) detectDefaultBranch(dir string) (string, error) {
	out, err := c.git.RunGit(dir, "branch", "-r")
	if err != nil {
		return "", fmt.Errorf("list remote branches: %w", err)
	}
	var upstreamBranches []string
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(name, "upstream/"); ok && !strings.Contains(rest, "->") {
			upstreamBranches = append(upstreamBranches, rest)
		}
	}
	for _, want := range []string{"main", "master"} {
		for _, b := range upstreamBranches {
			if b == want {
				return b, nil
			}
		}
	}
	if len(upstreamBranches) > 0 {
		return upstreamBranches[0], nil
	}
	return "", fmt.Errorf("no upstream branches found in %s", dir)
}

// EnsureIdentity sets a local committer identity when git has none
// configured, so commits in the checkout never fail on identity.
func (c *Checkout) EnsureIdentity(dir string) error {
	if out, err := c.git.RunGit(dir, "config", "--get", "user.email"); err == nil && out != "" {
		return nil
	}
	if _, err := c.git.RunGit(dir, "config", "user.email", "issuepilot@localhost"); err != nil {
		return fmt.Errorf("set committer email: %w", err)
	}
	if _, err := c.git.RunGit(dir, "config", "user.name", "issuepilot"); err != nil {
		return fmt.Errorf("set committer name: %w", err)
	}
	return nil
}

// EnsureBranch checks out the work branch, creating it from the
// upstream default branch if it does not exist yet. Safe to call again
// on resume; an existing branch is checked out as-is.
func (c *Checkout) EnsureBranch(dir, name, defaultBranch string) error {
	if _, err := c.git.RunGit(dir, "rev-parse", "--verify", "refs/heads/"+name); err == nil {
		if _, err := c.git.RunGit(dir, "checkout", name); err != nil {
			return fmt.Errorf("checkout branch %s: %w", name, err)
		}
		return nil
	}
	if _, err := c.git.RunGit(dir, "checkout", "-b", name, "upstream/"+defaultBranch); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// HasChanges reports uncommitted modifications in the worktree.
func (c *Checkout) HasChanges(dir string) (bool, error) {
	out, err := c.git.RunGit(dir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return out != "", nil
}

// CommitAll stages and commits everything with the given message.
func (c *Checkout) CommitAll(dir, message string) error {
	if _, err := c.git.RunGit(dir, "add", "-A"); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if _, err := c.git.RunGit(dir, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

// CommitCount counts commits on HEAD past the upstream default branch.
func (c *Checkout) CommitCount(dir, defaultBranch string) (int, error) {
	out, err := c.git.RunGit(dir, "rev-list", "--count", "upstream/"+defaultBranch+"..HEAD")
	if err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	var n int
	if _, err := fmt.Sscanf(out, "%d", &n); err != nil {
		return 0, fmt.Errorf("parse commit count %q: %w", out, err)
	}
	return n, nil
}

// StripCoAuthorTrailers rewrites the branch's commit messages to remove
// Co-Authored-By trailers the agent may have added.
func (c *Checkout) StripCoAuthorTrailers(dir, defaultBranch string) error {
	_, err := c.git.RunGit(dir, "filter-branch", "-f", "--msg-filter",
		`sed -e '/^Co-Authored-By:/Id' -e '/^Co-authored-by:/Id'`,
		"upstream/"+defaultBranch+"..HEAD")
	if err != nil {
		return fmt.Errorf("strip co-author trailers: %w", err)
	}
	return nil
}

// Diff returns the branch diff against the upstream default branch,
// truncated to maxBytes.
func (c *Checkout) Diff(dir, defaultBranch string, maxBytes int) (string, error) {
	out, err := c.git.RunGit(dir, "diff", "upstream/"+defaultBranch+"...HEAD")
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	if maxBytes > 0 && len(out) > maxBytes {
		out = out[:maxBytes] + "\n... (diff truncated)"
	}
	return out, nil
}

// DiffStat returns the --stat summary of the branch diff.
func (c *Checkout) DiffStat(dir, defaultBranch string) (string, error) {
	out, err := c.git.RunGit(dir, "diff", "--stat", "upstream/"+defaultBranch+"...HEAD")
	if err != nil {
		return "", fmt.Errorf("git diff --stat: %w", err)
	}
	return out, nil
}

// FilesChanged lists the files the branch touches.
func (c *Checkout) FilesChanged(dir, defaultBranch string) ([]string, error) {
	out, err := c.git.RunGit(dir, "diff", "--name-only", "upstream/"+defaultBranch+"...HEAD")
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only: %w", err)
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Fetch refreshes a remote's refs.
func (c *Checkout) Fetch(dir, remote string) error {
	if _, err := c.git.RunGit(dir, "fetch", remote); err != nil {
		return fmt.Errorf("fetch %s: %w", remote, err)
	}
	return nil
}

// Push force-pushes the branch to the fork. Force keeps the push
// idempotent after history rewrites on resume.
func (c *Checkout) Push(dir, branch string) error {
	if strings.HasPrefix(branch, "-") {
		return fmt.Errorf("invalid branch name %q: must not start with -", branch)
	}
	if _, err := c.git.RunGit(dir, "push", "--force", "-u", "origin", branch); err != nil {
		return fmt.Errorf("push branch %s: %w", branch, err)
	}
	return nil
}

func cloneURL(repo string) string {
	return "https://github.com/" + repo + ".git"
}
