// Package pipeline holds the per-run pipeline context and its durable
// session record.
//
// Context is the live aggregate every step reads from and writes to.
// Session is the on-disk shadow of a Context plus the ordered list of
// completed step names; Store persists sessions atomically so an aborted
// run can always be resumed from its last completed step.
package pipeline

import (
	"crypto/rand"
	"encoding/hex"

	"issuepilot/internal/github"
)

// Context is the centralized state for one pipeline run. Each field is
// empty until the step that produces it completes; later steps read but
// never overwrite fields produced earlier.
type Context struct {
	RunID   string `json:"run_id"`
	Verbose bool   `json:"verbose,omitempty"`

	// Selectors from the command line.
	RepoArg   string `json:"repo_arg,omitempty"`
	FindRepo  string `json:"find_repo,omitempty"`
	IssueArg  int    `json:"issue_arg,omitempty"`
	FindIssue string `json:"find_issue,omitempty"`

	// validate-prerequisites
	Login string `json:"login,omitempty"`

	// locate-repository
	Repo           string              `json:"repo,omitempty"` // "owner/name"
	CandidateRepos []github.Repository `json:"candidate_repos,omitempty"`

	// locate-issue
	Issue *github.Issue `json:"issue,omitempty"`

	// fork-and-clone
	Fork          string `json:"fork,omitempty"` // "owner/name"
	CheckoutPath  string `json:"checkout_path,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`
	Guidelines    string `json:"guidelines,omitempty"`
	RepoContext   string `json:"repo_context,omitempty"`

	// prepare-branch
	BranchName string `json:"branch_name,omitempty"`

	// implement
	DiffStat     string   `json:"diff_stat,omitempty"`
	Diff         string   `json:"diff,omitempty"`
	FilesChanged []string `json:"files_changed,omitempty"`
	Committed    bool     `json:"committed,omitempty"`

	// review-and-push
	ReviewApproved bool   `json:"review_approved,omitempty"`
	ReviewNotes    string `json:"review_notes,omitempty"`
	PRTitle        string `json:"pr_title,omitempty"`
	PRBody         string `json:"pr_body,omitempty"`
	CompareURL     string `json:"compare_url,omitempty"`
	Pushed         bool   `json:"pushed,omitempty"`
}

// NewRunID returns a fresh 8-character hex run identifier.
func NewRunID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
