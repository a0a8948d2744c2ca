package github

import "strings"

// Label represents a GitHub label.
type Label struct {
	Name string `json:"name"`
}

// User represents a GitHub account.
type User struct {
	Login string `json:"login"`
}

// Issue represents a GitHub issue.
type Issue struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	State     string  `json:"state"`
	Labels    []Label `json:"labels"`
	Assignees []User  `json:"assignees"`
	URL       string  `json:"url,omitempty"`
}

// LabelNames returns the issue's label names.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// HasAnyLabel reports whether the issue carries any of the given labels.
// Matching is case-insensitive.
func (i *Issue) HasAnyLabel(labels []string) bool {
	for _, l := range i.Labels {
		for _, want := range labels {
			if strings.EqualFold(l.Name, want) {
				return true
			}
		}
	}
	return false
}

// Repository represents a GitHub repository. Field tags follow the gh
// CLI's JSON output.
type Repository struct {
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazersCount"`
	OpenIssues  int    `json:"openIssuesCount"`
}

// Owner returns the owner half of "owner/repo".
func (r *Repository) Owner() string {
	owner, _, _ := strings.Cut(r.FullName, "/")
	return owner
}

// Name returns the repo half of "owner/repo".
func (r *Repository) Name() string {
	_, name, _ := strings.Cut(r.FullName, "/")
	return name
}
