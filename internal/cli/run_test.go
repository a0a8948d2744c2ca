package cli

import (
	"bytes"
	"testing"

	"issuepilot/internal/executor"
)

func TestValidateSelectors(t *testing.T) {
	cases := []struct {
		name     string
		repo     string
		findRepo string
		issue    int
		find     string
		wantErr  bool
	}{
		{name: "no repo selector", wantErr: true},
		{name: "both repo selectors", repo: "octocat/hello", findRepo: "a yaml parser", wantErr: true},
		{name: "issue and find together", repo: "octocat/hello", issue: 7, find: "easy bug", wantErr: true},
		{name: "find-repo with explicit issue", findRepo: "a yaml parser", issue: 7, wantErr: true},
		{name: "negative issue", repo: "octocat/hello", issue: -1, wantErr: true},
		{name: "explicit repo and issue", repo: "octocat/hello", issue: 7},
		{name: "explicit repo, search issue", repo: "octocat/hello", find: "easy bug"},
		{name: "explicit repo, default search", repo: "octocat/hello"},
		{name: "search repo and issue", findRepo: "a yaml parser", find: "easy bug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSelectors(tc.repo, tc.findRepo, tc.issue, tc.find)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if kind := executor.KindOf(err); kind != executor.KindUsage {
					t.Fatalf("kind = %v, want usage", kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVersionOutput(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	buf := &bytes.Buffer{}
	versionCmd.SetOut(buf)
	versionCmd.Run(versionCmd, nil)
	if got := buf.String(); got != "issuepilot version 1.2.3\n" {
		t.Fatalf("version output = %q", got)
	}
}
