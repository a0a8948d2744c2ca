package repo

import (
	"errors"
	"strings"
	"testing"
)

// fakeGit records git invocations and serves canned output by args prefix.
type fakeGit struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeGit) RunGit(dir string, args ...string) (string, error) {
	call := strings.Join(args, " ")
	f.calls = append(f.calls, call)
	for prefix, err := range f.errs {
		if strings.HasPrefix(call, prefix) {
			return "", err
		}
	}
	for prefix, out := range f.responses {
		if strings.HasPrefix(call, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func (f *fakeGit) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// fakeGh satisfies github.CmdRunner for the credential setup call.
type fakeGh struct{ err error }

func (f *fakeGh) Run(args ...string) (string, error) { return "", f.err }

func TestCloneDetectsMain(t *testing.T) {
	git := &fakeGit{responses: map[string]string{
		"branch -r": "  origin/HEAD -> origin/main\n  origin/main\n  upstream/main\n  upstream/dev",
	}}
	c := New(git, &fakeGh{})
	res, err := c.Clone("me/widget", "owner/widget", "/tmp/work/repo")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if res.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main", res.DefaultBranch)
	}
	if res.Path != "/tmp/work/repo" {
		t.Errorf("Path = %q", res.Path)
	}
	if !git.called("clone --depth 50 https://github.com/me/widget.git") {
		t.Errorf("missing shallow clone, calls: %v", git.calls)
	}
	if !git.called("remote add upstream https://github.com/owner/widget.git") {
		t.Errorf("missing upstream remote, calls: %v", git.calls)
	}
}

func TestCloneFallsBackToMaster(t *testing.T) {
	git := &fakeGit{responses: map[string]string{
		"branch -r": "  upstream/master\n  upstream/gh-pages",
	}}
	res, err := New(git, &fakeGh{}).Clone("me/w", "o/w", "/tmp")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if res.DefaultBranch != "master" {
		t.Errorf("DefaultBranch = %q, want master", res.DefaultBranch)
	}
}

func TestCloneFirstUpstreamBranch(t *testing.T) {
	git := &fakeGit{responses: map[string]string{
		"branch -r": "  upstream/trunk\n  upstream/release-1.0",
	}}
	res, err := New(git, &fakeGh{}).Clone("me/w", "o/w", "/tmp")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if res.DefaultBranch != "trunk" {
		t.Errorf("DefaultBranch = %q, want trunk", res.DefaultBranch)
	}
}

func TestCloneCredentialSetupFailure(t *testing.T) {
	c := New(&fakeGit{}, &fakeGh{err: errors.New("no token")})
	if _, err := c.Clone("me/w", "o/w", "/tmp"); err == nil {
		t.Fatal("expected error when gh auth setup-git fails")
	}
}

func TestEnsureBranchCreatesFromDefault(t *testing.T) {
	git := &fakeGit{errs: map[string]error{
		"rev-parse --verify": errors.New("unknown revision"),
	}}
	if err := New(git, &fakeGh{}).EnsureBranch("/tmp/w", "fix/issue-5", "main"); err != nil {
		t.Fatalf("EnsureBranch: %v", err)
	}
	if !git.called("checkout -b fix/issue-5 upstream/main") {
		t.Errorf("missing branch creation, calls: %v", git.calls)
	}
}

func TestEnsureBranchReusesExisting(t *testing.T) {
	git := &fakeGit{}
	if err := New(git, &fakeGh{}).EnsureBranch("/tmp/w", "fix/issue-5", "main"); err != nil {
		t.Fatalf("EnsureBranch: %v", err)
	}
	if git.called("checkout -b") {
		t.Errorf("branch recreated instead of reused, calls: %v", git.calls)
	}
	if !git.called("checkout fix/issue-5") {
		t.Errorf("existing branch not checked out, calls: %v", git.calls)
	}
}

func TestEnsureIdentitySetsFallback(t *testing.T) {
	git := &fakeGit{errs: map[string]error{"config --get user.email": errors.New("not set")}}
	if err := New(git, &fakeGh{}).EnsureIdentity("/tmp/w"); err != nil {
		t.Fatalf("EnsureIdentity: %v", err)
	}
	if !git.called("config user.email issuepilot@localhost") || !git.called("config user.name issuepilot") {
		t.Errorf("identity not set, calls: %v", git.calls)
	}
}

func TestEnsureIdentityKeepsExisting(t *testing.T) {
	git := &fakeGit{responses: map[string]string{"config --get user.email": "dev@example.com"}}
	if err := New(git, &fakeGh{}).EnsureIdentity("/tmp/w"); err != nil {
		t.Fatalf("EnsureIdentity: %v", err)
	}
	if git.called("config user.name") {
		t.Errorf("identity overwritten, calls: %v", git.calls)
	}
}

func TestHasChanges(t *testing.T) {
	git := &fakeGit{responses: map[string]string{"status --porcelain": " M main.go"}}
	dirty, err := New(git, &fakeGh{}).HasChanges("/tmp/w")
	if err != nil {
		t.Fatalf("HasChanges: %v", err)
	}
	if !dirty {
		t.Error("expected dirty worktree")
	}

	git = &fakeGit{}
	dirty, err = New(git, &fakeGh{}).HasChanges("/tmp/w")
	if err != nil {
		t.Fatalf("HasChanges: %v", err)
	}
	if dirty {
		t.Error("expected clean worktree")
	}
}

func TestCommitCount(t *testing.T) {
	git := &fakeGit{responses: map[string]string{"rev-list --count": "3"}}
	n, err := New(git, &fakeGh{}).CommitCount("/tmp/w", "main")
	if err != nil {
		t.Fatalf("CommitCount: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestDiffTruncation(t *testing.T) {
	long := strings.Repeat("x", 100)
	git := &fakeGit{responses: map[string]string{"diff upstream/main...HEAD": long}}
	out, err := New(git, &fakeGh{}).Diff("/tmp/w", "main", 10)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.HasPrefix(out, "xxxxxxxxxx") || !strings.Contains(out, "truncated") {
		t.Errorf("diff not truncated: %q", out)
	}
}

func TestFilesChanged(t *testing.T) {
	git := &fakeGit{responses: map[string]string{"diff --name-only": "a.go\nb/c.go"}}
	files, err := New(git, &fakeGh{}).FilesChanged("/tmp/w", "main")
	if err != nil {
		t.Fatalf("FilesChanged: %v", err)
	}
	if len(files) != 2 || files[0] != "a.go" || files[1] != "b/c.go" {
		t.Errorf("files = %v", files)
	}

	git = &fakeGit{}
	files, err = New(git, &fakeGh{}).FilesChanged("/tmp/w", "main")
	if err != nil {
		t.Fatalf("FilesChanged: %v", err)
	}
	if files != nil {
		t.Errorf("files = %v, want nil for empty diff", files)
	}
}

func TestPushForcesToOrigin(t *testing.T) {
	git := &fakeGit{}
	if err := New(git, &fakeGh{}).Push("/tmp/w", "fix/issue-5"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !git.called("push --force -u origin fix/issue-5") {
		t.Errorf("missing force push, calls: %v", git.calls)
	}
}

func TestPushRejectsFlagLikeBranch(t *testing.T) {
	if err := New(&fakeGit{}, &fakeGh{}).Push("/tmp/w", "--delete"); err == nil {
		t.Fatal("expected error for flag-like branch name")
	}
}
