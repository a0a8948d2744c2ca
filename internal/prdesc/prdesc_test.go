package prdesc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"issuepilot/internal/github"
)

type fakeQuerier struct {
	reply string
	err   error
}

func (f *fakeQuerier) Query(context.Context, string) (string, error) {
	return f.reply, f.err
}

var issue = &github.Issue{Number: 42, Title: "panic on empty config"}

func TestGenerate(t *testing.T) {
	q := &fakeQuerier{reply: "Handle empty config without panicking\n\nFixes #42.\n\nGuards the loader against a nil map."}
	desc := Generate(context.Background(), q, issue, "diff text")
	if desc.Title != "Handle empty config without panicking" {
		t.Errorf("title = %q", desc.Title)
	}
	if !strings.Contains(desc.Body, "Fixes #42") {
		t.Errorf("body = %q", desc.Body)
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("model down")}
	desc := Generate(context.Background(), q, issue, "diff")
	if desc.Title != "Fix #42: panic on empty config" {
		t.Errorf("title = %q", desc.Title)
	}
	if !strings.Contains(desc.Body, "Fixes #42") {
		t.Errorf("body = %q", desc.Body)
	}
}

func TestGenerateFallsBackOnOverlongTitle(t *testing.T) {
	q := &fakeQuerier{reply: strings.Repeat("long ", 40)}
	desc := Generate(context.Background(), q, issue, "diff")
	if desc.Title != "Fix #42: panic on empty config" {
		t.Errorf("title = %q", desc.Title)
	}
}

func TestParseStripsHeadingMarker(t *testing.T) {
	desc, ok := parse("# A markdown title\n\nbody")
	if !ok || desc.Title != "A markdown title" {
		t.Errorf("desc = %+v, ok = %v", desc, ok)
	}
}

func TestCompareURL(t *testing.T) {
	desc := Description{Title: "Fix the thing", Body: "Fixes #42."}
	got := CompareURL("owner/widget", "main", "octocat", "fix/issue-42", desc, 8000)
	if !strings.HasPrefix(got, "https://github.com/owner/widget/compare/main...octocat:fix%2Fissue-42?") {
		t.Errorf("url = %q", got)
	}
	for _, frag := range []string{"quick_pull=1", "title=Fix+the+thing", "body=Fixes+%2342."} {
		if !strings.Contains(got, frag) {
			t.Errorf("url %q missing %q", got, frag)
		}
	}
}

func TestCompareURLDropsOversizeBody(t *testing.T) {
	desc := Description{Title: "Fix", Body: strings.Repeat("words ", 2000)}
	got := CompareURL("o/w", "main", "me", "fix/x", desc, 8000)
	if len(got) > 8000 {
		t.Errorf("url length = %d, want <= 8000", len(got))
	}
	if strings.Contains(got, "body=") {
		t.Errorf("body not dropped: %q", got)
	}
	if !strings.Contains(got, "title=Fix") {
		t.Errorf("title missing: %q", got)
	}
}
