package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeFakeAgent writes a shell script standing in for the agent binary
// and returns its path.
func writeFakeAgent(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake agent: %v", err)
	}
	return path
}

func sessionContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunSessionOversizedStderrLine(t *testing.T) {
	bin := writeFakeAgent(t, `
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"done"}]}}'
head -c 300000 /dev/zero | tr '\0' x >&2
echo >&2`)

	cli := NewCLI(bin, "quick", "work", 5)
	res, err := cli.RunSession(sessionContext(t), SessionOpts{Dir: t.TempDir(), Prompt: "go"})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if res.FinalText != "done" || res.Turns != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunSessionFailureIncludesStderrTail(t *testing.T) {
	bin := writeFakeAgent(t, `
echo '{"type":"system","subtype":"init"}'
echo "quota exhausted" >&2
exit 1`)

	cli := NewCLI(bin, "quick", "work", 5)
	_, err := cli.RunSession(sessionContext(t), SessionOpts{Dir: t.TempDir(), Prompt: "go"})
	if err == nil {
		t.Fatal("expected error from failing agent")
	}
	if !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("error %q lacks stderr tail", err)
	}
}

func TestTailBufferKeepsMostRecentBytes(t *testing.T) {
	tb := &tailBuffer{limit: 8}
	tb.Write([]byte("0123456789"))
	tb.Write([]byte("abcd"))
	if got := tb.String(); got != "6789abcd" {
		t.Errorf("tail = %q, want %q", got, "6789abcd")
	}
}
