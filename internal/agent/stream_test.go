package agent

import (
	"strings"
	"testing"
)

func TestParseLineText(t *testing.T) {
	e, err := ParseLine(`{"type":"assistant","message":{"content":[{"type":"text","text":"done"}]}}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !e.IsText() || e.Text != "done" {
		t.Errorf("event = %+v", e)
	}
}

func TestParseLineToolUse(t *testing.T) {
	e, err := ParseLine(`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"go test ./...","description":"Run tests"}}]}}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !e.IsToolUse() || e.ToolName != "Bash" || e.ToolCommand != "go test ./..." {
		t.Errorf("event = %+v", e)
	}
}

func TestParseLineSessionMarkers(t *testing.T) {
	start, err := ParseLine(`{"type":"system","subtype":"init"}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !start.SessionStarted {
		t.Error("init event not marked as session start")
	}

	end, err := ParseLine(`{"type":"result","subtype":"success"}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !end.SessionComplete {
		t.Error("result event not marked as session complete")
	}
}

func TestParseLineInterrupted(t *testing.T) {
	e, err := ParseLine(`{"type":"user","tool_use_result":{"stderr":"killed","interrupted":true}}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !e.ToolInterrupted {
		t.Error("interrupted flag not set")
	}
}

func TestParseLineMalformed(t *testing.T) {
	if _, err := ParseLine(`{"type":`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseStreamSkipsGarbage(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"system","subtype":"init"}`,
		``,
		`not json at all`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"hi"}]}}`,
		`{"type":"result"}`,
	}, "\n")

	var events []Event
	for e := range ParseStream(strings.NewReader(input)) {
		events = append(events, e)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if !events[0].SessionStarted || events[1].Text != "hi" || !events[2].SessionComplete {
		t.Errorf("events = %+v", events)
	}
}

func TestHasCredentials(t *testing.T) {
	t.Setenv("CLAUDE_CODE_OAUTH_TOKEN", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	if HasCredentials() {
		t.Error("expected no credentials")
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	if !HasCredentials() {
		t.Error("expected credentials via ANTHROPIC_API_KEY")
	}
}
