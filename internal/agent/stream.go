package agent

import (
	"bufio"
	"encoding/json"
	"io"
)

// streamEvent maps one line of the agent's stream-json output.
type streamEvent struct {
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype,omitempty"`
	Message       *messageContent `json:"message,omitempty"`
	ToolUseResult *toolResult     `json:"tool_use_result,omitempty"`
}

type messageContent struct {
	Content []contentBlock `json:"content,omitempty"`
}

type contentBlock struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Name  string     `json:"name,omitempty"`
	Input *toolInput `json:"input,omitempty"`
}

type toolInput struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

type toolResult struct {
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

// EventType classifies agent stream events.
type EventType string

const (
	EventSystem    EventType = "system"
	EventAssistant EventType = "assistant"
	EventUser      EventType = "user"
	EventResult    EventType = "result"
)

// Event is a parsed agent stream event with the fields callers care
// about pulled to the top level.
type Event struct {
	Type    EventType
	Subtype string

	Text            string
	ToolName        string
	ToolDescription string
	ToolCommand     string
	ToolFilePath    string
	ToolInterrupted bool

	SessionStarted  bool
	SessionComplete bool
}

// IsText reports assistant text output.
func (e Event) IsText() bool {
	return e.Type == EventAssistant && e.Text != ""
}

// IsToolUse reports an assistant tool invocation.
func (e Event) IsToolUse() bool {
	return e.Type == EventAssistant && e.ToolName != ""
}

func newEvent(raw *streamEvent) Event {
	e := Event{Type: EventType(raw.Type), Subtype: raw.Subtype}
	switch e.Type {
	case EventSystem:
		e.SessionStarted = raw.Subtype == "init"
	case EventAssistant:
		if raw.Message != nil {
			for _, block := range raw.Message.Content {
				switch block.Type {
				case "text":
					e.Text = block.Text
				case "tool_use":
					e.ToolName = block.Name
					if block.Input != nil {
						e.ToolDescription = block.Input.Description
						e.ToolCommand = block.Input.Command
						e.ToolFilePath = block.Input.FilePath
					}
				}
			}
		}
	case EventUser:
		if raw.ToolUseResult != nil {
			e.ToolInterrupted = raw.ToolUseResult.Interrupted
		}
	case EventResult:
		e.SessionComplete = true
	}
	return e
}

// streamBufferSize bounds one JSON line; tool results can carry whole
// file contents.
const streamBufferSize = 10 * 1024 * 1024

// ParseStream reads stream-json lines from r and emits parsed events.
// Empty and unparseable lines are skipped. The channel closes on EOF or
// read error.
func ParseStream(r io.Reader) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 1024*1024), streamBufferSize)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var raw streamEvent
			if err := json.Unmarshal(line, &raw); err != nil {
				continue
			}
			events <- newEvent(&raw)
		}
	}()
	return events
}

// ParseLine parses a single stream-json line.
func ParseLine(line string) (Event, error) {
	var raw streamEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Event{}, err
	}
	return newEvent(&raw), nil
}
