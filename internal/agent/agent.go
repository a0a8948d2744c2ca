// Package agent drives the coding agent CLI as a subprocess.
package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// credentialVars are the environment variables the agent CLI accepts,
// in precedence order.
var credentialVars = []string{"CLAUDE_CODE_OAUTH_TOKEN", "ANTHROPIC_API_KEY"}

// HasCredentials reports whether the agent CLI has credentials in the
// environment.
func HasCredentials() bool {
	for _, v := range credentialVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// CredentialHint names the variables a user can set to authenticate.
func CredentialHint() string {
	return strings.Join(credentialVars, " or ")
}

// Invoker runs agent prompts. Interface for testing.
type Invoker interface {
	// Query asks a short one-shot question and returns the text reply.
	Query(ctx context.Context, prompt string) (string, error)
	// RunSession runs a full agentic work session in a directory.
	RunSession(ctx context.Context, opts SessionOpts) (*SessionResult, error)
}

// SessionOpts configures an agentic work session.
type SessionOpts struct {
	// Dir is the working directory the agent operates in.
	Dir string
	// Prompt is the task description.
	Prompt string
	// SystemPrompt is appended to the agent's system prompt. Optional.
	SystemPrompt string
	// AllowedTools restricts the agent's tool set. Optional.
	AllowedTools []string
	// OnEvent receives each parsed stream event as it arrives. Optional.
	OnEvent func(Event)
}

// SessionResult summarizes a completed session.
type SessionResult struct {
	// FinalText is the last text the agent emitted.
	FinalText string
	// Turns counts assistant events observed.
	Turns int
	// Interrupted is set when a tool execution was cut short.
	Interrupted bool
}

// CLI invokes the agent binary via exec.
type CLI struct {
	binary     string
	quickModel string
	workModel  string
	maxTurns   int
}

// NewCLI creates an agent invoker.
func NewCLI(binary, quickModel, workModel string, maxTurns int) *CLI {
	return &CLI{binary: binary, quickModel: quickModel, workModel: workModel, maxTurns: maxTurns}
}

// CheckBinary verifies the agent executable is on PATH.
func (c *CLI) CheckBinary() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("agent binary %q not found: %w", c.binary, err)
	}
	return nil
}

// Query runs a one-shot prompt against the quick model.
func (c *CLI) Query(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, "--print", "--model", c.quickModel, prompt)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --print: %s: %w", c.binary, strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RunSession runs the work model with streaming output until the
// session completes or ctx is cancelled.
func (c *CLI) RunSession(ctx context.Context, opts SessionOpts) (*SessionResult, error) {
	args := []string{
		"--dangerously-skip-permissions",
		"-p", opts.Prompt,
		"--model", c.workModel,
		"--max-turns", strconv.Itoa(c.maxTurns),
		"--output-format", "stream-json",
		"--verbose",
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.SystemPrompt)
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = opts.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("agent stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("agent stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start agent: %w", err)
	}

	// Drain stderr so the agent can't block on a full pipe. Only the
	// tail is kept for error reporting.
	errTail := &tailBuffer{limit: errTailLimit}
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		io.Copy(errTail, stderr)
	}()

	res := &SessionResult{}
	for event := range ParseStream(stdout) {
		if opts.OnEvent != nil {
			opts.OnEvent(event)
		}
		if event.Type == EventAssistant {
			res.Turns++
		}
		if event.IsText() {
			res.FinalText = event.Text
		}
		if event.ToolInterrupted {
			res.Interrupted = true
		}
	}

	// Both pipes must be fully read before Wait.
	<-drained
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("agent session: %w", ctx.Err())
		}
		tail := strings.TrimSpace(errTail.String())
		if tail != "" {
			return nil, fmt.Errorf("agent session: %s: %w", tail, err)
		}
		return nil, fmt.Errorf("agent session: %w", err)
	}
	return res, nil
}

// errTailLimit bounds how much trailing stderr is retained for error
// messages.
const errTailLimit = 64 * 1024

// tailBuffer keeps the most recent bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
