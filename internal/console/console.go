// Package console renders pipeline progress and outcomes for the terminal.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle   = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	linkStyle   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("12"))
)

// Console writes styled output to a terminal stream.
type Console struct {
	out     io.Writer
	verbose bool
}

// New creates a console writing to out.
func New(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

// Banner prints the run header.
func (c *Console) Banner(runID string, resumed bool) {
	action := "Starting run"
	if resumed {
		action = "Resuming run"
	}
	fmt.Fprintf(c.out, "%s %s\n\n", headerStyle.Render(action), dimStyle.Render(runID))
}

// Progress is an executor progress callback.
func (c *Console) Progress(index, total int, step, status string) {
	prefix := dimStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	switch status {
	case "running":
		fmt.Fprintf(c.out, "%s %s\n", prefix, stepStyle.Render(step))
	case "completed":
		fmt.Fprintf(c.out, "%s %s %s\n", prefix, okStyle.Render("✓"), step)
	case "failed":
		fmt.Fprintf(c.out, "%s %s %s\n", prefix, errStyle.Render("✗"), step)
	case "retrying":
		fmt.Fprintf(c.out, "%s %s %s\n", prefix, warnStyle.Render("↻"), step)
	case "skipped":
		if c.verbose {
			fmt.Fprintf(c.out, "%s %s %s\n", prefix, dimStyle.Render("·"), dimStyle.Render(step+" (already done)"))
		}
	}
}

// Info prints a secondary status line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s\n", dimStyle.Render(fmt.Sprintf(format, args...)))
}

// Note prints an unstyled detail line.
func (c *Console) Note(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s\n", fmt.Sprintf(format, args...))
}

// Summary prints the final state after a successful run.
func (c *Console) Summary(sess *pipeline.Session) {
	pctx := &sess.Context
	fmt.Fprintf(c.out, "\n%s\n\n", okStyle.Render("Branch pushed."))
	if pctx.Issue != nil {
		fmt.Fprintf(c.out, "  Issue:  #%d %s\n", pctx.Issue.Number, pctx.Issue.Title)
	}
	fmt.Fprintf(c.out, "  Repo:   %s\n", pctx.Repo)
	fmt.Fprintf(c.out, "  Branch: %s\n", pctx.BranchName)
	if pctx.DiffStat != "" {
		fmt.Fprintf(c.out, "\n%s\n", dimStyle.Render(pctx.DiffStat))
	}
	fmt.Fprintf(c.out, "\n%s\n  %s\n\n", stepStyle.Render("Open a pull request here:"), linkStyle.Render(pctx.CompareURL))
	fmt.Fprintf(c.out, "%s\n", dimStyle.Render("No pull request was created; that part is yours."))
}

// Abort prints why the run stopped and how to pick it back up.
func (c *Console) Abort(sess *pipeline.Session, err error) {
	kind := executor.KindOf(err)
	fmt.Fprintf(c.out, "\n%s %s\n", errStyle.Render("Run aborted:"), err)
	fmt.Fprintf(c.out, "  %s %s\n", dimStyle.Render("error kind:"), kind)

	var sf *executor.StepFailure
	if errors.As(err, &sf) {
		fmt.Fprintf(c.out, "  %s %s\n", dimStyle.Render("failed step:"), sf.Step)
	}
	if n := len(sess.CompletedSteps); n > 0 {
		fmt.Fprintf(c.out, "  %s %s\n", dimStyle.Render("last completed:"), sess.CompletedSteps[n-1])
	}
	if guidance := executor.GuidanceOf(err); guidance != "" {
		fmt.Fprintf(c.out, "\n%s\n", wrapIndent(guidance, "  "))
	}
	if kind != executor.KindUsage {
		fmt.Fprintf(c.out, "\n%s\n  issuepilot resume %s\n", stepStyle.Render("Resume with:"), sess.RunID)
	}
}

func wrapIndent(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
