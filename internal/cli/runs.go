package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"issuepilot/internal/analytics"
	"issuepilot/internal/db"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/steps"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored pipeline runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := pipeline.NewStore(filepath.Join(cfg.StateDir, "runs"))
		sessions, err := store.List()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-10s %-32s %-8s %-10s %s\n", "RUN", "REPO", "ISSUE", "STEPS", "UPDATED")
		for _, s := range sessions {
			repo := s.Context.Repo
			if repo == "" {
				repo = "-"
			}
			issue := "-"
			if s.Context.Issue != nil {
				issue = fmt.Sprintf("#%d", s.Context.Issue.Number)
			}
			fmt.Fprintf(out, "%-10s %-32s %-8s %-10s %s\n",
				s.RunID, repo, issue,
				fmt.Sprintf("%d/%d", len(s.CompletedSteps), len(steps.Order)),
				s.UpdatedAt)
		}
		return nil
	},
}

var statsSince string

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate step timings and outcomes across runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer log.Close()
		if err := log.Migrate(); err != nil {
			return fmt.Errorf("migrate event log: %w", err)
		}

		outcomes, err := analytics.QueryOutcomes(log, statsSince)
		if err != nil {
			return err
		}
		durations, err := analytics.QueryStepDurations(log, statsSince)
		if err != nil {
			return err
		}
		failures, err := analytics.QueryStepFailureRates(log, statsSince)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Runs: %d started, %d finished, %d aborted, %d step retries\n\n",
			outcomes.Started, outcomes.Finished, outcomes.Aborted, outcomes.Retries)
		if len(durations) == 0 {
			fmt.Fprintln(out, "No completed steps recorded.")
			return nil
		}
		fmt.Fprintf(out, "%-24s %-6s %-8s %-8s %s\n", "STEP", "RUNS", "AVG(s)", "P50(s)", "P95(s)")
		for _, dur := range durations {
			fmt.Fprintf(out, "%-24s %-6d %-8.1f %-8.1f %.1f\n", dur.Step, dur.Count, dur.Avg, dur.P50, dur.P95)
		}
		if len(failures) > 0 {
			fmt.Fprintf(out, "\n%-24s %-6s %s\n", "STEP", "TOTAL", "FAILED%")
			for _, f := range failures {
				fmt.Fprintf(out, "%-24s %-6d %.1f\n", f.Step, f.Total, f.FailedPct)
			}
		}
		return nil
	},
}

var runsStatusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show the step-by-step status of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := pipeline.NewStore(filepath.Join(cfg.StateDir, "runs"))
		sess, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("load run %q: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s (created %s, updated %s)\n", sess.RunID, sess.CreatedAt, sess.UpdatedAt)
		if sess.Context.Repo != "" {
			fmt.Fprintf(out, "Repository: %s\n", sess.Context.Repo)
		}
		if sess.Context.Issue != nil {
			fmt.Fprintf(out, "Issue:      #%d %s\n", sess.Context.Issue.Number, sess.Context.Issue.Title)
		}
		fmt.Fprintln(out)
		for _, name := range steps.Order {
			mark := " "
			if sess.IsStepComplete(name) {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %s\n", mark, name)
		}
		if next := sess.NextStep(steps.Order); next != "" {
			fmt.Fprintf(out, "\nNext step: %s (issuepilot resume %s)\n", next, sess.RunID)
		} else {
			fmt.Fprintln(out, "\nRun complete.")
		}
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().StringVar(&statsSince, "since", "", "only count events at or after this timestamp (YYYY-MM-DD HH:MM:SS)")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsStatsCmd)
}
