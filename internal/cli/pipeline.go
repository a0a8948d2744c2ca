package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"issuepilot/internal/agent"
	"issuepilot/internal/config"
	"issuepilot/internal/console"
	"issuepilot/internal/db"
	"issuepilot/internal/executor"
	"issuepilot/internal/github"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/repo"
	"issuepilot/internal/steps"
)

// executeRun drives a session through the pipeline and reports the outcome.
// Shared by run and resume.
func executeRun(cmd *cobra.Command, cfg config.Config, sess *pipeline.Session, resumed bool) error {
	store := pipeline.NewStore(filepath.Join(cfg.StateDir, "runs"))

	events, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer events.Close()
	if err := events.Migrate(); err != nil {
		return fmt.Errorf("migrate event log: %w", err)
	}

	// Persist up front so an abort during the first step is still resumable.
	if err := store.Save(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	out := console.New(cmd.OutOrStdout(), sess.Context.Verbose)
	out.Banner(sess.RunID, resumed)

	runner := &github.ExecRunner{}
	deps := &steps.Deps{
		Config:   cfg,
		GitHub:   github.NewClient(runner),
		Checkout: repo.New(runner, runner),
		Agent:    agent.NewCLI(cfg.Agent.Binary, cfg.Agent.QuickModel, cfg.Agent.WorkModel, cfg.Agent.MaxTurns),
		Store:    store,
		Report:   out,
	}

	r := executor.NewRunner(store, steps.Build(deps), events)
	r.SetProgress(out.Progress)
	r.SetRetryPolicy(cfg.Retry.MaxRetries, time.Duration(cfg.Retry.PauseSecs)*time.Second)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detail := ""
	if resumed {
		detail = "resumed"
	}
	if err := events.AppendEvent(sess.RunID, "pipeline", "run_started", detail); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	if err := r.Run(ctx, sess); err != nil {
		_ = events.AppendEvent(sess.RunID, "pipeline", "run_aborted", err.Error())
		out.Abort(sess, err)
		return err
	}

	if err := events.AppendEvent(sess.RunID, "pipeline", "run_finished", ""); err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	out.Summary(sess)
	return nil
}
