package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"issuepilot/internal/db"
)

var eventsCmd = &cobra.Command{
	Use:   "events <run-id>",
	Short: "Show the event log for a run",
	Args:  cobra.ExactArgs(1),
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

		events, err := log.EventsForRun(args[0])
		if err != nil {
			return fmt.Errorf("read events for %q: %w", args[0], err)
		}
		if len(events) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No events for run %q.\n", args[0])
			return nil
		}

		out := cmd.OutOrStdout()
		for _, ev := range events {
			if ev.Detail != "" {
				fmt.Fprintf(out, "%s  %-22s %-12s %s\n", ev.Timestamp, ev.Step, ev.Status, ev.Detail)
			} else {
				fmt.Fprintf(out, "%s  %-22s %s\n", ev.Timestamp, ev.Step, ev.Status)
			}
		}
		return nil
	},
}
