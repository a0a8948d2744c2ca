package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"issuepilot/internal/pipeline"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Resume an aborted run from its last completed step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := pipeline.NewStore(filepath.Join(cfg.StateDir, "runs"))
		sess, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("load run %q: %w (use 'issuepilot runs list' to see known runs)", args[0], err)
		}
		return executeRun(cmd, cfg, sess, true)
	},
}
