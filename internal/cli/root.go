// Package cli wires the issuepilot command surface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"issuepilot/internal/config"
)

var version = "dev"

// SetVersion stamps the build version shown by the version command.
func SetVersion(v string) {
	version = v
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "issuepilot",
	Short: "issuepilot takes an open issue to a ready-to-open pull request",
	Long: `issuepilot picks up an open GitHub issue, has an AI coding agent implement
a fix in a fork, and pushes the branch with a prefilled compare link. It
never opens the pull request; that decision stays with you.

Runs are resumable: state is stored under ~/.issuepilot/ (JSON sessions,
SQLite event log).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $ISSUEPILOT_CONFIG, then ~/.issuepilot/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the active configuration for a command.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return config.Config{}, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Println("config:", e.Error())
		}
		return config.Config{}, fmt.Errorf("invalid configuration (%d problem(s))", len(errs))
	}
	return cfg, nil
}
