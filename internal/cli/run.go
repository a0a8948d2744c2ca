package cli

import (
	"github.com/spf13/cobra"

	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
)

var (
	flagRepo     string
	flagFindRepo string
	flagIssue    int
	flagFind     string
	flagVerbose  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a new issue-to-branch pipeline run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateSelectors(flagRepo, flagFindRepo, flagIssue, flagFind); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sess := pipeline.NewSession(pipeline.Context{
			RunID:     pipeline.NewRunID(),
			Verbose:   flagVerbose,
			RepoArg:   flagRepo,
			FindRepo:  flagFindRepo,
			IssueArg:  flagIssue,
			FindIssue: flagFind,
		})
		return executeRun(cmd, cfg, sess, false)
	},
}

func init() {
	runCmd.Flags().StringVar(&flagRepo, "repo", "", "target repository as owner/name")
	runCmd.Flags().StringVar(&flagFindRepo, "find-repo", "", "find a repository from a description")
	runCmd.Flags().IntVar(&flagIssue, "issue", 0, "issue number to work on")
	runCmd.Flags().StringVar(&flagFind, "find", "", "find an issue matching a description")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "show agent activity while it works")
}

// validateSelectors rejects every forbidden flag combination before any
// collaborator is touched.
func validateSelectors(repo, findRepo string, issue int, find string) error {
	if repo == "" && findRepo == "" {
		return executor.Usage("one of --repo or --find-repo is required")
	}
	if repo != "" && findRepo != "" {
		return executor.Usage("--repo and --find-repo are mutually exclusive")
	}
	if issue != 0 && find != "" {
		return executor.Usage("--issue and --find are mutually exclusive")
	}
	if findRepo != "" && issue != 0 {
		return executor.Usage("--issue requires --repo: issue numbers are repository-specific")
	}
	if issue < 0 {
		return executor.Usage("--issue must be a positive issue number")
	}
	return nil
}
