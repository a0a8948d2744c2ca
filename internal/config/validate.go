package config

import "fmt"

// ValidationError describes one invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a loaded config and returns all problems found.
func Validate(cfg Config) []ValidationError {
	var errs []ValidationError
	if cfg.StateDir == "" {
		errs = append(errs, ValidationError{"state_dir", "must not be empty"})
	}
	if cfg.Agent.Binary == "" {
		errs = append(errs, ValidationError{"agent.binary", "must not be empty"})
	}
	if cfg.Agent.MaxTurns < 1 {
		errs = append(errs, ValidationError{"agent.max_turns", "must be at least 1"})
	}
	if cfg.Retry.MaxRetries < 0 {
		errs = append(errs, ValidationError{"retry.max_retries", "must not be negative"})
	}
	if cfg.Retry.PauseSecs < 0 {
		errs = append(errs, ValidationError{"retry.pause_secs", "must not be negative"})
	}
	if cfg.Search.IssueLimit < 1 {
		errs = append(errs, ValidationError{"search.issue_limit", "must be at least 1"})
	}
	if cfg.Search.RepoLimit < 1 {
		errs = append(errs, ValidationError{"search.repo_limit", "must be at least 1"})
	}
	if cfg.Limits.DiffBytes < 1024 {
		errs = append(errs, ValidationError{"limits.diff_bytes", "must be at least 1024"})
	}
	if cfg.Limits.DescriptionDiffBytes > cfg.Limits.DiffBytes {
		errs = append(errs, ValidationError{"limits.description_diff_bytes", "must not exceed limits.diff_bytes"})
	}
	return errs
}
