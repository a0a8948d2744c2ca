// Package config loads issuepilot configuration from YAML with sane defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full issuepilot configuration.
type Config struct {
	// StateDir holds run sessions and the event database.
	StateDir string `yaml:"state_dir"`
	// DBPath is the sqlite event log. Defaults to <state_dir>/events.db.
	DBPath string `yaml:"db_path"`

	Agent  AgentConfig  `yaml:"agent"`
	Retry  RetryConfig  `yaml:"retry"`
	Search SearchConfig `yaml:"search"`
	Limits LimitsConfig `yaml:"limits"`
}

// AgentConfig controls the coding agent subprocess.
type AgentConfig struct {
	// Binary is the agent CLI executable name or path.
	Binary string `yaml:"binary"`
	// QuickModel answers short one-shot questions (repo picking, branch names).
	QuickModel string `yaml:"quick_model"`
	// WorkModel performs the implementation session.
	WorkModel string `yaml:"work_model"`
	// MaxTurns bounds agentic turns in the implementation session.
	MaxTurns int `yaml:"max_turns"`
}

// RetryConfig bounds automatic retries of transient step failures.
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries"`
	PauseSecs  int `yaml:"pause_secs"`
}

// SearchConfig tunes issue and repository discovery.
type SearchConfig struct {
	// IssueLimit caps how many open issues are fetched per repository.
	IssueLimit int `yaml:"issue_limit"`
	// RepoLimit caps repository search results.
	RepoLimit int `yaml:"repo_limit"`
	// MinStars filters repository search results.
	MinStars int `yaml:"min_stars"`
	// DefaultIssueQuery finds newcomer-friendly issues when the user
	// gives no --find filter.
	DefaultIssueQuery string `yaml:"default_issue_query"`
	// SkipLabels marks issues that are not coding work.
	SkipLabels []string `yaml:"skip_labels"`
	// WIPLabels marks issues someone already claimed.
	WIPLabels []string `yaml:"wip_labels"`
}

// LimitsConfig caps content sizes fed to the agent and the hosting API.
type LimitsConfig struct {
	// DiffBytes caps the diff captured for review.
	DiffBytes int `yaml:"diff_bytes"`
	// DescriptionDiffBytes caps the diff excerpt in the description prompt.
	DescriptionDiffBytes int `yaml:"description_diff_bytes"`
	// GuidelineLines caps lines read from each contributing guideline file.
	GuidelineLines int `yaml:"guideline_lines"`
	// ReadmeLines caps lines read from the repository README.
	ReadmeLines int `yaml:"readme_lines"`
	// CompareURLChars caps the compare link length before the body is dropped.
	CompareURLChars int `yaml:"compare_url_chars"`
}

// Default returns the built-in configuration. Every field is usable
// without a config file.
func Default() Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".issuepilot")
	return Config{
		StateDir: stateDir,
		DBPath:   filepath.Join(stateDir, "events.db"),
		Agent: AgentConfig{
			Binary:     "claude",
			QuickModel: "claude-3-5-haiku-latest",
			WorkModel:  "claude-sonnet-4-20250514",
			MaxTurns:   80,
		},
		Retry: RetryConfig{
			MaxRetries: 1,
			PauseSecs:  2,
		},
		Search: SearchConfig{
			IssueLimit:        30,
			RepoLimit:         10,
			MinStars:          10,
			DefaultIssueQuery: "easy beginner-friendly good first issue",
			SkipLabels: []string{
				"question", "discussion", "support", "wontfix",
				"duplicate", "invalid", "needs info", "needs-info",
				"blocked", "on hold", "design", "rfc", "epic", "meta",
			},
			WIPLabels: []string{
				"in progress", "in-progress", "wip", "claimed",
				"assigned", "has-pr", "fix-in-progress",
			},
		},
		Limits: LimitsConfig{
			DiffBytes:            50 * 1024,
			DescriptionDiffBytes: 20 * 1024,
			GuidelineLines:       200,
			ReadmeLines:          100,
			CompareURLChars:      8000,
		},
	}
}

// Load reads a YAML config from path and fills unset fields with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadDefault resolves the config file location: the ISSUEPILOT_CONFIG
// environment variable, then ~/.issuepilot/config.yaml. Missing files are
// fine; the defaults stand alone.
func LoadDefault() (Config, error) {
	if p := os.Getenv("ISSUEPILOT_CONFIG"); p != "" {
		return Load(p)
	}
	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".issuepilot", "config.yaml")
		if _, statErr := os.Stat(p); statErr == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// applyDefaults backfills zero values left by a partial YAML file.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.StateDir == "" {
		cfg.StateDir = def.StateDir
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.StateDir, "events.db")
	}
	if cfg.Agent.Binary == "" {
		cfg.Agent.Binary = def.Agent.Binary
	}
	if cfg.Agent.QuickModel == "" {
		cfg.Agent.QuickModel = def.Agent.QuickModel
	}
	if cfg.Agent.WorkModel == "" {
		cfg.Agent.WorkModel = def.Agent.WorkModel
	}
	if cfg.Agent.MaxTurns == 0 {
		cfg.Agent.MaxTurns = def.Agent.MaxTurns
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = def.Retry.MaxRetries
	}
	if cfg.Retry.PauseSecs == 0 {
		cfg.Retry.PauseSecs = def.Retry.PauseSecs
	}
	if cfg.Search.IssueLimit == 0 {
		cfg.Search.IssueLimit = def.Search.IssueLimit
	}
	if cfg.Search.RepoLimit == 0 {
		cfg.Search.RepoLimit = def.Search.RepoLimit
	}
	if cfg.Search.MinStars == 0 {
		cfg.Search.MinStars = def.Search.MinStars
	}
	if cfg.Search.DefaultIssueQuery == "" {
		cfg.Search.DefaultIssueQuery = def.Search.DefaultIssueQuery
	}
	if len(cfg.Search.SkipLabels) == 0 {
		cfg.Search.SkipLabels = def.Search.SkipLabels
	}
	if len(cfg.Search.WIPLabels) == 0 {
		cfg.Search.WIPLabels = def.Search.WIPLabels
	}
	if cfg.Limits.DiffBytes == 0 {
		cfg.Limits.DiffBytes = def.Limits.DiffBytes
	}
	if cfg.Limits.DescriptionDiffBytes == 0 {
		cfg.Limits.DescriptionDiffBytes = def.Limits.DescriptionDiffBytes
	}
	if cfg.Limits.GuidelineLines == 0 {
		cfg.Limits.GuidelineLines = def.Limits.GuidelineLines
	}
	if cfg.Limits.ReadmeLines == 0 {
		cfg.Limits.ReadmeLines = def.Limits.ReadmeLines
	}
	if cfg.Limits.CompareURLChars == 0 {
		cfg.Limits.CompareURLChars = def.Limits.CompareURLChars
	}
}
