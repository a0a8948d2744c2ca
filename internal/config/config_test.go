package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if errs := Validate(Default()); len(errs) != 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("agent:\n  work_model: test-model\nretry:\n  max_retries: 3\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.WorkModel != "test-model" {
		t.Errorf("WorkModel = %q, want test-model", cfg.Agent.WorkModel)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Retry.MaxRetries)
	}
	def := Default()
	if cfg.Agent.Binary != def.Agent.Binary {
		t.Errorf("Binary = %q, want default %q", cfg.Agent.Binary, def.Agent.Binary)
	}
	if cfg.Limits.DiffBytes != def.Limits.DiffBytes {
		t.Errorf("DiffBytes = %d, want default %d", cfg.Limits.DiffBytes, def.Limits.DiffBytes)
	}
}

func TestLoadZeroRetriesHonored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_retries: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.Retry.MaxRetries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("agent: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadStateDirOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("state_dir: /tmp/custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateDir != "/tmp/custom" {
		t.Errorf("StateDir = %q, want /tmp/custom", cfg.StateDir)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Agent.Binary = ""
	cfg.Retry.MaxRetries = -1
	cfg.Search.IssueLimit = 0
	errs := Validate(cfg)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"agent.binary", "retry.max_retries", "search.issue_limit"} {
		if !fields[f] {
			t.Errorf("missing validation error for %s", f)
		}
	}
}
