package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const briefingName = "CLAUDE.md"

// WriteBriefing drops the agent briefing into the checkout and adds it
// to .git/info/exclude so it can never end up in a commit.
func WriteBriefing(dir, content string) error {
	if err := os.WriteFile(filepath.Join(dir, briefingName), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write briefing: %w", err)
	}
	return excludeFromGit(dir, briefingName)
}

// RemoveBriefing deletes the briefing file after the agent session.
func RemoveBriefing(dir string) error {
	err := os.Remove(filepath.Join(dir, briefingName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove briefing: %w", err)
	}
	return nil
}

// excludeFromGit appends name to .git/info/exclude if not already there.
func excludeFromGit(dir, name string) error {
	excludePath := filepath.Join(dir, ".git", "info", "exclude")
	if err := os.MkdirAll(filepath.Dir(excludePath), 0o755); err != nil {
		return fmt.Errorf("mkdir .git/info: %w", err)
	}
	existing, err := os.ReadFile(excludePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read git exclude: %w", err)
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == name {
			return nil
		}
	}
	f, err := os.OpenFile(excludePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open git exclude: %w", err)
	}
	defer f.Close()
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("append git exclude: %w", err)
		}
	}
	if _, err := f.WriteString(name + "\n"); err != nil {
		return fmt.Errorf("append git exclude: %w", err)
	}
	return nil
}
