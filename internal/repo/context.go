package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// guidelineNames are the contributing-guideline files worth reading, in
// the places projects usually keep them.
var guidelineNames = []string{
	"CONTRIBUTING.md",
	"CONTRIBUTING.rst",
	"CONTRIBUTING.txt",
	filepath.Join(".github", "CONTRIBUTING.md"),
	filepath.Join(".github", "PULL_REQUEST_TEMPLATE.md"),
	filepath.Join(".github", "pull_request_template.md"),
}

// metadataNames are package manifests that describe how a project is
// built and tested.
var metadataNames = []string{
	"go.mod", "package.json", "pyproject.toml", "setup.py",
	"Cargo.toml", "Gemfile", "pom.xml", "build.gradle", "Makefile",
}

const metadataMaxBytes = 3 * 1024

// ReadGuidelines collects contributing guidelines from the checkout,
// each truncated to maxLines lines. Returns "" when the project has none.
func ReadGuidelines(dir string, maxLines int) string {
	var sections []string
	for _, name := range guidelineNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		text := firstLines(string(data), maxLines)
		sections = append(sections, fmt.Sprintf("--- %s ---\n%s", name, text))
	}
	return strings.Join(sections, "\n\n")
}

// GatherContext builds a compact description of the repository layout
// for prompting: a two-level file tree, the top of the README, and the
// first package manifest found.
func GatherContext(dir string, readmeLines int) string {
	var b strings.Builder

	b.WriteString("Repository layout:\n")
	b.WriteString(fileTree(dir))

	if readme := readReadme(dir, readmeLines); readme != "" {
		b.WriteString("\nREADME (truncated):\n")
		b.WriteString(readme)
		b.WriteString("\n")
	}

	for _, name := range metadataNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if len(data) > metadataMaxBytes {
			data = data[:metadataMaxBytes]
		}
		fmt.Fprintf(&b, "\n%s:\n%s\n", name, strings.TrimSpace(string(data)))
		break
	}
	return b.String()
}

// fileTree lists the checkout two levels deep, skipping dotdirs.
func fileTree(dir string) string {
	var b strings.Builder
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	sortEntries(entries)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.IsDir() {
			fmt.Fprintf(&b, "  %s\n", e.Name())
			continue
		}
		fmt.Fprintf(&b, "  %s/\n", e.Name())
		subEntries, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		sortEntries(subEntries)
		for _, sub := range subEntries {
			if strings.HasPrefix(sub.Name(), ".") {
				continue
			}
			suffix := ""
			if sub.IsDir() {
				suffix = "/"
			}
			fmt.Fprintf(&b, "    %s%s\n", sub.Name(), suffix)
		}
	}
	return b.String()
}

func sortEntries(entries []os.DirEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
}

func readReadme(dir string, maxLines int) string {
	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		return firstLines(string(data), maxLines)
	}
	return ""
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return strings.TrimRight(s, "\n")
	}
	return strings.Join(lines[:n], "\n")
}
