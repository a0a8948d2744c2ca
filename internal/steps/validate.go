package steps

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"issuepilot/internal/agent"
	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// validatePrerequisites checks both credential domains and resolves the
// GitHub login before anything touches the network for real work.
func (d *Deps) validatePrerequisites(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	if os.Getenv("GH_TOKEN") == "" && os.Getenv("GITHUB_TOKEN") == "" {
		return nil, executor.Auth(
			fmt.Errorf("no GitHub token in environment"),
			"Set GH_TOKEN (or GITHUB_TOKEN) to a GitHub personal access token,\nor run: gh auth login")
	}
	if err := d.GitHub.CheckAuth(); err != nil {
		return nil, executor.Auth(err,
			"GitHub credentials were rejected. Check the token and run: gh auth status")
	}

	if !agent.HasCredentials() {
		return nil, executor.Auth(
			fmt.Errorf("no agent credentials in environment"),
			fmt.Sprintf("Set %s.\nTokens: https://console.anthropic.com/", agent.CredentialHint()))
	}
	if _, err := lookPath(d.Config.Agent.Binary); err != nil {
		return nil, executor.Fatal(fmt.Errorf("agent binary %q not on PATH: %w", d.Config.Agent.Binary, err))
	}

	login, err := d.GitHub.Login()
	if err != nil {
		return nil, executor.Transient(err)
	}
	d.info("authenticated as %s", login)

	return func(pc *pipeline.Context) { pc.Login = login }, nil
}
