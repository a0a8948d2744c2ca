package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"issuepilot/internal/executor"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/repo"
)

// forkAndClone forks the upstream into the user's account, clones the
// fork under the run directory, and collects the repository material
// the later prompts need.
func (d *Deps) forkAndClone(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	fork, err := d.GitHub.Fork(pc.Repo, pc.Login)
	if err != nil {
		return nil, executor.Transient(err)
	}
	d.info("fork: %s", fork)

	path := filepath.Join(d.Store.RunDir(pc.RunID), "repo")
	// A failed earlier attempt may have left a partial clone behind.
	if err := os.RemoveAll(path); err != nil {
		return nil, executor.Fatal(fmt.Errorf("clear checkout dir: %w", err))
	}

	clone, err := d.Checkout.Clone(fork, pc.Repo, path)
	if err != nil {
		return nil, executor.Transient(err)
	}
	if err := d.Checkout.EnsureIdentity(clone.Path); err != nil {
		return nil, executor.Fatal(err)
	}
	d.info("cloned to %s (default branch %s)", clone.Path, clone.DefaultBranch)

	guidelines := repo.ReadGuidelines(clone.Path, d.Config.Limits.GuidelineLines)
	repoContext := repo.GatherContext(clone.Path, d.Config.Limits.ReadmeLines)
	if guidelines != "" {
		d.info("found contributing guidelines")
	}

	return func(pc *pipeline.Context) {
		pc.Fork = fork
		pc.CheckoutPath = clone.Path
		pc.DefaultBranch = clone.DefaultBranch
		pc.Guidelines = guidelines
		pc.RepoContext = repoContext
	}, nil
}
