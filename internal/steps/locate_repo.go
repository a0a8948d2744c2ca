package steps

import (
	"context"
	"fmt"

	"issuepilot/internal/executor"
	"issuepilot/internal/github"
	"issuepilot/internal/pipeline"
	"issuepilot/internal/selection"
)

// locateRepository resolves the target repository from either an
// explicit owner/name or a natural-language search.
func (d *Deps) locateRepository(ctx context.Context, pc *pipeline.Context) (func(*pipeline.Context), error) {
	if pc.RepoArg != "" {
		r, err := d.GitHub.GetRepo(pc.RepoArg)
		if err != nil {
			return nil, executor.UserActionable(err,
				fmt.Sprintf("Repository %q could not be loaded. Check the owner/name spelling and that it is public.", pc.RepoArg))
		}
		d.info("repository: %s", r.FullName)
		return func(pc *pipeline.Context) { pc.Repo = r.FullName }, nil
	}

	repos, err := d.GitHub.SearchRepos(pc.FindRepo, d.Config.Search.RepoLimit, d.Config.Search.MinStars)
	if err != nil {
		return nil, executor.Transient(err)
	}
	if len(repos) == 0 {
		return nil, executor.UserActionable(
			fmt.Errorf("no repositories matched %q", pc.FindRepo),
			"Try a broader description, or pass --repo owner/name directly.")
	}

	chosen, err := selection.PickRepo(ctx, d.Agent, pc.FindRepo, repos)
	if err != nil {
		return nil, executor.Transient(err)
	}
	d.info("repository: %s (%d stars)", chosen.FullName, chosen.Stars)

	// Keep the rest of the matches so issue location can fall back when
	// the chosen repo has nothing workable.
	var rest []github.Repository
	for _, r := range repos {
		if r.FullName != chosen.FullName {
			rest = append(rest, r)
		}
	}
	return func(pc *pipeline.Context) {
		pc.Repo = chosen.FullName
		pc.CandidateRepos = rest
	}, nil
}
