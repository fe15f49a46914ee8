// Package engine implements component I: the public operations
// (inject-ids, apply-group-spec, dissolve-group, merge-split-group,
// remove-all-group-trailers, rebase-onto-base) composed from components
// F/G/H with side-band updates. It is the orchestration layer the teacher
// never had — main.go called gitRewriteCommits directly — generalized
// here into the shared preamble + dispatch shape spec §4.I describes.
package engine

import (
	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/sideband"
	"github.com/iOliverNguyen/git-pr/internal/stack"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// Engine binds a repository, its side-band store, and the branch/
// integration-branch pair every operation works against.
type Engine struct {
	Repo              *gitobj.Repo
	SideBand          *sideband.DB
	Branch            string // local branch name, e.g. "feature/x"
	IntegrationBranch string // e.g. "origin/main"
}

// New builds an Engine bound to repoDir, resolving the current branch if
// branch is empty.
func New(repoDir, branch, integrationBranch string) (*Engine, error) {
	repo := gitobj.New(repoDir)
	if branch == "" {
		b, err := repo.CurrentBranch()
		if err != nil {
			return nil, xerrors.Wrap("engine.New", xerrors.DetachedHead, err)
		}
		branch = b
	}
	return &Engine{
		Repo:              repo,
		SideBand:          sideband.New(repoDir),
		Branch:            branch,
		IntegrationBranch: integrationBranch,
	}, nil
}

// preambleOpts lets individual operations opt into the stricter
// DirtyWorkingTree check that only rebase-onto-base requires (spec §7).
type preambleOpts struct {
	requireClean bool
}

// preamble runs the checks every public operation shares: refuse a
// detached head, refuse a git without three-way merge-tree, optionally
// refuse a dirty tree, then load and parse the stack.
func (e *Engine) preamble(op string, opts preambleOpts) (units []stack.Unit, commits []stack.Commit, err error) {
	if e.Repo.HeadIsDetached() {
		return nil, nil, xerrors.New(op, xerrors.DetachedHead)
	}
	if err := e.Repo.VersionCheck(); err != nil {
		return nil, nil, xerrors.Wrap(op, xerrors.ToolTooOld, err)
	}
	if opts.requireClean {
		clean, err := e.Repo.IsClean()
		if err != nil {
			return nil, nil, err
		}
		if !clean {
			return nil, nil, xerrors.New(op, xerrors.DirtyWorkingTree)
		}
	}

	commits, err = stack.ReadStack(stack.ReadOpts{
		Repo:              e.Repo,
		IntegrationBranch: e.IntegrationBranch,
		Tip:               "HEAD",
	})
	if err != nil {
		return nil, nil, err
	}
	if len(commits) == 0 {
		return nil, commits, nil
	}

	sb, err := e.SideBand.Read()
	if err != nil {
		return nil, nil, err
	}
	units, err = stack.Parse(commits, stack.ParseOpts{GroupTitles: sb.Groups})
	if err != nil {
		return nil, nil, err // stack.Parse already returns a typed *xerrors.Error
	}
	return units, commits, nil
}

// Units returns the stack as parsed PR units, for the platform adapter
// (submit, land) to turn into branch names and pull requests. The engine
// itself never calls the platform directly (spec §6).
func (e *Engine) Units() ([]stack.Unit, error) {
	units, _, err := e.preamble("Units", preambleOpts{})
	return units, err
}

// forkPoint resolves the merge base the stack is built on, the `onto`
// argument a reorder hands to component G (rebase-onto-base passes the
// integration branch tip instead).
func (e *Engine) forkPoint() (string, error) {
	if !e.Repo.RefExists(e.IntegrationBranch) {
		return "", xerrors.New("forkPoint", xerrors.NoIntegrationRef)
	}
	return e.Repo.MergeBase(e.IntegrationBranch, "HEAD")
}
