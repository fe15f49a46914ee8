package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iOliverNguyen/git-pr/internal/finalize"
	"github.com/iOliverNguyen/git-pr/internal/rebase"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// RebaseResult reports whether RebaseOntoBase actually moved the stack.
type RebaseResult struct {
	Rebased bool
}

// RebaseOntoBase replays the current stack onto the integration branch's
// tip via G. A clean replay is finalized via H directly; a conflict falls
// back to the host tool's interactive rebase so the user can resolve it
// by hand. If a rebase from a prior invocation is still in progress, the
// operation reports InProgress instead of starting a new one (spec §4.I
// "rebase-onto-base").
func (e *Engine) RebaseOntoBase() (RebaseResult, error) {
	const op = "RebaseOntoBase"

	if dir, inProgress := detectInProgressRebase(e.Repo.Dir); inProgress {
		unmerged, _ := e.Repo.Git("diff", "--name-only", "--diff-filter=U")
		current, _ := e.Repo.Git("rev-parse", "--short", "HEAD")
		return RebaseResult{}, xerrors.Conflict(op, xerrors.InProgress, strings.TrimSpace(current),
			splitLines(unmerged), fmt.Errorf("rebase already in progress at %s", dir))
	}

	_, commits, err := e.preamble(op, preambleOpts{requireClean: true})
	if err != nil {
		return RebaseResult{}, err
	}
	if len(commits) == 0 {
		return RebaseResult{}, nil
	}

	base, err := e.Repo.ResolveShort(e.IntegrationBranch)
	if err != nil {
		return RebaseResult{}, xerrors.Wrap(op, xerrors.NoIntegrationRef, err)
	}

	hashes := make([]string, len(commits))
	for i, c := range commits {
		hashes[i] = c.Hash
	}

	result, err := rebase.Rebase(e.Repo, base, hashes)
	if err != nil {
		if xerrors.Is(err, xerrors.ReorderConflict) {
			if startErr := e.startInteractiveRebase(base); startErr != nil {
				return RebaseResult{}, startErr
			}
			return RebaseResult{}, xerrors.Wrap(op, xerrors.RebaseConflict, err)
		}
		return RebaseResult{}, err
	}

	oldTip := hashes[len(hashes)-1]
	if err := finalize.Finalize(e.Repo, e.Branch, oldTip, result.NewTip); err != nil {
		return RebaseResult{}, err
	}
	return RebaseResult{Rebased: len(result.Mapping) > 0}, nil
}

// startInteractiveRebase hands control to the host tool. `git rebase`
// stops at the first conflicting commit and leaves .git/rebase-merge in
// place for the user to resolve and continue; its non-zero exit in that
// case is expected, not a failure of this operation.
func (e *Engine) startInteractiveRebase(base string) error {
	_, _ = e.Repo.Git("rebase", "-i", base)
	return nil
}

func detectInProgressRebase(dir string) (string, bool) {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		p := filepath.Join(dir, ".git", name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
