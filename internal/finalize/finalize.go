// Package finalize implements component H: compare old vs new tip trees,
// atomically update the branch ref, and materialize the working tree only
// when tree content actually changed. The tree-comparison short-circuit is
// load-bearing for preserving untracked files (spec §9, §8 invariant 4);
// the teacher has no equivalent since its only rewrite (gitRewriteCommits)
// always stops short of switching the working branch over.
package finalize

import (
	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// Finalize compare-and-swaps refs/heads/<branch> from expectedOldTip to
// newTip, then materializes the working tree only if the tree content
// changed (spec §4.H).
func Finalize(repo *gitobj.Repo, branch, expectedOldTip, newTip string) error {
	oldTree, err := repo.GetTree(expectedOldTip)
	if err != nil {
		return xerrors.Wrap("Finalize", xerrors.ObjectMissing, err)
	}
	newTree, err := repo.GetTree(newTip)
	if err != nil {
		return xerrors.Wrap("Finalize", xerrors.ObjectMissing, err)
	}

	ref := "refs/heads/" + branch
	if err := repo.UpdateRef(ref, newTip, expectedOldTip); err != nil {
		return xerrors.Wrap("Finalize", xerrors.RefRaced, err)
	}

	if oldTree != newTree {
		if err := repo.Materialize(newTip); err != nil {
			return xerrors.Wrap("Finalize", xerrors.ObjectMissing, err)
		}
	}
	return nil
}
