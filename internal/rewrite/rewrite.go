// Package rewrite implements component F: building a new commit chain
// with preserved author/committer/tree but arbitrary per-commit message
// edits. It generalizes the teacher's main.go gitRewriteCommits (which
// only ever appended a Remote-Ref trailer) into "apply any hash->message
// map", the shape spec §4.F asks for.
package rewrite

import (
	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// Result is the outcome of RewriteChain: the old->new hash mapping and the
// new tip, for the caller (component I) to hand to the finalizer.
type Result struct {
	Mapping map[string]string
	NewTip  string
}

// RewriteChain rebuilds commits (oldest-first, original hashes) as a new
// chain parented on the same fork point, substituting rewrites[hash] for
// any commit present in that map. Tree, author and committer are preserved
// verbatim for every commit (spec invariants 1 and 2); the root of the
// chain (commits[0]'s original parent) is not rewritten.
func RewriteChain(repo *gitobj.Repo, commits []string, rewrites map[string]string) (Result, error) {
	if len(commits) == 0 {
		return Result{}, xerrors.New("RewriteChain", xerrors.EmptyChain)
	}

	parents, err := repo.GetParents(commits[0])
	if err != nil {
		return Result{}, xerrors.Wrap("RewriteChain", xerrors.ObjectMissing, err)
	}
	parent := ""
	if len(parents) > 0 {
		parent = parents[0]
	}

	mapping := make(map[string]string, len(commits))
	for _, c := range commits {
		tree, err := repo.GetTree(c)
		if err != nil {
			return Result{}, err
		}
		id, err := repo.GetAuthorAndCommitter(c)
		if err != nil {
			return Result{}, err
		}
		message, rewritten := rewrites[c]
		if !rewritten {
			message, err = repo.GetMessage(c)
			if err != nil {
				return Result{}, err
			}
		}

		var newParents []string
		if parent != "" {
			newParents = []string{parent}
		}
		newHash, err := repo.CreateCommit(tree, newParents, message, id)
		if err != nil {
			return Result{}, err
		}
		mapping[c] = newHash
		parent = newHash
	}
	return Result{Mapping: mapping, NewTip: parent}, nil
}
