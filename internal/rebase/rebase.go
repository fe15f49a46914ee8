// Package rebase implements component G: replaying a list of commits onto
// a new base using simulated three-way merges against each commit's
// original parent, never touching the working tree or index. The teacher
// has no equivalent — its only rewrite path (main.go gitRewriteCommits)
// never changes a commit's logical parent, let alone merges content — so
// this is grounded directly on spec §4.G plus gitobj.MergeTree (component
// A), structured the way gg-scm-gg's internal/gitobj plumbing helpers
// compose: small, single-purpose calls chained by the caller.
package rebase

import (
	"strings"

	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// Result mirrors rewrite.Result; kept separate so rebase and rewrite don't
// need to import each other just to share a struct.
type Result struct {
	Mapping map[string]string
	NewTip  string
}

// Rebase replays commits (oldest-first, original hashes) on top of onto,
// simulating each merge against the commit's original parent. It halts
// atomically on the first conflict: no ref or working tree is modified,
// and the returned error carries the offending commit and diagnostic
// files (spec §4.G, §8 invariant 9).
func Rebase(repo *gitobj.Repo, onto string, commits []string) (Result, error) {
	if len(commits) == 0 {
		return Result{NewTip: onto, Mapping: map[string]string{}}, nil
	}

	mapping := make(map[string]string, len(commits))
	currentTip := onto

	for _, c := range commits {
		parents, err := repo.GetParents(c)
		if err != nil {
			return Result{}, xerrors.Wrap("Rebase", xerrors.ObjectMissing, err)
		}
		originalParent := ""
		if len(parents) > 0 {
			originalParent = parents[0]
		}

		merge, err := repo.MergeTree(originalParent, currentTip, c)
		if err != nil {
			return Result{}, xerrors.Wrap("Rebase", xerrors.ObjectMissing, err)
		}
		if merge.Conflicted {
			return Result{}, xerrors.Conflict("Rebase", xerrors.ReorderConflict, c,
				conflictFiles(merge.Diagnostic), errDiagnostic(merge.Diagnostic))
		}

		message, err := repo.GetMessage(c)
		if err != nil {
			return Result{}, err
		}
		id, err := repo.GetAuthorAndCommitter(c)
		if err != nil {
			return Result{}, err
		}
		// committer is refreshed to the caller's environment, author kept
		// verbatim (spec §4.G step 4, matching standard rebase semantics).
		id.CommitterName = ""
		id.CommitterEmail = ""
		id.CommitterDate = ""

		newHash, err := createWithRefreshedCommitter(repo, merge.TreeID, []string{currentTip}, message, id)
		if err != nil {
			return Result{}, err
		}
		mapping[c] = newHash
		currentTip = newHash
	}
	return Result{Mapping: mapping, NewTip: currentTip}, nil
}

// createWithRefreshedCommitter calls CreateCommit but lets git supply the
// committer identity/timestamp itself (empty committer fields mean "use
// the environment's user.name/user.email and current time"), matching
// standard rebase semantics where the committer is refreshed but the
// author is preserved.
func createWithRefreshedCommitter(repo *gitobj.Repo, tree string, parents []string, message string, id gitobj.Identity) (string, error) {
	if id.CommitterName == "" {
		cfg, err := repo.Git("config", "user.name")
		if err == nil {
			id.CommitterName = strings.TrimSpace(cfg)
		}
		email, err := repo.Git("config", "user.email")
		if err == nil {
			id.CommitterEmail = strings.TrimSpace(email)
		}
	}
	return repo.CreateCommit(tree, parents, message, id)
}

type diagnosticError string

func (e diagnosticError) Error() string { return string(e) }

func errDiagnostic(diag string) error {
	if diag == "" {
		return nil
	}
	return diagnosticError(diag)
}

// conflictFiles extracts the file paths named in merge-tree's conflict
// diagnostic, one per "CONFLICT (...): Merge conflict in <path>" line.
func conflictFiles(diagnostic string) []string {
	var files []string
	for _, line := range strings.Split(diagnostic, "\n") {
		const marker = "Merge conflict in "
		if idx := strings.Index(line, marker); idx >= 0 {
			files = append(files, strings.TrimSpace(line[idx+len(marker):]))
		}
	}
	return files
}
