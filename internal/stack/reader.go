package stack

import (
	"strings"

	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/logx"
	"github.com/iOliverNguyen/git-pr/internal/trailer"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// ReadOpts parameterizes ReadStack, grounded on the teacher's
// getStackedCommits(base, target) signature in git.go.
type ReadOpts struct {
	Repo              *gitobj.Repo
	IntegrationBranch string // e.g. "origin/main"
	Tip               string // e.g. "HEAD"
}

// ReadStack enumerates merge_base(Tip, IntegrationBranch)..Tip oldest
// first, attaching parsed trailers to each commit (component D). An empty
// range yields an empty list without error; an unresolvable integration
// branch yields a typed NoIntegrationBranch error.
func ReadStack(opts ReadOpts) ([]Commit, error) {
	if !opts.Repo.RefExists(opts.IntegrationBranch) {
		return nil, xerrors.New("ReadStack", xerrors.NoIntegrationRef)
	}
	base, err := opts.Repo.MergeBase(opts.IntegrationBranch, opts.Tip)
	if err != nil {
		return nil, xerrors.Wrap("ReadStack", xerrors.NoIntegrationRef, err)
	}
	hashes, err := listCommits(opts.Repo, base, opts.Tip)
	if err != nil {
		return nil, err
	}
	commits := make([]Commit, 0, len(hashes))
	for _, h := range hashes {
		c, err := loadCommit(opts.Repo, h)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	logx.Debugf("stack.ReadStack: %d commits between %s and %s", len(commits), gitobj.Short(base), opts.Tip)
	return commits, nil
}

// listCommits returns hashes oldest-first in base..tip, mirroring the
// teacher's gitLogs(100, "base..target") + revert(list) in git.go, but
// without the 100-commit cap (the cap was an artifact of the teacher's
// fixed-size `git log -N`; here we ask git for the full range directly).
func listCommits(repo *gitobj.Repo, base, tip string) ([]string, error) {
	out, err := repo.Git("rev-list", "--reverse", base+".."+tip)
	if err != nil {
		return nil, xerrors.Wrap("ReadStack", xerrors.ObjectMissing, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func loadCommit(repo *gitobj.Repo, hash string) (Commit, error) {
	body, err := repo.GetMessage(hash)
	if err != nil {
		return Commit{}, err
	}
	subject, _, _ := strings.Cut(body, "\n")
	trailers, err := trailer.Parse(body)
	if err != nil {
		return Commit{}, err
	}
	id, err := repo.GetAuthorAndCommitter(hash)
	if err != nil {
		return Commit{}, err
	}
	return Commit{
		Hash:        hash,
		Subject:     strings.TrimSpace(subject),
		Body:        body,
		Trailers:    trailers,
		AuthorEmail: id.AuthorEmail,
	}, nil
}
