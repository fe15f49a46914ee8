// Package gitobj implements component A of the engine: object-store
// primitives used by everything above it (tree/parent/message/author reads,
// commit creation, three-way tree merge, atomic ref compare-and-swap,
// working-tree materialization). Every other package except internal/trailer
// (which runs `git interpret-trailers` through its own exec.Command call)
// reaches git through here, following the teacher's git.go/exec.go.
package gitobj

import (
	"strconv"
	"strings"

	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// Identity is the six author/committer scalars, each a byte string per
// spec §4.A — kept as plain strings since Go strings are already immutable
// byte sequences; no extra wrapper needed to satisfy "byte string".
type Identity struct {
	AuthorName     string
	AuthorEmail    string
	AuthorDate     string
	CommitterName  string
	CommitterEmail string
	CommitterDate  string
}

// MergeResult is the outcome of MergeTree: either a clean tree, or
// diagnostic bytes describing the conflict.
type MergeResult struct {
	TreeID     string
	Conflicted bool
	Diagnostic string
}

// Repo is a handle on a working copy's object store. Dir is the repository
// root (or any path inside it); empty means the process's cwd.
type Repo struct {
	Dir string
}

func New(dir string) *Repo { return &Repo{Dir: dir} }

func (r *Repo) git(args ...string) (string, error) { return run(r.Dir, nil, args...) }

// Git runs an arbitrary git subcommand against this repo, for callers
// outside this package that need plumbing not otherwise exposed (e.g.
// internal/stack's rev-list enumeration), so they need not call
// exec.Command themselves.
func (r *Repo) Git(args ...string) (string, error) { return r.git(args...) }
func (r *Repo) gitStdin(stdin []byte, args ...string) (string, error) {
	return run(r.Dir, stdin, args...)
}

// GitStdin runs an arbitrary git subcommand with stdin attached, for
// callers outside this package that need to feed git a blob (e.g.
// internal/sideband's hash-object -w --stdin).
func (r *Repo) GitStdin(stdin []byte, args ...string) (string, error) {
	return r.gitStdin(stdin, args...)
}

// GetTree returns the tree identifier of the referenced commit.
func (r *Repo) GetTree(ref string) (string, error) {
	out, err := r.git("rev-parse", "--verify", ref+"^{tree}")
	if err != nil {
		return "", xerrors.Wrap("GetTree", xerrors.ObjectMissing, err)
	}
	return out, nil
}

// GetParents returns the ordered list of parent commit ids, empty for a
// root commit.
func (r *Repo) GetParents(ref string) ([]string, error) {
	out, err := r.git("rev-parse", ref+"^@")
	if err != nil {
		// a root commit has no "^@"; git reports non-zero, not a missing object
		if _, verr := r.git("cat-file", "-e", ref); verr != nil {
			return nil, xerrors.Wrap("GetParents", xerrors.ObjectMissing, verr)
		}
		return nil, nil
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// GetMessage returns the full message body, trailing blank lines trimmed,
// internal formatting preserved.
func (r *Repo) GetMessage(ref string) (string, error) {
	out, err := r.git("show", "-s", "--format=%B", ref)
	if err != nil {
		return "", xerrors.Wrap("GetMessage", xerrors.ObjectMissing, err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// GetAuthorAndCommitter returns the six identity scalars for ref.
func (r *Repo) GetAuthorAndCommitter(ref string) (Identity, error) {
	out, err := r.git("show", "-s",
		"--format=%an%x00%ae%x00%aI%x00%cn%x00%ce%x00%cI", ref)
	if err != nil {
		return Identity{}, xerrors.Wrap("GetAuthorAndCommitter", xerrors.ObjectMissing, err)
	}
	parts := strings.Split(out, "\x00")
	if len(parts) != 6 {
		return Identity{}, xerrors.New("GetAuthorAndCommitter", xerrors.ObjectMissing)
	}
	return Identity{
		AuthorName: parts[0], AuthorEmail: parts[1], AuthorDate: parts[2],
		CommitterName: parts[3], CommitterEmail: parts[4], CommitterDate: parts[5],
	}, nil
}

// CreateCommit builds a new commit object with the given tree, parents,
// message and identity, returning its hash. commit-tree has no flag for
// author/committer, so identity travels via GIT_AUTHOR_*/GIT_COMMITTER_*
// env vars, the same mechanism the teacher's gitRewriteCommits (main.go)
// uses. The message travels over stdin, never interpolated into an argv
// string, so quotes/backticks/newlines survive byte-for-byte (spec §9).
func (r *Repo) CreateCommit(tree string, parents []string, message string, id Identity) (string, error) {
	args := []string{"commit-tree", tree}
	for _, p := range parents {
		args = append(args, "-p", p)
	}
	out, err := runEnv(r.Dir, []byte(message), identityEnv(id), args...)
	if err != nil {
		return "", xerrors.Wrap("CreateCommit", xerrors.ObjectMissing, err)
	}
	return out, nil
}

// identityEnv builds the GIT_AUTHOR_*/GIT_COMMITTER_* assignments for a
// commit-tree invocation, omitting any field left blank so git falls back
// to its own defaults (current user/time) instead of receiving an
// explicitly empty environment variable.
func identityEnv(id Identity) []string {
	var env []string
	add := func(k, v string) {
		if v != "" {
			env = append(env, k+"="+v)
		}
	}
	add("GIT_AUTHOR_NAME", id.AuthorName)
	add("GIT_AUTHOR_EMAIL", id.AuthorEmail)
	add("GIT_AUTHOR_DATE", id.AuthorDate)
	add("GIT_COMMITTER_NAME", id.CommitterName)
	add("GIT_COMMITTER_EMAIL", id.CommitterEmail)
	add("GIT_COMMITTER_DATE", id.CommitterDate)
	return env
}

// MergeTree performs a simulated three-way merge of base/ours/theirs and
// never touches the working tree or index (spec §4.A). Requires a git new
// enough to support `merge-tree --write-tree --merge-base` (checked by
// VersionCheck).
func (r *Repo) MergeTree(base, ours, theirs string) (MergeResult, error) {
	out, err := r.git("merge-tree", "--write-tree", "--merge-base="+base, ours, theirs)
	if err == nil {
		lines := strings.SplitN(out, "\n", 2)
		return MergeResult{TreeID: strings.TrimSpace(lines[0])}, nil
	}
	// merge-tree exits 1 on conflict but still prints the tree id on the
	// first line, followed by conflict diagnostics.
	if rerr, ok := unwrapRunError(err); ok && rerr.exitCode == 1 {
		return MergeResult{Conflicted: true, Diagnostic: rerr.output}, nil
	}
	return MergeResult{}, xerrors.Wrap("MergeTree", xerrors.ObjectMissing, err)
}

func unwrapRunError(err error) (*runError, bool) {
	for err != nil {
		if re, ok := err.(*runError); ok {
			return re, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// UpdateRef atomically compare-and-swaps ref from expectedOld (if
// non-empty) to newVal.
func (r *Repo) UpdateRef(ref, newVal, expectedOld string) error {
	args := []string{"update-ref", ref, newVal}
	if expectedOld != "" {
		args = append(args, expectedOld)
	}
	if _, err := r.git(args...); err != nil {
		return xerrors.Wrap("UpdateRef", xerrors.RefRaced, err)
	}
	return nil
}

// Materialize forcibly resets the working tree to match ref.
func (r *Repo) Materialize(ref string) error {
	if _, err := r.git("reset", "--hard", ref); err != nil {
		return xerrors.Wrap("Materialize", xerrors.ObjectMissing, err)
	}
	return nil
}

// ResolveShort resolves a short hash, or any other revision git understands
// (a branch, a remote-tracking ref), to a full hash. Commit-Id trailers are
// not looked up.
func (r *Repo) ResolveShort(prefix string) (string, error) {
	out, err := r.git("rev-parse", "--verify", prefix)
	if err != nil {
		return "", xerrors.Wrap("ResolveShort", xerrors.UnknownRef, err)
	}
	return out, nil
}

// Short returns an 8-char display prefix, matching the teacher's
// Commit.ShortHash.
func Short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// MergeBase returns the nearest common ancestor of a and b.
func (r *Repo) MergeBase(a, b string) (string, error) {
	out, err := r.git("merge-base", a, b)
	if err != nil {
		return "", xerrors.Wrap("MergeBase", xerrors.NoIntegrationRef, err)
	}
	return out, nil
}

// HeadIsDetached reports whether HEAD is not attached to a branch.
func (r *Repo) HeadIsDetached() bool {
	_, err := r.git("symbolic-ref", "-q", "HEAD")
	return err != nil
}

// CurrentBranch returns the short name of the branch HEAD points to.
func (r *Repo) CurrentBranch() (string, error) {
	out, err := r.git("symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", xerrors.Wrap("CurrentBranch", xerrors.DetachedHead, err)
	}
	return out, nil
}

// IsClean reports whether the working tree and index have no modifications
// to tracked files. Untracked files are ignored and never make the tree
// dirty; only rebase-onto-base runs this check (spec §7 Precondition /
// DirtyWorkingTree).
func (r *Repo) IsClean() (bool, error) {
	out, err := r.git("status", "--porcelain=v1", "--untracked-files=no")
	if err != nil {
		return false, xerrors.Wrap("IsClean", xerrors.ObjectMissing, err)
	}
	return strings.TrimSpace(out) == "", nil
}

// RefExists reports whether ref resolves to an object.
func (r *Repo) RefExists(ref string) bool {
	_, err := r.git("rev-parse", "--verify", "--quiet", ref)
	return err == nil
}

// minVersion is the lowest git release whose merge-tree supports
// --write-tree --merge-base.
var minVersion = [3]int{2, 40, 0}

// VersionCheck refuses to proceed when git lacks three-way merge-tree
// semantics (spec §4.A).
func (r *Repo) VersionCheck() error {
	out, err := r.git("version")
	if err != nil {
		return xerrors.Wrap("VersionCheck", xerrors.ToolTooOld, err)
	}
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return xerrors.New("VersionCheck", xerrors.ToolTooOld)
	}
	var v [3]int
	for i, s := range strings.SplitN(fields[2], ".", 3) {
		if i > 2 {
			break
		}
		n, _ := strconv.Atoi(strings.TrimFunc(s, func(r rune) bool { return r < '0' || r > '9' }))
		v[i] = n
	}
	for i := 0; i < 3; i++ {
		if v[i] > minVersion[i] {
			return nil
		}
		if v[i] < minVersion[i] {
			return xerrors.New("VersionCheck", xerrors.ToolTooOld)
		}
	}
	return nil
}

