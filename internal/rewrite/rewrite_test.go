package rewrite

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/iOliverNguyen/git-pr/internal/gitobj"
)

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

func setupRepo(t *testing.T) (*gitobj.Repo, []string) {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q")
	var hashes []string
	for _, subject := range []string{"A", "B", "C"} {
		fname := dir + "/" + subject + ".txt"
		if err := os.WriteFile(fname, []byte(subject), 0644); err != nil {
			t.Fatal(err)
		}
		mustRun(t, dir, "add", "-A")
		mustRun(t, dir, "commit", "-q", "-m", subject)
		hashes = append(hashes, mustRun(t, dir, "rev-parse", "HEAD"))
	}
	return gitobj.New(dir), hashes
}

func TestRewriteChainPreservesTreeAndAuthor(t *testing.T) {
	repo, hashes := setupRepo(t)
	rewrites := map[string]string{hashes[1]: "B (amended)\n"}

	result, err := RewriteChain(repo, hashes, rewrites)
	assert(t, err == nil).Fatalf("RewriteChain() error = %v", err)
	assert(t, len(result.Mapping) == 3).Fatalf("expected 3 mapped commits, got %d", len(result.Mapping))

	for i, h := range hashes {
		newHash := result.Mapping[h]
		// hashes[0] keeps its message, tree, parent and identity, so it is
		// recreated byte-for-byte under the same hash; every later commit has
		// a rewritten message or a new parent and must get a new hash.
		assert(t, newHash != "" && (newHash == h) == (i == 0)).Errorf("commit %s remapped to %s", h, newHash)

		oldTree, _ := repo.GetTree(h)
		newTree, _ := repo.GetTree(newHash)
		assert(t, oldTree == newTree).Errorf("tree changed for %s: %s != %s", h, oldTree, newTree)

		oldID, _ := repo.GetAuthorAndCommitter(h)
		newID, _ := repo.GetAuthorAndCommitter(newHash)
		assert(t, oldID.AuthorName == newID.AuthorName && oldID.AuthorEmail == newID.AuthorEmail).
			Errorf("author changed for %s", h)
	}

	msg, err := repo.GetMessage(result.Mapping[hashes[1]])
	assert(t, err == nil).Fatalf("GetMessage() error = %v", err)
	assert(t, strings.Contains(msg, "B (amended)")).Errorf("message not rewritten: %q", msg)
}

func TestRewriteChainEmpty(t *testing.T) {
	repo := gitobj.New(t.TempDir())
	_, err := RewriteChain(repo, nil, nil)
	assert(t, err != nil).Fatalf("expected EmptyChain error")
}

func TestRewriteChainParentPreserved(t *testing.T) {
	repo, hashes := setupRepo(t)
	result, err := RewriteChain(repo, hashes, nil)
	assert(t, err == nil).Fatalf("RewriteChain() error = %v", err)

	firstNewParents, err := repo.GetParents(result.Mapping[hashes[0]])
	assert(t, err == nil).Fatalf("GetParents() error = %v", err)
	origFirstParents, _ := repo.GetParents(hashes[0])
	assert(t, strings.Join(firstNewParents, ",") == strings.Join(origFirstParents, ",")).
		Errorf("root parent changed: %v != %v", firstNewParents, origFirstParents)

	secondParents, err := repo.GetParents(result.Mapping[hashes[1]])
	assert(t, err == nil).Fatalf("GetParents() error = %v", err)
	assert(t, len(secondParents) == 1 && secondParents[0] == result.Mapping[hashes[0]]).
		Errorf("chain parent mismatch: %v", secondParents)
}
