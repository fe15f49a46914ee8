package finalize

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
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

func TestFinalizeSkipsMaterializeWhenTreeUnchanged(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q", "-b", "main")
	if err := os.WriteFile(dir+"/a.txt", []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "add", "-A")
	mustRun(t, dir, "commit", "-q", "-m", "A")
	oldTip := mustRun(t, dir, "rev-parse", "HEAD")

	// message-only rewrite: same tree, different hash
	repo := gitobj.New(dir)
	tree, _ := repo.GetTree(oldTip)
	id, _ := repo.GetAuthorAndCommitter(oldTip)
	newTip, err := repo.CreateCommit(tree, nil, "A (amended)\n", id)
	assert(t, err == nil).Fatalf("CreateCommit() error = %v", err)

	// leave an untracked file to verify it's undisturbed
	if err := os.WriteFile(dir+"/untracked.txt", []byte("keep-me"), 0644); err != nil {
		t.Fatal(err)
	}

	err = Finalize(repo, "main", oldTip, newTip)
	assert(t, err == nil).Fatalf("Finalize() error = %v", err)

	head := mustRun(t, dir, "rev-parse", "refs/heads/main")
	assert(t, head == newTip).Errorf("branch ref = %s, want %s", head, newTip)

	data, err := os.ReadFile(dir + "/untracked.txt")
	assert(t, err == nil).Fatalf("untracked file missing: %v", err)
	assert(t, string(data) == "keep-me").Errorf("untracked file modified: %q", data)
}

func TestFinalizeRefRaced(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q", "-b", "main")
	if err := os.WriteFile(dir+"/a.txt", []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "add", "-A")
	mustRun(t, dir, "commit", "-q", "-m", "A")
	staleTip := mustRun(t, dir, "rev-parse", "HEAD")
	mustRun(t, dir, "commit", "-q", "--allow-empty", "-m", "B")
	realTip := mustRun(t, dir, "rev-parse", "HEAD")

	// main has already moved from staleTip to realTip, so the compare-and-swap loses
	repo := gitobj.New(dir)
	err := Finalize(repo, "main", staleTip, realTip)
	assert(t, xerrors.Is(err, xerrors.RefRaced)).Fatalf("expected RefRaced error, got %v", err)
}
