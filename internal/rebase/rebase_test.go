package rebase

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

func writeCommit(t *testing.T, dir, fname, content, subject string) string {
	t.Helper()
	if err := os.WriteFile(dir+"/"+fname, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "add", "-A")
	mustRun(t, dir, "commit", "-q", "-m", subject)
	return mustRun(t, dir, "rev-parse", "HEAD")
}

func TestRebaseCleanReplay(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q")
	base := writeCommit(t, dir, "base.txt", "base", "base")
	a := writeCommit(t, dir, "a.txt", "a", "A")
	b := writeCommit(t, dir, "b.txt", "b", "B")

	// a fresh base that doesn't touch a.txt/b.txt, so the replay is clean
	mustRun(t, dir, "checkout", "-q", "-b", "newbase", base)
	onto := writeCommit(t, dir, "onto.txt", "onto", "onto-work")

	repo := gitobj.New(dir)
	result, err := Rebase(repo, onto, []string{a, b})
	assert(t, err == nil).Fatalf("Rebase() error = %v", err)
	assert(t, len(result.Mapping) == 2).Fatalf("expected 2 mapped commits, got %d", len(result.Mapping))
	assert(t, result.NewTip == result.Mapping[b]).Errorf("new tip should be last commit's mapping")

	parents, _ := repo.GetParents(result.Mapping[a])
	assert(t, len(parents) == 1 && parents[0] == onto).Errorf("first rebased commit should parent onto, got %v", parents)
}

func TestRebaseConflict(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q")
	base := writeCommit(t, dir, "f.txt", "base\n", "base")
	a := writeCommit(t, dir, "f.txt", "from-a\n", "A changes f")

	mustRun(t, dir, "checkout", "-q", "-b", "newbase", base)
	onto := writeCommit(t, dir, "f.txt", "from-onto\n", "onto also changes f")

	repo := gitobj.New(dir)
	_, err := Rebase(repo, onto, []string{a})
	assert(t, err != nil).Fatalf("expected conflict error")
}

func TestRebaseEmpty(t *testing.T) {
	repo := gitobj.New(t.TempDir())
	result, err := Rebase(repo, "onto-hash", nil)
	assert(t, err == nil).Fatalf("Rebase() error = %v", err)
	assert(t, result.NewTip == "onto-hash").Errorf("NewTip = %q", result.NewTip)
	assert(t, len(result.Mapping) == 0).Errorf("expected empty mapping")
}
