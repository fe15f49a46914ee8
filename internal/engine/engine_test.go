package engine

import (
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
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

// setupRepo creates a repo with an initial commit on main, then checks out
// "feature" for the caller to build a stack on top of.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, "init", "-q", "-b", "main")
	if err := os.WriteFile(dir+"/base.txt", []byte("base"), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "add", "-A")
	mustRun(t, dir, "commit", "-q", "-m", "base")
	mustRun(t, dir, "checkout", "-q", "-b", "feature")
	return dir
}

func commitWithMessage(t *testing.T, dir, fname, content, message string) string {
	t.Helper()
	if err := os.WriteFile(dir+"/"+fname, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "add", "-A")
	mustRun(t, dir, "commit", "-q", "-m", message)
	return mustRun(t, dir, "rev-parse", "HEAD")
}

func body(t *testing.T, dir, hash string) string {
	t.Helper()
	return mustRun(t, dir, "show", "-s", "--format=%B", hash)
}

var hex8 = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestInjectIDsS1(t *testing.T) {
	dir := setupRepo(t)
	commitWithMessage(t, dir, "a.txt", "a", "A")
	commitWithMessage(t, dir, "b.txt", "b", "B")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	result, err := e.InjectIDs()
	assert(t, err == nil).Fatalf("InjectIDs() error = %v", err)
	assert(t, result.Modified == 2).Errorf("Modified = %d, want 2", result.Modified)

	hashes := strings.Split(mustRun(t, dir, "rev-list", "--reverse", "main..feature"), "\n")
	assert(t, len(hashes) == 2).Fatalf("expected 2 commits, got %d", len(hashes))
	for _, h := range hashes {
		b := body(t, dir, h)
		assert(t, strings.Contains(b, "Commit-Id:")).Errorf("missing Commit-Id in %q", b)
	}
}

func TestInjectIDsS2MixedPreserved(t *testing.T) {
	dir := setupRepo(t)
	commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: existing1\n")
	commitWithMessage(t, dir, "b.txt", "b", "B")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	_, err = e.InjectIDs()
	assert(t, err == nil).Fatalf("InjectIDs() error = %v", err)

	hashes := strings.Split(mustRun(t, dir, "rev-list", "--reverse", "main..feature"), "\n")
	firstBody := body(t, dir, hashes[0])
	secondBody := body(t, dir, hashes[1])
	assert(t, strings.Contains(firstBody, "Commit-Id: existing1")).Errorf("first commit id changed: %q", firstBody)
	assert(t, !strings.Contains(secondBody, "existing1")).Errorf("second commit id collided: %q", secondBody)
	assert(t, strings.Contains(secondBody, "Commit-Id:")).Errorf("second commit missing id: %q", secondBody)
}

func TestInjectIDsNoopWhenAllPresent(t *testing.T) {
	dir := setupRepo(t)
	commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: aaaaaaaa\n")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	result, err := e.InjectIDs()
	assert(t, err == nil).Fatalf("InjectIDs() error = %v", err)
	assert(t, result.Modified == 0).Errorf("Modified = %d, want 0", result.Modified)
}

func TestApplyGroupSpecS3FormGroup(t *testing.T) {
	dir := setupRepo(t)
	h1 := commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: aaaaaaaa\n")
	h2 := commitWithMessage(t, dir, "b.txt", "b", "B\n\nCommit-Id: bbbbbbbb\n")
	h3 := commitWithMessage(t, dir, "c.txt", "c", "C\n\nCommit-Id: cccccccc\n")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	result, err := e.ApplyGroupSpec(GroupSpec{
		Groups: []GroupSpecEntry{{Commits: []string{h1, h2, h3}, Name: "G"}},
	})
	assert(t, err == nil).Fatalf("ApplyGroupSpec() error = %v", err)
	assert(t, result.Modified == 3).Errorf("Modified = %d, want 3", result.Modified)

	sb, err := e.SideBand.Read()
	assert(t, err == nil).Fatalf("SideBand.Read() error = %v", err)
	assert(t, len(sb.Groups) == 1).Fatalf("expected 1 side-band group, got %d", len(sb.Groups))
	for _, title := range sb.Groups {
		assert(t, title == "G").Errorf("title = %q, want G", title)
	}

	hashes := strings.Split(mustRun(t, dir, "rev-list", "--reverse", "main..feature"), "\n")
	assert(t, len(hashes) == 3).Fatalf("expected 3 commits, got %d", len(hashes))
	var groupID string
	for _, h := range hashes {
		b := body(t, dir, h)
		assert(t, strings.Contains(b, "Group:")).Errorf("missing Group trailer in %q", b)
		for _, line := range strings.Split(b, "\n") {
			if strings.HasPrefix(line, "Group:") {
				id := strings.TrimSpace(strings.TrimPrefix(line, "Group:"))
				if groupID == "" {
					groupID = id
				}
				assert(t, id == groupID).Errorf("group id mismatch: %q vs %q", id, groupID)
			}
		}
	}
}

func TestApplyGroupSpecS4NonContiguousRejected(t *testing.T) {
	dir := setupRepo(t)
	h1 := commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: aaaaaaaa\n")
	_ = commitWithMessage(t, dir, "b.txt", "b", "B\n\nCommit-Id: bbbbbbbb\n")
	h3 := commitWithMessage(t, dir, "c.txt", "c", "C\n\nCommit-Id: cccccccc\n")

	oldTip := mustRun(t, dir, "rev-parse", "feature")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	_, err = e.ApplyGroupSpec(GroupSpec{
		Groups: []GroupSpecEntry{{Commits: []string{h1, h3}, Name: "Bad"}},
	})
	assert(t, err != nil).Fatalf("expected NonContiguous error")

	newTip := mustRun(t, dir, "rev-parse", "feature")
	assert(t, newTip == oldTip).Errorf("branch ref moved on rejected spec: %s != %s", newTip, oldTip)
}

func TestDissolveGroupS5Inheritance(t *testing.T) {
	dir := setupRepo(t)
	commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: c1\nGroup: g1\n")
	h2 := commitWithMessage(t, dir, "b.txt", "b", "B\n\nCommit-Id: c2\nGroup: g1\n")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	sb, _ := e.SideBand.Read()
	sb.Groups["g1"] = "G"
	assert(t, e.SideBand.Write(sb) == nil).Fatalf("SideBand.Write() failed")

	_, err = e.DissolveGroup("g1", h2)
	assert(t, err == nil).Fatalf("DissolveGroup() error = %v", err)

	hashes := strings.Split(mustRun(t, dir, "rev-list", "--reverse", "main..feature"), "\n")
	firstBody := body(t, dir, hashes[0])
	secondBody := body(t, dir, hashes[1])
	assert(t, !strings.Contains(firstBody, "Group:")).Errorf("first commit still has Group: %q", firstBody)
	assert(t, !strings.Contains(secondBody, "Group:")).Errorf("second commit still has Group: %q", secondBody)
	assert(t, strings.Contains(firstBody, "Commit-Id: c1")).Errorf("first commit id changed: %q", firstBody)
	assert(t, strings.Contains(secondBody, "Commit-Id: g1")).Errorf("second commit did not inherit group id: %q", secondBody)

	sb2, err := e.SideBand.Read()
	assert(t, err == nil).Fatalf("SideBand.Read() error = %v", err)
	_, stillThere := sb2.Groups["g1"]
	assert(t, !stillThere).Errorf("side-band title for g1 was not deleted")
}

func TestMergeSplitGroupS6(t *testing.T) {
	dir := setupRepo(t)
	commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: aaaaaaaa\nGroup: g1\n")
	commitWithMessage(t, dir, "b.txt", "b", "B\n\nCommit-Id: bbbbbbbb\n")
	commitWithMessage(t, dir, "c.txt", "c", "C\n\nCommit-Id: cccccccc\nGroup: g1\n")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	sb, _ := e.SideBand.Read()
	sb.Groups["g1"] = "combined"
	assert(t, e.SideBand.Write(sb) == nil).Fatalf("SideBand.Write() failed")

	result, err := e.MergeSplitGroup("g1")
	assert(t, err == nil).Fatalf("MergeSplitGroup() error = %v", err)
	assert(t, result.Reordered).Errorf("expected reorder to happen")

	hashes := strings.Split(mustRun(t, dir, "rev-list", "--reverse", "main..feature"), "\n")
	assert(t, len(hashes) == 3).Fatalf("expected 3 commits, got %d", len(hashes))
	subjects := make([]string, 3)
	for i, h := range hashes {
		b := body(t, dir, h)
		subjects[i], _, _ = strings.Cut(b, "\n")
	}
	assert(t, subjects[0] == "B").Errorf("order[0] = %q, want B", subjects[0])
	assert(t, strings.Contains(body(t, dir, hashes[1]), "Group: g1")).Errorf("order[1] missing Group: g1")
	assert(t, strings.Contains(body(t, dir, hashes[2]), "Group: g1")).Errorf("order[2] missing Group: g1")
}

func TestRemoveAllGroupTrailers(t *testing.T) {
	dir := setupRepo(t)
	commitWithMessage(t, dir, "a.txt", "a", "A\n\nCommit-Id: aaaaaaaa\nGroup: g1\nGroup-Title: old\n")
	commitWithMessage(t, dir, "b.txt", "b", "B\n\nCommit-Id: bbbbbbbb\n")

	e, err := New(dir, "", "main")
	assert(t, err == nil).Fatalf("New() error = %v", err)
	modified, err := e.RemoveAllGroupTrailers()
	assert(t, err == nil).Fatalf("RemoveAllGroupTrailers() error = %v", err)
	assert(t, modified == 1).Errorf("modified = %d, want 1", modified)

	hashes := strings.Split(mustRun(t, dir, "rev-list", "--reverse", "main..feature"), "\n")
	b := body(t, dir, hashes[0])
	assert(t, !strings.Contains(b, "Group:")).Errorf("Group trailer survived: %q", b)
	assert(t, !strings.Contains(b, "Group-Title:")).Errorf("Group-Title trailer survived: %q", b)
	assert(t, hex8.MatchString("aaaaaaaa")).Errorf("sanity: regex broken")
}
