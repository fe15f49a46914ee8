package stack

import "testing"

func mkCommit(hash, subject string, trailers map[string]string) Commit {
	if trailers == nil {
		trailers = map[string]string{}
	}
	return Commit{Hash: hash, Subject: subject, Body: subject, Trailers: trailers}
}

func TestParseSingles(t *testing.T) {
	commits := []Commit{
		mkCommit("h1", "A", map[string]string{"Commit-Id": "aaaaaaaa"}),
		mkCommit("h2", "B", map[string]string{"Commit-Id": "bbbbbbbb"}),
	}
	units, err := Parse(commits, ParseOpts{})
	assert(t, err == nil).Fatalf("Parse() error = %v", err)
	assert(t, len(units) == 2).Fatalf("expected 2 units, got %d", len(units))
	assert(t, units[0].Kind == KindSingle).Errorf("unit 0 kind")
	assert(t, units[0].ID == "aaaaaaaa").Errorf("unit 0 id = %q", units[0].ID)
}

func TestParseMissingIDStrict(t *testing.T) {
	commits := []Commit{mkCommit("h1", "A", nil)}
	_, err := Parse(commits, ParseOpts{Strict: true})
	assert(t, err != nil).Fatalf("expected MissingId error")
}

func TestParseContiguousGroup(t *testing.T) {
	commits := []Commit{
		mkCommit("h1", "A", map[string]string{"Group": "g1"}),
		mkCommit("h2", "B", map[string]string{"Group": "g1"}),
		mkCommit("h3", "C", map[string]string{"Group": "g1"}),
	}
	units, err := Parse(commits, ParseOpts{GroupTitles: map[string]string{"g1": "G"}})
	assert(t, err == nil).Fatalf("Parse() error = %v", err)
	assert(t, len(units) == 1).Fatalf("expected 1 unit, got %d", len(units))
	u := units[0]
	assert(t, u.Kind == KindGroup).Errorf("unit kind")
	assert(t, u.Title == "G").Errorf("title = %q", u.Title)
	assert(t, len(u.Commits) == 3).Errorf("expected 3 commits, got %d", len(u.Commits))
}

func TestParseNonContiguousGroupSplitByCommit(t *testing.T) {
	commits := []Commit{
		mkCommit("h1", "A", map[string]string{"Group": "g1"}),
		mkCommit("h2", "B", map[string]string{"Commit-Id": "bbbbbbbb"}),
		mkCommit("h3", "C", map[string]string{"Group": "g1"}),
	}
	_, err := Parse(commits, ParseOpts{})
	assert(t, err != nil).Fatalf("expected SplitGroup error")
}

func TestParseInterleavedGroups(t *testing.T) {
	commits := []Commit{
		mkCommit("h1", "A", map[string]string{"Group": "g1"}),
		mkCommit("h2", "B", map[string]string{"Group": "g2"}),
		mkCommit("h3", "C", map[string]string{"Group": "g1"}),
	}
	_, err := Parse(commits, ParseOpts{})
	assert(t, err != nil).Fatalf("expected SplitGroup error")
}

func TestResolveGroupTitleFallback(t *testing.T) {
	u := Unit{ID: "g1", Commits: []Commit{
		mkCommit("h1", "first subject", map[string]string{"Group-Title": "legacy title"}),
	}}
	title := resolveGroupTitle(u, nil)
	assert(t, title == "legacy title").Errorf("title = %q", title)

	u2 := Unit{ID: "g2", Commits: []Commit{mkCommit("h1", "first subject", nil)}}
	title2 := resolveGroupTitle(u2, nil)
	assert(t, title2 == "first subject").Errorf("title2 = %q", title2)
}
