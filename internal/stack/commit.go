// Package stack implements components D and E: reading the commits
// between the fork point and the branch tip (component D) and reducing
// them into an ordered sequence of PR units (component E). The Commit
// record generalizes the teacher's types.go Commit (which mixed parsed
// git-log fields with a mutable PRNumber/Skip) into an immutable tuple per
// spec §3, trailers routed through internal/trailer instead of teacher's
// regexpKeyVal line scan.
package stack

import (
	"regexp"
	"strings"
)

// Commit is the immutable {hash, subject, body, trailers} tuple of spec §3,
// plus the author email and the two supplemented display features kept
// from the teacher (draft detection, tags) that submit/land render.
type Commit struct {
	Hash        string
	Subject     string
	Body        string
	Trailers    map[string]string
	AuthorEmail string
}

var draftSubject = regexp.MustCompile(`(?i)\[draft]`)

// IsDraft reports whether the commit's subject is tagged [draft],
// mirroring the teacher's regexpDraft (main.go).
func (c Commit) IsDraft() bool { return draftSubject.MatchString(c.Subject) }

// Tags returns the comma-separated "tags" trailer merged with any
// defaults, de-duplicated, mirroring the teacher's Commit.GetTags.
func (c Commit) Tags(defaults ...string) []string {
	tags := append([]string{}, defaults...)
	seen := map[string]bool{}
	for _, t := range tags {
		seen[t] = true
	}
	raw, _ := c.trailer("tags")
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// Trailer keys recognized by the engine (spec §3).
const (
	KeyCommitID  = "Commit-Id"
	KeyGroup     = "Group"
	KeyGroupTitle = "Group-Title"
)

func (c Commit) trailer(key string) (string, bool) {
	v, ok := c.Trailers[key]
	return v, ok
}

// CommitID returns the commit's Commit-Id trailer, "" if absent.
func (c Commit) CommitID() string { v, _ := c.trailer(KeyCommitID); return v }

// Group returns the commit's Group trailer, "" if absent.
func (c Commit) Group() string { v, _ := c.trailer(KeyGroup); return v }

// HasGroup reports whether the commit carries a Group trailer.
func (c Commit) HasGroup() bool { _, ok := c.trailer(KeyGroup); return ok }

// GroupTitle returns the legacy Group-Title trailer, "" if absent.
func (c Commit) GroupTitle() string { v, _ := c.trailer(KeyGroupTitle); return v }
