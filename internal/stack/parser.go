package stack

import "github.com/iOliverNguyen/git-pr/internal/xerrors"

// ParseOpts controls strictness, grounded on spec §4.E's "missing-id (a
// commit lacks Commit-Id and the caller requested strict mode)".
type ParseOpts struct {
	Strict      bool              // report MissingId instead of tolerating it
	GroupTitles map[string]string // side_band.groups[g], looked up before legacy trailer/subject fallback
}

// Parse reduces an annotated, oldest-first commit list into an ordered
// sequence of PR units (component E). It implements the state machine of
// spec §4.E: commits without a Group trailer become Single units; commits
// sharing a Group trailer accumulate into one Group unit as long as they
// are contiguous. The parser never panics on exotic trailer content — any
// rejection is a typed *xerrors.Error.
func Parse(commits []Commit, opts ParseOpts) ([]Unit, error) {
	var units []Unit
	var open *Unit // in-progress group, nil when state is "outside"
	flush := func() {
		if open != nil {
			units = append(units, *open)
			open = nil
		}
	}

	seenIDs := map[string]bool{}
	seenGroups := map[string]bool{}

	for _, c := range commits {
		if !c.HasGroup() {
			flush()
			id := c.CommitID()
			if id == "" {
				if opts.Strict {
					return nil, xerrors.New("stack.Parse", xerrors.MissingID)
				}
			} else {
				if seenIDs[id] {
					return nil, xerrors.New("stack.Parse", xerrors.DuplicateID)
				}
				seenIDs[id] = true
			}
			units = append(units, Unit{Kind: KindSingle, ID: id, Title: c.Subject, Commit: c})
			continue
		}

		g := c.Group()
		if open == nil {
			if seenGroups[g] {
				// this group id was already flushed (closed) earlier in the
				// stack, so this occurrence is non-contiguous with the first.
				return nil, xerrors.New("stack.Parse", xerrors.SplitGroup)
			}
			seenGroups[g] = true
			if g == "" {
				return nil, xerrors.New("stack.Parse", xerrors.SplitGroup)
			}
			if seenIDs[g] {
				return nil, xerrors.New("stack.Parse", xerrors.DuplicateID)
			}
			seenIDs[g] = true
			open = &Unit{Kind: KindGroup, ID: g, Commits: []Commit{c}}
			continue
		}
		if open.ID == g {
			open.Commits = append(open.Commits, c)
			continue
		}
		return nil, xerrors.New("stack.Parse", xerrors.SplitGroup)
	}
	flush()

	for i := range units {
		if units[i].Kind == KindGroup {
			units[i].Title = resolveGroupTitle(units[i], opts.GroupTitles)
		}
	}
	return units, nil
}

// resolveGroupTitle picks side_band.groups[g], else the legacy
// Group-Title trailer on any constituent commit, else the subject of the
// first commit (spec §4.E "Titles").
func resolveGroupTitle(u Unit, groupTitles map[string]string) string {
	if groupTitles != nil {
		if t, ok := groupTitles[u.ID]; ok && t != "" {
			return t
		}
	}
	for _, c := range u.Commits {
		if t := c.GroupTitle(); t != "" {
			return t
		}
	}
	if len(u.Commits) > 0 {
		return u.Commits[0].Subject
	}
	return ""
}
