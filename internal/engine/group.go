package engine

import (
	"sort"
	"strings"

	"github.com/iOliverNguyen/git-pr/internal/finalize"
	"github.com/iOliverNguyen/git-pr/internal/rebase"
	"github.com/iOliverNguyen/git-pr/internal/rewrite"
	"github.com/iOliverNguyen/git-pr/internal/stack"
	"github.com/iOliverNguyen/git-pr/internal/trailer"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// GroupSpecEntry describes one requested group: its member commit
// references, its display name, and an optional caller-supplied id.
type GroupSpecEntry struct {
	Commits []string
	Name    string
	ID      string
}

// GroupSpec is the input to ApplyGroupSpec (spec §4.I "apply-group-spec").
// References may be a full hash, a 7-or-8-char prefix, or a Commit-Id.
type GroupSpec struct {
	Order  []string // optional; defaults to the current stack order
	Groups []GroupSpecEntry
}

// ApplyResult reports what ApplyGroupSpec actually did.
type ApplyResult struct {
	Modified  int
	Reordered bool
}

// ApplyGroupSpec resolves spec against the current stack, validates group
// contiguity and exclusivity, reorders via G when requested, rewrites
// Group trailers via F, and finalizes via H.
func (e *Engine) ApplyGroupSpec(spec GroupSpec) (ApplyResult, error) {
	const op = "ApplyGroupSpec"
	_, commits, err := e.preamble(op, preambleOpts{})
	if err != nil {
		return ApplyResult{}, err
	}
	if len(commits) == 0 {
		return ApplyResult{}, nil
	}

	currentOrder := make([]string, len(commits))
	byHash := map[string]stack.Commit{}
	existingIDs := map[string]bool{}
	for i, c := range commits {
		currentOrder[i] = c.Hash
		byHash[c.Hash] = c
		if id := c.CommitID(); id != "" {
			existingIDs[id] = true
		}
		if c.HasGroup() {
			existingIDs[c.Group()] = true
		}
	}

	resolve := func(ref string) (string, error) {
		h, ok := resolveRef(commits, ref)
		if !ok {
			return "", xerrors.New(op, xerrors.UnknownRef)
		}
		return h, nil
	}

	order := currentOrder
	if len(spec.Order) > 0 {
		order = make([]string, len(spec.Order))
		for i, ref := range spec.Order {
			h, err := resolve(ref)
			if err != nil {
				return ApplyResult{}, err
			}
			order[i] = h
		}
	}
	pos := map[string]int{}
	for i, h := range order {
		pos[h] = i
	}

	type groupPlan struct {
		id    string
		title string
	}
	assigned := map[string]string{} // hash -> group id
	var plans []groupPlan

	for _, g := range spec.Groups {
		members := make([]string, len(g.Commits))
		for i, ref := range g.Commits {
			h, err := resolve(ref)
			if err != nil {
				return ApplyResult{}, err
			}
			members[i] = h
		}
		for _, h := range members {
			if _, dup := assigned[h]; dup {
				return ApplyResult{}, xerrors.New(op, xerrors.GroupOverlap)
			}
		}
		positions := make([]int, 0, len(members))
		for _, h := range members {
			p, ok := pos[h]
			if !ok {
				return ApplyResult{}, xerrors.New(op, xerrors.UnknownRef)
			}
			positions = append(positions, p)
		}
		sort.Ints(positions)
		for i := 1; i < len(positions); i++ {
			if positions[i] != positions[i-1]+1 {
				return ApplyResult{}, xerrors.New(op, xerrors.NonContiguous)
			}
		}

		id := g.ID
		if id == "" {
			id = generateID(existingIDs)
		}
		existingIDs[id] = true
		for _, h := range members {
			assigned[h] = id
		}
		plans = append(plans, groupPlan{id: id, title: g.Name})
	}

	reordered := !sameOrder(currentOrder, order)
	hashes := order

	if reordered {
		fork, err := e.forkPoint()
		if err != nil {
			return ApplyResult{}, err
		}
		result, err := rebase.Rebase(e.Repo, fork, order)
		if err != nil {
			return ApplyResult{}, err
		}
		newHashes := make([]string, len(order))
		newAssigned := map[string]string{}
		newByHash := map[string]stack.Commit{}
		for _, oldHash := range order {
			newHash := result.Mapping[oldHash]
			newByHash[newHash] = byHash[oldHash]
			if gid, ok := assigned[oldHash]; ok {
				newAssigned[newHash] = gid
			}
		}
		for i, oldHash := range order {
			newHashes[i] = result.Mapping[oldHash]
		}
		hashes = newHashes
		assigned = newAssigned
		byHash = newByHash
	}

	rewrites := map[string]string{}
	modified := 0
	for _, h := range hashes {
		c := byHash[h]
		wantGroup, wantsGroup := assigned[h]
		if !reordered && wantsGroup == c.HasGroup() && (!wantsGroup || wantGroup == c.Group()) {
			continue
		}
		body, err := trailer.StripPrefix(c.Body, "Group")
		if err != nil {
			return ApplyResult{}, err
		}
		if wantsGroup {
			body, err = trailer.Add(body, map[string]string{stack.KeyGroup: wantGroup})
			if err != nil {
				return ApplyResult{}, err
			}
		}
		rewrites[h] = body
		modified++
	}

	result, err := rewrite.RewriteChain(e.Repo, hashes, rewrites)
	if err != nil {
		return ApplyResult{}, err
	}
	oldTip := currentOrder[len(currentOrder)-1]
	if err := finalize.Finalize(e.Repo, e.Branch, oldTip, result.NewTip); err != nil {
		return ApplyResult{}, err
	}

	sb, err := e.SideBand.Read()
	if err != nil {
		return ApplyResult{}, err
	}
	for _, p := range plans {
		if p.title != "" {
			sb.Groups[p.id] = p.title
		}
	}
	if err := e.SideBand.Write(sb); err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{Modified: modified, Reordered: reordered}, nil
}

// DissolveGroup strips a group's trailers from its member commits. When
// assignTo names a member, that commit inherits the group's id as its own
// Commit-Id; the member that had donated its id to the group (if any and
// if different from assignTo) is given a fresh one so no two commits end
// up sharing an id (spec §4.I "dissolve-group").
func (e *Engine) DissolveGroup(groupID, assignTo string) (int, error) {
	const op = "DissolveGroup"
	units, commits, err := e.preamble(op, preambleOpts{})
	if err != nil {
		return 0, err
	}
	target := findGroup(units, groupID)
	if target == nil {
		return 0, xerrors.New(op, xerrors.GroupNotFound)
	}

	var assignHash string
	if assignTo != "" {
		h, ok := resolveRef(commits, assignTo)
		if !ok {
			return 0, xerrors.New(op, xerrors.UnknownRef)
		}
		assignHash = h
	}

	memberSet := map[string]bool{}
	for _, c := range target.Commits {
		memberSet[c.Hash] = true
	}
	existingIDs := map[string]bool{}
	for _, c := range commits {
		if id := c.CommitID(); id != "" {
			existingIDs[id] = true
		}
	}

	hashes := make([]string, len(commits))
	rewrites := map[string]string{}
	for i, c := range commits {
		hashes[i] = c.Hash
		if !memberSet[c.Hash] {
			continue
		}
		body, err := trailer.StripPrefix(c.Body, "Group")
		if err != nil {
			return 0, err
		}
		switch {
		case assignHash != "" && c.Hash == assignHash:
			body, err = trailer.Replace(body, map[string]string{stack.KeyCommitID: groupID})
		case assignHash != "" && c.CommitID() == groupID:
			id := generateID(existingIDs)
			existingIDs[id] = true
			body, err = trailer.Replace(body, map[string]string{stack.KeyCommitID: id})
		}
		if err != nil {
			return 0, err
		}
		rewrites[c.Hash] = body
	}

	result, err := rewrite.RewriteChain(e.Repo, hashes, rewrites)
	if err != nil {
		return 0, err
	}
	oldTip := hashes[len(hashes)-1]
	if err := finalize.Finalize(e.Repo, e.Branch, oldTip, result.NewTip); err != nil {
		return 0, err
	}

	sb, err := e.SideBand.Read()
	if err != nil {
		return 0, err
	}
	delete(sb.Groups, groupID)
	if err := e.SideBand.Write(sb); err != nil {
		return 0, err
	}
	return len(rewrites), nil
}

// MergeSplitGroup reorders a non-contiguous group's members to the end of
// the remaining commits (in their respective original relative orders)
// and re-applies the same group id and title, via ApplyGroupSpec (spec
// §4.I "merge-split-group").
func (e *Engine) MergeSplitGroup(groupID string) (ApplyResult, error) {
	const op = "MergeSplitGroup"
	units, commits, err := e.preamble(op, preambleOpts{})
	if err != nil {
		return ApplyResult{}, err
	}
	target := findGroup(units, groupID)
	if target == nil {
		return ApplyResult{}, xerrors.New(op, xerrors.GroupNotFound)
	}

	memberSet := map[string]bool{}
	for _, c := range target.Commits {
		memberSet[c.Hash] = true
	}
	var nonMembers, members []string
	for _, c := range commits {
		if memberSet[c.Hash] {
			members = append(members, c.Hash)
		} else {
			nonMembers = append(nonMembers, c.Hash)
		}
	}
	order := append(append([]string{}, nonMembers...), members...)

	return e.ApplyGroupSpec(GroupSpec{
		Order:  order,
		Groups: []GroupSpecEntry{{Commits: members, Name: target.Title, ID: groupID}},
	})
}

// RemoveAllGroupTrailers strips every Group/Group-Title trailer in the
// stack and purges the matching side-band titles; the bulk dissolve used
// by `repair` (spec §4.I).
func (e *Engine) RemoveAllGroupTrailers() (int, error) {
	const op = "RemoveAllGroupTrailers"
	_, commits, err := e.preamble(op, preambleOpts{})
	if err != nil {
		return 0, err
	}
	if len(commits) == 0 {
		return 0, nil
	}

	hashes := make([]string, len(commits))
	rewrites := map[string]string{}
	groupIDs := map[string]bool{}
	for i, c := range commits {
		hashes[i] = c.Hash
		if !c.HasGroup() {
			continue
		}
		groupIDs[c.Group()] = true
		body, err := trailer.StripPrefix(c.Body, "Group")
		if err != nil {
			return 0, err
		}
		rewrites[c.Hash] = body
	}
	if len(rewrites) == 0 {
		return 0, nil
	}

	result, err := rewrite.RewriteChain(e.Repo, hashes, rewrites)
	if err != nil {
		return 0, err
	}
	oldTip := hashes[len(hashes)-1]
	if err := finalize.Finalize(e.Repo, e.Branch, oldTip, result.NewTip); err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(groupIDs))
	for id := range groupIDs {
		keys = append(keys, id)
	}
	if err := e.SideBand.DeleteMany("groups", keys); err != nil {
		return 0, err
	}
	return len(rewrites), nil
}

func findGroup(units []stack.Unit, groupID string) *stack.Unit {
	for i := range units {
		if units[i].Kind == stack.KindGroup && units[i].ID == groupID {
			return &units[i]
		}
	}
	return nil
}

// resolveRef resolves a caller-supplied reference (full hash, 7-or-8-char
// prefix, or Commit-Id) against the current stack's commits.
func resolveRef(commits []stack.Commit, ref string) (string, bool) {
	for _, c := range commits {
		if c.Hash == ref || (c.CommitID() != "" && c.CommitID() == ref) {
			return c.Hash, true
		}
	}
	if len(ref) >= 7 {
		for _, c := range commits {
			if strings.HasPrefix(c.Hash, ref) {
				return c.Hash, true
			}
		}
	}
	return "", false
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
