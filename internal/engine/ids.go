package engine

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/iOliverNguyen/git-pr/internal/finalize"
	"github.com/iOliverNguyen/git-pr/internal/rewrite"
	"github.com/iOliverNguyen/git-pr/internal/stack"
	"github.com/iOliverNguyen/git-pr/internal/trailer"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// InjectResult reports how many commits were touched, for the idempotence
// property (spec §8 invariant 6).
type InjectResult struct {
	Modified int
	Rebased  bool
}

// InjectIDs assigns a fresh Commit-Id to every commit lacking one. A
// stack with no commits, or where every commit already has an id, is a
// no-op (spec §4.I "inject-ids").
func (e *Engine) InjectIDs() (InjectResult, error) {
	const op = "InjectIDs"
	_, commits, err := e.preamble(op, preambleOpts{})
	if err != nil {
		return InjectResult{}, err
	}
	if len(commits) == 0 {
		return InjectResult{}, nil
	}

	existing := map[string]bool{}
	for _, c := range commits {
		if id := c.CommitID(); id != "" {
			existing[id] = true
		}
	}

	rewrites := map[string]string{}
	for _, c := range commits {
		if c.CommitID() != "" {
			continue
		}
		id := generateID(existing)
		existing[id] = true
		body, err := trailer.Add(c.Body, map[string]string{stack.KeyCommitID: id})
		if err != nil {
			return InjectResult{}, xerrors.Wrap(op, xerrors.ObjectMissing, err)
		}
		rewrites[c.Hash] = body
	}
	if len(rewrites) == 0 {
		return InjectResult{}, nil
	}

	hashes := make([]string, len(commits))
	for i, c := range commits {
		hashes[i] = c.Hash
	}

	result, err := rewrite.RewriteChain(e.Repo, hashes, rewrites)
	if err != nil {
		return InjectResult{}, err
	}
	oldTip := hashes[len(hashes)-1]
	if err := finalize.Finalize(e.Repo, e.Branch, oldTip, result.NewTip); err != nil {
		return InjectResult{}, err
	}
	return InjectResult{Modified: len(rewrites)}, nil
}

// generateID returns a fresh 8-hex lowercase id not already present in
// taken, regenerating on collision (spec §4.I "ID generation").
func generateID(taken map[string]bool) string {
	for {
		var buf [4]byte
		if _, err := rand.Read(buf[:]); err != nil {
			panic(err) // crypto/rand failing is unrecoverable for this process
		}
		id := hex.EncodeToString(buf[:])
		if !taken[id] {
			return id
		}
	}
}
