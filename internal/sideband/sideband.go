// Package sideband implements component C: a key/value store persisted as
// a single blob under an application-owned ref (outside refs/heads/), used
// for metadata that must survive message rewrites — group display titles,
// per-unit settings, content hashes. Modeled as a plain YAML document
// (gopkg.in/yaml.v3, already a teacher dependency via config.go's
// GitHubConfigHostsFile) rather than a custom binary format, so it stays
// human-readable with `git cat-file -p`.
package sideband

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iOliverNguyen/git-pr/internal/gitobj"
	"github.com/iOliverNguyen/git-pr/internal/logx"
)

// Ref is the default reference the store lives under. Single global ref,
// not namespaced per branch — spec §9 open question, resolved in
// DESIGN.md: keep it simple unless a concrete workflow motivates
// per-branch isolation.
const Ref = "refs/git-pr/sideband"

// Store is the side-band document: group titles, per-unit stack config,
// and content hashes, each keyed by unit id.
type Store struct {
	Groups        map[string]string         `yaml:"groups"`
	Stacks        map[string]map[string]any `yaml:"stacks"`
	ContentHashes map[string]string         `yaml:"contentHashes"`
}

func empty() Store {
	return Store{
		Groups:        map[string]string{},
		Stacks:        map[string]map[string]any{},
		ContentHashes: map[string]string{},
	}
}

// DB is a handle bound to one repository directory and ref name. All git
// access goes through gitobj.Repo (spec §4.A) rather than calling
// exec.Command directly.
type DB struct {
	Repo *gitobj.Repo
	Ref  string
}

func New(dir string) *DB { return &DB{Repo: gitobj.New(dir), Ref: Ref} }

// Read loads the store; an absent ref (or unparseable content) is
// equivalent to an empty store (spec §4.C, §7 "Corrupt side-band blob").
func (db *DB) Read() (Store, error) {
	out, err := db.catRef()
	if err != nil {
		return empty(), nil // absent ref: empty store, not an error
	}
	var s Store
	if err := yaml.Unmarshal([]byte(out), &s); err != nil {
		logx.Warnf("sideband: corrupt blob at %s, treating as empty: %v", db.Ref, err)
		return empty(), nil
	}
	if s.Groups == nil {
		s.Groups = map[string]string{}
	}
	if s.Stacks == nil {
		s.Stacks = map[string]map[string]any{}
	}
	if s.ContentHashes == nil {
		s.ContentHashes = map[string]string{}
	}
	return s, nil
}

// Write persists store, last-writer-wins, with no cross-process locking
// beyond the ref update itself (spec §4.C).
func (db *DB) Write(s Store) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	blob, err := db.hashObject(data)
	if err != nil {
		return err
	}
	return db.updateRef(blob)
}

// Set stores a single value under namespace/key.
func (db *DB) Set(namespace, key string, value any) error {
	s, err := db.Read()
	if err != nil {
		return err
	}
	switch namespace {
	case "groups":
		s.Groups[key] = toString(value)
	case "contentHashes":
		s.ContentHashes[key] = toString(value)
	default:
		if s.Stacks[namespace] == nil {
			s.Stacks[namespace] = map[string]any{}
		}
		s.Stacks[namespace][key] = value
	}
	return db.Write(s)
}

// Get reads a single value, "" / nil if absent.
func (db *DB) Get(namespace, key string) (any, error) {
	s, err := db.Read()
	if err != nil {
		return nil, err
	}
	switch namespace {
	case "groups":
		return s.Groups[key], nil
	case "contentHashes":
		return s.ContentHashes[key], nil
	default:
		if m := s.Stacks[namespace]; m != nil {
			return m[key], nil
		}
		return nil, nil
	}
}

// Delete removes a single key.
func (db *DB) Delete(namespace, key string) error {
	return db.DeleteMany(namespace, []string{key})
}

// DeleteMany removes several keys from one namespace in a single write.
func (db *DB) DeleteMany(namespace string, keys []string) error {
	s, err := db.Read()
	if err != nil {
		return err
	}
	for _, key := range keys {
		switch namespace {
		case "groups":
			delete(s.Groups, key)
		case "contentHashes":
			delete(s.ContentHashes, key)
		default:
			if m := s.Stacks[namespace]; m != nil {
				delete(m, key)
			}
		}
	}
	return db.Write(s)
}

// Purge drops every entry whose unit id is not in aliveUnitIDs, returning
// the ids dropped from Stacks and from ContentHashes; dropped group ids are
// not returned.
func (db *DB) Purge(aliveUnitIDs map[string]bool) (staleStacks, staleHashes []string, err error) {
	s, err := db.Read()
	if err != nil {
		return nil, nil, err
	}
	for id := range s.Groups {
		if !aliveUnitIDs[id] {
			delete(s.Groups, id)
		}
	}
	for id := range s.Stacks {
		if !aliveUnitIDs[id] {
			staleStacks = append(staleStacks, id)
			delete(s.Stacks, id)
		}
	}
	for id := range s.ContentHashes {
		if !aliveUnitIDs[id] {
			staleHashes = append(staleHashes, id)
			delete(s.ContentHashes, id)
		}
	}
	if err := db.Write(s); err != nil {
		return nil, nil, err
	}
	return staleStacks, staleHashes, nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func (db *DB) catRef() (string, error) {
	return db.Repo.Git("cat-file", "-p", db.Ref)
}

func (db *DB) hashObject(data []byte) (string, error) {
	out, err := db.Repo.GitStdin(data, "hash-object", "-w", "--stdin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (db *DB) updateRef(blob string) error {
	_, err := db.Repo.Git("update-ref", db.Ref, blob)
	return err
}
