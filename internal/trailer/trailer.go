// Package trailer implements component B: parsing and rewriting the
// Key: Value trailer block at the end of a commit message body. Parsing
// delegates to `git interpret-trailers` (spec §4.B/§9) so "last value
// wins" and exotic separator handling stay identical to the host tool's
// own rules instead of an ad hoc reimplementation; the teacher's
// types.go/Commit.Attrs is the origin of the key/value model generalized
// here into pure string transforms.
package trailer

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// Parse returns the trailer key/value map for body, last occurrence of a
// key wins. Empty body yields an empty map.
func Parse(body string) (map[string]string, error) {
	if strings.TrimSpace(body) == "" {
		return map[string]string{}, nil
	}
	out, err := runInterpretTrailers(body, "--parse")
	if err != nil {
		return nil, xerrors.Wrap("trailer.Parse", xerrors.ObjectMissing, err)
	}
	trailers := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		key, val, ok := splitTrailerLine(line)
		if !ok {
			continue
		}
		trailers[key] = val // last wins: later lines simply overwrite
	}
	return trailers, nil
}

func splitTrailerLine(line string) (key, val string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// Add appends the given trailers at the end of the trailer block,
// preserving any existing lines (including duplicate keys) unless the
// caller wants them gone, in which case use Replace.
func Add(body string, kv map[string]string) (string, error) {
	if len(kv) == 0 {
		return body, nil
	}
	keys := sortedKeys(kv)
	out := body
	var err error
	for _, k := range keys {
		out, err = runInterpretTrailers(out, "--trailer", fmt.Sprintf("%s: %s", k, kv[k]), "--no-divider")
		if err != nil {
			return "", xerrors.Wrap("trailer.Add", xerrors.ObjectMissing, err)
		}
	}
	return canonicalize(out), nil
}

// Replace removes all prior lines beginning with `k:` for every key in kv,
// then appends the new value.
func Replace(body string, kv map[string]string) (string, error) {
	stripped := body
	for k := range kv {
		stripped = stripKeyLines(stripped, k)
	}
	return Add(stripped, kv)
}

// StripPrefix removes every trailer line whose key begins with prefix
// (used when dissolving a group's Group:/Group-Title: trailers).
func StripPrefix(body, prefix string) (string, error) {
	trailers, err := Parse(body)
	if err != nil {
		return "", err
	}
	out := body
	for k := range trailers {
		if strings.HasPrefix(strings.ToLower(k), strings.ToLower(prefix)) {
			out = stripKeyLines(out, k)
		}
	}
	return canonicalize(out), nil
}

// stripKeyLines removes every line of body whose text, after leading
// whitespace, starts with `key:` (case-insensitive key), by textual match on
// the raw body rather than through git. It is not limited to the trailer
// block: a matching line in the title or a paragraph is removed as well.
func stripKeyLines(body, key string) string {
	lines := strings.Split(body, "\n")
	out := lines[:0:0]
	prefix := strings.ToLower(key) + ":"
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), prefix) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// canonicalize trims trailing blank lines to keep the object's message
// text stable across rewrites (spec §4.B "trailing newlines are trimmed
// before writing").
func canonicalize(body string) string {
	return strings.TrimRight(body, "\n \t") + "\n"
}

func sortedKeys(kv map[string]string) []string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runInterpretTrailers(body string, args ...string) (string, error) {
	full := append([]string{"interpret-trailers"}, args...)
	cmd := exec.Command("git", full...)
	cmd.Stdin = strings.NewReader(body)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
