// Package github is the platform adapter spec §6 describes: it turns
// per-unit branch names and tip commits into pull requests on GitHub,
// and never feeds anything back into the engine beyond the unit ids it
// needs for orphan cleanup. Generalizes the teacher's github.go/http.go
// (free functions closing over a single package-level config/http
// client) into a Client value so cmd/git-pr can hold one instance per
// invocation rather than relying on global state.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iOliverNguyen/git-pr/internal/logx"
)

// Client talks to one GitHub (or GitHub Enterprise) host on behalf of
// one repo.
type Client struct {
	Host    string // e.g. "github.com" or an Enterprise host
	Repo    string // "owner/name"
	Token   string
	Timeout time.Duration

	httpClient *http.Client
}

func New(host, repo, token string, timeout time.Duration) *Client {
	return &Client{Host: host, Repo: repo, Token: token, Timeout: timeout, httpClient: http.DefaultClient}
}

// PullRequest is the subset of GitHub's PR object the engine's platform
// adapter needs.
type PullRequest struct {
	Number int
	Title  string
	Body   string
	Head   string
	Base   string
	State  string
	Draft  bool
	URL    string
}

// CreatePR opens a new pull request for head -> base.
func (c *Client) CreatePR(ctx context.Context, title, body, head, base string, draft bool) (PullRequest, error) {
	payload := map[string]any{
		"title": title,
		"body":  body,
		"head":  head,
		"base":  base,
		"draft": draft,
	}
	data, err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/pulls", c.Repo), payload)
	if err != nil {
		return PullRequest{}, err
	}
	return parsePR(data), nil
}

// UpdatePR edits an existing PR's title/body/base; empty fields are left
// unchanged (GitHub's PATCH semantics).
func (c *Client) UpdatePR(ctx context.Context, number int, title, body, base string) (PullRequest, error) {
	payload := map[string]any{}
	if title != "" {
		payload["title"] = title
	}
	if body != "" {
		payload["body"] = body
	}
	if base != "" {
		payload["base"] = base
	}
	data, err := c.do(ctx, "PATCH", fmt.Sprintf("/repos/%s/pulls/%d", c.Repo, number), payload)
	if err != nil {
		return PullRequest{}, err
	}
	return parsePR(data), nil
}

// GetPRByNumber fetches a single PR by number.
func (c *Client) GetPRByNumber(ctx context.Context, number int) (PullRequest, error) {
	data, err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/pulls/%d", c.Repo, number), nil)
	if err != nil {
		return PullRequest{}, err
	}
	return parsePR(data), nil
}

// SearchPRForCommit finds the PR (if any), open or closed, whose head ref
// matches remoteRef among the PRs associated with commitHash; the first
// match is returned.
func (c *Client) SearchPRForCommit(ctx context.Context, commitHash, remoteRef string) (PullRequest, bool, error) {
	data, err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/commits/%s/pulls?per_page=100", c.Repo, commitHash), nil)
	if err != nil {
		return PullRequest{}, false, err
	}
	var found PullRequest
	var ok bool
	for _, item := range gjson.ParseBytes(data).Array() {
		if item.Get("head.ref").String() == remoteRef {
			found = PullRequest{
				Number: int(item.Get("number").Int()),
				Title:  item.Get("title").String(),
				Body:   item.Get("body").String(),
				Head:   item.Get("head.ref").String(),
				Base:   item.Get("base.ref").String(),
				State:  item.Get("state").String(),
				Draft:  item.Get("draft").Bool(),
				URL:    item.Get("html_url").String(),
			}
			ok = true
			break
		}
	}
	return found, ok, nil
}

// ListOpenPRs lists open PRs whose head ref is prefixed by branchPrefix,
// used by the orphan-cleanup pass to find stacks with no matching unit
// left in the local branch.
func (c *Client) ListOpenPRs(ctx context.Context, branchPrefix string) ([]PullRequest, error) {
	data, err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/pulls?state=open&per_page=100", c.Repo), nil)
	if err != nil {
		return nil, err
	}
	var out []PullRequest
	for _, item := range gjson.ParseBytes(data).Array() {
		head := item.Get("head.ref").String()
		if branchPrefix != "" && len(head) >= len(branchPrefix) && head[:len(branchPrefix)] == branchPrefix {
			out = append(out, parsePR([]byte(item.Raw)))
		}
	}
	return out, nil
}

// SetLabels applies labels to a PR's underlying issue, mirroring the
// teacher's `gh pr edit --add-label` call (main.go). A PR and its tracking
// issue share a number on GitHub, hence the /issues/ path.
func (c *Client) SetLabels(ctx context.Context, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	payload := map[string]any{"labels": labels}
	_, err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/issues/%d/labels", c.Repo, number), payload)
	return err
}

// Merge merges a PR using the given method ("merge", "squash", "rebase").
func (c *Client) Merge(ctx context.Context, number int, method string) error {
	payload := map[string]any{"merge_method": method}
	_, err := c.do(ctx, "PUT", fmt.Sprintf("/repos/%s/pulls/%d/merge", c.Repo, number), payload)
	return err
}

func parsePR(data []byte) PullRequest {
	r := gjson.ParseBytes(data)
	return PullRequest{
		Number: int(r.Get("number").Int()),
		Title:  r.Get("title").String(),
		Body:   r.Get("body").String(),
		Head:   r.Get("head.ref").String(),
		Base:   r.Get("base.ref").String(),
		State:  r.Get("state").String(),
		Draft:  r.Get("draft").Bool(),
		URL:    r.Get("html_url").String(),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var reader io.Reader
	var rawBody []byte
	if body != nil {
		var err error
		rawBody, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(rawBody)
	}

	url := fmt.Sprintf("https://api.%s%s", c.Host, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if rawBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logx.Debugf("github: %s %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, fmt.Errorf("github %s %s: %s: %s", method, path, resp.Status, data)
	}
	return data, nil
}
