// Package config loads the settings every subcommand needs: the remote's
// host/owner/repo triple (parsed from `git remote show`), the integration
// branch, and a GitHub token resolved from the environment, the OS
// keychain, or the gh CLI's hosts.yml, in that order. Generalizes the
// teacher's config.go (a single flat Config populated by flag.Parse plus
// a hard os.Exit on any missing field) into a library function any
// cobra command can call, returning an error instead of exiting the process.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/iOliverNguyen/git-pr/internal/gitobj"
)

// Config is every setting a subcommand needs once flags are parsed.
type Config struct {
	Repo   string // "owner/name"
	Remote string
	Host   string

	Branch            string // local branch to operate on; "" means current
	MainBranch        string // e.g. "main", the platform-side base branch
	IntegrationBranch string // e.g. "origin/main", for local merge-base lookups

	User  string
	Token string
	Email string

	IncludeOtherAuthors bool
	Verbose             bool
	Timeout             time.Duration
}

// Options carries the flag values gathered by the CLI layer (internal/config
// stays free of any flag-parsing library so it can be unit tested directly).
type Options struct {
	RepoDir             string
	Remote              string
	MainBranch          string
	Branch              string
	IncludeOtherAuthors bool
	Verbose             bool
	Timeout             time.Duration
	GitHubHostsPath     string // gh CLI's hosts.yml, fallback token source
}

var remoteURLPattern = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+?)(\.git)?$`)

// Load resolves a Config from the given options, consulting the git remote
// for host/owner/repo and a layered lookup (GIT_PR_TOKEN env, OS keychain,
// gh CLI hosts.yml) for the API token.
func Load(opts Options) (Config, error) {
	repo := gitobj.New(opts.RepoDir)

	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	out, err := repo.Git("remote", "show", remote)
	if err != nil {
		return Config{}, fmt.Errorf("not a git repository, or remote %q missing: %w", remote, err)
	}
	matches := remoteURLPattern.FindStringSubmatch(out)
	if len(matches) < 4 {
		return Config{}, fmt.Errorf("failed to parse remote URL for %q", remote)
	}
	host := matches[1]
	ownerRepo := matches[2] + "/" + matches[3]

	mainBranch := opts.MainBranch
	if mainBranch == "" {
		mainBranch = "main"
	}

	email, _ := repo.Git("config", "user.email")
	email = strings.TrimSpace(email)

	user, token, err := resolveCredentials(host, opts.GitHubHostsPath)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Repo:                ownerRepo,
		Remote:              remote,
		Host:                host,
		Branch:              opts.Branch,
		MainBranch:          mainBranch,
		IntegrationBranch:   remote + "/" + mainBranch,
		User:                user,
		Token:               token,
		Email:               email,
		IncludeOtherAuthors: opts.IncludeOtherAuthors,
		Verbose:             opts.Verbose,
		Timeout:             opts.Timeout,
	}
	if cfg.Email == "" {
		return Config{}, fmt.Errorf("missing config %q", "user.email")
	}
	return cfg, nil
}

// resolveCredentials tries, in order: the GIT_PR_TOKEN/GIT_PR_USER
// environment variables, the OS keychain entry for this host, then the
// gh CLI's hosts.yml — the teacher's only source. A later source only
// runs when the earlier one comes up empty.
func resolveCredentials(host, ghHostsPath string) (user, token string, err error) {
	if t := os.Getenv("GIT_PR_TOKEN"); t != "" {
		return os.Getenv("GIT_PR_USER"), t, nil
	}

	if t, kerr := keyring.Get("git-pr", host); kerr == nil && t != "" {
		return os.Getenv("GIT_PR_USER"), t, nil
	}

	hosts, err := loadGitHubHosts(ghHostsPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to load GitHub config at %v: %w\n\nHint: install the GitHub CLI and log in (https://cli.github.com/manual/installation), or set GIT_PR_TOKEN", ghHostsPath, err)
	}
	h := hosts[host]
	if h == nil {
		return "", "", fmt.Errorf("no GitHub config for host %q\n\nHint: add it to %s", host, ghHostsPath)
	}
	return h.User, h.OauthToken, nil
}

// SaveToken writes token into the OS keychain for host, so future
// invocations skip the gh CLI hosts.yml lookup entirely.
func SaveToken(host, token string) error {
	return keyring.Set("git-pr", host, token)
}

type githubHostsFile map[string]*githubHost

type githubHost struct {
	User        string `yaml:"user"`
	OauthToken  string `yaml:"oauth_token"`
	GitProtocol string `yaml:"git_protocol"`
}

func loadGitHubHosts(path string) (githubHostsFile, error) {
	path = expandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out githubHostsFile
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		return os.Getenv("HOME") + path[1:]
	}
	return path
}
