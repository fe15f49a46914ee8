// Command git-pr is the thin CLI front end: one cobra subcommand per
// component I entry point, plus submit/land which drive the platform
// adapter on top of the engine. Generalizes the teacher's flat main.go
// (a single linear script run top to bottom) into named, independently
// invokable operations, the shape spec §4.K calls for.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iOliverNguyen/git-pr/internal/config"
	"github.com/iOliverNguyen/git-pr/internal/engine"
	"github.com/iOliverNguyen/git-pr/internal/logx"
	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

// app bundles the flag-derived state shared by every subcommand.
type app struct {
	repoDir             string
	remote              string
	mainBranch          string
	branch              string
	includeOtherAuthors bool
	verbose             bool
	timeout             time.Duration
	ghHostsPath         string
}

func (a *app) loadConfig() (config.Config, error) {
	logx.SetVerbose(a.verbose)
	return config.Load(config.Options{
		RepoDir:             a.repoDir,
		Remote:              a.remote,
		MainBranch:          a.mainBranch,
		Branch:              a.branch,
		IncludeOtherAuthors: a.includeOtherAuthors,
		Verbose:             a.verbose,
		Timeout:             a.timeout,
		GitHubHostsPath:     a.ghHostsPath,
	})
}

func (a *app) newEngine() (*engine.Engine, config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	e, err := engine.New(a.repoDir, a.branch, cfg.IntegrationBranch)
	if err != nil {
		return nil, config.Config{}, err
	}
	return e, cfg, nil
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "git-pr",
		Short:         "Manage a local branch as a stack of independently reviewable pull requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.remote, "remote", "origin", "remote name")
	root.PersistentFlags().StringVar(&a.mainBranch, "main", "main", "integration branch name, relative to --remote")
	root.PersistentFlags().StringVar(&a.branch, "branch", "", "local branch to operate on (default: current branch)")
	root.PersistentFlags().BoolVar(&a.includeOtherAuthors, "include-other-authors", false, "include commits authored by others when submitting")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose (debug-level) logging")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 20*time.Second, "platform API call timeout")
	root.PersistentFlags().StringVar(&a.ghHostsPath, "gh-hosts", "~/.config/gh/hosts.yml", "path to the gh CLI's hosts.yml, used as a fallback token source")

	wd, _ := os.Getwd()
	a.repoDir = wd

	root.AddCommand(
		newIDsCmd(a),
		newGroupCmd(a),
		newReorderCmd(a),
		newDissolveCmd(a),
		newMergeSplitCmd(a),
		newRebaseCmd(a),
		newRepairCmd(a),
		newSubmitCmd(a),
		newLandCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(xerrors.ExitCode(err))
	}
}
