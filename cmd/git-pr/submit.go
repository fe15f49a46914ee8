package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iOliverNguyen/git-pr/cmd/git-pr/ui"
	"github.com/iOliverNguyen/git-pr/internal/platform/github"
	"github.com/iOliverNguyen/git-pr/internal/stack"
)

// unitBranch derives the remote branch name for a PR unit, mirroring the
// teacher's githubCreatePRForCommit Remote-Ref scheme (<user>/<suffix>)
// but keyed on the stable Commit-Id/Group id instead of a short hash, so
// the branch name survives message rewrites.
func unitBranch(user string, u stack.Unit) string {
	return fmt.Sprintf("git-pr/%s/%s", user, u.ID)
}

func draftSuffix(draft bool) string {
	if draft {
		return " (draft)"
	}
	return ""
}

func newSubmitCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Push each stack unit to its own branch and open or update its pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := a.newEngine()
			if err != nil {
				return err
			}
			units, err := e.Units()
			if err != nil {
				return err
			}
			if len(units) == 0 {
				fmt.Println("no commits to submit")
				return nil
			}

			client := github.New(cfg.Host, cfg.Repo, cfg.Token, cfg.Timeout)
			ctx := context.Background()
			base := cfg.MainBranch

			for i, u := range units {
				if u.ID == "" {
					return fmt.Errorf("commit %s has no Commit-Id; run `git-pr ids` first", u.AllCommits()[0].Hash[:8])
				}
				commits := u.AllCommits()
				tip := commits[len(commits)-1]

				if !cfg.IncludeOtherAuthors && tip.AuthorEmail != "" && tip.AuthorEmail != cfg.Email {
					ui.Step(i+1, len(units), "%s (skipped: authored by %s)", u.Title, tip.AuthorEmail)
					continue
				}

				branch := unitBranch(cfg.User, u)
				ui.Step(i+1, len(units), "%s (%s)", u.Title, branch)
				if dryRun {
					ui.Pending("[dry-run] would push %s -> %s and open/update a PR against %s", tip.Hash[:8], branch, base)
					base = branch
					continue
				}

				if _, err := e.Repo.Git("push", "-f", cfg.Remote, tip.Hash+":refs/heads/"+branch); err != nil {
					return fmt.Errorf("push %s: %w", branch, err)
				}

				pr, found, err := client.SearchPRForCommit(ctx, tip.Hash, branch)
				if err != nil {
					return err
				}
				body := commits[0].Body
				draft := tip.IsDraft()
				tags := tip.Tags()
				if found {
					if _, err := client.UpdatePR(ctx, pr.Number, u.Title, body, base); err != nil {
						return err
					}
					if err := client.SetLabels(ctx, pr.Number, tags); err != nil {
						return err
					}
					ui.Success("updated PR #%d", pr.Number)
				} else {
					created, err := client.CreatePR(ctx, u.Title, body, branch, base, draft)
					if err != nil {
						return err
					}
					if err := client.SetLabels(ctx, created.Number, tags); err != nil {
						return err
					}
					ui.Success("opened PR #%d%s", created.Number, draftSuffix(draft))
				}
				base = branch
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be pushed/opened without doing it")
	return cmd
}
