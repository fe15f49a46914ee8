package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iOliverNguyen/git-pr/cmd/git-pr/ui"
	"github.com/iOliverNguyen/git-pr/internal/platform/github"
)

// newLandCmd walks the stack bottom-to-top, merging each unit's PR in
// turn, grounded on the teacher's landStack sequential loop (land.go) but
// without its interactive dashboard/poll-for-checks machinery: this
// version calls GitHub's merge endpoint for each PR in turn without
// checking mergeability first, stops at the first failed merge, and leaves
// CI-gating to branch protection rather than polling check runs itself.
func newLandCmd(a *app) *cobra.Command {
	var dryRun bool
	var mergeMethod string
	cmd := &cobra.Command{
		Use:   "land",
		Short: "Merge the stack's pull requests in order, from the bottom up",
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
				fmt.Println("no commits to land")
				return nil
			}

			client := github.New(cfg.Host, cfg.Repo, cfg.Token, cfg.Timeout)
			ctx := context.Background()

			for i, u := range units {
				commits := u.AllCommits()
				tip := commits[len(commits)-1].Hash
				branch := unitBranch(cfg.User, u)

				pr, found, err := client.SearchPRForCommit(ctx, tip, branch)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no open PR found for %q (%s); run `git-pr submit` first", u.Title, branch)
				}

				ui.Step(i+1, len(units), "PR #%d: %s", pr.Number, pr.Title)
				if pr.State == "closed" {
					ui.Success("already merged")
					continue
				}
				if dryRun {
					ui.Pending("[dry-run] would merge PR #%d via %s", pr.Number, mergeMethod)
					continue
				}
				if err := client.Merge(ctx, pr.Number, mergeMethod); err != nil {
					ui.Fail("failed to merge PR #%d: %v", pr.Number, err)
					return err
				}
				ui.Success("merged PR #%d", pr.Number)
			}
			fmt.Printf("\nsuccessfully landed %d PR(s)\n", len(units))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be merged without doing it")
	cmd.Flags().StringVar(&mergeMethod, "merge-method", "squash", "merge method: merge, squash, or rebase")
	return cmd
}
