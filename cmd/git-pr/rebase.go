package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iOliverNguyen/git-pr/internal/xerrors"
)

func newRebaseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebase",
		Short: "Replay the stack onto the integration branch's current tip",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			result, err := e.RebaseOntoBase()
			if err != nil {
				if xerrors.Is(err, xerrors.RebaseConflict) {
					fmt.Println("conflict detected; falling back to an interactive rebase, resolve and run `git rebase --continue`")
					return nil
				}
				return err
			}
			if !result.Rebased {
				fmt.Println("already up to date")
				return nil
			}
			fmt.Println("rebase complete")
			return nil
		},
	}
}
