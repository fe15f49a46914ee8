package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIDsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "Assign a Commit-Id to every commit in the stack that lacks one",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			result, err := e.InjectIDs()
			if err != nil {
				return err
			}
			if result.Modified == 0 {
				fmt.Println("all commits already have an id")
				return nil
			}
			fmt.Printf("assigned ids to %d commit(s)\n", result.Modified)
			return nil
		},
	}
}
