package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iOliverNguyen/git-pr/internal/engine"
	"github.com/iOliverNguyen/git-pr/internal/stack"
)

// groupSpecFile is the on-disk shape accepted by `git-pr group --spec`, a
// direct YAML rendering of spec §4.I's `apply-group-spec` input.
type groupSpecFile struct {
	Order  []string `yaml:"order"`
	Groups []struct {
		Commits []string `yaml:"commits"`
		Name    string   `yaml:"name"`
		ID      string   `yaml:"id"`
	} `yaml:"groups"`
}

func loadGroupSpec(path string) (engine.GroupSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.GroupSpec{}, err
	}
	var f groupSpecFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return engine.GroupSpec{}, err
	}
	spec := engine.GroupSpec{Order: f.Order}
	for _, g := range f.Groups {
		spec.Groups = append(spec.Groups, engine.GroupSpecEntry{Commits: g.Commits, Name: g.Name, ID: g.ID})
	}
	return spec, nil
}

func newGroupCmd(a *app) *cobra.Command {
	var specPath string
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Apply a group/order specification to the stack",
		Long:  "Reads a YAML spec ({order, groups:[{commits,name,id}]}) describing the desired commit order and group membership, and applies it atomically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if specPath == "" {
				return fmt.Errorf("--spec is required")
			}
			spec, err := loadGroupSpec(specPath)
			if err != nil {
				return err
			}
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			result, err := e.ApplyGroupSpec(spec)
			if err != nil {
				return err
			}
			fmt.Printf("modified %d commit(s), reordered=%v\n", result.Modified, result.Reordered)
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "path to a YAML group spec")
	return cmd
}

func newReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <ref>...",
		Short: "Reorder the stack to the given commit reference sequence, preserving group membership",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			units, err := e.Units()
			if err != nil {
				return err
			}
			spec := engine.GroupSpec{Order: args}
			for _, u := range units {
				if u.Kind != stack.KindGroup {
					continue
				}
				entry := engine.GroupSpecEntry{ID: u.ID}
				for _, c := range u.Commits {
					entry.Commits = append(entry.Commits, c.Hash)
				}
				spec.Groups = append(spec.Groups, entry)
			}
			result, err := e.ApplyGroupSpec(spec)
			if err != nil {
				return err
			}
			fmt.Printf("modified %d commit(s), reordered=%v\n", result.Modified, result.Reordered)
			return nil
		},
	}
}

func newDissolveCmd(a *app) *cobra.Command {
	var assignTo string
	cmd := &cobra.Command{
		Use:   "dissolve <group-id>",
		Short: "Dissolve a group, stripping its Group trailers from its member commits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			modified, err := e.DissolveGroup(args[0], assignTo)
			if err != nil {
				return err
			}
			fmt.Printf("dissolved %q, modified %d commit(s)\n", args[0], modified)
			return nil
		},
	}
	cmd.Flags().StringVar(&assignTo, "assign-to", "", "commit that should inherit the group's id as its own Commit-Id")
	return cmd
}

func newMergeSplitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge-split <group-id>",
		Short: "Make a non-contiguous group contiguous again without reordering the remaining commits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			result, err := e.MergeSplitGroup(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("merged %q, modified %d commit(s)\n", args[0], result.Modified)
			return nil
		},
	}
}

func newRepairCmd(a *app) *cobra.Command {
	var removeGroupTrailers bool
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Bulk-repair a stack left in an inconsistent state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !removeGroupTrailers {
				return fmt.Errorf("nothing to do: pass --remove-group-trailers")
			}
			e, _, err := a.newEngine()
			if err != nil {
				return err
			}
			modified, err := e.RemoveAllGroupTrailers()
			if err != nil {
				return err
			}
			fmt.Printf("stripped group trailers from %d commit(s)\n", modified)
			return nil
		},
	}
	cmd.Flags().BoolVar(&removeGroupTrailers, "remove-group-trailers", false, "strip every Group:/Group-Title: trailer in the stack")
	return cmd
}
