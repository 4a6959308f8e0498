package main

import (
	"errors"
	"fmt"

	"github.com/bcms/bcms"
	"github.com/spf13/cobra"
)

func newCheckCyclesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-cycles",
		Short: "Report group pointer loops in every group and template",
		Long: `check-cycles runs the pointer loop detector over every stored group and
template. Each group is checked starting from itself, so a group that
reaches itself through other groups is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.openEngine(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			groups, err := a.store.ListGroups(ctx)
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}
			templates, err := a.store.ListTemplates(ctx)
			if err != nil {
				return fmt.Errorf("list templates: %w", err)
			}

			found := 0
			report := func(err error) error {
				var propErr *bcms.PropError
				if !errors.As(err, &propErr) || propErr.Type == bcms.ErrorTypeInternal {
					return err
				}
				found++
				fmt.Fprintln(out, propErr.Error())
				return nil
			}

			for _, group := range groups {
				path := []bcms.PropPathEntry{{GroupID: group.ID, Label: group.Label}}
				if err := a.engine.TestInfiniteLoop(ctx, group.Props, path, "group."+group.Name); err != nil {
					if err := report(err); err != nil {
						return err
					}
				}
			}
			for _, template := range templates {
				if err := a.engine.TestInfiniteLoop(ctx, template.Props, nil, "template."+template.Name); err != nil {
					if err := report(err); err != nil {
						return err
					}
				}
			}

			fmt.Fprintf(out, "checked %d groups and %d templates\n", len(groups), len(templates))
			if found > 0 {
				return fmt.Errorf("found %d problems", found)
			}
			return nil
		},
	}
}
