package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		maxDepth int
		lng      string
	)

	cmd := &cobra.Command{
		Use:   "resolve <entryId>",
		Short: "Print the resolved content tree of an entry",
		Long: `resolve parses an entry into the tree clients receive: media ids become
objects with a src, group pointers nest and entry pointers expand up to
--max-depth levels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.openEngine(ctx); err != nil {
				return err
			}

			entry, err := a.store.FindEntryByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("find entry: %w", err)
			}
			if entry == nil {
				return fmt.Errorf("entry %q not found", args[0])
			}

			tree, err := a.engine.ParseEntry(ctx, entry, maxDepth, lng)
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(tree, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal tree: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "entry pointer expansion depth (default: resolver.max_depth)")
	cmd.Flags().StringVar(&lng, "lng", "", "only resolve this language")
	return cmd
}
