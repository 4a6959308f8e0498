package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcms/bcms"
	"github.com/spf13/cobra"
)

// entryLister is implemented by every bundled store.
type entryLister interface {
	ListEntries(ctx context.Context) ([]*bcms.Entry, error)
}

func newValidateEntriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-entries",
		Short: "Validate every entry against its template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.openEngine(ctx); err != nil {
				return err
			}
			lister, ok := a.store.(entryLister)
			if !ok {
				return fmt.Errorf("store %T cannot list entries", a.store)
			}

			entries, err := lister.ListEntries(ctx)
			if err != nil {
				return fmt.Errorf("list entries: %w", err)
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for _, entry := range entries {
				err := a.engine.CheckEntry(ctx, entry)
				if err == nil {
					continue
				}
				var propErr *bcms.PropError
				if !errors.As(err, &propErr) || propErr.Type == bcms.ErrorTypeInternal {
					return fmt.Errorf("entry %s: %w", entry.ID, err)
				}
				invalid++
				fmt.Fprintf(out, "%s: %s\n", entry.ID, propErr.Error())
			}

			fmt.Fprintf(out, "validated %d entries, %d invalid\n", len(entries), invalid)
			if invalid > 0 {
				return fmt.Errorf("%d invalid entries", invalid)
			}
			return nil
		},
	}
}
