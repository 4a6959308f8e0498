package main

import (
	"context"
	"fmt"

	"github.com/bcms/bcms"
	"github.com/bcms/bcms/factory"
	"github.com/bcms/bcms/internal"
	"github.com/spf13/cobra"
)

func newInitDBCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the document tables",
		Long: `init-db creates one (id, data) document table per collection in the
configured database. Existing tables are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDatabase(cmd.Context(), a.config.Database); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully.")
			return nil
		},
	}
}

func initDatabase(ctx context.Context, cfg bcms.DatabaseConfig) error {
	if cfg.Driver == bcms.DriverPgx {
		pool, err := factory.NewPostgresPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		return internal.NewPostgresRepository(pool, cfg.TableNames, nil).CreateTables(ctx, cfg.TableNames)
	}

	repo, err := internal.OpenSQLRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.CreateTables(ctx, cfg.TableNames)
}
