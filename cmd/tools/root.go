package main

import (
	"context"
	"fmt"

	"github.com/bcms/bcms"
	"github.com/bcms/bcms/factory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configFile string
	contentDir string
	logLevel   string

	config *bcms.Config
	store  factory.Store
	engine bcms.PropEngine
	close  func()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bcms-tools",
		Short: "Operator tools for the bcms content engine",
		Long: `bcms-tools inspects and migrates content schemas.

Content is read from --content-dir when given, otherwise from the database
configured in --config or BCMS_ prefixed environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.close != nil {
				a.close()
			}
			_ = zap.L().Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml)")
	root.PersistentFlags().StringVar(&a.contentDir, "content-dir", "", "directory with groups/, templates/, entries/, media/ and languages/")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newCheckCyclesCmd(a),
		newValidateEntriesCmd(a),
		newResolveCmd(a),
		newMigrateCmd(a),
		newInitDBCmd(a),
		newImportCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := loadConfig(a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.contentDir != "" {
		cfg.Content.Directory = a.contentDir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := factory.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	a.config = cfg
	return nil
}

// openEngine opens the configured store and wires an engine over it.
func (a *app) openEngine(ctx context.Context) error {
	store, closeStore, err := factory.OpenStore(ctx, a.config)
	if err != nil {
		return err
	}
	a.close = closeStore

	engine, err := factory.NewPropEngineWithStore(ctx, a.config, store)
	if err != nil {
		return err
	}
	a.store = store
	a.engine = engine
	return nil
}
