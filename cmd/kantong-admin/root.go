package main

import (
	"context"
	"fmt"

	"kantong/internal/cli"
	"kantong/internal/config"
	"kantong/internal/log"
	"kantong/internal/services"

	"github.com/spf13/cobra"
)

// app is what every subcommand needs once the configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "kantong-admin",
		Short:        "Maintenance tasks for kantong",
		Long:         "Run schema migrations, export budget summaries and repair streaks.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cfg, log.ComponentAdmin)
			return nil
		},
	}

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newExportSummaryCmd(a))
	root.AddCommand(newStreakRecomputeCmd(a))
	return root
}

// withStore opens the configured backend for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(services.Store) error) error {
	res, err := cli.OpenStore(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer res.Cleanup()
	return fn(res.Store)
}

func (a *app) clock() services.Clock {
	return services.Clock{Location: a.cfg.Location()}
}
