package main

import (
	"fmt"
	"time"

	"kantong/internal/backend"
	"kantong/internal/log"
	"kantong/internal/services"

	"github.com/spf13/cobra"
)

func newExportSummaryCmd(a *app) *cobra.Command {
	var (
		userID string
		year   int
		month  int
	)

	cmd := &cobra.Command{
		Use:   "export-summary",
		Short: "Append a budget summary to the configured Google Sheet",
		Long: "Reconciles the user's budget for the given month against its expenses " +
			"and appends the result as one row of the summary sheet.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if year == 0 || month == 0 {
				now := time.Now().In(a.cfg.Location())
				year, month = now.Year(), int(now.Month())
			}

			bcfg, err := backend.FromAppConfig(a.cfg)
			if err != nil {
				return err
			}
			exporter, err := backend.NewFactory(a.logger).CreateExporter(ctx, bcfg)
			if err != nil {
				return err
			}

			return a.withStore(ctx, func(store services.Store) error {
				ledger := services.NewBudgetLedger(store, store, store, a.clock(), a.logger)
				b, err := ledger.ByMonthYear(ctx, userID, year, month)
				if err != nil {
					return err
				}
				summary, err := ledger.Summary(ctx, b.ID, userID)
				if err != nil {
					return err
				}
				ref, err := exporter.ExportSummary(ctx, summary)
				if err != nil {
					return fmt.Errorf("export summary: %w", err)
				}

				a.logger.InfoContext(ctx, "Summary exported",
					log.FieldUserID, userID, log.FieldBudgetID, b.ID,
					log.FieldYear, year, log.FieldMonth, month,
					log.FieldOperation, log.OpExport)
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d/%d (%s) to %s\n", month, year, summary.Status, ref)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the budget")
	cmd.Flags().IntVar(&year, "year", 0, "Budget year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Budget month 1-12 (default: current)")
	return cmd
}
