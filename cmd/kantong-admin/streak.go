package main

import (
	"fmt"

	"kantong/internal/services"

	"github.com/spf13/cobra"
)

func newStreakRecomputeCmd(a *app) *cobra.Command {
	var userIDs []string

	cmd := &cobra.Command{
		Use:   "streak-recompute",
		Short: "Rebuild users' streaks from their logging history",
		Long: "Replays the days on which each user logged expenses and overwrites the " +
			"stored streak. Use it to repair streaks written before updates were atomic.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(userIDs) == 0 {
				return fmt.Errorf("at least one --user is required")
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(store services.Store) error {
				counter := services.NewStreakCounter(store, store, a.clock(), a.logger)
				for _, id := range userIDs {
					s, err := counter.Recompute(ctx, id)
					if err != nil {
						return fmt.Errorf("recompute %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s current=%d longest=%d\n", id, s.CurrentStreak, s.LongestStreak)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&userIDs, "user", "u", nil, "User to recompute (repeatable)")
	return cmd
}
