package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cachePurgeAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the price snapshot cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache and scan history counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "snapshots: %d (%d expired)\n", stats.Snapshots, stats.Expired)
		fmt.Fprintf(out, "scans:     %d\n", stats.Scans)
		if !stats.OldestAt.IsZero() {
			fmt.Fprintf(out, "oldest:    %s\n", stats.OldestAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired snapshots (or everything with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		purge := st.PurgeExpired
		if cachePurgeAll {
			purge = st.PurgeAll
		}
		n, err := purge(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("cache purged", zap.Int("removed", n), zap.Bool("all", cachePurgeAll))
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d snapshot(s)\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "purge valid snapshots too")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
