package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fliplens/appraise-cli/internal/model"
	"github.com/fliplens/appraise-cli/internal/store"
)

var (
	historyCategory string
	historyVerdict  string
	historyLimit    int
	historyJSON     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scans",
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

		scans, err := st.ListScans(ctx, store.ScanFilter{
			Category: model.Category(historyCategory),
			Verdict:  model.Verdict(historyVerdict),
			Limit:    historyLimit,
		})
		if err != nil {
			return err
		}

		if historyJSON {
			return printJSON(cmd.OutOrStdout(), scans)
		}

		out := cmd.OutOrStdout()
		for _, s := range scans {
			profit := "-"
			if s.Profit != nil {
				profit = money(*s.Profit)
			}
			fmt.Fprintf(out, "%s  %-5s  %-15s  buy %-9s  profit %-9s  %s\n",
				s.CreatedAt.Format("2006-01-02 15:04"),
				s.Category, s.Verdict, money(s.BuyPrice), profit, s.ItemLabel)
		}
		fmt.Fprintf(out, "%d scan(s)\n", len(scans))
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "filter by category (card or watch)")
	historyCmd.Flags().StringVar(&historyVerdict, "verdict", "", "filter by verdict (FLIP, SKIP, NOT_ENOUGH_INFO)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max scans to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(historyCmd)
}
