package main

import (
	"github.com/spf13/cobra"
)

var cardFlags scanFlags

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Appraise a trading card",
	Long:  "Identifies a card from its photos (or manual overrides), prices it against filtered sold comps, and reports flip, skip, or not enough info.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx, cardFlags.noCache)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := cardFlags.request()
		if err != nil {
			return err
		}

		res, err := env.Analyzer.AnalyzeCard(ctx, req)
		if err != nil {
			return err
		}

		if cardFlags.asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printAnalysis(cmd.OutOrStdout(), res.Summary, res.Identity, res.PriceTruth, res.Decision, res.FromCache)
		return nil
	},
}

func init() {
	cardFlags.register(cardCmd)
	rootCmd.AddCommand(cardCmd)
}
