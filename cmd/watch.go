package main

import (
	"github.com/spf13/cobra"
)

var watchFlags scanFlags

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Appraise a wristwatch",
	Long:  "Identifies a watch down to a specific reference, prices it against filtered sold comps, and reports flip, skip, or not enough info. Brand alone is never priced.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx, watchFlags.noCache)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := watchFlags.request()
		if err != nil {
			return err
		}

		res, err := env.Analyzer.AnalyzeWatch(ctx, req)
		if err != nil {
			return err
		}

		if watchFlags.asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printAnalysis(cmd.OutOrStdout(), res.Summary, res.Identity, res.PriceTruth, res.Decision, res.FromCache)
		return nil
	},
}

func init() {
	watchFlags.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
