package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fliplens/appraise-cli/internal/compstats"
	"github.com/fliplens/appraise-cli/pkg/marketplace"
)

var (
	compsCategory  string
	compsKeywords  string
	compsCondition string
	compsLimit     int
	compsActive    bool
)

// compsCmd is a debugging surface: it runs the raw comp search and prints
// what the statistical filter keeps and drops, without building an identity.
var compsCmd = &cobra.Command{
	Use:   "comps",
	Short: "Search raw comps for a keyword query",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Marketplace.Key == "" {
			return fmt.Errorf("marketplace key is required (APPRAISE_MARKETPLACE_KEY)")
		}

		client := marketplace.NewClient(cfg.Marketplace.Key,
			marketplace.WithBaseURL(cfg.Marketplace.BaseURL),
			marketplace.WithRateLimit(cfg.Marketplace.RequestsPerSec, cfg.Marketplace.Burst),
		)

		q := marketplace.Query{
			Category:  compsCategory,
			Keywords:  compsKeywords,
			Condition: compsCondition,
			MaxAgeDay: 90,
			Limit:     compsLimit,
		}

		search := client.SearchSold
		if compsActive {
			search = client.SearchActive
		}
		res, err := search(ctx, q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, l := range res.Listings {
			fmt.Fprintf(out, "%-10s %s\n", money(l.Price), l.Title)
		}

		stats := compstats.Process(res.Prices())
		fmt.Fprintf(out, "\n%d listings, %d kept after filtering\n", len(stats.Raw), len(stats.FinalComps))
		if stats.Median > 0 {
			fmt.Fprintf(out, "trimmed median %s, range %s - %s\n",
				money(stats.Median), money(stats.Low), money(stats.High))
		}
		return nil
	},
}

func init() {
	compsCmd.Flags().StringVar(&compsCategory, "category", "card", "category (card or watch)")
	compsCmd.Flags().StringVar(&compsKeywords, "keywords", "", "search keywords")
	compsCmd.Flags().StringVar(&compsCondition, "condition", "", "condition bucket")
	compsCmd.Flags().IntVar(&compsLimit, "limit", 25, "max listings to fetch")
	compsCmd.Flags().BoolVar(&compsActive, "active", false, "search active listings instead of sold")
	compsCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(compsCmd)
}
