package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fliplens/appraise-cli/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printAnalysis renders the human-readable verdict block. The headline and
// confidence label come through unmodified; every surface shows the same
// summary.
func printAnalysis(w io.Writer, sum model.DisplaySummary, id model.Identity, pt model.PriceTruth, dec model.Decision, fromCache bool) {
	fmt.Fprintln(w, sum.Headline)
	if sum.Subheadline != "" {
		fmt.Fprintln(w, sum.Subheadline)
	}
	fmt.Fprintf(w, "confidence: %s\n", sum.ConfidenceLabel)
	fmt.Fprintln(w)

	if id.Blocked() {
		fmt.Fprintf(w, "identification blocked: %s\n", id.BlockReason)
		if id.NeedsModelSelection {
			fmt.Fprintln(w, "pick the exact model to continue; the brand alone cannot be priced")
		}
	}

	if pt.Usable() {
		cached := ""
		if fromCache {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "price anchor: %s%s from %d of %d comps (%s)\n",
			money(*pt.Anchor), cached, pt.CompsUsed, pt.SampleSize, pt.Source)
		if pt.Low > 0 || pt.High > 0 {
			fmt.Fprintf(w, "comp range:   %s - %s\n", money(pt.Low), money(pt.High))
		}
	}

	if dec.ExpectedSell != nil {
		fmt.Fprintf(w, "expected sell: %s\n", money(*dec.ExpectedSell))
	}
	if dec.MaxBuyPrice != nil {
		fmt.Fprintf(w, "max buy:       %s\n", money(*dec.MaxBuyPrice))
	}
	if dec.Costs != nil {
		fmt.Fprintf(w, "all-in cost:   %s (fees %s, shipping %s)\n",
			money(dec.Costs.Total), money(dec.Costs.PlatformFees),
			money(dec.Costs.ShippingIn+dec.Costs.ShippingOut))
	}
	if dec.Profit != nil {
		fmt.Fprintf(w, "profit:        %s", money(*dec.Profit))
		if dec.MarginPct != nil {
			fmt.Fprintf(w, " (%.1f%% margin", *dec.MarginPct)
			if dec.ROIPct != nil {
				fmt.Fprintf(w, ", %.1f%% ROI", *dec.ROIPct)
			}
			fmt.Fprint(w, ")")
		}
		fmt.Fprintln(w)
	}

	if len(dec.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range dec.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	}
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func joinWarnings(warnings []string) string {
	return strings.Join(warnings, "; ")
}
