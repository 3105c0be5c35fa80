package main

import (
	"context"
	"encoding/csv"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fliplens/appraise-cli/internal/analyzer"
	"github.com/fliplens/appraise-cli/internal/model"
)

var (
	batchInput  string
	batchOutput string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Appraise a CSV of items and write an XLSX report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalyzer(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := parseBatchFile(batchInput)
		if err != nil {
			return err
		}
		zap.L().Info("batch loaded", zap.String("input", batchInput), zap.Int("items", len(items)))

		results := runBatch(ctx, env.Analyzer, items, cfg.Batch.MaxConcurrentScans)

		if err := writeReport(batchOutput, results); err != nil {
			return err
		}

		counts := reportVerdictCounts(results)
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		zap.L().Info("batch complete",
			zap.String("report", batchOutput),
			zap.Int("flips", counts[model.VerdictFlip]),
			zap.Int("skips", counts[model.VerdictSkip]),
			zap.Int("not_enough_info", counts[model.VerdictNotEnoughInfo]),
			zap.Int("failed", failed),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input CSV path")
	batchCmd.Flags().StringVar(&batchOutput, "output", "report.xlsx", "output XLSX path")
	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// batchItem is one CSV row, unresolved: image paths, not image bytes.
type batchItem struct {
	Line      int
	Category  model.Category
	FrontPath string
	BackPath  string
	Request   analyzer.Request
}

// batchResult is one appraised row with enough flattened detail for the
// report. Err is set when the row failed before a verdict existed.
type batchResult struct {
	Item      batchItem
	Err       error
	ItemLabel string
	Verdict   model.Verdict
	Label     string
	Summary   model.DisplaySummary
	Decision  model.Decision
	FromCache bool
}

// batchColumns maps header names to row indexes. Column order is free; the
// header row is required.
func batchColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func parseBatchFile(path string) ([]batchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open batch input %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parse batch csv")
	}
	if len(records) < 2 {
		return nil, eris.New("batch csv needs a header row and at least one item")
	}

	cols := batchColumns(records[0])
	if _, ok := cols["category"]; !ok {
		return nil, eris.New("batch csv is missing the category column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []batchItem
	for n, row := range records[1:] {
		line := n + 2
		cat := model.Category(strings.ToLower(field(row, "category")))
		if !cat.Valid() {
			return nil, eris.Errorf("line %d: unknown category %q", line, field(row, "category"))
		}

		item := batchItem{
			Line:      line,
			Category:  cat,
			FrontPath: field(row, "front"),
			BackPath:  field(row, "back"),
			Request: analyzer.Request{
				Condition: model.ConditionBucket(field(row, "condition")),
				Manual: analyzer.ManualFields{
					Name:       field(row, "name"),
					SetOrBrand: field(row, "set_or_brand"),
					Number:     field(row, "number"),
					Variant:    field(row, "variant"),
					Grade:      field(row, "grade"),
					CertNumber: field(row, "cert_number"),
				},
			},
		}
		if s := field(row, "buy_price"); s != "" {
			if item.Request.BuyPrice, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, eris.Errorf("line %d: bad buy_price %q", line, s)
			}
		}
		if s := field(row, "shipping_in"); s != "" {
			if item.Request.ShippingIn, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, eris.Errorf("line %d: bad shipping_in %q", line, s)
			}
		}
		if s := field(row, "year"); s != "" {
			if item.Request.Manual.Year, err = strconv.Atoi(s); err != nil {
				return nil, eris.Errorf("line %d: bad year %q", line, s)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// runBatch appraises every item with bounded concurrency. A failed row never
// aborts the batch; it lands in the report with its error.
func runBatch(ctx context.Context, a *analyzer.Analyzer, items []batchItem, concurrency int) []batchResult {
	results := make([]batchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = appraiseItem(gctx, a, item)
			if results[i].Err != nil {
				zap.L().Warn("batch item failed",
					zap.Int("line", item.Line),
					zap.Error(results[i].Err))
			}
			return nil
		})
	}
	g.Wait()
	return results
}

func appraiseItem(ctx context.Context, a *analyzer.Analyzer, item batchItem) batchResult {
	res := batchResult{Item: item}

	req := item.Request
	var err error
	if item.FrontPath != "" {
		if req.FrontImage, err = loadImage(item.FrontPath); err != nil {
			res.Err = err
			return res
		}
		req.MediaType = mediaTypeFor(item.FrontPath)
	}
	if item.BackPath != "" {
		if req.BackImage, err = loadImage(item.BackPath); err != nil {
			res.Err = err
			return res
		}
	}

	switch item.Category {
	case model.CategoryWatch:
		var out *model.WatchAnalysis
		if out, err = a.AnalyzeWatch(ctx, req); err == nil {
			res.Verdict = out.Decision.Verdict
			res.Label = out.Decision.Label
			res.Summary = out.Summary
			res.Decision = out.Decision
			res.FromCache = out.FromCache
			res.ItemLabel = analyzer.ItemLabel(out.Identity)
		}
	default:
		var out *model.CardAnalysis
		if out, err = a.AnalyzeCard(ctx, req); err == nil {
			res.Verdict = out.Decision.Verdict
			res.Label = out.Decision.Label
			res.Summary = out.Summary
			res.Decision = out.Decision
			res.FromCache = out.FromCache
			res.ItemLabel = analyzer.ItemLabel(out.Identity)
		}
	}
	res.Err = err
	return res
}
