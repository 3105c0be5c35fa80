package main

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/fliplens/appraise-cli/internal/model"
)

var reportHeader = []string{
	"line", "category", "item", "verdict", "confidence",
	"expected_sell", "buy_price", "profit", "margin_pct", "max_buy",
	"cached", "warnings", "error",
}

// writeReport renders batch results to an XLSX workbook, one row per input
// line, in input order.
func writeReport(path string, results []batchResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Appraisals")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range reportHeader {
		header.AddCell().Value = h
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Item.Line)
		row.AddCell().Value = string(r.Item.Category)

		if r.Err != nil {
			row.AddCell().Value = ""
			row.AddCell().Value = "ERROR"
			for i := 0; i < 8; i++ {
				row.AddCell()
			}
			row.AddCell().Value = r.Err.Error()
			continue
		}

		row.AddCell().Value = r.ItemLabel
		row.AddCell().Value = string(r.Verdict)
		row.AddCell().Value = r.Decision.Confidence
		addMoneyCell(row, r.Decision.ExpectedSell)
		row.AddCell().SetFloat(r.Item.Request.BuyPrice)
		addMoneyCell(row, r.Decision.Profit)
		addMoneyCell(row, r.Decision.MarginPct)
		addMoneyCell(row, r.Decision.MaxBuyPrice)
		row.AddCell().SetBool(r.FromCache)
		row.AddCell().Value = joinWarnings(r.Decision.Warnings)
		row.AddCell()
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addMoneyCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

// reportVerdictCounts tallies results for the completion log line.
func reportVerdictCounts(results []batchResult) map[model.Verdict]int {
	counts := make(map[model.Verdict]int)
	for _, r := range results {
		if r.Err == nil {
			counts[r.Verdict]++
		}
	}
	return counts
}
