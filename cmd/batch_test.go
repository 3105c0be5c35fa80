package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/fliplens/appraise-cli/internal/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseBatchFile(t *testing.T) {
	path := writeTempCSV(t, `category,set_or_brand,number,name,year,buy_price,shipping_in,condition
card,2020 Prizm,278,LaMelo Ball,2020,20,4.50,raw
watch,Invicta,8926OB,,,40,,used
`)

	items, err := parseBatchFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 2, items[0].Line)
	assert.Equal(t, model.CategoryCard, items[0].Category)
	assert.Equal(t, "2020 Prizm", items[0].Request.Manual.SetOrBrand)
	assert.Equal(t, "278", items[0].Request.Manual.Number)
	assert.Equal(t, 2020, items[0].Request.Manual.Year)
	assert.Equal(t, 20.0, items[0].Request.BuyPrice)
	assert.Equal(t, 4.5, items[0].Request.ShippingIn)
	assert.Equal(t, model.ConditionRaw, items[0].Request.Condition)

	assert.Equal(t, model.CategoryWatch, items[1].Category)
	assert.Equal(t, "8926OB", items[1].Request.Manual.Number)
	assert.Equal(t, model.ConditionUsed, items[1].Request.Condition)
}

func TestParseBatchFile_ColumnOrderIsFree(t *testing.T) {
	path := writeTempCSV(t, `buy_price,category,number,set_or_brand
15,card,100,2020 Prizm
`)

	items, err := parseBatchFile(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "100", items[0].Request.Manual.Number)
	assert.Equal(t, 15.0, items[0].Request.BuyPrice)
}

func TestParseBatchFile_RejectsUnknownCategory(t *testing.T) {
	path := writeTempCSV(t, "category,buy_price\ncoin,20\n")

	_, err := parseBatchFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestParseBatchFile_RejectsBadNumbers(t *testing.T) {
	path := writeTempCSV(t, "category,buy_price\ncard,twenty\n")

	_, err := parseBatchFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad buy_price")
}

func TestParseBatchFile_RequiresHeaderAndRows(t *testing.T) {
	path := writeTempCSV(t, "category,buy_price\n")

	_, err := parseBatchFile(path)
	require.Error(t, err)
}

func TestParseBatchFile_MissingFile(t *testing.T) {
	_, err := parseBatchFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestWriteReport_RoundTrip(t *testing.T) {
	profit := 17.84
	sell := 43.50
	results := []batchResult{
		{
			Item:      batchItem{Line: 2, Category: model.CategoryCard},
			ItemLabel: "Prizm #278 LaMelo Ball",
			Verdict:   model.VerdictFlip,
			Decision: model.Decision{
				Verdict:      model.VerdictFlip,
				Confidence:   "high",
				ExpectedSell: &sell,
				Profit:       &profit,
				Warnings:     []string{"back scan failed: timeout"},
			},
		},
		{
			Item: batchItem{Line: 3, Category: model.CategoryWatch},
			Err:  os.ErrNotExist,
		},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, writeReport(path, results))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "verdict", sheet.Rows[0].Cells[3].Value)
	assert.Equal(t, "FLIP", sheet.Rows[1].Cells[3].Value)
	assert.Equal(t, "Prizm #278 LaMelo Ball", sheet.Rows[1].Cells[2].Value)
	assert.Contains(t, sheet.Rows[1].Cells[11].Value, "back scan failed")
	assert.Equal(t, "ERROR", sheet.Rows[2].Cells[3].Value)
	assert.NotEmpty(t, sheet.Rows[2].Cells[12].Value)
}

func TestReportVerdictCounts(t *testing.T) {
	results := []batchResult{
		{Verdict: model.VerdictFlip},
		{Verdict: model.VerdictFlip},
		{Verdict: model.VerdictSkip},
		{Err: os.ErrNotExist, Verdict: model.VerdictFlip},
	}

	counts := reportVerdictCounts(results)
	assert.Equal(t, 2, counts[model.VerdictFlip])
	assert.Equal(t, 1, counts[model.VerdictSkip])
}
