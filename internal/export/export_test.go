package export_test

import (
	"bytes"
	"testing"

	"soq/internal/compare"
	"soq/internal/export"
	"soq/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func sampleResult() compare.Result {
	d := decimal.RequireFromString
	return compare.Result{
		TenderID:      "t1",
		TenderName:    "Perimeter fence",
		Status:        models.TenderSubmitted,
		EstimateTotal: d("50"),
		Bidders: []compare.BidderResult{
			{
				Rank: 1, BidderName: "Acme", AggregateCost: d("60"), AggregateEstimate: d("50"),
				AggregateVariance: d("10"), AggregateVariancePct: d("0.2"), EstimatedDuration: 5,
				Items: []compare.ItemVariance{{
					JobID: "j1", ItemID: "m1", Kind: models.KindMaterial, Description: "Post",
					EstimatedQuantity: d("10"), BidderQuantity: d("12"), QuantityVariance: d("2"),
					EstimatedTotal: d("50"), BidderTotal: d("60"), CostVariance: d("10"), CostVariancePct: d("0.2"),
				}},
				Unmatched: []compare.UnmatchedItem{{ItemID: "x", Kind: models.KindLabor, Side: compare.SideBid}},
			},
		},
	}
}

func TestWorkbook(t *testing.T) {
	f, err := export.Workbook(sampleResult())
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{export.SummarySheet, "1. Acme"}, f.GetSheetList())

	v, err := f.GetCellValue(export.SummarySheet, "B6")
	require.NoError(t, err)
	require.Equal(t, "Acme", v)

	v, err = f.GetCellValue("1. Acme", "J2")
	require.NoError(t, err)
	require.Equal(t, "10", v)

	v, err = f.GetCellValue("1. Acme", "D4")
	require.NoError(t, err)
	require.Equal(t, "unmatched (bid)", v)
}

func TestSummaryPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.SummaryPDF(sampleResult(), &buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
