// Package export выгружает результат сравнения предложений в XLSX и PDF.
package export

import (
	"fmt"
	"strings"

	"soq/internal/compare"

	"github.com/xuri/excelize/v2"
)

const SummarySheet = "Summary"

var summaryHeader = []any{
	"Rank", "Bidder", "Aggregate cost", "Estimate", "Variance", "Variance %", "Duration (days)", "Unmatched items",
}

var itemHeader = []any{
	"Job", "Item", "Kind", "Description", "Est. qty", "Bid qty", "Qty variance",
	"Est. total", "Bid total", "Cost variance", "Cost variance %",
}

// Workbook строит книгу: лист Summary с рейтингом и по листу на подрядчика.
func Workbook(res compare.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(SummarySheet, "A1", "Tender")
	f.SetCellValue(SummarySheet, "B1", res.TenderName)
	f.SetCellValue(SummarySheet, "A2", "Status")
	f.SetCellValue(SummarySheet, "B2", string(res.Status))
	f.SetCellValue(SummarySheet, "A3", "Estimate total")
	f.SetCellValue(SummarySheet, "B3", res.EstimateTotal.String())
	if err := writeRow(f, SummarySheet, 5, summaryHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SummarySheet, 5, 5, bold); err != nil {
		return nil, err
	}

	for i, b := range res.Bidders {
		row := []any{
			b.Rank, b.BidderName, b.AggregateCost.String(), b.AggregateEstimate.String(),
			b.AggregateVariance.String(), b.AggregateVariancePct.String(), b.EstimatedDuration, len(b.Unmatched),
		}
		if err := writeRow(f, SummarySheet, 6+i, row); err != nil {
			return nil, err
		}
		if err := bidderSheet(f, b, bold); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func bidderSheet(f *excelize.File, b compare.BidderResult, bold int) error {
	sheet := sheetName.Replace(fmt.Sprintf("%d. %s", b.Rank, b.BidderName))
	if r := []rune(sheet); len(r) > 31 {
		sheet = string(r[:31])
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 1, itemHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	for i, v := range b.Items {
		row := []any{
			v.JobID, v.ItemID, string(v.Kind), v.Description,
			v.EstimatedQuantity.String(), v.BidderQuantity.String(), v.QuantityVariance.String(),
			v.EstimatedTotal.String(), v.BidderTotal.String(), v.CostVariance.String(), v.CostVariancePct.String(),
		}
		if err := writeRow(f, sheet, 2+i, row); err != nil {
			return err
		}
	}
	next := 3 + len(b.Items)
	for i, u := range b.Unmatched {
		row := []any{u.JobID, u.ItemID, string(u.Kind), "unmatched (" + string(u.Side) + ")"}
		if err := writeRow(f, sheet, next+i, row); err != nil {
			return err
		}
	}
	return nil
}

// Excel запрещает эти символы в именах листов.
var sheetName = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
