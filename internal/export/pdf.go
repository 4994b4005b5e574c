package export

import (
	"fmt"
	"io"

	"soq/internal/compare"

	"github.com/jung-kurt/gofpdf"
)

// SummaryPDF печатает рейтинг подрядчиков одной страницей A4.
func SummaryPDF(res compare.Result, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(190, 10, "Bid comparison: "+res.TenderName)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, fmt.Sprintf("Status: %s", res.Status))
	pdf.Cell(95, 6, fmt.Sprintf("Estimate total: %s", res.EstimateTotal.StringFixed(2)))
	pdf.Ln(6)
	if res.AwardedTo != "" {
		pdf.Cell(190, 6, "Awarded to: "+res.AwardedTo)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{12, 58, 32, 32, 28, 28}
	header := []string{"Rank", "Bidder", "Aggregate", "Variance", "Variance %", "Days"}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, b := range res.Bidders {
		cells := []string{
			fmt.Sprintf("%d", b.Rank),
			b.BidderName,
			b.AggregateCost.StringFixed(2),
			b.AggregateVariance.StringFixed(2),
			b.AggregateVariancePct.Shift(2).StringFixed(2) + "%",
			fmt.Sprintf("%d", b.EstimatedDuration),
		}
		for i, c := range cells {
			align := "R"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
