package pdfrender

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageLeft    = 10.0
	pageWidth   = 190.0
	cardWidth   = 92.0
	cardGap     = 6.0
	lineHeight  = 4.6
	summaryLine = 6.0
)

// Render lays the reconstructed document out as a paginated A4 PDF: title,
// creator line, styled summary table with the grand-total row emphasized,
// then employee detail cards two per row, and a generation timestamp footer.
func Render(doc *Document, out io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(120, 120, 120)
		footer := fmt.Sprintf("Generated %s - page %d/{nb}", time.Now().Format("2006-01-02 15:04"), pdf.PageNo())
		pdf.CellFormat(0, 6, footer, "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 9, "Payroll Summary - "+doc.DateRange, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Processed by: "+doc.Creator, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	renderSummaryTable(pdf, doc)

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Detailed Breakdown by Employee", "", 1, "C", false, 0, "")
	pdf.Ln(1)

	renderCards(pdf, doc.Cards)

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

var summaryColWidths = []float64{28, 58, 32, 36, 36}

func renderSummaryTable(pdf *gofpdf.Fpdf, doc *Document) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(242, 242, 242)
	for i, header := range doc.Headers {
		pdf.CellFormat(summaryColWidths[i], summaryLine, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range doc.SummaryRows {
		renderSummaryRow(pdf, row, false)
	}
	if len(doc.GrandTotal) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		renderSummaryRow(pdf, doc.GrandTotal, true)
	}
}

func renderSummaryRow(pdf *gofpdf.Fpdf, row []string, fill bool) {
	for i, value := range row {
		align := "L"
		display := value
		switch i {
		case 2:
			align, display = "R", fmtHours(value)
		case 3, 4:
			align, display = "R", fmtMoney(value)
		}
		pdf.CellFormat(summaryColWidths[i], summaryLine, display, "1", 0, align, fill, 0, "")
	}
	pdf.Ln(-1)
}

func renderCards(pdf *gofpdf.Fpdf, cards []EmployeeCard) {
	for i := 0; i < len(cards); i += 2 {
		pair := cards[i:min(i+2, len(cards))]

		maxHeight := 0.0
		for _, card := range pair {
			if h := cardHeight(card); h > maxHeight {
				maxHeight = h
			}
		}
		_, pageHeight := pdf.GetPageSize()
		if pdf.GetY()+maxHeight > pageHeight-20 {
			pdf.AddPage()
		}

		top := pdf.GetY()
		for j, card := range pair {
			x := pageLeft + float64(j)*(cardWidth+cardGap)
			renderCard(pdf, card, x, top)
		}
		pdf.SetXY(pageLeft, top+maxHeight+4)
	}
}

func cardHeight(card EmployeeCard) float64 {
	lines := 3 + len(card.Days)
	if card.TotalHours != "" || card.TotalPay != "" {
		lines++
	}
	return float64(lines)*lineHeight + 3
}

var cardColWidths = []float64{22, 16, 16, 16, 22}

func renderCard(pdf *gofpdf.Fpdf, card EmployeeCard, x, y float64) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(cardWidth, lineHeight, card.Name, "1", 2, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 7.5)
	pdf.CellFormat(cardWidth, lineHeight, card.Info, "LR", 2, "L", false, 0, "")

	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 7.5)
	for i, header := range []string{"Date", "In", "Out", "Hours", "Pay"} {
		pdf.CellFormat(cardColWidths[i], lineHeight, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7.5)
	for _, day := range card.Days {
		pdf.SetX(x)
		pdf.CellFormat(cardColWidths[0], lineHeight, day.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(cardColWidths[1], lineHeight, day.In, "1", 0, "C", false, 0, "")
		pdf.CellFormat(cardColWidths[2], lineHeight, day.Out, "1", 0, "C", false, 0, "")
		pdf.CellFormat(cardColWidths[3], lineHeight, fmtHours(day.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cardColWidths[4], lineHeight, fmtMoney(day.Pay), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if card.TotalHours != "" || card.TotalPay != "" {
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "B", 7.5)
		pdf.CellFormat(cardColWidths[0]+cardColWidths[1]+cardColWidths[2], lineHeight, "Total:", "1", 0, "R", false, 0, "")
		pdf.CellFormat(cardColWidths[3], lineHeight, fmtHours(card.TotalHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cardColWidths[4], lineHeight, fmtMoney(card.TotalPay), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func fmtMoney(value string) string {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return fmt.Sprintf("$%.2f", parsed)
}

func fmtHours(value string) string {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%.2f", parsed)
}
