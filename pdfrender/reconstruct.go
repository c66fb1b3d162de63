// Package pdfrender rebuilds a printable document from a generated admin
// report spreadsheet. The original aggregate is long gone by the time a PDF
// is requested, so structure is recovered purely from cell geometry, using
// the same layout constants the generator wrote with.
package pdfrender

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"payrun/report"
)

var (
	// ErrSummaryNotFound means the summary header row could not be located;
	// there is no sensible partial PDF without it.
	ErrSummaryNotFound = errors.New("admin report summary table not found")
	// ErrNoDetailCards means no employee detail band could be recovered.
	ErrNoDetailCards = errors.New("no employee detail sections found in admin report")
	errNoGrandTotal  = errors.New("summary table has no grand-total row")
)

// DayRow is one recovered daily entry.
type DayRow struct {
	Date  string
	In    string
	Out   string
	Hours string
	Pay   string
}

// EmployeeCard is one recovered detail band.
type EmployeeCard struct {
	Name       string
	Info       string
	Days       []DayRow
	TotalHours string
	TotalPay   string
}

// Document is everything recovered from the admin sheet.
type Document struct {
	DateRange   string
	Creator     string
	Headers     []string
	SummaryRows [][]string
	// GrandTotal is the summary table's final row.
	GrandTotal []string
	Cards      []EmployeeCard
}

// Reconstruct scans an admin report workbook and recovers its summary table
// and per-employee detail cards. Failure to find the summary header or any
// detail card is a hard error.
func Reconstruct(path string) (*Document, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open admin report %s: %w", path, err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read admin report rows: %w", err)
	}
	grid := cellGrid(rows)

	doc := &Document{}
	doc.Creator = readCreator(file, sheet)
	if title, err := file.GetCellValue(sheet, report.AdminLayout.TitleCell); err == nil {
		if _, after, found := strings.Cut(title, " - "); found {
			doc.DateRange = strings.TrimSpace(after)
		}
	}

	if err := scanSummary(grid, doc); err != nil {
		return nil, err
	}
	if err := scanDetail(grid, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type grid [][]string

func cellGrid(rows [][]string) grid { return grid(rows) }

// at is 1-based like spreadsheet coordinates; out-of-range reads are empty.
func (g grid) at(row, col int) string {
	if row < 1 || row > len(g) {
		return ""
	}
	cells := g[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col-1])
}

func readCreator(file *excelize.File, sheet string) string {
	layout := report.AdminLayout
	if value, err := file.GetCellValue(sheet, layout.CreatorCell); err == nil && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if value, err := file.GetCellValue(sheet, layout.ProcessedByCell); err == nil {
		if strings.Contains(value, layout.ProcessedPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(value, layout.ProcessedPrefix))
		}
	}
	return "Unknown"
}

// scanSummary locates the summary header row by its exact first label within
// a fixed search window, then reads data rows until the grand-total marker,
// which becomes the table's final row.
func scanSummary(g grid, doc *Document) error {
	layout := report.AdminLayout
	headerLabel := layout.SummaryHeaders[0]

	headerRow, startCol := 0, 0
	for row := layout.SummaryHeaderRow; row <= layout.SummaryHeaderRow+7 && headerRow == 0; row++ {
		for col := 1; col <= 20; col++ {
			if g.at(row, col) == headerLabel {
				headerRow, startCol = row, col
				break
			}
		}
	}
	if headerRow == 0 {
		return ErrSummaryNotFound
	}

	width := len(layout.SummaryHeaders)
	doc.Headers = make([]string, 0, width)
	for i := 0; i < width; i++ {
		doc.Headers = append(doc.Headers, g.at(headerRow, startCol+i))
	}

	row := headerRow + 1
	for {
		if g.at(row, startCol+1) == layout.GrandTotalLabel {
			doc.GrandTotal = readRowSlice(g, row, startCol, width)
			return nil
		}
		if g.at(row, startCol) == "" && g.at(row, startCol+1) == "" {
			return fmt.Errorf("%w (rows %d-%d)", errNoGrandTotal, headerRow+1, row)
		}
		doc.SummaryRows = append(doc.SummaryRows, readRowSlice(g, row, startCol, width))
		row++
		if row > headerRow+200 {
			return fmt.Errorf("%w (no marker within 200 rows)", errNoGrandTotal)
		}
	}
}

// scanDetail walks rows below the detail title, checking each band start
// column for a cell matching a summary employee name. Stray decorative text
// cannot match because names come from the summary table itself.
func scanDetail(g grid, doc *Document) error {
	layout := report.AdminLayout

	names := make(map[string]bool, len(doc.SummaryRows))
	for _, row := range doc.SummaryRows {
		if len(row) > 1 && row[1] != "" {
			names[row[1]] = true
		}
	}

	titleRow := 0
	for row := 1; row <= len(g); row++ {
		if strings.HasPrefix(g.at(row, 1), "Detailed Breakdown") {
			titleRow = row
			break
		}
	}
	if titleRow == 0 {
		return ErrNoDetailCards
	}

	for row := titleRow + 1; row <= len(g); row++ {
		for _, bandCol := range layout.BandStartCols {
			name := g.at(row, bandCol)
			if name == "" || !names[name] {
				continue
			}
			card, consumed := readBand(g, row, bandCol, name)
			if consumed > 0 {
				doc.Cards = append(doc.Cards, card)
			}
		}
	}

	if len(doc.Cards) == 0 {
		return ErrNoDetailCards
	}
	return nil
}

// readBand reads one employee band: name row, ID/rate line, header line,
// then date rows until a terminator token.
func readBand(g grid, nameRow, col int, name string) (EmployeeCard, int) {
	layout := report.AdminLayout
	card := EmployeeCard{Name: name}

	infoRow := nameRow + 1
	info := g.at(infoRow, col)
	if !strings.Contains(info, "ID:") || !strings.Contains(info, "Rate:") {
		return card, 0
	}
	card.Info = info

	headerRow := infoRow + 1
	if g.at(headerRow, col) != layout.DetailHeaders[0] {
		return card, 0
	}

	row := headerRow + 1
	for ; row <= len(g); row++ {
		first := g.at(row, col)
		if first == "" {
			break
		}
		if isTerminator(first) {
			if strings.HasPrefix(first, layout.TotalLabel) {
				card.TotalHours = g.at(row, col+3)
				card.TotalPay = g.at(row, col+4)
			}
			break
		}
		card.Days = append(card.Days, DayRow{
			Date:  first,
			In:    g.at(row, col+1),
			Out:   g.at(row, col+2),
			Hours: g.at(row, col+3),
			Pay:   g.at(row, col+4),
		})
	}
	return card, row - nameRow
}

func isTerminator(value string) bool {
	layout := report.AdminLayout
	return strings.HasPrefix(value, layout.TotalLabel) ||
		strings.HasPrefix(value, "Rounded") ||
		strings.HasPrefix(value, "Signature")
}

func readRowSlice(g grid, row, startCol, width int) []string {
	out := make([]string, 0, width)
	for i := 0; i < width; i++ {
		out = append(out, g.at(row, startCol+i))
	}
	return out
}
