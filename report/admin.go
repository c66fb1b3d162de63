package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"payrun/payroll"
)

// WriteAdmin renders the consolidated single-sheet admin report: a centered
// summary table with a grand-total row, then a detail section tiling
// employees three per band row. Geometry comes from AdminLayout; the PDF
// reconstructor reads it back with the same constants.
func WriteAdmin(path string, run Run) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetName(sheet, "Payroll Summary"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = "Payroll Summary"
	hideGridLines(file, sheet)

	styles, err := newSheetStyles(file)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	layout := AdminLayout
	if err := file.SetCellValue(sheet, layout.TitleCell, "Payroll Summary - "+run.DateRange()); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	_ = file.SetCellStyle(sheet, layout.TitleCell, layout.TitleCell, styles.title)
	_ = file.MergeCell(sheet, "A1", "Z1")
	if err := file.SetCellValue(sheet, layout.ProcessedByCell, layout.ProcessedPrefix+" "+run.creatorOrUnknown()); err != nil {
		return fmt.Errorf("set processed-by: %w", err)
	}
	_ = file.SetCellStyle(sheet, layout.ProcessedByCell, layout.ProcessedByCell, styles.processedBy)
	_ = file.MergeCell(sheet, "A2", "Z2")
	if err := file.SetCellValue(sheet, layout.CreatorCell, run.creatorOrUnknown()); err != nil {
		return fmt.Errorf("set creator cell: %w", err)
	}

	grandTotalRow, err := writeAdminSummary(file, sheet, styles, run)
	if err != nil {
		return err
	}
	if err := writeAdminDetail(file, sheet, styles, run, grandTotalRow+2); err != nil {
		return err
	}
	setAdminColumnWidths(file, sheet)

	return saveWorkbook(file, path)
}

func writeAdminSummary(file *excelize.File, sheet string, styles sheetStyles, run Run) (int, error) {
	layout := AdminLayout
	startCol := layout.SummaryStartCol

	for i, header := range layout.SummaryHeaders {
		if err := setCell(file, sheet, startCol+i, layout.SummaryHeaderRow, header); err != nil {
			return 0, err
		}
		styleCell(file, sheet, startCol+i, layout.SummaryHeaderRow, styles.header)
	}

	row := layout.SummaryHeaderRow + 1
	for _, aggregate := range run.Aggregates {
		if err := setCell(file, sheet, startCol, row, aggregate.EmployeeID); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+1, row, aggregate.Name); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+2, row, aggregate.TotalHours); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+3, row, aggregate.TotalPay); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+4, row, aggregate.RoundedPay); err != nil {
			return 0, err
		}
		styleCell(file, sheet, startCol+2, row, styles.hours)
		styleCell(file, sheet, startCol+3, row, styles.money)
		styleCell(file, sheet, startCol+4, row, styles.wholeMoney)
		row++
	}

	total := payroll.ComputeGrandTotal(run.Aggregates)
	for col := startCol; col < startCol+5; col++ {
		styleCell(file, sheet, col, row, styles.topBorder)
	}
	if err := setCell(file, sheet, startCol+1, row, AdminLayout.GrandTotalLabel); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+1, row, styles.bold)
	if err := setCell(file, sheet, startCol+2, row, total.Hours); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+2, row, styles.boldHours)
	if err := setCell(file, sheet, startCol+3, row, total.Pay); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+3, row, styles.boldMoney)
	if err := setCell(file, sheet, startCol+4, row, total.Rounded); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+4, row, styles.boldWhole)

	return row, nil
}

func writeAdminDetail(file *excelize.File, sheet string, styles sheetStyles, run Run, titleRow int) error {
	layout := AdminLayout
	if err := setCell(file, sheet, 1, titleRow, layout.DetailTitle); err != nil {
		return err
	}
	styleCell(file, sheet, 1, titleRow, styles.title)
	_ = file.MergeCell(sheet, cell(1, titleRow), cell(26, titleRow))

	perRow := len(layout.BandStartCols)
	currentRow := titleRow + 1
	for batchStart := 0; batchStart < len(run.Aggregates); batchStart += perRow {
		batchEnd := batchStart + perRow
		if batchEnd > len(run.Aggregates) {
			batchEnd = len(run.Aggregates)
		}

		maxRows := 0
		for i, aggregate := range run.Aggregates[batchStart:batchEnd] {
			rows, err := writeAdminBand(file, sheet, styles, aggregate, layout.BandStartCols[i], currentRow)
			if err != nil {
				return err
			}
			if rows > maxRows {
				maxRows = rows
			}
		}
		currentRow += maxRows + 1
	}
	return nil
}

// writeAdminBand writes one employee's mini table at (startCol, startRow) and
// returns the number of rows consumed.
func writeAdminBand(file *excelize.File, sheet string, styles sheetStyles, aggregate payroll.WeeklyAggregate, startCol, startRow int) (int, error) {
	layout := AdminLayout
	row := startRow

	if err := setCell(file, sheet, startCol, row, aggregate.Name); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol, row, styles.bandHeader)
	_ = file.MergeCell(sheet, cell(startCol, row), cell(startCol+layout.BandWidth-1, row))
	row++

	if err := setCell(file, sheet, startCol, row, fmt.Sprintf("ID: %s | Rate: $%.2f", aggregate.EmployeeID, aggregate.Rate)); err != nil {
		return 0, err
	}
	_ = file.MergeCell(sheet, cell(startCol, row), cell(startCol+layout.BandWidth-1, row))
	row++

	for i, header := range layout.DetailHeaders {
		if err := setCell(file, sheet, startCol+i, row, header); err != nil {
			return 0, err
		}
		styleCell(file, sheet, startCol+i, row, styles.header)
	}
	row++

	for _, day := range aggregate.Days {
		if err := setCell(file, sheet, startCol, row, day.Date.Format("01/02/2006")); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+1, row, day.ClockIn); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+2, row, day.ClockOut); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+3, row, day.Hours); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, startCol+4, row, day.Pay); err != nil {
			return 0, err
		}
		styleCell(file, sheet, startCol+4, row, styles.money)
		row++
	}

	if err := setCell(file, sheet, startCol, row, layout.TotalLabel); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol, row, styles.bold)
	if err := setCell(file, sheet, startCol+3, row, aggregate.TotalHours); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+3, row, styles.boldHours)
	if err := setCell(file, sheet, startCol+4, row, aggregate.TotalPay); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+4, row, styles.boldMoney)
	row++

	if err := setCell(file, sheet, startCol, row, layout.RoundedLabel); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol, row, styles.bold)
	if err := setCell(file, sheet, startCol+4, row, aggregate.RoundedPay); err != nil {
		return 0, err
	}
	styleCell(file, sheet, startCol+4, row, styles.boldWhole)
	row++

	if err := setCell(file, sheet, startCol, row, layout.SignatureLabel); err != nil {
		return 0, err
	}
	_ = file.MergeCell(sheet, cell(startCol, row), cell(startCol+3, row))
	row++

	if err := setCell(file, sheet, startCol, row, layout.DateLineLabel); err != nil {
		return 0, err
	}
	_ = file.MergeCell(sheet, cell(startCol, row), cell(startCol+3, row))
	row++

	return row - startRow, nil
}

func setAdminColumnWidths(file *excelize.File, sheet string) {
	layout := AdminLayout
	widths := []float64{10, 8, 8, 6, 9}
	for _, bandStart := range layout.BandStartCols {
		for i, width := range widths {
			column, _ := excelize.ColumnNumberToName(bandStart + i)
			_ = file.SetColWidth(sheet, column, column, width)
		}
		// Narrow gap column between bands.
		gap, _ := excelize.ColumnNumberToName(bandStart + len(widths))
		_ = file.SetColWidth(sheet, gap, gap, 2)
	}
}
