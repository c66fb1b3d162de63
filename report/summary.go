package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteSummary renders the one-row-per-employee summary sheet.
func WriteSummary(path string, run Run) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetName(sheet, "Payroll Report"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = "Payroll Report"

	styles, err := newSheetStyles(file)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	if err := setCell(file, sheet, 1, 1, "Payroll Report - "+run.DateRange()); err != nil {
		return err
	}
	styleCell(file, sheet, 1, 1, styles.title)
	if err := setCell(file, sheet, 1, 2, AdminLayout.ProcessedPrefix+" "+run.creatorOrUnknown()); err != nil {
		return err
	}
	styleCell(file, sheet, 1, 2, styles.processedBy)
	if err := file.SetCellValue(sheet, AdminLayout.CreatorCell, run.creatorOrUnknown()); err != nil {
		return fmt.Errorf("set creator cell: %w", err)
	}

	const headerRow = 3
	for i, header := range AdminLayout.SummaryHeaders {
		if err := setCell(file, sheet, i+1, headerRow, header); err != nil {
			return err
		}
		styleCell(file, sheet, i+1, headerRow, styles.header)
	}

	row := headerRow + 1
	for _, aggregate := range run.Aggregates {
		if err := setCell(file, sheet, 1, row, aggregate.EmployeeID); err != nil {
			return err
		}
		if err := setCell(file, sheet, 2, row, aggregate.Name); err != nil {
			return err
		}
		if err := setCell(file, sheet, 3, row, aggregate.TotalHours); err != nil {
			return err
		}
		if err := setCell(file, sheet, 4, row, aggregate.TotalPay); err != nil {
			return err
		}
		if err := setCell(file, sheet, 5, row, aggregate.RoundedPay); err != nil {
			return err
		}
		styleCell(file, sheet, 3, row, styles.hours)
		styleCell(file, sheet, 4, row, styles.money)
		styleCell(file, sheet, 5, row, styles.wholeMoney)
		row++
	}

	widths := []float64{15, 25, 15, 15, 15}
	for i, width := range widths {
		column, _ := excelize.ColumnNumberToName(i + 1)
		_ = file.SetColWidth(sheet, column, column, width)
	}

	return saveWorkbook(file, path)
}
