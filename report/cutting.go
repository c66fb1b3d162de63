package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"payrun/payroll"
)

const (
	payslipWidth   = 5
	spacerWidth    = 1
	payslipsPerRow = 3
)

// WriteCutting renders up to three payslips side by side per band with a
// dashed cut-guide border in the spacer columns, and a horizontal cut line
// with scissors glyphs between bands, for printing and physically cutting
// into individual slips. Employees without worked hours are skipped.
func WriteCutting(path string, run Run) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetName(sheet, "Payslips"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = "Payslips"
	hideGridLines(file, sheet)

	styles, err := newSheetStyles(file)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	if err := setCell(file, sheet, 1, 1, "Employee Payslips - "+run.DateRange()); err != nil {
		return err
	}
	styleCell(file, sheet, 1, 1, styles.title)
	_ = file.MergeCell(sheet, "A1", "Z1")
	if err := setCell(file, sheet, 1, 2, AdminLayout.ProcessedPrefix+" "+run.creatorOrUnknown()); err != nil {
		return err
	}
	styleCell(file, sheet, 1, 2, styles.processedBy)
	_ = file.MergeCell(sheet, "A2", "Z2")
	if err := file.SetCellValue(sheet, AdminLayout.CreatorCell, run.creatorOrUnknown()); err != nil {
		return fmt.Errorf("set creator cell: %w", err)
	}

	active := payroll.WithHours(run.Aggregates)
	if len(active) == 0 {
		if err := setCell(file, sheet, 1, 3, "No employees with hours worked in this period"); err != nil {
			return err
		}
		styleCell(file, sheet, 1, 3, styles.bold)
		return saveWorkbook(file, path)
	}

	startRow := 3
	for batchStart := 0; batchStart < len(active); batchStart += payslipsPerRow {
		batchEnd := batchStart + payslipsPerRow
		if batchEnd > len(active) {
			batchEnd = len(active)
		}

		maxHeight := 0
		for i, aggregate := range active[batchStart:batchEnd] {
			colStart := 1 + i*(payslipWidth+spacerWidth)
			height, err := writePayslipCard(file, sheet, styles, run, aggregate, colStart, startRow)
			if err != nil {
				return err
			}
			if height > maxHeight {
				maxHeight = height
			}
		}

		// Guides are drawn once the band height is known so they span the
		// tallest card in the band.
		for i := 1; i < batchEnd-batchStart; i++ {
			colStart := 1 + i*(payslipWidth+spacerWidth)
			drawCutGuide(file, sheet, styles, colStart-1, startRow, maxHeight)
		}

		cutLineRow := startRow + maxHeight + 1
		if err := setCell(file, sheet, 1, cutLineRow, cutLineText()); err != nil {
			return err
		}
		styleCell(file, sheet, 1, cutLineRow, styles.cutLine)
		_ = file.MergeCell(sheet, cell(1, cutLineRow), cell(26, cutLineRow))

		startRow = cutLineRow + 2
	}

	setCuttingColumnWidths(file, sheet)
	return saveWorkbook(file, path)
}

func writePayslipCard(file *excelize.File, sheet string, styles sheetStyles, run Run, aggregate payroll.WeeklyAggregate, colStart, startRow int) (int, error) {
	row := startRow

	if err := setCell(file, sheet, colStart, row, "Employee: "+aggregate.Name); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart, row, styles.bold)
	_ = file.MergeCell(sheet, cell(colStart, row), cell(colStart+payslipWidth-1, row))
	row++

	if err := setCell(file, sheet, colStart, row, "Pay Period: "+run.DateRange()); err != nil {
		return 0, err
	}
	_ = file.MergeCell(sheet, cell(colStart, row), cell(colStart+2, row))
	if err := setCell(file, sheet, colStart+3, row, "ID: "+aggregate.EmployeeID); err != nil {
		return 0, err
	}
	_ = file.MergeCell(sheet, cell(colStart+3, row), cell(colStart+payslipWidth-1, row))
	row++

	if err := setCell(file, sheet, colStart, row, fmt.Sprintf("Hourly Rate: $%.2f", aggregate.Rate)); err != nil {
		return 0, err
	}
	_ = file.MergeCell(sheet, cell(colStart, row), cell(colStart+payslipWidth-1, row))
	row++

	for i, header := range AdminLayout.DetailHeaders {
		if err := setCell(file, sheet, colStart+i, row, header); err != nil {
			return 0, err
		}
		styleCell(file, sheet, colStart+i, row, styles.header)
	}
	row++

	for _, day := range aggregate.Days {
		if err := setCell(file, sheet, colStart, row, day.Date.Format("01/02/2006")); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, colStart+1, row, day.ClockIn); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, colStart+2, row, day.ClockOut); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, colStart+3, row, day.Hours); err != nil {
			return 0, err
		}
		if err := setCell(file, sheet, colStart+4, row, day.Pay); err != nil {
			return 0, err
		}
		styleCell(file, sheet, colStart+4, row, styles.money)
		row++
	}
	row++

	if err := setCell(file, sheet, colStart+2, row, "Total Hours:"); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart+2, row, styles.bold)
	if err := setCell(file, sheet, colStart+3, row, aggregate.TotalHours); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart+3, row, styles.boldHours)
	row++

	if err := setCell(file, sheet, colStart+2, row, "Total Pay:"); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart+2, row, styles.bold)
	if err := setCell(file, sheet, colStart+4, row, aggregate.TotalPay); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart+4, row, styles.boldMoney)
	row++

	if err := setCell(file, sheet, colStart+2, row, AdminLayout.RoundedLabel); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart+2, row, styles.bold)
	if err := setCell(file, sheet, colStart+4, row, aggregate.RoundedPay); err != nil {
		return 0, err
	}
	styleCell(file, sheet, colStart+4, row, styles.boldWhole)
	row++

	return row - startRow, nil
}

// drawCutGuide puts a dashed right border down the spacer column so a ruler
// and blade have something to follow.
func drawCutGuide(file *excelize.File, sheet string, styles sheetStyles, col, fromRow, height int) {
	for row := fromRow; row < fromRow+height; row++ {
		styleCell(file, sheet, col, row, styles.cutGuide)
	}
}

func cutLineText() string {
	var builder strings.Builder
	for i := 0; i < 80; i++ {
		if i > 0 && i%25 == 0 {
			builder.WriteString("✂")
		} else {
			builder.WriteString("-")
		}
	}
	return builder.String()
}

func setCuttingColumnWidths(file *excelize.File, sheet string) {
	for col := 1; col <= 20; col++ {
		position := (col - 1) % (payslipWidth + spacerWidth)
		width := 10.0
		switch position {
		case 0:
			width = 12
		case 1, 2:
			width = 8
		case 3:
			width = 7
		case payslipWidth:
			width = 2
		}
		column, _ := excelize.ColumnNumberToName(col)
		_ = file.SetColWidth(sheet, column, column, width)
	}
}
