package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WritePayslips renders one vertically stacked payslip section per employee:
// a daily-entry table, totals, rounded pay and a signature line.
func WritePayslips(path string, run Run) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetName(sheet, "Employee Payslips"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = "Employee Payslips"
	hideGridLines(file, sheet)

	styles, err := newSheetStyles(file)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	if err := setCell(file, sheet, 1, 1, "Employee Payslips - "+run.DateRange()); err != nil {
		return err
	}
	styleCell(file, sheet, 1, 1, styles.title)
	_ = file.MergeCell(sheet, "A1", "E1")
	if err := setCell(file, sheet, 1, 2, AdminLayout.ProcessedPrefix+" "+run.creatorOrUnknown()); err != nil {
		return err
	}
	styleCell(file, sheet, 1, 2, styles.processedBy)
	_ = file.MergeCell(sheet, "A2", "E2")
	if err := file.SetCellValue(sheet, AdminLayout.CreatorCell, run.creatorOrUnknown()); err != nil {
		return fmt.Errorf("set creator cell: %w", err)
	}

	row := 3
	for _, aggregate := range run.Aggregates {
		if err := setCell(file, sheet, 1, row, "Employee: "+aggregate.Name); err != nil {
			return err
		}
		styleCell(file, sheet, 1, row, styles.bold)
		_ = file.MergeCell(sheet, cell(1, row), cell(5, row))
		row++

		if err := setCell(file, sheet, 1, row, "ID:"); err != nil {
			return err
		}
		if err := setCell(file, sheet, 2, row, aggregate.EmployeeID); err != nil {
			return err
		}
		if err := setCell(file, sheet, 3, row, "Rate:"); err != nil {
			return err
		}
		if err := setCell(file, sheet, 4, row, fmt.Sprintf("$%.2f/hour", aggregate.Rate)); err != nil {
			return err
		}
		row++

		for i, header := range []string{"Date", "Clock In", "Clock Out", "Hours", "Pay"} {
			if err := setCell(file, sheet, i+1, row, header); err != nil {
				return err
			}
			styleCell(file, sheet, i+1, row, styles.header)
		}
		row++

		for _, day := range aggregate.Days {
			if err := setCell(file, sheet, 1, row, day.Date.Format("01/02/2006")); err != nil {
				return err
			}
			if err := setCell(file, sheet, 2, row, day.ClockIn); err != nil {
				return err
			}
			if err := setCell(file, sheet, 3, row, day.ClockOut); err != nil {
				return err
			}
			if err := setCell(file, sheet, 4, row, day.Hours); err != nil {
				return err
			}
			if err := setCell(file, sheet, 5, row, day.Pay); err != nil {
				return err
			}
			styleCell(file, sheet, 5, row, styles.money)
			row++
		}

		if err := setCell(file, sheet, 3, row, AdminLayout.TotalLabel); err != nil {
			return err
		}
		styleCell(file, sheet, 3, row, styles.bold)
		if err := setCell(file, sheet, 4, row, aggregate.TotalHours); err != nil {
			return err
		}
		styleCell(file, sheet, 4, row, styles.bold)
		if err := setCell(file, sheet, 5, row, aggregate.TotalPay); err != nil {
			return err
		}
		styleCell(file, sheet, 5, row, styles.boldMoney)
		row++

		if err := setCell(file, sheet, 3, row, AdminLayout.RoundedLabel); err != nil {
			return err
		}
		styleCell(file, sheet, 3, row, styles.bold)
		if err := setCell(file, sheet, 5, row, aggregate.RoundedPay); err != nil {
			return err
		}
		styleCell(file, sheet, 5, row, styles.boldWhole)
		row += 2

		if err := setCell(file, sheet, 1, row, "Signature: _________________________"); err != nil {
			return err
		}
		_ = file.MergeCell(sheet, cell(1, row), cell(5, row))
		row += 3
	}

	for i, width := range []float64{15, 15, 15, 15, 15} {
		column, _ := excelize.ColumnNumberToName(i + 1)
		_ = file.SetColWidth(sheet, column, column, width)
	}

	return saveWorkbook(file, path)
}
