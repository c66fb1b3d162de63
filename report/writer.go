package report

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

const (
	moneyFormat      = `"$"#,##0.00`
	wholeMoneyFormat = `"$"#,##0`
	hoursFormat      = `#,##0.00`
)

// sheetStyles holds the style IDs a workbook needs; excelize styles are
// per-file, so each generator builds its own set.
type sheetStyles struct {
	title       int
	processedBy int
	header      int
	bold        int
	money       int
	boldMoney   int
	wholeMoney  int
	boldWhole   int
	hours       int
	boldHours   int
	topBorder   int
	bandHeader  int
	cutGuide    int
	cutLine     int
}

func newSheetStyles(file *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	center := &excelize.Alignment{Horizontal: "center"}
	grayFill := excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1}
	bandFill := excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1}
	bottomBorder := []excelize.Border{{Type: "bottom", Style: 1, Color: "000000"}}
	hairTop := []excelize.Border{{Type: "top", Style: 7, Color: "D3D3D3"}}

	if s.title, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: center}); err != nil {
		return s, err
	}
	if s.processedBy, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Size: 10}, Alignment: center}); err != nil {
		return s, err
	}
	if s.header, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Fill: grayFill, Border: bottomBorder, Alignment: center}); err != nil {
		return s, err
	}
	if s.bold, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	money := moneyFormat
	if s.money, err = file.NewStyle(&excelize.Style{CustomNumFmt: &money}); err != nil {
		return s, err
	}
	if s.boldMoney, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &money}); err != nil {
		return s, err
	}
	whole := wholeMoneyFormat
	if s.wholeMoney, err = file.NewStyle(&excelize.Style{CustomNumFmt: &whole}); err != nil {
		return s, err
	}
	if s.boldWhole, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &whole}); err != nil {
		return s, err
	}
	hours := hoursFormat
	if s.hours, err = file.NewStyle(&excelize.Style{CustomNumFmt: &hours}); err != nil {
		return s, err
	}
	if s.boldHours, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &hours}); err != nil {
		return s, err
	}
	if s.topBorder, err = file.NewStyle(&excelize.Style{Border: hairTop}); err != nil {
		return s, err
	}
	if s.bandHeader, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Fill: bandFill}); err != nil {
		return s, err
	}
	if s.cutGuide, err = file.NewStyle(&excelize.Style{Border: []excelize.Border{{Type: "right", Style: 9, Color: "DDDDDD"}}}); err != nil {
		return s, err
	}
	if s.cutLine, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "999999"}, Alignment: center}); err != nil {
		return s, err
	}
	return s, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func setCell(file *excelize.File, sheet string, col, row int, value any) error {
	if err := file.SetCellValue(sheet, cell(col, row), value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell(col, row), err)
	}
	return nil
}

func styleCell(file *excelize.File, sheet string, col, row, styleID int) {
	_ = file.SetCellStyle(sheet, cell(col, row), cell(col, row), styleID)
}

func hideGridLines(file *excelize.File, sheet string) {
	show := false
	_ = file.SetSheetView(sheet, 0, &excelize.ViewOptions{ShowGridLines: &show})
}

// saveWorkbook writes to a temporary sibling and renames over the canonical
// path so a crash mid-save never leaves a torn file where readers look. The
// temp name keeps the .xlsx suffix; SaveAs rejects unknown extensions.
func saveWorkbook(file *excelize.File, path string) error {
	tmp := path + ".tmp.xlsx"
	if err := file.SaveAs(tmp); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace workbook %s: %w", path, err)
	}
	return nil
}
