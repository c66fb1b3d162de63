package timesheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
}

// ReadCSV reads a timecard CSV export. Required columns are Person ID,
// First Name, Last Name and Date; Clock In, Clock Out and Total Work Time(h)
// are optional per row. Header matching ignores case, spaces, dashes and
// underscores.
func ReadCSV(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timecard file %s: %w", path, err)
	}
	defer file.Close()

	return ParseCSV(file)
}

// ParseCSV reads timecard rows from r. Rows whose date cannot be parsed are
// rejected; a payroll run without reliable dates is not recoverable.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[normalizeHeader(header)] = i
	}
	for _, required := range []string{"Person ID", "First Name", "Last Name", "Date"} {
		if _, ok := index[normalizeHeader(required)]; !ok {
			return nil, fmt.Errorf("timecard is missing required column %q", required)
		}
	}

	get := func(row []string, key string) string {
		i, ok := index[normalizeHeader(key)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]Record, 0, 128)
	rowNumber := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNumber+1, err)
		}
		rowNumber++

		id := get(row, "Person ID")
		if id == "" {
			continue
		}

		date, err := parseDate(get(row, "Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNumber, err)
		}

		records = append(records, Record{
			RowNumber:  rowNumber,
			EmployeeID: id,
			FirstName:  get(row, "First Name"),
			LastName:   get(row, "Last Name"),
			Date:       date,
			ClockIn:    get(row, "Clock In"),
			ClockOut:   get(row, "Clock Out"),
			WorkTime:   get(row, "Total Work Time(h)"),
		})
	}

	return records, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}

// DateRange returns the earliest and latest record dates. The week token used
// in report filenames is the start date formatted as YYYY-MM-DD.
func DateRange(records []Record) (start, end time.Time) {
	for _, record := range records {
		if start.IsZero() || record.Date.Before(start) {
			start = record.Date
		}
		if end.IsZero() || record.Date.After(end) {
			end = record.Date
		}
	}
	return start, end
}
