// Package ngteco acquires timecard data from the NGTeco attendance portal,
// either from a copy-pasted table or through an automated browser session.
package ngteco

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Header is the canonical CSV header the rest of the pipeline expects.
const Header = "Person ID,First Name,Last Name,Date,Timesheet,Clock In,Clock Out,Clock Time(h),Total Break Time(h),Total Work Time(h)"

var fieldSplitPattern = regexp.MustCompile(`\t+|\s{2,}`)

// ParseTable converts a table copied out of the NGTeco timecard page into
// the canonical CSV. Header lines and rows with too few columns are skipped;
// an error is returned only when no data rows survive.
func ParseTable(tableData string) (string, error) {
	lines := strings.Split(strings.TrimSpace(tableData), "\n")
	csvLines := []string{Header}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.Contains(trimmed, "Person Name") || strings.Contains(trimmed, "Clock In") {
			continue
		}

		parts := fieldSplitPattern.Split(trimmed, -1)
		if len(parts) < 7 {
			continue
		}

		row := rowFromParts(parts)
		csvLines = append(csvLines, row)
	}

	if len(csvLines) == 1 {
		return "", fmt.Errorf("no timecard rows found in pasted data")
	}

	return strings.Join(csvLines, "\n"), nil
}

func rowFromParts(parts []string) string {
	personName := parts[0]
	personID := parts[1]
	date := normalizeDate(parts[2])
	timesheet := "Production TimeSheet"
	if len(parts) > 3 {
		timesheet = parts[3]
	}
	clockIn := fieldAt(parts, 4)
	clockOut := fieldAt(parts, 5)
	clockTime := fieldAt(parts, 6)
	breakTime := fieldAt(parts, 7)
	workTime := fieldAt(parts, 8)
	if workTime == "" {
		workTime = clockTime
	}

	firstName, lastName := splitName(personName)

	return strings.Join([]string{
		personID, firstName, lastName, date, timesheet,
		clockIn, clockOut, clockTime, breakTime, workTime,
	}, ",")
}

func fieldAt(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func splitName(personName string) (first, last string) {
	nameParts := strings.SplitN(personName, " ", 2)
	first = nameParts[0]
	if len(nameParts) > 1 {
		last = nameParts[1]
	}
	return first, last
}

// normalizeDate rewrites portal date formats to YYYY-MM-DD. Unrecognized
// values pass through unchanged so a bad date surfaces downstream instead of
// silently dropping the row.
func normalizeDate(date string) string {
	switch {
	case strings.Contains(date, "-") && len(strings.SplitN(date, "-", 2)[0]) == 2:
		if parsed, err := time.Parse("02-01-2006", date); err == nil {
			return parsed.Format("2006-01-02")
		}
	case strings.Contains(date, "/"):
		if parsed, err := time.Parse("01/02/2006", date); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return date
}
