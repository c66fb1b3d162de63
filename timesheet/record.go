// Package timesheet reads raw attendance exports and derives per-day worked
// hours from them. Parsing is deliberately forgiving: a malformed value
// degrades to zero hours instead of failing the whole batch.
package timesheet

import (
	"strings"
	"time"
)

// Record is one row of a raw timecard export.
type Record struct {
	RowNumber  int
	EmployeeID string
	FirstName  string
	LastName   string
	Date       time.Time
	// Raw source fields, kept verbatim for display and validation.
	ClockIn  string
	ClockOut string
	WorkTime string
}

func (r Record) Name() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func (r Record) DateString() string {
	return r.Date.Format("2006-01-02")
}

func (r Record) HasClockIn() bool {
	return strings.TrimSpace(r.ClockIn) != ""
}

func (r Record) HasClockOut() bool {
	return strings.TrimSpace(r.ClockOut) != ""
}

func normalizeHeader(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	trimmed = strings.ReplaceAll(trimmed, "_", "")
	trimmed = strings.ReplaceAll(trimmed, "-", "")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	trimmed = strings.ReplaceAll(trimmed, "(h)", "")
	return trimmed
}
