package timesheet

import (
	"testing"
	"time"
)

func TestFindMissingTimeIssues(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{RowNumber: 2, EmployeeID: "1", Date: date, ClockIn: "09:00:00", ClockOut: "17:00:00"},
		{RowNumber: 3, EmployeeID: "2", Date: date, ClockIn: "09:00:00"},
		{RowNumber: 4, EmployeeID: "3", Date: date},
	}

	issues := FindMissingTimeIssues(records)
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}

	if issues[0].Record.RowNumber != 3 || issues[0].Severity() != SeverityOneMissing {
		t.Fatalf("unexpected first issue: %+v", issues[0])
	}
	if !issues[0].BlocksPayroll() {
		t.Fatalf("expected one-missing issue to block payroll")
	}

	if issues[1].Record.RowNumber != 4 || issues[1].Severity() != SeverityBothMissing {
		t.Fatalf("unexpected second issue: %+v", issues[1])
	}
	if issues[1].BlocksPayroll() {
		t.Fatalf("expected both-missing issue to be treated as a day off")
	}
}

func TestSuggestTimeTakesPeerMode(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Date: date, ClockIn: "08:58:00"},
		{Date: date, ClockIn: "09:02:00"},
		{Date: date, ClockIn: "10:00:00"},
		{Date: date.AddDate(0, 0, 1), ClockIn: "06:00:00"}, // other day, ignored
	}

	// Two peers bucket to 09:00, one to 10:00.
	if got := SuggestTime(records, date, ClockIn); got != "09:00:00" {
		t.Fatalf("expected peer mode 09:00:00, got %q", got)
	}
}

func TestSuggestTimeTieResolvesToEarliestBucket(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Date: date, ClockOut: "16:00:00"},
		{Date: date, ClockOut: "18:00:00"},
	}

	if got := SuggestTime(records, date, ClockOut); got != "16:00:00" {
		t.Fatalf("expected earliest bucket on tie, got %q", got)
	}
}

func TestSuggestTimeDefaultsWithoutPeers(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	if got := SuggestTime(nil, date, ClockIn); got != "09:00:00" {
		t.Fatalf("expected default clock-in, got %q", got)
	}
	if got := SuggestTime(nil, date, ClockOut); got != "17:00:00" {
		t.Fatalf("expected default clock-out, got %q", got)
	}
}

func TestRoundToQuarterHour(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{value: "09:07:00", want: "09:00:00"},
		{value: "09:08:00", want: "09:15:00"},
		{value: "09:53:00", want: "10:00:00"},
		{value: "23:55:00", want: "00:00:00"},
	}

	for _, tt := range tests {
		parsed, err := time.Parse(clockLayout, tt.value)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.value, err)
		}
		if got := roundToQuarterHour(parsed); got != tt.want {
			t.Fatalf("unexpected bucket for %s: expected %s, got %s", tt.value, tt.want, got)
		}
	}
}
