package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"payrun/payroll"
)

func sampleRun() Run {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	return Run{
		Week:    "2026-08-03",
		Start:   start,
		End:     start.AddDate(0, 0, 6),
		Creator: "admin",
		Aggregates: []payroll.WeeklyAggregate{
			{
				EmployeeID: "1001",
				Name:       "Alice Jones",
				Rate:       17.50,
				TotalHours: 15.5,
				TotalPay:   271.25,
				RoundedPay: 271,
				Days: []payroll.DailyEntry{
					{Date: start, ClockIn: "09:00:00", ClockOut: "17:00:00", Hours: 8, Pay: 140},
					{Date: start.AddDate(0, 0, 1), ClockIn: "09:00:00", ClockOut: "16:30:00", Hours: 7.5, Pay: 131.25},
				},
			},
			{
				EmployeeID: "1002",
				Name:       "Bob Smith",
				Rate:       15,
				TotalHours: 8,
				TotalPay:   120,
				RoundedPay: 120,
				Days: []payroll.DailyEntry{
					{Date: start, ClockIn: "09:00:00", ClockOut: "17:00:00", Hours: 8, Pay: 120},
				},
			},
		},
	}
}

func TestGenerateAllWritesFourReports(t *testing.T) {
	dir := t.TempDir()

	generated := GenerateAll(dir, sampleRun())
	if len(generated) != 4 {
		t.Fatalf("expected 4 results, got %d", len(generated))
	}

	wantFiles := []string{
		"payroll_summary_2026-08-03.xlsx",
		"employee_payslips_2026-08-03.xlsx",
		"admin_report_2026-08-03.xlsx",
		"payslips_for_cutting_2026-08-03.xlsx",
	}
	for i, g := range generated {
		if g.Err != nil {
			t.Fatalf("%s report failed: %v", g.Kind, g.Err)
		}
		if g.Filename != wantFiles[i] {
			t.Fatalf("unexpected filename: expected %s, got %s", wantFiles[i], g.Filename)
		}
		if _, err := os.Stat(filepath.Join(dir, g.Filename)); err != nil {
			t.Fatalf("expected %s to exist: %v", g.Filename, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "error_report.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no error artifact on a clean run")
	}
}

func TestGenerateAllRecordsFailuresAndContinues(t *testing.T) {
	// A non-existent directory fails every save without aborting the loop.
	dir := filepath.Join(t.TempDir(), "missing", "reports")

	generated := GenerateAll(dir, sampleRun())
	if len(generated) != 4 {
		t.Fatalf("expected all 4 layouts attempted, got %d", len(generated))
	}
	for _, g := range generated {
		if g.Err == nil {
			t.Fatalf("expected %s report to fail", g.Kind)
		}
	}
}

func TestRunDateRange(t *testing.T) {
	run := sampleRun()
	if got := run.DateRange(); got != "2026-08-03 to 2026-08-09" {
		t.Fatalf("unexpected date range: %q", got)
	}

	if got := (Run{}).DateRange(); got != "Current Period" {
		t.Fatalf("expected fallback range, got %q", got)
	}
}

func TestRunSummaryText(t *testing.T) {
	text := sampleRun().SummaryText()

	lines := strings.Split(text, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), text)
	}
	if lines[0] != "Payroll 2026-08-03 to 2026-08-09" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Alice Jones: 15.50h, $271.25 (rounded $271)" {
		t.Fatalf("unexpected employee line: %q", lines[1])
	}
	if lines[3] != "GRAND TOTAL: 23.50h, $391.25 (rounded $391)" {
		t.Fatalf("unexpected total line: %q", lines[3])
	}
}
