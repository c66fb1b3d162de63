package payroll

import (
	"testing"
	"time"

	"payrun/timesheet"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeWeeklyAggregates(t *testing.T) {
	records := []timesheet.Record{
		{EmployeeID: "1001", FirstName: "Alice", LastName: "Jones", Date: day(3), WorkTime: "8:00:00"},
		{EmployeeID: "1001", FirstName: "Alice", LastName: "Jones", Date: day(4), WorkTime: "7:30:00"},
		{EmployeeID: "1002", FirstName: "Bob", LastName: "Smith", Date: day(3), ClockIn: "09:00:00", ClockOut: "17:00:00"},
	}
	rates := map[string]float64{"1001": 17.50}

	aggregates := ComputeWeeklyAggregates(records, rates, 15.0)
	if len(aggregates) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(aggregates))
	}

	alice := aggregates[0]
	if alice.EmployeeID != "1001" || alice.Name != "Alice Jones" {
		t.Fatalf("unexpected first aggregate: %+v", alice)
	}
	if alice.Rate != 17.50 {
		t.Fatalf("expected stored rate, got %v", alice.Rate)
	}
	if alice.TotalHours != 15.5 {
		t.Fatalf("unexpected hours: %v", alice.TotalHours)
	}
	if alice.TotalPay != 271.25 {
		t.Fatalf("unexpected pay: %v", alice.TotalPay)
	}
	if alice.RoundedPay != 271 {
		t.Fatalf("unexpected rounded pay: %v", alice.RoundedPay)
	}
	if len(alice.Days) != 2 {
		t.Fatalf("expected 2 daily entries, got %d", len(alice.Days))
	}

	bob := aggregates[1]
	if bob.Rate != 15.0 {
		t.Fatalf("expected default rate for unlisted employee, got %v", bob.Rate)
	}
	if bob.TotalPay != 120.0 {
		t.Fatalf("unexpected pay: %v", bob.TotalPay)
	}
}

func TestComputeWeeklyAggregatesRoundsDailyPayBeforeSummation(t *testing.T) {
	// 3.33h at $16.55 is $55.1115 raw; the per-day figure on the report is
	// $55.11, so the weekly total must be 2 * 55.11, not round(110.223).
	records := []timesheet.Record{
		{EmployeeID: "1", FirstName: "Eve", Date: day(3), WorkTime: "3:19:48"},
		{EmployeeID: "1", FirstName: "Eve", Date: day(4), WorkTime: "3:19:48"},
	}

	aggregates := ComputeWeeklyAggregates(records, map[string]float64{"1": 16.55}, 15.0)
	if len(aggregates) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggregates))
	}
	if aggregates[0].Days[0].Pay != 55.11 {
		t.Fatalf("unexpected daily pay: %v", aggregates[0].Days[0].Pay)
	}
	if aggregates[0].TotalPay != 110.22 {
		t.Fatalf("expected sum of rounded daily pay, got %v", aggregates[0].TotalPay)
	}
}

func TestComputeWeeklyAggregatesExcludesZeroHourDaysFromDetail(t *testing.T) {
	records := []timesheet.Record{
		{EmployeeID: "1", FirstName: "Eve", Date: day(3), WorkTime: "8:00:00"},
		{EmployeeID: "1", FirstName: "Eve", Date: day(4)}, // day off
	}

	aggregates := ComputeWeeklyAggregates(records, nil, 15.0)
	if len(aggregates[0].Days) != 1 {
		t.Fatalf("expected zero-hour day excluded from detail, got %d entries", len(aggregates[0].Days))
	}
	if aggregates[0].TotalHours != 8.0 {
		t.Fatalf("unexpected hours: %v", aggregates[0].TotalHours)
	}
}

func TestComputeWeeklyAggregatesOrdersIDsNumerically(t *testing.T) {
	records := []timesheet.Record{
		{EmployeeID: "10", FirstName: "Jo", Date: day(3), WorkTime: "8:00:00"},
		{EmployeeID: "2", FirstName: "Al", Date: day(3), WorkTime: "8:00:00"},
	}

	aggregates := ComputeWeeklyAggregates(records, nil, 15.0)
	if len(aggregates) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(aggregates))
	}
	if aggregates[0].EmployeeID != "2" || aggregates[1].EmployeeID != "10" {
		t.Fatalf("expected numeric ID order [2 10], got [%s %s]",
			aggregates[0].EmployeeID, aggregates[1].EmployeeID)
	}
}

func TestComputeGrandTotal(t *testing.T) {
	aggregates := []WeeklyAggregate{
		{TotalHours: 40, TotalPay: 600.50, RoundedPay: 601},
		{TotalHours: 32.5, TotalPay: 487.50, RoundedPay: 488},
	}

	total := ComputeGrandTotal(aggregates)
	if total.Hours != 72.5 {
		t.Fatalf("unexpected hours: %v", total.Hours)
	}
	if total.Pay != 1088.0 {
		t.Fatalf("unexpected pay: %v", total.Pay)
	}
	if total.Rounded != 1089 {
		t.Fatalf("unexpected rounded total: %v", total.Rounded)
	}
}

func TestWithHours(t *testing.T) {
	aggregates := []WeeklyAggregate{
		{EmployeeID: "1", TotalHours: 8},
		{EmployeeID: "2", TotalHours: 0},
	}

	filtered := WithHours(aggregates)
	if len(filtered) != 1 || filtered[0].EmployeeID != "1" {
		t.Fatalf("expected only the worked aggregate, got %+v", filtered)
	}
}
