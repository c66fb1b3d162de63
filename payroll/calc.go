// Package payroll turns parsed timesheet records into per-employee weekly
// pay figures and owns the persistent hourly rate table.
package payroll

import (
	"math"
	"sort"
	"strconv"
	"time"

	"payrun/timesheet"
)

// DefaultHourlyRate applies to employees absent from the rate table. It is a
// calculation-time fallback and is never written into the table.
const DefaultHourlyRate = 15.0

// DailyEntry is one worked day inside a weekly aggregate. Raw clock strings
// are kept for display on payslips.
type DailyEntry struct {
	Date     time.Time
	ClockIn  string
	ClockOut string
	Hours    float64
	Pay      float64
}

// WeeklyAggregate is the per-employee result of one processing run.
type WeeklyAggregate struct {
	EmployeeID string
	Name       string
	Rate       float64
	TotalHours float64
	TotalPay   float64
	RoundedPay int
	// Days lists only days with hours > 0. Days with no usable clock data
	// contribute nothing to pay and are excluded from detail listings.
	Days []DailyEntry
}

// GrandTotal sums a whole run.
type GrandTotal struct {
	Hours   float64
	Pay     float64
	Rounded int
}

// ComputeWeeklyAggregates joins records against the rate table and aggregates
// per employee. Each daily pay is rounded to cents before summation; the
// generated reports show the per-day figures, so the sum has to reproduce
// them exactly. Rounded pay uses round half away from zero. The function is
// pure: same input, byte-identical output, no I/O.
func ComputeWeeklyAggregates(records []timesheet.Record, rates map[string]float64, defaultRate float64) []WeeklyAggregate {
	byEmployee := make(map[string]*WeeklyAggregate)
	order := make([]string, 0)

	for _, record := range records {
		aggregate, ok := byEmployee[record.EmployeeID]
		if !ok {
			rate, found := rates[record.EmployeeID]
			if !found {
				rate = defaultRate
			}
			aggregate = &WeeklyAggregate{
				EmployeeID: record.EmployeeID,
				Name:       record.Name(),
				Rate:       rate,
			}
			byEmployee[record.EmployeeID] = aggregate
			order = append(order, record.EmployeeID)
		}

		hours := timesheet.DailyHours(record)
		pay := round2(hours * aggregate.Rate)
		aggregate.TotalHours += hours
		aggregate.TotalPay += pay
		if hours > 0 {
			aggregate.Days = append(aggregate.Days, DailyEntry{
				Date:     record.Date,
				ClockIn:  record.ClockIn,
				ClockOut: record.ClockOut,
				Hours:    hours,
				Pay:      pay,
			})
		}
	}

	sort.Slice(order, func(i, j int) bool { return lessEmployeeID(order[i], order[j]) })
	out := make([]WeeklyAggregate, 0, len(byEmployee))
	for _, id := range order {
		aggregate := byEmployee[id]
		aggregate.TotalHours = round2(aggregate.TotalHours)
		aggregate.TotalPay = round2(aggregate.TotalPay)
		aggregate.RoundedPay = int(math.Round(aggregate.TotalPay))
		sort.Slice(aggregate.Days, func(i, j int) bool {
			return aggregate.Days[i].Date.Before(aggregate.Days[j].Date)
		})
		out = append(out, *aggregate)
	}
	return out
}

// lessEmployeeID orders IDs numerically when both parse as integers, so
// "2" sorts before "10". Non-numeric IDs fall back to string order.
func lessEmployeeID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// ComputeGrandTotal sums aggregates for the admin report's grand-total row.
func ComputeGrandTotal(aggregates []WeeklyAggregate) GrandTotal {
	var total GrandTotal
	for _, aggregate := range aggregates {
		total.Hours += aggregate.TotalHours
		total.Pay += aggregate.TotalPay
		total.Rounded += aggregate.RoundedPay
	}
	total.Hours = round2(total.Hours)
	total.Pay = round2(total.Pay)
	return total
}

// WithHours filters aggregates down to employees who worked at all; the
// cuttable payslip sheet prints nothing for a zero-hour week.
func WithHours(aggregates []WeeklyAggregate) []WeeklyAggregate {
	out := make([]WeeklyAggregate, 0, len(aggregates))
	for _, aggregate := range aggregates {
		if aggregate.TotalHours > 0 {
			out = append(out, aggregate)
		}
	}
	return out
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
