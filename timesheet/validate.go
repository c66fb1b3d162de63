package timesheet

import (
	"sort"
	"time"
)

// ClockKind selects which side of a clock pair a suggestion is for.
type ClockKind string

const (
	ClockIn  ClockKind = "in"
	ClockOut ClockKind = "out"
)

// Severity distinguishes the two flagged states: one missing value blocks
// the row from payroll until resolved, both missing is treated downstream as
// a deliberate day off but still shown for operator review.
type Severity string

const (
	SeverityOneMissing  Severity = "one-missing"
	SeverityBothMissing Severity = "both-missing"
)

// Issue flags a record whose clock-in and/or clock-out value is absent.
type Issue struct {
	Record          Record
	MissingClockIn  bool
	MissingClockOut bool
}

func (i Issue) Severity() Severity {
	if i.MissingClockIn && i.MissingClockOut {
		return SeverityBothMissing
	}
	return SeverityOneMissing
}

// BlocksPayroll reports whether the row cannot be included in pay as-is.
// Both-missing rows are excluded by the hours > 0 filter instead.
func (i Issue) BlocksPayroll() bool {
	return i.Severity() == SeverityOneMissing
}

// FindMissingTimeIssues returns one Issue per record with a missing clock
// value. Input is never mutated.
func FindMissingTimeIssues(records []Record) []Issue {
	issues := make([]Issue, 0)
	for _, record := range records {
		missingIn := !record.HasClockIn()
		missingOut := !record.HasClockOut()
		if !missingIn && !missingOut {
			continue
		}
		issues = append(issues, Issue{
			Record:          record,
			MissingClockIn:  missingIn,
			MissingClockOut: missingOut,
		})
	}
	return issues
}

const (
	defaultClockIn  = "09:00:00"
	defaultClockOut = "17:00:00"
)

// SuggestTime proposes a replacement clock value for the given date by taking
// the statistical mode of the other employees' times that day, bucketed to
// the nearest 15 minutes. Ties resolve to the earliest bucket. With no
// comparable data the fixed defaults apply (09:00 in, 17:00 out). The
// suggestion is advisory and never applied automatically.
func SuggestTime(records []Record, date time.Time, kind ClockKind) string {
	counts := make(map[string]int)
	for _, record := range records {
		if !record.Date.Equal(date) {
			continue
		}
		raw := record.ClockIn
		if kind == ClockOut {
			raw = record.ClockOut
		}
		parsed, err := time.Parse(clockLayout, raw)
		if err != nil {
			continue
		}
		counts[roundToQuarterHour(parsed)]++
	}

	best := ""
	bestCount := 0
	buckets := make([]string, 0, len(counts))
	for bucket := range counts {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	for _, bucket := range buckets {
		if counts[bucket] > bestCount {
			best = bucket
			bestCount = counts[bucket]
		}
	}
	if best != "" {
		return best
	}
	if kind == ClockOut {
		return defaultClockOut
	}
	return defaultClockIn
}

func roundToQuarterHour(value time.Time) string {
	minutes := value.Minute()
	rounded := ((minutes + 7) / 15) * 15
	hour := value.Hour()
	if rounded == 60 {
		hour = (hour + 1) % 24
		rounded = 0
	}
	return time.Date(0, 1, 1, hour, rounded, 0, 0, time.UTC).Format(clockLayout)
}
