package timesheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const clockLayout = "15:04:05"

// ParseWorkHours converts a colon-delimited duration string ("H:MM:SS") to
// decimal hours rounded to two places. Any parse failure yields 0.0; a bad
// value must never abort a payroll run.
func ParseWorkHours(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0
	}
	numbers := make([]float64, 3)
	for i, part := range parts {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0
		}
		numbers[i] = parsed
	}
	return round2(numbers[0] + numbers[1]/60 + numbers[2]/3600)
}

// DailyHours derives the worked hours for one record. The duration column
// wins when present; otherwise the clock pair is used, adding 24h when the
// shift crosses midnight. A record with exactly one clock value, or with
// neither, yields 0 hours; the validator decides which of those is a data
// entry gap and which is a day off.
func DailyHours(record Record) float64 {
	if strings.TrimSpace(record.WorkTime) != "" {
		return ParseWorkHours(record.WorkTime)
	}
	if !record.HasClockIn() || !record.HasClockOut() {
		return 0
	}

	start, err := time.Parse(clockLayout, strings.TrimSpace(record.ClockIn))
	if err != nil {
		return 0
	}
	end, err := time.Parse(clockLayout, strings.TrimSpace(record.ClockOut))
	if err != nil {
		return 0
	}

	diff := end.Sub(start)
	if diff < 0 {
		diff += 24 * time.Hour
	}
	return round2(diff.Hours())
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
