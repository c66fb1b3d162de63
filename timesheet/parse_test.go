package timesheet

import (
	"testing"
	"time"
)

func TestParseWorkHours(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{name: "full day", value: "8:00:00", want: 8.0},
		{name: "half hour", value: "7:30:00", want: 7.5},
		{name: "seconds round", value: "0:00:30", want: 0.01},
		{name: "quarter", value: "0:45:00", want: 0.75},
		{name: "leading space", value: " 8:15:00 ", want: 8.25},
		{name: "empty", value: "", want: 0},
		{name: "two parts", value: "8:00", want: 0},
		{name: "garbage", value: "abc", want: 0},
		{name: "non numeric part", value: "8:xx:00", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseWorkHours(tt.value); got != tt.want {
				t.Fatalf("unexpected hours for %q: expected %v, got %v", tt.value, tt.want, got)
			}
		})
	}
}

func TestDailyHours(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record Record
		want   float64
	}{
		{
			name:   "duration column wins over clocks",
			record: Record{Date: date, WorkTime: "6:30:00", ClockIn: "09:00:00", ClockOut: "17:00:00"},
			want:   6.5,
		},
		{
			name:   "clock pair",
			record: Record{Date: date, ClockIn: "09:00:00", ClockOut: "17:30:00"},
			want:   8.5,
		},
		{
			name:   "overnight shift wraps",
			record: Record{Date: date, ClockIn: "22:00:00", ClockOut: "06:00:00"},
			want:   8.0,
		},
		{
			name:   "missing clock out",
			record: Record{Date: date, ClockIn: "09:00:00"},
			want:   0,
		},
		{
			name:   "missing clock in",
			record: Record{Date: date, ClockOut: "17:00:00"},
			want:   0,
		},
		{
			name:   "both missing is a day off",
			record: Record{Date: date},
			want:   0,
		},
		{
			name:   "unparseable clock",
			record: Record{Date: date, ClockIn: "morning", ClockOut: "17:00:00"},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyHours(tt.record); got != tt.want {
				t.Fatalf("unexpected hours: expected %v, got %v", tt.want, got)
			}
		})
	}
}
