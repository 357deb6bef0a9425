package service

import (
	"errors"
	"testing"
	"time"
)

func TestClassifyUsageThresholds(t *testing.T) {
	cases := []struct {
		name  string
		used  float64
		limit float64
		want  BlockState
	}{
		{"zero usage", 0, 60, StateNormal},
		{"below warning", 47.9, 60, StateNormal},
		{"exactly 80 percent", 48, 60, StateWarning},
		{"between warning and limit", 59, 60, StateWarning},
		{"exactly at limit", 60, 60, StateBlocked},
		{"over limit", 200, 60, StateBlocked},
		{"fractional limit warning boundary", 0.8, 1, StateWarning},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ClassifyUsage(tc.used, tc.limit)
			if err != nil {
				t.Fatalf("ClassifyUsage(%v, %v) failed: %v", tc.used, tc.limit, err)
			}
			if got != tc.want {
				t.Errorf("ClassifyUsage(%v, %v) = %v, want %v", tc.used, tc.limit, got, tc.want)
			}
		})
	}
}

func TestClassifyUsageInvalidLimit(t *testing.T) {
	for _, limit := range []float64{0, -10} {
		if _, err := ClassifyUsage(30, limit); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ClassifyUsage(30, %v): expected ErrInvalidConfig, got %v", limit, err)
		}
	}
}

func TestClassifyUsageMonotonic(t *testing.T) {
	const limit = 90.0
	prev := StateNormal
	for used := 0.0; used <= limit*1.5; used += 0.5 {
		state, err := ClassifyUsage(used, limit)
		if err != nil {
			t.Fatalf("ClassifyUsage(%v, %v) failed: %v", used, limit, err)
		}
		if state < prev {
			t.Fatalf("severity decreased from %v to %v at used=%v", prev, state, used)
		}
		prev = state
	}
}

func at(weekday time.Weekday, clock string) time.Time {
	// 2026-08-03 is a Monday.
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	base = base.AddDate(0, 0, int(weekday-time.Monday))
	t, _ := time.Parse("15:04", clock)
	return base.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func TestWithinBlockWindow(t *testing.T) {
	cases := []struct {
		name   string
		window *ScheduleWindow
		now    time.Time
		want   bool
	}{
		{"nil window never blocks", nil, at(time.Monday, "23:00"), false},
		{"inside simple window", &ScheduleWindow{Start: "09:00", End: "17:00"}, at(time.Tuesday, "12:00"), true},
		{"before simple window", &ScheduleWindow{Start: "09:00", End: "17:00"}, at(time.Tuesday, "08:59"), false},
		{"at window start", &ScheduleWindow{Start: "09:00", End: "17:00"}, at(time.Tuesday, "09:00"), true},
		{"at window end is outside", &ScheduleWindow{Start: "09:00", End: "17:00"}, at(time.Tuesday, "17:00"), false},
		{"wrapping window late evening", &ScheduleWindow{Start: "22:00", End: "06:00"}, at(time.Friday, "23:30"), true},
		{"wrapping window early morning", &ScheduleWindow{Start: "22:00", End: "06:00"}, at(time.Saturday, "05:59"), true},
		{"wrapping window midday", &ScheduleWindow{Start: "22:00", End: "06:00"}, at(time.Friday, "12:00"), false},
		{"weekday filter match", &ScheduleWindow{Start: "09:00", End: "17:00", Weekdays: []time.Weekday{time.Monday}}, at(time.Monday, "10:00"), true},
		{"weekday filter miss", &ScheduleWindow{Start: "09:00", End: "17:00", Weekdays: []time.Weekday{time.Monday}}, at(time.Tuesday, "10:00"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinBlockWindow(tc.window, tc.now); got != tc.want {
				t.Errorf("WithinBlockWindow(%+v, %v) = %v, want %v", tc.window, tc.now, got, tc.want)
			}
		})
	}
}
