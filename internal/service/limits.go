package service

import (
	"errors"
	"fmt"
	"time"

	"focus/internal/model"
)

var (
	// ErrInvalidInput marks a malformed caller-supplied value, e.g. negative minutes.
	ErrInvalidInput = errors.New("invalid_input")
	// ErrInvalidConfig marks a limit configuration with a non-positive daily limit.
	ErrInvalidConfig = errors.New("invalid_limit_config")
	// ErrConfigNotFound means no active limit exists for the (user, app) pair.
	// Callers are expected to branch on it; it is not a fault.
	ErrConfigNotFound = errors.New("limit_config_not_found")
)

// BlockState is the severity of a usage decision. Values are ordered so a
// higher state is a more severe one.
type BlockState int

const (
	StateNormal BlockState = iota
	StateWarning
	StateBlocked
)

func (s BlockState) String() string {
	switch s {
	case StateWarning:
		return "warning"
	case StateBlocked:
		return "blocked"
	default:
		return "normal"
	}
}

// warningThreshold is the fraction of the daily limit at which a pre-block
// warning fires.
const warningThreshold = 0.8

// ClassifyUsage maps cumulative minutes against a daily limit to a block state.
// Ties resolve to the higher-severity state: exactly 80% is WARNING, exactly
// 100% is BLOCKED.
func ClassifyUsage(usedMinutes, limitMinutes float64) (BlockState, error) {
	if limitMinutes <= 0 {
		return StateNormal, fmt.Errorf("daily limit %v: %w", limitMinutes, ErrInvalidConfig)
	}
	switch {
	case usedMinutes >= limitMinutes:
		return StateBlocked, nil
	case usedMinutes/limitMinutes >= warningThreshold:
		return StateWarning, nil
	default:
		return StateNormal, nil
	}
}

// ScheduleWindow is an optional time-of-day range during which an app is
// blocked regardless of usage. Start and End are "HH:MM"; a window with
// Start > End wraps midnight (22:00-06:00). An empty Weekdays slice applies
// the window to every day.
type ScheduleWindow struct {
	Start    string
	End      string
	Weekdays []time.Weekday
}

// windowFromConfig extracts the schedule window from a limit configuration,
// nil when none is set.
func windowFromConfig(app *model.BlockedApp) *ScheduleWindow {
	if app.BlockStart == "" || app.BlockEnd == "" {
		return nil
	}
	w := &ScheduleWindow{Start: app.BlockStart, End: app.BlockEnd}
	for _, d := range app.BlockWeekdays {
		w.Weekdays = append(w.Weekdays, time.Weekday(d))
	}
	return w
}

// WithinBlockWindow reports whether now falls inside the window. A nil window
// never blocks.
func WithinBlockWindow(w *ScheduleWindow, now time.Time) bool {
	if w == nil {
		return false
	}
	start, okStart := parseClock(w.Start)
	end, okEnd := parseClock(w.End)
	if !okStart || !okEnd {
		return false
	}
	if len(w.Weekdays) > 0 {
		match := false
		for _, d := range w.Weekdays {
			if now.Weekday() == d {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	minute := now.Hour()*60 + now.Minute()
	if start > end {
		// Window spans midnight: inside when at-or-after start OR before end.
		return minute >= start || minute < end
	}
	return minute >= start && minute < end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
