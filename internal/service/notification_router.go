package service

import (
	"fmt"
	"time"

	"focus/internal/model"
)

// RouteDecision maps a decision to at most one outbound notification. It is a
// pure function: no I/O, no state.
//
// A WARNING event fires only on the transition into WARNING. A BLOCKED event
// fires on any transition into BLOCKED, including a schedule-driven
// NORMAL->BLOCKED jump that never passes through WARNING. When one increment
// crosses both thresholds, only the highest-severity event is emitted.
// Steady-state repeats emit nothing.
func RouteDecision(userID int64, appName string, d Decision, now time.Time) *model.NotificationEvent {
	if !d.Transitioned {
		return nil
	}

	switch d.EffectiveState {
	case StateBlocked:
		msg := fmt.Sprintf("%s is now blocked - daily limit reached", appName)
		if d.ScheduleBlocked && d.TotalMinutes < d.LimitMinutes {
			msg = fmt.Sprintf("%s is now blocked - scheduled block window", appName)
		}
		return &model.NotificationEvent{
			UserID:  userID,
			Kind:    model.EventBlocked,
			Title:   "Application blocked",
			Message: msg,
			Data: map[string]any{
				"app_name":      appName,
				"total_minutes": d.TotalMinutes,
				"limit_minutes": d.LimitMinutes,
			},
			Timestamp: now,
		}
	case StateWarning:
		pct := d.TotalMinutes / d.LimitMinutes * 100
		return &model.NotificationEvent{
			UserID:  userID,
			Kind:    model.EventWarning,
			Title:   "Limit almost reached",
			Message: fmt.Sprintf("You have used %.0f%% of your limit for %s", pct, appName),
			Data: map[string]any{
				"app_name":   appName,
				"percentage": pct,
			},
			Timestamp: now,
		}
	default:
		return nil
	}
}
