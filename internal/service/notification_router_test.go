package service

import (
	"testing"
	"time"

	"focus/internal/model"
)

var routerNow = time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

func TestRouteDecisionEmitsNothingWithoutTransition(t *testing.T) {
	for _, state := range []BlockState{StateNormal, StateWarning, StateBlocked} {
		d := Decision{EffectiveState: state, PreviousState: state, Transitioned: false}
		if ev := RouteDecision(1, "instagram", d, routerNow); ev != nil {
			t.Errorf("state %v: expected no event for steady state, got %+v", state, ev)
		}
	}
}

func TestRouteDecisionWarningTransition(t *testing.T) {
	d := Decision{
		EffectiveState: StateWarning,
		PreviousState:  StateNormal,
		Transitioned:   true,
		TotalMinutes:   48,
		LimitMinutes:   60,
	}
	ev := RouteDecision(1, "instagram", d, routerNow)
	if ev == nil {
		t.Fatal("expected a warning event")
	}
	if ev.Kind != model.EventWarning {
		t.Errorf("expected warning kind, got %v", ev.Kind)
	}
	if ev.UserID != 1 {
		t.Errorf("expected user 1, got %d", ev.UserID)
	}
	if got := ev.Data["percentage"].(float64); got != 80 {
		t.Errorf("expected 80 percent, got %v", got)
	}
}

func TestRouteDecisionBlockedTransition(t *testing.T) {
	d := Decision{
		EffectiveState: StateBlocked,
		PreviousState:  StateWarning,
		Transitioned:   true,
		TotalMinutes:   60,
		LimitMinutes:   60,
	}
	ev := RouteDecision(1, "instagram", d, routerNow)
	if ev == nil || ev.Kind != model.EventBlocked {
		t.Fatalf("expected blocked event, got %+v", ev)
	}
}

func TestRouteDecisionScheduleBlockSkipsWarning(t *testing.T) {
	d := Decision{
		EffectiveState:  StateBlocked,
		PreviousState:   StateNormal,
		Transitioned:    true,
		TotalMinutes:    0,
		LimitMinutes:    60,
		ScheduleBlocked: true,
	}
	ev := RouteDecision(1, "instagram", d, routerNow)
	if ev == nil || ev.Kind != model.EventBlocked {
		t.Fatalf("expected blocked event for schedule-driven transition, got %+v", ev)
	}
}

func TestRouteDecisionSingleWarningAcrossRepeats(t *testing.T) {
	// A warning transition followed by steady-state warnings yields exactly one event.
	decisions := []Decision{
		{EffectiveState: StateWarning, PreviousState: StateNormal, Transitioned: true, TotalMinutes: 48, LimitMinutes: 60},
		{EffectiveState: StateWarning, PreviousState: StateWarning, Transitioned: false, TotalMinutes: 50, LimitMinutes: 60},
		{EffectiveState: StateWarning, PreviousState: StateWarning, Transitioned: false, TotalMinutes: 55, LimitMinutes: 60},
	}
	count := 0
	for _, d := range decisions {
		if ev := RouteDecision(1, "instagram", d, routerNow); ev != nil {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one warning event, got %d", count)
	}
}
