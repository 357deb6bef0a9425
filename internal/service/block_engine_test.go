package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"focus/internal/model"

	"github.com/rs/zerolog"
)

// memLedger is an in-memory UsageLedger for engine tests.
type memLedger struct {
	mu     sync.Mutex
	totals map[string]float64
}

func newMemLedger() *memLedger {
	return &memLedger{totals: make(map[string]float64)}
}

func key(userID int64, app string) string {
	return fmt.Sprintf("%d/%s", userID, app)
}

func (m *memLedger) MinutesUsedToday(_ context.Context, userID int64, app string, _ time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[key(userID, app)], nil
}

func (m *memLedger) AddMinutes(_ context.Context, userID int64, app string, minutes float64, _ time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[key(userID, app)] += minutes
	return m.totals[key(userID, app)], nil
}

func (m *memLedger) ResetDaily(_ context.Context, userID int64, app string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.totals, key(userID, app))
	return nil
}

// stubConfigs returns a fixed configuration for every lookup.
type stubConfigs struct {
	cfg *model.BlockedApp
}

func (s *stubConfigs) GetActiveByUserAndApp(context.Context, int64, string) (*model.BlockedApp, error) {
	return s.cfg, nil
}

func newEngine(cfg *model.BlockedApp) (*BlockDecisionEngine, *memLedger) {
	l := newMemLedger()
	return NewBlockDecisionEngine(l, &stubConfigs{cfg: cfg}, zerolog.Nop()), l
}

func limitOf(minutes float64) *model.BlockedApp {
	return &model.BlockedApp{UserID: 1, AppName: "instagram", DailyLimitMinutes: minutes, Active: true}
}

var noon = time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

func TestEvaluateRejectsNegativeDelta(t *testing.T) {
	engine, _ := newEngine(limitOf(60))
	if _, err := engine.Evaluate(context.Background(), 1, "instagram", -5, noon); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEvaluateConfigNotFound(t *testing.T) {
	engine, _ := newEngine(nil)
	if _, err := engine.Evaluate(context.Background(), 1, "instagram", 5, noon); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestEvaluateInvalidConfig(t *testing.T) {
	engine, _ := newEngine(limitOf(0))
	if _, err := engine.Evaluate(context.Background(), 1, "instagram", 5, noon); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEvaluateStateProgression(t *testing.T) {
	engine, _ := newEngine(limitOf(60))
	ctx := context.Background()

	// 30 minutes: comfortably normal.
	d, err := engine.Evaluate(ctx, 1, "instagram", 30, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateNormal || d.Transitioned {
		t.Errorf("after 30m: got %v transitioned=%v, want normal/false", d.EffectiveState, d.Transitioned)
	}

	// 18 more (48 total = 80%): warning transition.
	d, err = engine.Evaluate(ctx, 1, "instagram", 18, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateWarning || !d.Transitioned {
		t.Errorf("after 48m: got %v transitioned=%v, want warning/true", d.EffectiveState, d.Transitioned)
	}

	// 5 more (53 total): still warning, no re-fire.
	d, err = engine.Evaluate(ctx, 1, "instagram", 5, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateWarning || d.Transitioned {
		t.Errorf("after 53m: got %v transitioned=%v, want warning/false", d.EffectiveState, d.Transitioned)
	}

	// 7 more (60 total = limit): blocked transition.
	d, err = engine.Evaluate(ctx, 1, "instagram", 7, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateBlocked || !d.Transitioned {
		t.Errorf("after 60m: got %v transitioned=%v, want blocked/true", d.EffectiveState, d.Transitioned)
	}
}

func TestEvaluateIdempotentAfterBlocked(t *testing.T) {
	engine, _ := newEngine(limitOf(60))
	ctx := context.Background()

	if _, err := engine.Evaluate(ctx, 1, "instagram", 60, noon); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		d, err := engine.Evaluate(ctx, 1, "instagram", 0, noon)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if d.EffectiveState != StateBlocked {
			t.Errorf("call %d: expected blocked, got %v", i, d.EffectiveState)
		}
		if d.Transitioned {
			t.Errorf("call %d: expected transitioned=false on repeat evaluation", i)
		}
	}
}

func TestEvaluateSkipsWarningWhenCrossingBothThresholds(t *testing.T) {
	// 50 then 10 more crosses 80% and 100% in one increment; the decision must
	// land on blocked with a single transition, never a retroactive warning.
	engine, _ := newEngine(limitOf(60))
	ctx := context.Background()

	d, err := engine.Evaluate(ctx, 1, "instagram", 50, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateNormal || d.Transitioned {
		t.Fatalf("after 50m: got %v transitioned=%v, want normal/false", d.EffectiveState, d.Transitioned)
	}

	d, err = engine.Evaluate(ctx, 1, "instagram", 10, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateBlocked || !d.Transitioned {
		t.Fatalf("after 60m: got %v transitioned=%v, want blocked/true", d.EffectiveState, d.Transitioned)
	}
	if d.PreviousState != StateNormal {
		t.Errorf("previous state: got %v, want normal", d.PreviousState)
	}
	if ev := RouteDecision(1, "instagram", d, noon); ev == nil || ev.Kind != model.EventBlocked {
		t.Errorf("router should emit a blocked event, got %+v", ev)
	}
}

func TestEvaluateScheduleOverride(t *testing.T) {
	cfg := limitOf(60)
	cfg.BlockStart = "22:00"
	cfg.BlockEnd = "06:00"
	engine, _ := newEngine(cfg)

	lateNight := time.Date(2026, 8, 3, 23, 0, 0, 0, time.UTC)
	d, err := engine.Evaluate(context.Background(), 1, "instagram", 0, lateNight)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateBlocked {
		t.Errorf("expected blocked inside schedule window, got %v", d.EffectiveState)
	}
	if !d.ScheduleBlocked {
		t.Error("expected ScheduleBlocked to be set")
	}

	ev := RouteDecision(1, "instagram", d, lateNight)
	if ev == nil {
		t.Fatal("router should emit an event for a schedule-driven block")
	}
	if ev.Kind != model.EventBlocked {
		t.Errorf("expected blocked event (never warning), got %v", ev.Kind)
	}
}

func TestEvaluateScheduleWindowClosedFallsBackToUsage(t *testing.T) {
	cfg := limitOf(60)
	cfg.BlockStart = "22:00"
	cfg.BlockEnd = "06:00"
	engine, _ := newEngine(cfg)

	d, err := engine.Evaluate(context.Background(), 1, "instagram", 10, noon)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.EffectiveState != StateNormal {
		t.Errorf("expected normal outside schedule window, got %v", d.EffectiveState)
	}
}

func TestEvaluateResetReproducesSequence(t *testing.T) {
	engine, l := newEngine(limitOf(60))
	ctx := context.Background()

	run := func() []BlockState {
		var states []BlockState
		for _, delta := range []float64{30, 18, 12} {
			d, err := engine.Evaluate(ctx, 1, "instagram", delta, noon)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			states = append(states, d.EffectiveState)
		}
		return states
	}

	first := run()
	if err := l.ResetDaily(ctx, 1, "instagram", noon); err != nil {
		t.Fatalf("ResetDaily failed: %v", err)
	}
	if total, _ := l.MinutesUsedToday(ctx, 1, "instagram", noon); total != 0 {
		t.Fatalf("expected 0 after reset, got %v", total)
	}
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("step %d: first run %v, second run %v", i, first[i], second[i])
		}
	}
	want := []BlockState{StateNormal, StateWarning, StateBlocked}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("step %d: got %v, want %v", i, first[i], want[i])
		}
	}
}

func TestEvaluateConcurrentIncrements(t *testing.T) {
	engine, l := newEngine(limitOf(1000))
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			d, err := engine.Evaluate(ctx, 1, "instagram", 1.0, noon)
			if err != nil {
				t.Errorf("Evaluate failed: %v", err)
				return
			}
			// Each decision reflects some serialization: the observed total is
			// a whole number of increments including our own.
			if d.TotalMinutes < 1 || d.TotalMinutes > n {
				t.Errorf("total %v outside [1,%d]", d.TotalMinutes, n)
			}
		}()
	}
	wg.Wait()

	total, _ := l.MinutesUsedToday(ctx, 1, "instagram", noon)
	if total != n {
		t.Errorf("expected %d total after %d concurrent evaluations, got %v", n, n, total)
	}
}
