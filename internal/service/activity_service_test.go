package service

import (
	"context"
	"testing"
	"time"

	"focus/internal/cache"
	"focus/internal/model"
	"focus/internal/ws"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// memActivities is an in-memory ActivityRepository covering what the service
// tests touch.
type memActivities struct {
	nextID int64
	rows   map[int64]*model.Activity
}

func newMemActivities() *memActivities {
	return &memActivities{nextID: 1, rows: make(map[int64]*model.Activity)}
}

func (m *memActivities) Create(_ context.Context, a *model.Activity) error {
	a.ID = m.nextID
	m.nextID++
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memActivities) GetByID(_ context.Context, id int64) (*model.Activity, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memActivities) ListByUser(_ context.Context, userID int64, _, _ time.Time, _, _ int) ([]model.Activity, error) {
	var out []model.Activity
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memActivities) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

func (m *memActivities) TotalMinutesInRange(_ context.Context, userID int64, appName string, _, _ time.Time) (float64, error) {
	var total float64
	for _, a := range m.rows {
		if a.UserID == userID && (appName == "" || a.AppName == appName) {
			total += a.DurationMinutes
		}
	}
	return total, nil
}

func (m *memActivities) DailyStats(_ context.Context, userID int64, day time.Time) (*model.DailyStats, error) {
	return &model.DailyStats{Date: day}, nil
}

func (m *memActivities) WeeklyStats(_ context.Context, userID int64, end time.Time) (*model.WeeklyStats, error) {
	return &model.WeeklyStats{EndDate: end}, nil
}

func (m *memActivities) AppStats(context.Context, int64, time.Time, time.Time, int) ([]model.AppStats, error) {
	return nil, nil
}

func (m *memActivities) GlobalAppStats(context.Context, time.Time, time.Time, int) ([]model.AppStats, error) {
	return nil, nil
}

func newActivityFixture(t *testing.T, cfg *model.BlockedApp) (ActivityService, *ws.Registry) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	configs := newMemConfigs()
	if cfg != nil {
		if err := configs.Create(context.Background(), cfg); err != nil {
			t.Fatalf("seeding config failed: %v", err)
		}
	}
	l := newMemLedger()
	engine := NewBlockDecisionEngine(l, configs, zerolog.Nop())
	registry := ws.NewRegistry(zerolog.Nop())
	c := cache.New(client, time.Minute, zerolog.Nop())

	svc := NewActivityService(newMemActivities(), configs, engine, registry, c, noAudit(), time.UTC, zerolog.Nop())
	return svc, registry
}

func drainEvents(ch *ws.Channel) []model.NotificationEvent {
	var events []model.NotificationEvent
	for {
		select {
		case e := <-ch.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestRecordWithoutConfigSucceeds(t *testing.T) {
	svc, _ := newActivityFixture(t, nil)

	result, err := svc.Record(context.Background(), &model.Activity{
		UserID: 1, AppName: "maps", DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if result.Activity.ID == 0 {
		t.Error("expected activity to be stored")
	}
	if result.Blocked || result.State != "" {
		t.Errorf("unlimited app should carry no state, got %+v", result)
	}
}

func TestRecordDeliversBlockedOnce(t *testing.T) {
	svc, registry := newActivityFixture(t, &model.BlockedApp{
		UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60, Active: true,
	})
	ctx := context.Background()
	ch := registry.Connect(1)

	// 40 minutes stays NORMAL; the next 20 cross warning and block in one
	// increment, which must collapse to a single BLOCKED event.
	if _, err := svc.Record(ctx, &model.Activity{UserID: 1, AppName: "tiktok", DurationMinutes: 40}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	result, err := svc.Record(ctx, &model.Activity{UserID: 1, AppName: "tiktok", DurationMinutes: 20})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !result.Blocked || result.State != "blocked" {
		t.Fatalf("expected blocked at 60/60, got %+v", result)
	}

	events := drainEvents(ch)
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Kind != model.EventBlocked {
		t.Errorf("expected blocked event, got %s", events[0].Kind)
	}
}

func TestScheduleBlockNotifiesOncePerDay(t *testing.T) {
	svc, registry := newActivityFixture(t, &model.BlockedApp{
		UserID: 1, AppName: "tiktok", DailyLimitMinutes: 600, Active: true,
		BlockStart: "00:00", BlockEnd: "23:59",
	})
	ctx := context.Background()
	ch := registry.Connect(1)

	// Every evaluation inside the window is a fresh NORMAL->BLOCKED transition,
	// but the user should only hear about it once.
	for i := 0; i < 3; i++ {
		result, err := svc.Record(ctx, &model.Activity{UserID: 1, AppName: "tiktok", DurationMinutes: 1})
		if err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
		if !result.ScheduleBlocked {
			t.Fatalf("Record %d: expected schedule block", i)
		}
	}

	events := drainEvents(ch)
	if len(events) != 1 {
		t.Fatalf("expected one deduplicated event, got %d", len(events))
	}
}

func TestRecordOfflineUserIsNoop(t *testing.T) {
	svc, _ := newActivityFixture(t, &model.BlockedApp{
		UserID: 1, AppName: "tiktok", DailyLimitMinutes: 30, Active: true,
	})

	// No connected channels; crossing the limit must still succeed.
	result, err := svc.Record(context.Background(), &model.Activity{
		UserID: 1, AppName: "tiktok", DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !result.Blocked {
		t.Error("expected blocked result for offline user")
	}
}
