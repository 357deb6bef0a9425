package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"focus/internal/model"
	"focus/internal/repository"

	"github.com/rs/zerolog"
)

// memConfigs is an in-memory BlockedAppRepository for service tests.
type memConfigs struct {
	nextID int64
	byID   map[int64]*model.BlockedApp
}

func newMemConfigs() *memConfigs {
	return &memConfigs{nextID: 1, byID: make(map[int64]*model.BlockedApp)}
}

func (m *memConfigs) Create(_ context.Context, b *model.BlockedApp) error {
	b.ID = m.nextID
	m.nextID++
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memConfigs) GetByID(_ context.Context, id int64) (*model.BlockedApp, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memConfigs) GetActiveByUserAndApp(_ context.Context, userID int64, appName string) (*model.BlockedApp, error) {
	for _, b := range m.byID {
		if b.UserID == userID && b.AppName == appName && b.Active {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memConfigs) ListByUser(_ context.Context, userID int64, includeInactive bool) ([]model.BlockedApp, error) {
	var out []model.BlockedApp
	for _, b := range m.byID {
		if b.UserID == userID && (includeInactive || b.Active) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memConfigs) ListActive(_ context.Context) ([]model.BlockedApp, error) {
	var out []model.BlockedApp
	for _, b := range m.byID {
		if b.Active {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memConfigs) Update(_ context.Context, b *model.BlockedApp) error {
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memConfigs) Deactivate(_ context.Context, id int64) error {
	if b, ok := m.byID[id]; ok {
		b.Active = false
	}
	return nil
}

func (m *memConfigs) MarkBlocked(_ context.Context, id int64, at time.Time) error {
	if b, ok := m.byID[id]; ok {
		b.LastBlockedAt = &at
	}
	return nil
}

func (m *memConfigs) MarkReset(_ context.Context, id int64, at time.Time) error {
	if b, ok := m.byID[id]; ok {
		b.LastResetAt = &at
	}
	return nil
}

// nopAudit satisfies LogService without touching storage.
type nopAudit struct{}

func (nopAudit) Record(context.Context, model.AuditLog)                       {}
func (nopAudit) RecordAction(context.Context, int64, model.LogAction, string) {}
func (nopAudit) RecordResource(context.Context, int64, model.LogAction, string, string, int64) {
}
func (nopAudit) List(context.Context, repository.LogFilter) ([]model.AuditLog, error) {
	return nil, nil
}
func (nopAudit) Prune(context.Context, time.Duration) (int64, error) { return 0, nil }

func noAudit() LogService { return nopAudit{} }

func newBlockedAppService(t *testing.T) (BlockedAppService, *memConfigs, *memLedger) {
	t.Helper()
	configs := newMemConfigs()
	l := newMemLedger()
	svc := NewBlockedAppService(configs, l, noAudit(), time.UTC, zerolog.Nop())
	return svc, configs, l
}

func TestCreateRejectsInvalidWindow(t *testing.T) {
	svc, _, _ := newBlockedAppService(t)
	ctx := context.Background()

	cases := []model.BlockedApp{
		{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60, BlockStart: "22:00"},
		{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60, BlockStart: "25:00", BlockEnd: "06:00"},
		{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60, BlockWeekdays: []int16{9}},
		{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 0},
		{UserID: 1, AppName: "", DailyLimitMinutes: 60},
	}
	for i := range cases {
		if _, err := svc.Create(ctx, &cases[i]); err == nil {
			t.Errorf("case %d: expected rejection, got nil", i)
		}
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	svc, _, _ := newBlockedAppService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &model.BlockedApp{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.Create(ctx, &model.BlockedApp{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 30})
	if !errors.Is(err, ErrDuplicateBlockedApp) {
		t.Fatalf("expected ErrDuplicateBlockedApp, got %v", err)
	}
}

func TestDeleteIsSoft(t *testing.T) {
	svc, configs, _ := newBlockedAppService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.BlockedApp{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, 1, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// The row survives but no longer matches active lookups.
	row, _ := configs.GetByID(ctx, created.ID)
	if row == nil || row.Active {
		t.Error("expected soft-deleted row to remain with active=false")
	}
	active, _ := configs.GetActiveByUserAndApp(ctx, 1, "tiktok")
	if active != nil {
		t.Error("soft-deleted config still returned as active")
	}
}

func TestStatusReflectsLedger(t *testing.T) {
	svc, _, l := newBlockedAppService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.BlockedApp{UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := l.AddMinutes(ctx, 1, "tiktok", 48, noon); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}

	st, err := svc.Status(ctx, 1, created.ID, noon)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.State != "warning" {
		t.Errorf("expected warning at 48/60, got %s", st.State)
	}
	if st.CurrentUsageMinutes != 48 || st.RemainingMinutes != 12 {
		t.Errorf("unexpected usage %v remaining %v", st.CurrentUsageMinutes, st.RemainingMinutes)
	}
	if st.UsagePercentage < 79.99 || st.UsagePercentage > 80.01 {
		t.Errorf("expected 80%%, got %v", st.UsagePercentage)
	}
	if st.SecondsUntilReset <= 0 || st.SecondsUntilReset > 24*60*60 {
		t.Errorf("seconds until reset out of range: %d", st.SecondsUntilReset)
	}
}

func TestStatusScheduleOverride(t *testing.T) {
	svc, _, _ := newBlockedAppService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.BlockedApp{
		UserID: 1, AppName: "tiktok", DailyLimitMinutes: 60,
		BlockStart: "22:00", BlockEnd: "06:00",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	late := time.Date(2026, 8, 3, 23, 0, 0, 0, time.UTC)
	st, err := svc.Status(ctx, 1, created.ID, late)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.State != "blocked" {
		t.Errorf("expected blocked inside window with zero usage, got %s", st.State)
	}
}

func TestResetAllDailyClearsCounters(t *testing.T) {
	svc, _, l := newBlockedAppService(t)
	ctx := context.Background()

	for _, app := range []string{"tiktok", "instagram"} {
		if _, err := svc.Create(ctx, &model.BlockedApp{UserID: 1, AppName: app, DailyLimitMinutes: 60}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, err := l.AddMinutes(ctx, 1, app, 50, noon); err != nil {
			t.Fatalf("AddMinutes failed: %v", err)
		}
	}

	count, err := svc.ResetAllDaily(ctx, noon)
	if err != nil {
		t.Fatalf("ResetAllDaily failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 resets, got %d", count)
	}
	for _, app := range []string{"tiktok", "instagram"} {
		total, _ := l.MinutesUsedToday(ctx, 1, app, noon)
		if total != 0 {
			t.Errorf("%s: expected 0 after reset, got %v", app, total)
		}
	}
}
