package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var noon = time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

func setupLedger(t *testing.T) *RedisLedger {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client, time.UTC)
}

func TestAddMinutesAccumulates(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	total, err := l.AddMinutes(ctx, 1, "instagram", 12.5, noon)
	if err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}
	if total != 12.5 {
		t.Errorf("expected total 12.5, got %v", total)
	}

	total, err = l.AddMinutes(ctx, 1, "instagram", 7.5, noon)
	if err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}
	if total != 20 {
		t.Errorf("expected total 20, got %v", total)
	}

	got, err := l.MinutesUsedToday(ctx, 1, "instagram", noon)
	if err != nil {
		t.Fatalf("MinutesUsedToday failed: %v", err)
	}
	if got != 20 {
		t.Errorf("expected 20 minutes used, got %v", got)
	}
}

func TestMinutesUsedTodayMissingKey(t *testing.T) {
	l := setupLedger(t)

	got, err := l.MinutesUsedToday(context.Background(), 42, "tiktok", noon)
	if err != nil {
		t.Fatalf("MinutesUsedToday failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 for absent record, got %v", got)
	}
}

func TestAddMinutesRejectsNegative(t *testing.T) {
	l := setupLedger(t)

	if _, err := l.AddMinutes(context.Background(), 1, "instagram", -1, noon); err != ErrNegativeMinutes {
		t.Fatalf("expected ErrNegativeMinutes, got %v", err)
	}
}

func TestAddMinutesKeysAreIndependent(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	if _, err := l.AddMinutes(ctx, 1, "instagram", 10, noon); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}
	if _, err := l.AddMinutes(ctx, 1, "tiktok", 5, noon); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}
	if _, err := l.AddMinutes(ctx, 2, "instagram", 3, noon); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}

	got, _ := l.MinutesUsedToday(ctx, 1, "instagram", noon)
	if got != 10 {
		t.Errorf("user 1 instagram: expected 10, got %v", got)
	}
	got, _ = l.MinutesUsedToday(ctx, 1, "tiktok", noon)
	if got != 5 {
		t.Errorf("user 1 tiktok: expected 5, got %v", got)
	}
	got, _ = l.MinutesUsedToday(ctx, 2, "instagram", noon)
	if got != 3 {
		t.Errorf("user 2 instagram: expected 3, got %v", got)
	}
}

func TestDayBoundaryFollowsCallerClock(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	beforeMidnight := time.Date(2026, 8, 3, 23, 59, 0, 0, time.UTC)
	afterMidnight := time.Date(2026, 8, 4, 0, 1, 0, 0, time.UTC)

	if _, err := l.AddMinutes(ctx, 1, "instagram", 30, beforeMidnight); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}

	// The late-night counter is invisible to the next day.
	got, err := l.MinutesUsedToday(ctx, 1, "instagram", afterMidnight)
	if err != nil {
		t.Fatalf("MinutesUsedToday failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected fresh counter after midnight, got %v", got)
	}

	// And the previous day's total is still intact at its own instant.
	got, _ = l.MinutesUsedToday(ctx, 1, "instagram", beforeMidnight)
	if got != 30 {
		t.Errorf("expected 30 for the previous day, got %v", got)
	}

	// Resetting one day leaves the other untouched.
	if _, err := l.AddMinutes(ctx, 1, "instagram", 5, afterMidnight); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}
	if err := l.ResetDaily(ctx, 1, "instagram", beforeMidnight); err != nil {
		t.Fatalf("ResetDaily failed: %v", err)
	}
	got, _ = l.MinutesUsedToday(ctx, 1, "instagram", beforeMidnight)
	if got != 0 {
		t.Errorf("expected 0 after reset, got %v", got)
	}
	got, _ = l.MinutesUsedToday(ctx, 1, "instagram", afterMidnight)
	if got != 5 {
		t.Errorf("expected next day's counter to survive the reset, got %v", got)
	}
}

func TestResetDailyRoundTrip(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	if _, err := l.AddMinutes(ctx, 1, "instagram", 90, noon); err != nil {
		t.Fatalf("AddMinutes failed: %v", err)
	}
	if err := l.ResetDaily(ctx, 1, "instagram", noon); err != nil {
		t.Fatalf("ResetDaily failed: %v", err)
	}

	got, err := l.MinutesUsedToday(ctx, 1, "instagram", noon)
	if err != nil {
		t.Fatalf("MinutesUsedToday failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 after reset, got %v", got)
	}
}

func TestConcurrentIncrementsDoNotLoseUpdates(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := l.AddMinutes(ctx, 7, "instagram", 1.0, noon); err != nil {
				t.Errorf("AddMinutes failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := l.MinutesUsedToday(ctx, 7, "instagram", noon)
	if err != nil {
		t.Fatalf("MinutesUsedToday failed: %v", err)
	}
	if got != n {
		t.Errorf("expected %d after %d concurrent increments, got %v", n, n, got)
	}
}
