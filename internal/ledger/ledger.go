package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNegativeMinutes is returned when a caller tries to add a negative duration.
var ErrNegativeMinutes = errors.New("negative_minutes")

// keyTTL keeps yesterday's counter around briefly for late events, then lets
// Redis reap it.
const keyTTL = 48 * time.Hour

// UsageLedger tracks cumulative minutes per (user, app, calendar day). The
// caller's now picks the day, so one evaluation reads and writes a single
// day's counter even across midnight.
type UsageLedger interface {
	// MinutesUsedToday returns the day's total for the pair, 0 when absent.
	MinutesUsedToday(ctx context.Context, userID int64, appName string, now time.Time) (float64, error)
	// AddMinutes atomically increments the day's total and returns the new value.
	AddMinutes(ctx context.Context, userID int64, appName string, minutes float64, now time.Time) (float64, error)
	// ResetDaily clears the day's total for the pair.
	ResetDaily(ctx context.Context, userID int64, appName string, now time.Time) error
}

// RedisLedger implements UsageLedger on Redis. INCRBYFLOAT serializes
// concurrent increments per key, so no lock is needed here.
type RedisLedger struct {
	client *redis.Client
	loc    *time.Location
}

// NewRedisLedger creates a ledger whose day boundary follows loc.
func NewRedisLedger(client *redis.Client, loc *time.Location) *RedisLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &RedisLedger{client: client, loc: loc}
}

func (l *RedisLedger) key(userID int64, appName string, now time.Time) string {
	day := now.In(l.loc).Format("2006-01-02")
	return fmt.Sprintf("usage:%d:%s:%s", userID, appName, day)
}

func (l *RedisLedger) MinutesUsedToday(ctx context.Context, userID int64, appName string, now time.Time) (float64, error) {
	val, err := l.client.Get(ctx, l.key(userID, appName, now)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage for user %d app %s: %w", userID, appName, err)
	}
	return val, nil
}

func (l *RedisLedger) AddMinutes(ctx context.Context, userID int64, appName string, minutes float64, now time.Time) (float64, error) {
	if minutes < 0 {
		return 0, ErrNegativeMinutes
	}
	key := l.key(userID, appName, now)
	total, err := l.client.IncrByFloat(ctx, key, minutes).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing usage for user %d app %s: %w", userID, appName, err)
	}
	if err := l.client.Expire(ctx, key, keyTTL).Err(); err != nil {
		return 0, fmt.Errorf("setting usage TTL for user %d app %s: %w", userID, appName, err)
	}
	return total, nil
}

func (l *RedisLedger) ResetDaily(ctx context.Context, userID int64, appName string, now time.Time) error {
	if err := l.client.Del(ctx, l.key(userID, appName, now)).Err(); err != nil {
		return fmt.Errorf("resetting usage for user %d app %s: %w", userID, appName, err)
	}
	return nil
}
