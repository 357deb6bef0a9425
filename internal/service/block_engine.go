package service

import (
	"context"
	"fmt"
	"time"

	"focus/internal/ledger"
	"focus/internal/model"

	"github.com/rs/zerolog"
)

// LimitConfigSource supplies the active limit configuration for a (user, app)
// pair. Implementations return (nil, nil) when none exists; configurations are
// read fresh on every evaluation, never cached here.
type LimitConfigSource interface {
	GetActiveByUserAndApp(ctx context.Context, userID int64, appName string) (*model.BlockedApp, error)
}

// Decision is the outcome of evaluating one activity-recording event against
// the user's limit configuration.
type Decision struct {
	EffectiveState  BlockState
	PreviousState   BlockState
	Transitioned    bool
	TotalMinutes    float64
	LimitMinutes    float64
	ScheduleBlocked bool
}

// BlockDecisionEngine combines the usage ledger, the limit policy and the
// schedule gate into a single per-event decision.
type BlockDecisionEngine struct {
	ledger  ledger.UsageLedger
	configs LimitConfigSource
	logger  zerolog.Logger
}

// NewBlockDecisionEngine creates a decision engine.
func NewBlockDecisionEngine(l ledger.UsageLedger, configs LimitConfigSource, logger zerolog.Logger) *BlockDecisionEngine {
	return &BlockDecisionEngine{ledger: l, configs: configs, logger: logger}
}

// Evaluate records minutesDelta for the pair and classifies the result.
//
// The read-increment-classify sequence is consistent under concurrency because
// the ledger increment is atomic per key: each caller classifies the total its
// own increment produced, which corresponds to one serialization of the
// concurrent increments.
func (e *BlockDecisionEngine) Evaluate(ctx context.Context, userID int64, appName string, minutesDelta float64, now time.Time) (Decision, error) {
	if minutesDelta < 0 {
		return Decision{}, fmt.Errorf("minutes delta %v: %w", minutesDelta, ErrInvalidInput)
	}

	cfg, err := e.configs.GetActiveByUserAndApp(ctx, userID, appName)
	if err != nil {
		return Decision{}, fmt.Errorf("loading limit config for user %d app %s: %w", userID, appName, err)
	}
	if cfg == nil {
		return Decision{}, fmt.Errorf("user %d app %s: %w", userID, appName, ErrConfigNotFound)
	}

	total, err := e.ledger.AddMinutes(ctx, userID, appName, minutesDelta, now)
	if err != nil {
		return Decision{}, fmt.Errorf("recording %v minutes for user %d app %s: %w", minutesDelta, userID, appName, err)
	}
	previous := total - minutesDelta
	if previous < 0 {
		previous = 0
	}

	usageState, err := ClassifyUsage(total, cfg.DailyLimitMinutes)
	if err != nil {
		return Decision{}, err
	}
	previousState, err := ClassifyUsage(previous, cfg.DailyLimitMinutes)
	if err != nil {
		return Decision{}, err
	}

	scheduleBlocked := WithinBlockWindow(windowFromConfig(cfg), now)

	effective := usageState
	if scheduleBlocked {
		effective = StateBlocked
	}

	decision := Decision{
		EffectiveState:  effective,
		PreviousState:   previousState,
		Transitioned:    effective != previousState,
		TotalMinutes:    total,
		LimitMinutes:    cfg.DailyLimitMinutes,
		ScheduleBlocked: scheduleBlocked,
	}

	if decision.Transitioned {
		e.logger.Info().
			Int64("user_id", userID).
			Str("app_name", appName).
			Str("from", decision.PreviousState.String()).
			Str("to", decision.EffectiveState.String()).
			Float64("total_minutes", total).
			Msg("block state transition")
	}

	return decision, nil
}
