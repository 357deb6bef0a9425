package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focus/internal/ledger"
	"focus/internal/model"
	"focus/internal/repository"

	"github.com/rs/zerolog"
)

// ErrBlockedAppNotFound is returned when a limit configuration does not exist
// or belongs to another user.
var ErrBlockedAppNotFound = errors.New("blocked_app_not_found")

// ErrDuplicateBlockedApp is returned when a user already has an active
// configuration for the app.
var ErrDuplicateBlockedApp = errors.New("blocked_app_exists")

// BlockedAppService manages limit configurations and their runtime status.
type BlockedAppService interface {
	Create(ctx context.Context, b *model.BlockedApp) (*model.BlockedApp, error)
	Get(ctx context.Context, userID, id int64) (*model.BlockedApp, error)
	List(ctx context.Context, userID int64, includeInactive bool) ([]model.BlockedApp, error)
	Update(ctx context.Context, userID int64, b *model.BlockedApp) (*model.BlockedApp, error)
	Delete(ctx context.Context, userID, id int64) error
	// Status joins the stored configuration with today's ledger total.
	Status(ctx context.Context, userID, id int64, now time.Time) (*model.BlockedAppStatus, error)
	StatusAll(ctx context.Context, userID int64, now time.Time) ([]model.BlockedAppStatus, error)
	// ResetUsage clears today's ledger counter for one app.
	ResetUsage(ctx context.Context, userID, id int64) error
	// ResetAllDaily clears today's counters for every active configuration.
	// The scheduler calls this at the daily rollover.
	ResetAllDaily(ctx context.Context, now time.Time) (int, error)
}

type blockedAppService struct {
	configs repository.BlockedAppRepository
	ledger  ledger.UsageLedger
	audit   LogService
	loc     *time.Location
	logger  zerolog.Logger
}

// NewBlockedAppService creates a new BlockedAppService.
func NewBlockedAppService(configs repository.BlockedAppRepository, l ledger.UsageLedger, audit LogService, loc *time.Location, logger zerolog.Logger) BlockedAppService {
	if loc == nil {
		loc = time.UTC
	}
	return &blockedAppService{configs: configs, ledger: l, audit: audit, loc: loc, logger: logger}
}

func validateConfig(b *model.BlockedApp) error {
	if b.AppName == "" {
		return fmt.Errorf("app name required: %w", ErrInvalidInput)
	}
	if b.DailyLimitMinutes <= 0 {
		return fmt.Errorf("daily limit %v: %w", b.DailyLimitMinutes, ErrInvalidConfig)
	}
	// A window needs both edges; weekdays alone are meaningless.
	if (b.BlockStart == "") != (b.BlockEnd == "") {
		return fmt.Errorf("block window needs both start and end: %w", ErrInvalidConfig)
	}
	if b.BlockStart != "" {
		if _, ok := parseClock(b.BlockStart); !ok {
			return fmt.Errorf("block start %q: %w", b.BlockStart, ErrInvalidConfig)
		}
		if _, ok := parseClock(b.BlockEnd); !ok {
			return fmt.Errorf("block end %q: %w", b.BlockEnd, ErrInvalidConfig)
		}
	}
	for _, d := range b.BlockWeekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d: %w", d, ErrInvalidConfig)
		}
	}
	return nil
}

func (s *blockedAppService) Create(ctx context.Context, b *model.BlockedApp) (*model.BlockedApp, error) {
	if err := validateConfig(b); err != nil {
		return nil, err
	}
	existing, err := s.configs.GetActiveByUserAndApp(ctx, b.UserID, b.AppName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateBlockedApp
	}
	b.Active = true
	if err := s.configs.Create(ctx, b); err != nil {
		return nil, err
	}
	s.audit.RecordResource(ctx, b.UserID, model.ActionBlockedAppCreated,
		fmt.Sprintf("limit set for %s: %.0f minutes/day", b.AppName, b.DailyLimitMinutes),
		"blocked_app", b.ID)
	return b, nil
}

func (s *blockedAppService) Get(ctx context.Context, userID, id int64) (*model.BlockedApp, error) {
	b, err := s.configs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil || b.UserID != userID {
		return nil, ErrBlockedAppNotFound
	}
	return b, nil
}

func (s *blockedAppService) List(ctx context.Context, userID int64, includeInactive bool) ([]model.BlockedApp, error) {
	return s.configs.ListByUser(ctx, userID, includeInactive)
}

func (s *blockedAppService) Update(ctx context.Context, userID int64, b *model.BlockedApp) (*model.BlockedApp, error) {
	current, err := s.Get(ctx, userID, b.ID)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(b); err != nil {
		return nil, err
	}
	current.AppName = b.AppName
	current.AppPackage = b.AppPackage
	current.AppCategory = b.AppCategory
	current.DailyLimitMinutes = b.DailyLimitMinutes
	current.BlockStart = b.BlockStart
	current.BlockEnd = b.BlockEnd
	current.BlockWeekdays = b.BlockWeekdays
	if err := s.configs.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *blockedAppService) Delete(ctx context.Context, userID, id int64) error {
	b, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.configs.Deactivate(ctx, id); err != nil {
		return err
	}
	s.audit.RecordResource(ctx, userID, model.ActionBlockedAppDeleted,
		fmt.Sprintf("limit removed for %s", b.AppName), "blocked_app", id)
	return nil
}

func (s *blockedAppService) Status(ctx context.Context, userID, id int64, now time.Time) (*model.BlockedAppStatus, error) {
	b, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, b, now)
}

func (s *blockedAppService) StatusAll(ctx context.Context, userID int64, now time.Time) ([]model.BlockedAppStatus, error) {
	apps, err := s.configs.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	statuses := make([]model.BlockedAppStatus, 0, len(apps))
	for i := range apps {
		st, err := s.status(ctx, &apps[i], now)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

func (s *blockedAppService) status(ctx context.Context, b *model.BlockedApp, now time.Time) (*model.BlockedAppStatus, error) {
	used, err := s.ledger.MinutesUsedToday(ctx, b.UserID, b.AppName, now)
	if err != nil {
		return nil, err
	}
	state, err := ClassifyUsage(used, b.DailyLimitMinutes)
	if err != nil {
		return nil, err
	}
	if WithinBlockWindow(windowFromConfig(b), now) {
		state = StateBlocked
	}

	remaining := b.DailyLimitMinutes - used
	if remaining < 0 {
		remaining = 0
	}
	local := now.In(s.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)

	return &model.BlockedAppStatus{
		BlockedApp:          *b,
		CurrentUsageMinutes: used,
		UsagePercentage:     used / b.DailyLimitMinutes * 100,
		RemainingMinutes:    remaining,
		State:               state.String(),
		SecondsUntilReset:   int64(midnight.Sub(local).Seconds()),
	}, nil
}

func (s *blockedAppService) ResetUsage(ctx context.Context, userID, id int64) error {
	b, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.ledger.ResetDaily(ctx, userID, b.AppName, now); err != nil {
		return err
	}
	if err := s.configs.MarkReset(ctx, id, now); err != nil {
		s.logger.Warn().Err(err).Int64("config_id", id).Msg("failed to mark reset timestamp")
	}
	return nil
}

func (s *blockedAppService) ResetAllDaily(ctx context.Context, now time.Time) (int, error) {
	apps, err := s.configs.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	reset := 0
	for i := range apps {
		b := &apps[i]
		if err := s.ledger.ResetDaily(ctx, b.UserID, b.AppName, now); err != nil {
			s.logger.Error().Err(err).Int64("user_id", b.UserID).Str("app_name", b.AppName).Msg("daily reset failed")
			continue
		}
		if err := s.configs.MarkReset(ctx, b.ID, now); err != nil {
			s.logger.Warn().Err(err).Int64("config_id", b.ID).Msg("failed to mark reset timestamp")
		}
		reset++
	}
	s.logger.Info().Int("configs", reset).Msg("daily usage counters reset")
	return reset, nil
}
