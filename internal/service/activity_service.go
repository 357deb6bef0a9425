package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focus/internal/cache"
	"focus/internal/metrics"
	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/ws"

	"github.com/rs/zerolog"
)

// ErrActivityNotFound is returned when an activity does not exist or belongs
// to another user.
var ErrActivityNotFound = errors.New("activity_not_found")

// RecordResult is returned after an activity is stored and evaluated.
type RecordResult struct {
	Activity *model.Activity `json:"activity"`
	// State evaluation against the app's limit, nil when the app has no active
	// limit configuration.
	State           string  `json:"state,omitempty"`
	TotalMinutes    float64 `json:"total_minutes,omitempty"`
	LimitMinutes    float64 `json:"limit_minutes,omitempty"`
	Blocked         bool    `json:"blocked"`
	ScheduleBlocked bool    `json:"schedule_blocked,omitempty"`
}

// ActivityService records usage, drives limit evaluation and serves stats.
type ActivityService interface {
	Record(ctx context.Context, a *model.Activity) (*RecordResult, error)
	List(ctx context.Context, userID int64, from, to time.Time, limit, offset int) ([]model.Activity, error)
	Delete(ctx context.Context, userID, activityID int64) error
	DailyStats(ctx context.Context, userID int64, day time.Time) (*model.DailyStats, error)
	WeeklyStats(ctx context.Context, userID int64, end time.Time) (*model.WeeklyStats, error)
	AppStats(ctx context.Context, userID int64, from, to time.Time) ([]model.AppStats, error)
}

type activityService struct {
	activities repository.ActivityRepository
	configs    repository.BlockedAppRepository
	engine     *BlockDecisionEngine
	registry   *ws.Registry
	cache      *cache.Cache
	audit      LogService
	loc        *time.Location
	logger     zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(
	activities repository.ActivityRepository,
	configs repository.BlockedAppRepository,
	engine *BlockDecisionEngine,
	registry *ws.Registry,
	c *cache.Cache,
	audit LogService,
	loc *time.Location,
	logger zerolog.Logger,
) ActivityService {
	if loc == nil {
		loc = time.UTC
	}
	return &activityService{
		activities: activities,
		configs:    configs,
		engine:     engine,
		registry:   registry,
		cache:      c,
		audit:      audit,
		loc:        loc,
		logger:     logger,
	}
}

// statsTTL bounds staleness of cached aggregates.
const statsTTL = 5 * time.Minute

func dailyStatsKey(userID int64, day time.Time) string {
	return fmt.Sprintf("stats:daily:%d:%s", userID, day.Format("2006-01-02"))
}

func weeklyStatsKey(userID int64, end time.Time) string {
	return fmt.Sprintf("stats:weekly:%d:%s", userID, end.Format("2006-01-02"))
}

func (s *activityService) Record(ctx context.Context, a *model.Activity) (*RecordResult, error) {
	if a.AppName == "" {
		return nil, fmt.Errorf("app name required: %w", ErrInvalidInput)
	}
	if a.DurationMinutes < 0 {
		return nil, fmt.Errorf("duration %v: %w", a.DurationMinutes, ErrInvalidInput)
	}

	now := time.Now().In(s.loc)
	if a.ActivityDate.IsZero() {
		a.ActivityDate = now
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, err
	}
	metrics.ActivitiesRecorded.WithLabelValues(a.AppName).Inc()
	metrics.ActivityMinutes.WithLabelValues(a.AppName).Add(a.DurationMinutes)
	s.audit.RecordResource(ctx, a.UserID, model.ActionActivityCreated,
		fmt.Sprintf("recorded %.1f minutes on %s", a.DurationMinutes, a.AppName),
		"activity", a.ID)

	// Aggregates for today changed; drop them so the next read recomputes.
	if err := s.cache.Delete(ctx, dailyStatsKey(a.UserID, now), weeklyStatsKey(a.UserID, now)); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", a.UserID).Msg("stats cache invalidation failed")
	}

	result := &RecordResult{Activity: a}

	decision, err := s.engine.Evaluate(ctx, a.UserID, a.AppName, a.DurationMinutes, now)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			// Unlimited app; recording succeeded and there is nothing to enforce.
			return result, nil
		}
		// The activity row is already stored. Enforcement failure is logged and
		// surfaced through the result rather than failing the write.
		s.logger.Error().Err(err).Int64("user_id", a.UserID).Str("app_name", a.AppName).Msg("limit evaluation failed")
		return result, nil
	}

	result.State = decision.EffectiveState.String()
	result.TotalMinutes = decision.TotalMinutes
	result.LimitMinutes = decision.LimitMinutes
	result.Blocked = decision.EffectiveState == StateBlocked
	result.ScheduleBlocked = decision.ScheduleBlocked

	s.handleDecision(ctx, a.UserID, a.AppName, decision, now)
	return result, nil
}

// handleDecision turns a state transition into side effects: metrics, audit
// entries, the last-blocked timestamp and the push notification.
func (s *activityService) handleDecision(ctx context.Context, userID int64, appName string, d Decision, now time.Time) {
	if d.Transitioned && d.EffectiveState == StateBlocked {
		metrics.AppsBlocked.WithLabelValues(appName).Inc()
		if !d.ScheduleBlocked || d.TotalMinutes >= d.LimitMinutes {
			metrics.LimitReached.WithLabelValues(appName).Inc()
			s.audit.RecordAction(ctx, userID, model.ActionLimitReached,
				fmt.Sprintf("daily limit reached for %s", appName))
		}
		s.audit.RecordAction(ctx, userID, model.ActionAppBlocked,
			fmt.Sprintf("%s blocked", appName))
		if cfg, err := s.configs.GetActiveByUserAndApp(ctx, userID, appName); err == nil && cfg != nil {
			if err := s.configs.MarkBlocked(ctx, cfg.ID, now); err != nil {
				s.logger.Warn().Err(err).Int64("config_id", cfg.ID).Msg("failed to mark block timestamp")
			}
		}
	}

	event := RouteDecision(userID, appName, d, now)
	if event == nil {
		return
	}

	// Repeated evaluations inside a schedule window keep producing the same
	// transition; a per-day marker keeps the user from being renotified.
	markerKey := fmt.Sprintf("notified:%d:%s:%s:%s", userID, appName, event.Kind, now.Format("2006-01-02"))
	first, err := s.cache.Once(ctx, markerKey, 24*time.Hour)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", markerKey).Msg("notification dedup check failed")
	} else if !first {
		return
	}

	delivered := s.registry.Deliver(userID, *event)
	if delivered > 0 {
		metrics.NotificationsSent.WithLabelValues(string(event.Kind)).Add(float64(delivered))
	}
	s.logger.Debug().
		Int64("user_id", userID).
		Str("kind", string(event.Kind)).
		Int("channels", delivered).
		Msg("notification routed")
}

func (s *activityService) List(ctx context.Context, userID int64, from, to time.Time, limit, offset int) ([]model.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.activities.ListByUser(ctx, userID, from, to, limit, offset)
}

func (s *activityService) Delete(ctx context.Context, userID, activityID int64) error {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return err
	}
	if a == nil || a.UserID != userID {
		return ErrActivityNotFound
	}
	if err := s.activities.Delete(ctx, activityID); err != nil {
		return err
	}
	s.audit.RecordResource(ctx, userID, model.ActionActivityDeleted, "activity deleted", "activity", activityID)
	if err := s.cache.Delete(ctx, dailyStatsKey(userID, a.ActivityDate), weeklyStatsKey(userID, a.ActivityDate)); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats cache invalidation failed")
	}
	return nil
}

func (s *activityService) DailyStats(ctx context.Context, userID int64, day time.Time) (*model.DailyStats, error) {
	key := dailyStatsKey(userID, day)
	var cached model.DailyStats
	if found, err := s.cache.GetJSON(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	stats, err := s.activities.DailyStats(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSONTTL(ctx, key, stats, statsTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
	return stats, nil
}

func (s *activityService) WeeklyStats(ctx context.Context, userID int64, end time.Time) (*model.WeeklyStats, error) {
	key := weeklyStatsKey(userID, end)
	var cached model.WeeklyStats
	if found, err := s.cache.GetJSON(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	stats, err := s.activities.WeeklyStats(ctx, userID, end)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSONTTL(ctx, key, stats, statsTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
	return stats, nil
}

func (s *activityService) AppStats(ctx context.Context, userID int64, from, to time.Time) ([]model.AppStats, error) {
	return s.activities.AppStats(ctx, userID, from, to, 20)
}
