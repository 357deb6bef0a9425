// Package scheduler runs the recurring jobs: the midnight usage reset, the
// websocket liveness sweep, challenge lifecycle and evening email reminders.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"focus/internal/mailer"
	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/service"
	"focus/internal/ws"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single run of any scheduled job.
const jobTimeout = 5 * time.Minute

type Scheduler struct {
	cron       *cron.Cron
	blocked    service.BlockedAppService
	challenges service.ChallengeService
	activities repository.ActivityRepository
	users      repository.UserRepository
	registry   *ws.Registry
	mail       mailer.Mailer
	audit      service.LogService
	idle       time.Duration
	sweepEvery time.Duration
	loc        *time.Location
	logger     zerolog.Logger
}

// New wires the recurring jobs. Call Start to begin and Stop to drain.
func New(
	blocked service.BlockedAppService,
	challenges service.ChallengeService,
	activities repository.ActivityRepository,
	users repository.UserRepository,
	registry *ws.Registry,
	mail mailer.Mailer,
	audit service.LogService,
	idle, sweepEvery time.Duration,
	loc *time.Location,
	logger zerolog.Logger,
) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		blocked:    blocked,
		challenges: challenges,
		activities: activities,
		users:      users,
		registry:   registry,
		mail:       mail,
		audit:      audit,
		idle:       idle,
		sweepEvery: sweepEvery,
		loc:        loc,
		logger:     logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * *", s.run("daily reset", s.dailyReset)); err != nil {
		return fmt.Errorf("registering daily reset: %w", err)
	}
	sweep := fmt.Sprintf("@every %s", s.sweepEvery)
	if _, err := s.cron.AddFunc(sweep, s.run("channel sweep", s.sweepChannels)); err != nil {
		return fmt.Errorf("registering channel sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("@every 5m", s.run("challenge lifecycle", s.challengeLifecycle)); err != nil {
		return fmt.Errorf("registering challenge lifecycle: %w", err)
	}
	if _, err := s.cron.AddFunc("0 20 * * *", s.run("email reminders", s.emailReminders)); err != nil {
		return fmt.Errorf("registering email reminders: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Str("timezone", s.loc.String()).Msg("scheduler started")
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) run(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		s.logger.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("scheduled job done")
	}
}

func (s *Scheduler) dailyReset(ctx context.Context) error {
	count, err := s.blocked.ResetAllDaily(ctx, time.Now().In(s.loc))
	if err != nil {
		return err
	}
	// Tell connected clients their counters rolled over.
	s.registry.BroadcastAll(model.NotificationEvent{
		Kind:      model.EventInfo,
		Title:     "Daily reset",
		Message:   "Your usage counters have been reset for the new day",
		Timestamp: time.Now(),
	})
	s.logger.Info().Int("configs", count).Msg("daily reset complete")
	return nil
}

func (s *Scheduler) sweepChannels(ctx context.Context) error {
	s.registry.SweepStale(s.idle, time.Now())
	return nil
}

func (s *Scheduler) challengeLifecycle(ctx context.Context) error {
	return s.challenges.Lifecycle(ctx, time.Now().In(s.loc))
}

// emailReminders mails users who opted in and are over half of their overall
// daily budget.
func (s *Scheduler) emailReminders(ctx context.Context) error {
	recipients, err := s.users.ListVerifiedWithEmailReminders(ctx)
	if err != nil {
		return err
	}
	now := time.Now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	for i := range recipients {
		u := &recipients[i]
		total, err := s.activities.TotalMinutesInRange(ctx, u.ID, "", dayStart, now)
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", u.ID).Msg("reminder usage lookup failed")
			continue
		}
		if total < float64(u.DailyLimitMinutes)/2 {
			continue
		}
		if err := s.mail.SendLimitReminder(u.Email, u.Username, total, u.DailyLimitMinutes); err != nil {
			s.logger.Error().Err(err).Int64("user_id", u.ID).Msg("reminder email failed")
			s.audit.Record(ctx, model.AuditLog{
				UserID: &u.ID, Action: model.ActionEmailFailed,
				Level: model.LogError, Message: "reminder email failed",
			})
			continue
		}
		s.audit.RecordAction(ctx, u.ID, model.ActionEmailSent, "usage reminder sent")
	}
	return nil
}
