package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/util"
	"focus/internal/ws"

	"github.com/rs/zerolog"
)

var (
	// ErrChallengeNotFound is returned when a challenge does not exist or the
	// caller may not see it.
	ErrChallengeNotFound = errors.New("challenge_not_found")
	// ErrChallengeClosed is returned when joining a challenge that is no longer
	// accepting participants.
	ErrChallengeClosed = errors.New("challenge_closed")
	// ErrNotParticipant is returned when leaving a challenge the user never joined.
	ErrNotParticipant = errors.New("not_a_participant")
	// ErrNotChallengeOwner is returned when someone other than the creator
	// tries to cancel a challenge.
	ErrNotChallengeOwner = errors.New("not_challenge_owner")
)

// invitationCodeLength is the size of generated private-challenge codes.
const invitationCodeLength = 8

// ChallengeService manages social challenges, participation and scoring.
type ChallengeService interface {
	Create(ctx context.Context, c *model.Challenge) (*model.Challenge, error)
	Get(ctx context.Context, userID, id int64) (*model.Challenge, error)
	ListPublic(ctx context.Context, limit, offset int) ([]model.Challenge, error)
	ListMine(ctx context.Context, userID int64) ([]model.Challenge, error)
	Join(ctx context.Context, userID, challengeID int64, invitationCode string) (*model.ChallengeParticipant, error)
	Leave(ctx context.Context, userID, challengeID int64) error
	// Delete cancels a challenge. Only the creator may cancel, and only while
	// the challenge is still pending or active.
	Delete(ctx context.Context, userID, challengeID int64) error
	Leaderboard(ctx context.Context, userID, challengeID int64) ([]model.LeaderboardEntry, error)

	// Lifecycle moves pending challenges to active and finishes expired ones,
	// recomputing scores on the way. The scheduler calls this periodically.
	Lifecycle(ctx context.Context, now time.Time) error
	// RefreshScores recomputes participant standings for one active challenge.
	RefreshScores(ctx context.Context, challengeID int64, now time.Time) error
}

type challengeService struct {
	challenges repository.ChallengeRepository
	activities repository.ActivityRepository
	registry   *ws.Registry
	audit      LogService
	logger     zerolog.Logger
}

// NewChallengeService creates a new ChallengeService.
func NewChallengeService(challenges repository.ChallengeRepository, activities repository.ActivityRepository, registry *ws.Registry, audit LogService, logger zerolog.Logger) ChallengeService {
	return &challengeService{
		challenges: challenges,
		activities: activities,
		registry:   registry,
		audit:      audit,
		logger:     logger,
	}
}

func (s *challengeService) Create(ctx context.Context, c *model.Challenge) (*model.Challenge, error) {
	if c.Title == "" {
		return nil, fmt.Errorf("title required: %w", ErrInvalidInput)
	}
	if c.TargetMinutes <= 0 {
		return nil, fmt.Errorf("target minutes %d: %w", c.TargetMinutes, ErrInvalidInput)
	}
	if !c.EndDate.After(c.StartDate) {
		return nil, fmt.Errorf("end date must follow start date: %w", ErrInvalidInput)
	}
	switch c.Type {
	case model.ChallengeMinimizeTime, model.ChallengeDailyGoal, model.ChallengeWeeklyGoal:
	default:
		return nil, fmt.Errorf("challenge type %q: %w", c.Type, ErrInvalidInput)
	}

	c.Status = model.ChallengePending
	if time.Now().After(c.StartDate) {
		c.Status = model.ChallengeActive
	}
	if c.IsPrivate {
		code, err := util.GenerateInvitationCode(invitationCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generating invitation code: %w", err)
		}
		c.InvitationCode = code
	}
	if err := s.challenges.Create(ctx, c); err != nil {
		return nil, err
	}
	// The creator participates automatically.
	if _, err := s.challenges.Join(ctx, c.ID, c.CreatorID); err != nil {
		s.logger.Warn().Err(err).Int64("challenge_id", c.ID).Msg("creator auto-join failed")
	}
	s.audit.RecordResource(ctx, c.CreatorID, model.ActionChallengeCreated, fmt.Sprintf("challenge %q created", c.Title), "challenge", c.ID)
	return c, nil
}

func (s *challengeService) Get(ctx context.Context, userID, id int64) (*model.Challenge, error) {
	c, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChallengeNotFound
	}
	if c.IsPrivate && c.CreatorID != userID {
		p, err := s.challenges.GetParticipant(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsActive {
			return nil, ErrChallengeNotFound
		}
	}
	return c, nil
}

func (s *challengeService) ListPublic(ctx context.Context, limit, offset int) ([]model.Challenge, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	statuses := []model.ChallengeStatus{model.ChallengePending, model.ChallengeActive}
	return s.challenges.ListPublic(ctx, statuses, limit, offset)
}

func (s *challengeService) ListMine(ctx context.Context, userID int64) ([]model.Challenge, error) {
	return s.challenges.ListByParticipant(ctx, userID)
}

func (s *challengeService) Join(ctx context.Context, userID, challengeID int64, invitationCode string) (*model.ChallengeParticipant, error) {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChallengeNotFound
	}
	if c.IsPrivate && c.InvitationCode != invitationCode {
		return nil, ErrChallengeNotFound
	}
	if c.Status != model.ChallengePending && c.Status != model.ChallengeActive {
		return nil, ErrChallengeClosed
	}

	p, err := s.challenges.Join(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	s.audit.RecordResource(ctx, userID, model.ActionChallengeJoined, fmt.Sprintf("joined challenge %q", c.Title), "challenge", challengeID)
	return p, nil
}

func (s *challengeService) Leave(ctx context.Context, userID, challengeID int64) error {
	p, err := s.challenges.GetParticipant(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if p == nil || !p.IsActive {
		return ErrNotParticipant
	}
	return s.challenges.Leave(ctx, challengeID, userID)
}

func (s *challengeService) Delete(ctx context.Context, userID, challengeID int64) error {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrChallengeNotFound
	}
	if c.CreatorID != userID {
		return ErrNotChallengeOwner
	}
	if c.Status != model.ChallengePending && c.Status != model.ChallengeActive {
		return ErrChallengeClosed
	}
	if err := s.challenges.UpdateStatus(ctx, challengeID, model.ChallengeCancelled, nil); err != nil {
		return err
	}
	s.audit.RecordResource(ctx, userID, model.ActionChallengeCancelled, fmt.Sprintf("challenge %q cancelled", c.Title), "challenge", challengeID)

	participants, err := s.challenges.ListParticipants(ctx, challengeID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("challenge_id", challengeID).Msg("could not notify participants of cancellation")
		return nil
	}
	for _, p := range participants {
		s.registry.Deliver(p.UserID, model.NotificationEvent{
			UserID:    p.UserID,
			Kind:      model.EventInfo,
			Title:     "Challenge cancelled",
			Message:   fmt.Sprintf("%q was cancelled by its creator", c.Title),
			Data:      map[string]any{"challenge_id": challengeID},
			Timestamp: time.Now(),
		})
	}
	return nil
}

func (s *challengeService) Leaderboard(ctx context.Context, userID, challengeID int64) ([]model.LeaderboardEntry, error) {
	if _, err := s.Get(ctx, userID, challengeID); err != nil {
		return nil, err
	}
	return s.challenges.Leaderboard(ctx, challengeID, 50)
}

func (s *challengeService) Lifecycle(ctx context.Context, now time.Time) error {
	pending, err := s.challenges.ListByStatus(ctx, model.ChallengePending)
	if err != nil {
		return err
	}
	for i := range pending {
		c := &pending[i]
		if now.Before(c.StartDate) {
			continue
		}
		if err := s.challenges.UpdateStatus(ctx, c.ID, model.ChallengeActive, nil); err != nil {
			s.logger.Error().Err(err).Int64("challenge_id", c.ID).Msg("failed to activate challenge")
		}
	}

	active, err := s.challenges.ListByStatus(ctx, model.ChallengeActive)
	if err != nil {
		return err
	}
	for i := range active {
		c := &active[i]
		if err := s.RefreshScores(ctx, c.ID, now); err != nil {
			s.logger.Error().Err(err).Int64("challenge_id", c.ID).Msg("score refresh failed")
			continue
		}
		if now.After(c.EndDate) {
			if err := s.finish(ctx, c); err != nil {
				s.logger.Error().Err(err).Int64("challenge_id", c.ID).Msg("failed to finish challenge")
			}
		}
	}
	return nil
}

// RefreshScores recomputes each participant's total, average and score from
// the activity table. Lower screen time scores higher for every challenge type.
func (s *challengeService) RefreshScores(ctx context.Context, challengeID int64, now time.Time) error {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrChallengeNotFound
	}

	end := now
	if end.After(c.EndDate) {
		end = c.EndDate
	}
	days := end.Sub(c.StartDate).Hours() / 24
	if days < 1 {
		days = 1
	}

	participants, err := s.challenges.ListParticipants(ctx, challengeID)
	if err != nil {
		return err
	}
	for i := range participants {
		p := &participants[i]
		total, err := s.activities.TotalMinutesInRange(ctx, p.UserID, "", c.StartDate, end)
		if err != nil {
			return err
		}
		p.TotalTimeMinutes = total
		p.DailyAverage = total / days
		p.GoalAchieved = goalAchieved(c, p)
		p.Score = score(c, p)
		if err := s.challenges.UpdateParticipantScore(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func goalAchieved(c *model.Challenge, p *model.ChallengeParticipant) bool {
	target := float64(c.TargetMinutes)
	switch c.Type {
	case model.ChallengeDailyGoal:
		return p.DailyAverage <= target
	case model.ChallengeWeeklyGoal:
		return p.DailyAverage*7 <= target
	default:
		return p.TotalTimeMinutes <= target
	}
}

// score rewards staying under the target. 100 means zero usage, anything at or
// beyond twice the target floors at 0.
func score(c *model.Challenge, p *model.ChallengeParticipant) float64 {
	target := float64(c.TargetMinutes)
	var used float64
	switch c.Type {
	case model.ChallengeDailyGoal:
		used = p.DailyAverage
	case model.ChallengeWeeklyGoal:
		used = p.DailyAverage * 7
	default:
		used = p.TotalTimeMinutes
	}
	s := (2 - used/target) * 50
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func (s *challengeService) finish(ctx context.Context, c *model.Challenge) error {
	entries, err := s.challenges.Leaderboard(ctx, c.ID, 1)
	if err != nil {
		return err
	}
	var winnerID *int64
	if len(entries) > 0 {
		winnerID = &entries[0].UserID
	}
	if err := s.challenges.UpdateStatus(ctx, c.ID, model.ChallengeCompleted, winnerID); err != nil {
		return err
	}
	s.audit.Record(ctx, model.AuditLog{
		UserID:       winnerID,
		Action:       model.ActionChallengeCompleted,
		Message:      fmt.Sprintf("challenge %q completed", c.Title),
		Details:      detailsJSON(map[string]any{"challenge_id": c.ID}),
		ResourceType: "challenge",
		ResourceID:   &c.ID,
	})

	// Tell everyone still connected how it ended.
	participants, err := s.challenges.ListParticipants(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		event := model.NotificationEvent{
			UserID:  p.UserID,
			Kind:    model.EventInfo,
			Title:   "Challenge finished",
			Message: fmt.Sprintf("%q has ended", c.Title),
			Data: map[string]any{
				"challenge_id": c.ID,
			},
			Timestamp: time.Now(),
		}
		if winnerID != nil {
			event.Data["winner_id"] = *winnerID
		}
		s.registry.Deliver(p.UserID, event)
	}
	return nil
}
