package dto

import (
	"time"

	"focus/internal/model"
)

// ChallengeCreateDTO is used for incoming challenge creation requests
type ChallengeCreateDTO struct {
	Title           string    `json:"title" validate:"required,max=128"`
	Description     string    `json:"description,omitempty" validate:"max=1024"`
	Type            string    `json:"challenge_type" validate:"required,oneof=minimize_time daily_goal weekly_goal"`
	TargetMinutes   int       `json:"target_minutes" validate:"required,gt=0"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	MaxParticipants int       `json:"max_participants,omitempty" validate:"gte=0,lte=1000"`
	IsPrivate       bool      `json:"is_private,omitempty"`
}

// ChallengeJoinDTO carries the invitation code for private challenges
type ChallengeJoinDTO struct {
	InvitationCode string `json:"invitation_code,omitempty"`
}

// ChallengeResponseDTO is returned in API responses
type ChallengeResponseDTO struct {
	ID              int64     `json:"id"`
	CreatorID       int64     `json:"creator_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Type            string    `json:"challenge_type"`
	Status          string    `json:"status"`
	TargetMinutes   int       `json:"target_minutes"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MaxParticipants int       `json:"max_participants"`
	IsPrivate       bool      `json:"is_private"`
	InvitationCode  string    `json:"invitation_code,omitempty"`
	WinnerID        *int64    `json:"winner_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ChallengeFromModel maps a challenge to its API shape. The invitation code is
// only included when the caller created the challenge.
func ChallengeFromModel(c *model.Challenge, viewerID int64) ChallengeResponseDTO {
	resp := ChallengeResponseDTO{
		ID:              c.ID,
		CreatorID:       c.CreatorID,
		Title:           c.Title,
		Description:     c.Description,
		Type:            string(c.Type),
		Status:          string(c.Status),
		TargetMinutes:   c.TargetMinutes,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		MaxParticipants: c.MaxParticipants,
		IsPrivate:       c.IsPrivate,
		WinnerID:        c.WinnerID,
		CreatedAt:       c.CreatedAt,
	}
	if c.CreatorID == viewerID {
		resp.InvitationCode = c.InvitationCode
	}
	return resp
}

// ParticipantResponseDTO is returned after joining a challenge
type ParticipantResponseDTO struct {
	ID          int64     `json:"id"`
	ChallengeID int64     `json:"challenge_id"`
	UserID      int64     `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

// LeaderboardEntryDTO is one leaderboard row
type LeaderboardEntryDTO struct {
	Rank             int     `json:"rank"`
	UserID           int64   `json:"user_id"`
	Username         string  `json:"username"`
	Score            float64 `json:"score"`
	TotalTimeMinutes float64 `json:"total_time_minutes"`
	GoalAchieved     bool    `json:"goal_achieved"`
}
