package model

import "time"

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeCancelled ChallengeStatus = "cancelled"
)

// ChallengeType selects the scoring rule.
type ChallengeType string

const (
	ChallengeMinimizeTime ChallengeType = "minimize_time"
	ChallengeDailyGoal    ChallengeType = "daily_goal"
	ChallengeWeeklyGoal   ChallengeType = "weekly_goal"
)

// Challenge is a social goal shared between users.
type Challenge struct {
	ID              int64           `db:"id" json:"id"`
	CreatorID       int64           `db:"creator_id" json:"creator_id"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description,omitempty"`
	Type            ChallengeType   `db:"challenge_type" json:"challenge_type"`
	Status          ChallengeStatus `db:"status" json:"status"`
	TargetMinutes   int             `db:"target_minutes" json:"target_minutes"`
	StartDate       time.Time       `db:"start_date" json:"start_date"`
	EndDate         time.Time       `db:"end_date" json:"end_date"`
	MaxParticipants int             `db:"max_participants" json:"max_participants"`
	IsPrivate       bool            `db:"is_private" json:"is_private"`
	InvitationCode  string          `db:"invitation_code" json:"invitation_code,omitempty"`
	WinnerID        *int64          `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsRunning reports whether the challenge is active right now.
func (c *Challenge) IsRunning(now time.Time) bool {
	return c.Status == ChallengeActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// ChallengeParticipant holds one user's standing within a challenge.
type ChallengeParticipant struct {
	ID               int64     `db:"id" json:"id"`
	ChallengeID      int64     `db:"challenge_id" json:"challenge_id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	TotalTimeMinutes float64   `db:"total_time_minutes" json:"total_time_minutes"`
	DailyAverage     float64   `db:"daily_average" json:"daily_average"`
	GoalAchieved     bool      `db:"goal_achieved" json:"goal_achieved"`
	Score            float64   `db:"score" json:"score"`
	Rank             *int      `db:"rank" json:"rank,omitempty"`
	JoinedAt         time.Time `db:"joined_at" json:"joined_at"`
	IsActive         bool      `db:"is_active" json:"is_active"`
}

// LeaderboardEntry is one row of a challenge leaderboard.
type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	UserID           int64   `json:"user_id"`
	Username         string  `json:"username"`
	Score            float64 `json:"score"`
	TotalTimeMinutes float64 `json:"total_time_minutes"`
	GoalAchieved     bool    `json:"goal_achieved"`
}
