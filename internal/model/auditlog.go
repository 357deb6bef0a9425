package model

import "time"

// LogLevel grades an audit entry.
type LogLevel string

const (
	LogInfo     LogLevel = "info"
	LogWarning  LogLevel = "warning"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

// LogAction identifies the kind of event being audited.
type LogAction string

const (
	ActionLogin                  LogAction = "login"
	ActionLogout                 LogAction = "logout"
	ActionRegister               LogAction = "register"
	ActionEmailVerified          LogAction = "email_verified"
	ActionPasswordResetRequested LogAction = "password_reset_requested"
	ActionPasswordResetCompleted LogAction = "password_reset_completed"
	ActionActivityCreated        LogAction = "activity_created"
	ActionActivityDeleted        LogAction = "activity_deleted"
	ActionAppBlocked             LogAction = "app_blocked"
	ActionLimitReached           LogAction = "limit_reached"
	ActionBlockedAppCreated      LogAction = "blocked_app_created"
	ActionBlockedAppDeleted      LogAction = "blocked_app_deleted"
	ActionChallengeCreated       LogAction = "challenge_created"
	ActionChallengeJoined        LogAction = "challenge_joined"
	ActionChallengeCompleted     LogAction = "challenge_completed"
	ActionChallengeCancelled     LogAction = "challenge_cancelled"
	ActionUserDeleted            LogAction = "user_deleted"
	ActionUserSuspended          LogAction = "user_suspended"
	ActionUserActivated          LogAction = "user_activated"
	ActionAdminAccess            LogAction = "admin_access"
	ActionEmailSent              LogAction = "email_sent"
	ActionEmailFailed            LogAction = "email_failed"
)

// AuditLog is an append-only record of a notable action.
type AuditLog struct {
	ID           int64     `db:"id" json:"id"`
	UserID       *int64    `db:"user_id" json:"user_id,omitempty"`
	Action       LogAction `db:"action" json:"action"`
	Level        LogLevel  `db:"level" json:"level"`
	Message      string    `db:"message" json:"message"`
	Details      string    `db:"details" json:"details,omitempty"`
	IPAddress    string    `db:"ip_address" json:"ip_address,omitempty"`
	Endpoint     string    `db:"endpoint" json:"endpoint,omitempty"`
	ResourceType string    `db:"resource_type" json:"resource_type,omitempty"`
	ResourceID   *int64    `db:"resource_id" json:"resource_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
