package model

import "time"

// UserRole distinguishes regular users from administrators.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents an account in the system.
type User struct {
	ID             int64    `db:"id" json:"id"`
	Username       string   `db:"username" json:"username"`
	Email          string   `db:"email" json:"email"`
	HashedPassword string   `db:"hashed_password" json:"-"`
	FullName       string   `db:"full_name" json:"full_name"`
	AvatarURL      string   `db:"avatar_url" json:"avatar_url"`
	IsActive       bool     `db:"is_active" json:"is_active"`
	IsVerified     bool     `db:"is_verified" json:"is_verified"`
	Role           UserRole `db:"role" json:"role"`

	VerificationToken string     `db:"verification_token" json:"-"`
	ResetToken        string     `db:"reset_password_token" json:"-"`
	ResetTokenExpires *time.Time `db:"reset_password_expires" json:"-"`

	// Per-user wellbeing settings.
	DailyLimitMinutes    int  `db:"daily_limit_minutes" json:"daily_limit_minutes"`
	NotificationsEnabled bool `db:"notifications_enabled" json:"notifications_enabled"`
	EmailReminders       bool `db:"email_reminders" json:"email_reminders"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
