package model

import "time"

// BlockedApp is a per-user limit configuration for one application.
// Rows are soft-deleted (Active=false) so the audit trail survives.
type BlockedApp struct {
	ID          int64  `db:"id" json:"id"`
	UserID      int64  `db:"user_id" json:"user_id"`
	AppName     string `db:"app_name" json:"app_name"`
	AppPackage  string `db:"app_package" json:"app_package,omitempty"`
	AppCategory string `db:"app_category" json:"app_category"`

	DailyLimitMinutes float64 `db:"daily_limit_minutes" json:"daily_limit_minutes"`
	Active            bool    `db:"active" json:"active"`

	// Optional time-of-day block window. Start/End are "HH:MM"; empty means no window.
	BlockStart string `db:"block_start" json:"block_start,omitempty"`
	BlockEnd   string `db:"block_end" json:"block_end,omitempty"`
	// Weekdays the window applies to, encoded as time.Weekday values. Empty means
	// every day.
	BlockWeekdays []int16 `db:"block_weekdays" json:"block_weekdays,omitempty"`

	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	LastBlockedAt *time.Time `db:"last_blocked_at" json:"last_blocked_at,omitempty"`
	LastResetAt   *time.Time `db:"last_reset_at" json:"last_reset_at,omitempty"`
}

// BlockedAppStatus is the computed runtime view of a limit configuration.
type BlockedAppStatus struct {
	BlockedApp
	CurrentUsageMinutes float64 `json:"current_usage_minutes"`
	UsagePercentage     float64 `json:"usage_percentage"`
	RemainingMinutes    float64 `json:"remaining_minutes"`
	State               string  `json:"state"`
	SecondsUntilReset   int64   `json:"seconds_until_reset,omitempty"`
}
