package model

import "time"

// Activity records time spent by a user on one application.
type Activity struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	AppName         string     `db:"app_name" json:"app_name"`
	AppPackage      string     `db:"app_package" json:"app_package,omitempty"`
	AppCategory     string     `db:"app_category" json:"app_category"`
	DurationMinutes float64    `db:"duration_minutes" json:"duration_minutes"`
	StartTime       *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime         *time.Time `db:"end_time" json:"end_time,omitempty"`
	ActivityDate    time.Time  `db:"activity_date" json:"activity_date"`
	DeviceType      string     `db:"device_type" json:"device_type,omitempty"`
	SessionID       string     `db:"session_id" json:"session_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// AppStats aggregates usage of one application.
type AppStats struct {
	AppName               string     `json:"app_name"`
	TotalMinutes          float64    `json:"total_minutes"`
	SessionCount          int        `json:"session_count"`
	AverageSessionMinutes float64    `json:"average_session_minutes"`
	LastUsed              *time.Time `json:"last_used,omitempty"`
}

// DailyStats aggregates one calendar day of usage.
type DailyStats struct {
	Date               time.Time `json:"date"`
	TotalMinutes       float64   `json:"total_minutes"`
	AppsUsed           int       `json:"apps_used"`
	MostUsedApp        string    `json:"most_used_app,omitempty"`
	MostUsedAppMinutes float64   `json:"most_used_app_minutes,omitempty"`
}

// WeeklyStats aggregates the trailing seven days of usage.
type WeeklyStats struct {
	StartDate           time.Time  `json:"start_date"`
	EndDate             time.Time  `json:"end_date"`
	TotalMinutes        float64    `json:"total_minutes"`
	DailyAverageMinutes float64    `json:"daily_average_minutes"`
	AppsUsed            int        `json:"apps_used"`
	TopApps             []AppStats `json:"top_apps"`
}
