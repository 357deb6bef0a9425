package dto

import (
	"time"

	"focus/internal/model"
)

// ActivityCreateDTO is used for incoming usage reports
type ActivityCreateDTO struct {
	AppName         string     `json:"app_name" validate:"required,max=128"`
	AppPackage      string     `json:"app_package,omitempty" validate:"max=256"`
	AppCategory     string     `json:"app_category,omitempty" validate:"max=64"`
	DurationMinutes float64    `json:"duration_minutes" validate:"gte=0"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DeviceType      string     `json:"device_type,omitempty" validate:"max=32"`
	SessionID       string     `json:"session_id,omitempty" validate:"max=64"`
}

// ActivityResponseDTO is returned in API responses
type ActivityResponseDTO struct {
	ID              int64      `json:"id"`
	AppName         string     `json:"app_name"`
	AppCategory     string     `json:"app_category,omitempty"`
	DurationMinutes float64    `json:"duration_minutes"`
	ActivityDate    time.Time  `json:"activity_date"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DeviceType      string     `json:"device_type,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ActivityFromModel maps a domain activity to its API shape.
func ActivityFromModel(a *model.Activity) ActivityResponseDTO {
	return ActivityResponseDTO{
		ID:              a.ID,
		AppName:         a.AppName,
		AppCategory:     a.AppCategory,
		DurationMinutes: a.DurationMinutes,
		ActivityDate:    a.ActivityDate,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		DeviceType:      a.DeviceType,
		CreatedAt:       a.CreatedAt,
	}
}

// RecordResponseDTO is returned after recording an activity, including the
// limit evaluation when the app is limited.
type RecordResponseDTO struct {
	Activity        ActivityResponseDTO `json:"activity"`
	State           string              `json:"state,omitempty"`
	TotalMinutes    float64             `json:"total_minutes,omitempty"`
	LimitMinutes    float64             `json:"limit_minutes,omitempty"`
	Blocked         bool                `json:"blocked"`
	ScheduleBlocked bool                `json:"schedule_blocked,omitempty"`
}
