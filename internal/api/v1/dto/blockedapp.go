package dto

import (
	"time"

	"focus/internal/model"
)

// BlockedAppCreateDTO is used for incoming limit configuration requests
type BlockedAppCreateDTO struct {
	AppName           string  `json:"app_name" validate:"required,max=128"`
	AppPackage        string  `json:"app_package,omitempty" validate:"max=256"`
	AppCategory       string  `json:"app_category,omitempty" validate:"max=64"`
	DailyLimitMinutes float64 `json:"daily_limit_minutes" validate:"required,gt=0"`
	BlockStart        string  `json:"block_start,omitempty" validate:"omitempty,len=5"`
	BlockEnd          string  `json:"block_end,omitempty" validate:"omitempty,len=5"`
	BlockWeekdays     []int16 `json:"block_weekdays,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
}

// BlockedAppResponseDTO is returned in API responses
type BlockedAppResponseDTO struct {
	ID                int64      `json:"id"`
	AppName           string     `json:"app_name"`
	AppCategory       string     `json:"app_category,omitempty"`
	DailyLimitMinutes float64    `json:"daily_limit_minutes"`
	Active            bool       `json:"active"`
	BlockStart        string     `json:"block_start,omitempty"`
	BlockEnd          string     `json:"block_end,omitempty"`
	BlockWeekdays     []int16    `json:"block_weekdays,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LastBlockedAt     *time.Time `json:"last_blocked_at,omitempty"`
	LastResetAt       *time.Time `json:"last_reset_at,omitempty"`
}

// BlockedAppFromModel maps a limit configuration to its API shape.
func BlockedAppFromModel(b *model.BlockedApp) BlockedAppResponseDTO {
	return BlockedAppResponseDTO{
		ID:                b.ID,
		AppName:           b.AppName,
		AppCategory:       b.AppCategory,
		DailyLimitMinutes: b.DailyLimitMinutes,
		Active:            b.Active,
		BlockStart:        b.BlockStart,
		BlockEnd:          b.BlockEnd,
		BlockWeekdays:     b.BlockWeekdays,
		CreatedAt:         b.CreatedAt,
		LastBlockedAt:     b.LastBlockedAt,
		LastResetAt:       b.LastResetAt,
	}
}

// BlockedAppStatusDTO is the runtime status view
type BlockedAppStatusDTO struct {
	BlockedAppResponseDTO
	CurrentUsageMinutes float64 `json:"current_usage_minutes"`
	UsagePercentage     float64 `json:"usage_percentage"`
	RemainingMinutes    float64 `json:"remaining_minutes"`
	State               string  `json:"state"`
	SecondsUntilReset   int64   `json:"seconds_until_reset"`
}

// StatusFromModel maps a computed status to its API shape.
func StatusFromModel(s *model.BlockedAppStatus) BlockedAppStatusDTO {
	return BlockedAppStatusDTO{
		BlockedAppResponseDTO: BlockedAppFromModel(&s.BlockedApp),
		CurrentUsageMinutes:   s.CurrentUsageMinutes,
		UsagePercentage:       s.UsagePercentage,
		RemainingMinutes:      s.RemainingMinutes,
		State:                 s.State,
		SecondsUntilReset:     s.SecondsUntilReset,
	}
}
