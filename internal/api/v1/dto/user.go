package dto

import (
	"time"

	"focus/internal/model"
)

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	ID                   int64      `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	FullName             string     `json:"full_name"`
	AvatarURL            string     `json:"avatar_url"`
	Role                 string     `json:"role"`
	IsVerified           bool       `json:"is_verified"`
	IsActive             bool       `json:"is_active"`
	DailyLimitMinutes    int        `json:"daily_limit_minutes"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	EmailReminders       bool       `json:"email_reminders"`
	CreatedAt            time.Time  `json:"created_at"`
	LastLogin            *time.Time `json:"last_login,omitempty"`
}

// UserFromModel maps a domain user to its API shape.
func UserFromModel(u *model.User) UserResponseDTO {
	return UserResponseDTO{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		FullName:             u.FullName,
		AvatarURL:            u.AvatarURL,
		Role:                 string(u.Role),
		IsVerified:           u.IsVerified,
		IsActive:             u.IsActive,
		DailyLimitMinutes:    u.DailyLimitMinutes,
		NotificationsEnabled: u.NotificationsEnabled,
		EmailReminders:       u.EmailReminders,
		CreatedAt:            u.CreatedAt,
		LastLogin:            u.LastLogin,
	}
}

// PublicUserDTO is the profile shape visible to other users
type PublicUserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicUserFromModel maps a user to its public profile shape.
func PublicUserFromModel(u *model.User) PublicUserDTO {
	return PublicUserDTO{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// UserUpdateDTO is used for incoming profile update requests
type UserUpdateDTO struct {
	FullName             *string `json:"full_name,omitempty" validate:"omitempty,max=128"`
	AvatarURL            *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	DailyLimitMinutes    *int    `json:"daily_limit_minutes,omitempty" validate:"omitempty,gt=0"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	EmailReminders       *bool   `json:"email_reminders,omitempty"`
}

// ChangePasswordDTO is used for incoming password change requests
type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}
