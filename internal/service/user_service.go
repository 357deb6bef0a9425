package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/util"
)

// ErrWrongPassword is returned when a password change supplies a bad current
// password.
var ErrWrongPassword = errors.New("wrong_password")

// UserUpdate carries the fields a user may change on their own profile.
// Nil pointers leave the field untouched.
type UserUpdate struct {
	FullName             *string
	AvatarURL            *string
	DailyLimitMinutes    *int
	NotificationsEnabled *bool
	EmailReminders       *bool
}

// UserService manages profiles and account settings.
type UserService interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	// GetPublic resolves a profile for viewing by other users. Disabled
	// accounts read as absent.
	GetPublic(ctx context.Context, id int64) (*model.User, error)
	Search(ctx context.Context, query string, limit int) ([]model.User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id int64, current, newPassword string) error
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	users repository.UserRepository
	audit LogService
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, audit LogService) UserService {
	return &userService{users: users, audit: audit}
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) GetPublic(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) Search(ctx context.Context, query string, limit int) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query required: %w", ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.SearchUsers(ctx, query, limit)
}

func (s *userService) Update(ctx context.Context, id int64, upd UserUpdate) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	if upd.DailyLimitMinutes != nil {
		if *upd.DailyLimitMinutes <= 0 {
			return nil, fmt.Errorf("%w: daily limit must be positive", ErrInvalidInput)
		}
		u.DailyLimitMinutes = *upd.DailyLimitMinutes
	}
	if upd.NotificationsEnabled != nil {
		u.NotificationsEnabled = *upd.NotificationsEnabled
	}
	if upd.EmailReminders != nil {
		u.EmailReminders = *upd.EmailReminders
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) ChangePassword(ctx context.Context, id int64, current, newPassword string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(current, u.HashedPassword) {
		return ErrWrongPassword
	}
	if err := util.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.HashedPassword = hashed
	return s.users.UpdateUser(ctx, u)
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.audit.RecordAction(ctx, id, model.ActionUserDeleted, "account deleted")
	return nil
}
