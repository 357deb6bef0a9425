package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focus/internal/config"
	"focus/internal/mailer"
	"focus/internal/metrics"
	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/util"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound           = errors.New("user_not_found")
	ErrEmailAlreadyRegistered = errors.New("email_already_registered")
	ErrUsernameTaken          = errors.New("username_taken")
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrAccountDisabled        = errors.New("account_disabled")
	ErrInvalidToken           = errors.New("invalid_token")
	ErrTokenExpired           = errors.New("token_expired")
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthService handles registration, login and account recovery.
type AuthService interface {
	Register(ctx context.Context, username, email, password, fullName string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UserFromAccessToken(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	mail   mailer.Mailer
	audit  LogService
	cfg    *config.Config
	logger zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, mail mailer.Mailer, audit LogService, cfg *config.Config, logger zerolog.Logger) AuthService {
	return &authService{users: users, mail: mail, audit: audit, cfg: cfg, logger: logger}
}

func (s *authService) Register(ctx context.Context, username, email, password, fullName string) (*model.User, error) {
	if err := util.ValidatePasswordStrength(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if existing, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if existing, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	verifyToken, err := util.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}

	u := &model.User{
		Username:             username,
		Email:                email,
		HashedPassword:       hashed,
		FullName:             fullName,
		IsActive:             true,
		Role:                 model.RoleUser,
		VerificationToken:    verifyToken,
		DailyLimitMinutes:    s.cfg.DefaultDailyLimitMinutes,
		NotificationsEnabled: true,
		EmailReminders:       true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	metrics.UsersRegistered.Inc()
	s.audit.RecordAction(ctx, u.ID, model.ActionRegister, "account created")

	if err := s.mail.SendVerification(u.Email, u.Username, verifyToken); err != nil {
		// Registration still succeeds; the user can request a resend.
		s.logger.Error().Err(err).Int64("user_id", u.ID).Msg("verification email failed")
		s.audit.Record(ctx, model.AuditLog{
			UserID: &u.ID, Action: model.ActionEmailFailed,
			Level: model.LogError, Message: "verification email failed",
		})
	} else {
		s.audit.RecordAction(ctx, u.ID, model.ActionEmailSent, "verification email sent")
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !util.VerifyPassword(password, u.HashedPassword) {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("failed to update last login")
	}
	u.LastLogin = &now
	metrics.UserLogins.Inc()
	s.audit.RecordAction(ctx, u.ID, model.ActionLogin, "user logged in")
	return u, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.JWTSecret, util.TokenRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrInvalidToken
	}
	return s.issueTokens(userID)
}

func (s *authService) issueTokens(userID int64) (*TokenPair, error) {
	accessTTL := time.Duration(s.cfg.AccessTokenExpireMin) * time.Minute
	refreshTTL := time.Duration(s.cfg.RefreshTokenExpireDay) * 24 * time.Hour

	access, err := util.CreateToken(userID, util.TokenAccess, s.cfg.JWTSecret, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := util.CreateToken(userID, util.TokenRefresh, s.cfg.JWTSecret, refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	u, err := s.users.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	u.IsVerified = true
	u.VerificationToken = ""
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.audit.RecordAction(ctx, u.ID, model.ActionEmailVerified, "email verified")
	return u, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		// Do not reveal whether the address exists.
		return nil
	}
	token, err := util.GenerateToken(32)
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}
	expires := time.Now().Add(time.Hour)
	u.ResetToken = token
	u.ResetTokenExpires = &expires
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.audit.RecordAction(ctx, u.ID, model.ActionPasswordResetRequested, "password reset requested")
	if err := s.mail.SendPasswordReset(u.Email, u.Username, token); err != nil {
		s.logger.Error().Err(err).Int64("user_id", u.ID).Msg("reset email failed")
		return fmt.Errorf("sending reset email: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := util.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	u, err := s.users.GetUserByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrInvalidToken
	}
	if u.ResetTokenExpires == nil || time.Now().After(*u.ResetTokenExpires) {
		return ErrTokenExpired
	}
	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.HashedPassword = hashed
	u.ResetToken = ""
	u.ResetTokenExpires = nil
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.audit.RecordAction(ctx, u.ID, model.ActionPasswordResetCompleted, "password reset completed")
	return nil
}

func (s *authService) UserFromAccessToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := util.ValidateToken(token, s.cfg.JWTSecret, util.TokenAccess)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}
