package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focus/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	SetActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, limit, offset int) ([]model.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	ListVerifiedWithEmailReminders(ctx context.Context) ([]model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `id, username, email, hashed_password, full_name, avatar_url,
	is_active, is_verified, role, verification_token, reset_password_token,
	reset_password_expires, daily_limit_minutes, notifications_enabled,
	email_reminders, created_at, updated_at, last_login`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.FullName,
		&u.AvatarURL, &u.IsActive, &u.IsVerified, &u.Role, &u.VerificationToken,
		&u.ResetToken, &u.ResetTokenExpires, &u.DailyLimitMinutes,
		&u.NotificationsEnabled, &u.EmailReminders, &u.CreatedAt, &u.UpdatedAt,
		&u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users (username, email, hashed_password, full_name, avatar_url,
			is_active, is_verified, role, verification_token, daily_limit_minutes,
			notifications_enabled, email_reminders)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, u.Username, u.Email, u.HashedPassword,
		u.FullName, u.AvatarURL, u.IsActive, u.IsVerified, u.Role,
		u.VerificationToken, u.DailyLimitMinutes, u.NotificationsEnabled,
		u.EmailReminders).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.Email, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, q, username))
}

func (r *userRepo) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1 AND verification_token <> ''`
	return scanUser(r.pool.QueryRow(ctx, q, token))
}

func (r *userRepo) GetUserByResetToken(ctx context.Context, token string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE reset_password_token = $1 AND reset_password_token <> ''`
	return scanUser(r.pool.QueryRow(ctx, q, token))
}

func (r *userRepo) UpdateUser(ctx context.Context, u *model.User) error {
	const q = `
		UPDATE users SET
			username = $2, email = $3, hashed_password = $4, full_name = $5,
			avatar_url = $6, is_active = $7, is_verified = $8, role = $9,
			verification_token = $10, reset_password_token = $11,
			reset_password_expires = $12, daily_limit_minutes = $13,
			notifications_enabled = $14, email_reminders = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Username, u.Email, u.HashedPassword,
		u.FullName, u.AvatarURL, u.IsActive, u.IsVerified, u.Role,
		u.VerificationToken, u.ResetToken, u.ResetTokenExpires,
		u.DailyLimitMinutes, u.NotificationsEnabled, u.EmailReminders).Scan(&u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	return nil
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE users SET last_login = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, at); err != nil {
		return fmt.Errorf("updating last login for user %d: %w", id, err)
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, active); err != nil {
		return fmt.Errorf("setting active=%v for user %d: %w", active, id, err)
	}
	return nil
}

func (r *userRepo) DeleteUser(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	return nil
}

func (r *userRepo) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword,
			&u.FullName, &u.AvatarURL, &u.IsActive, &u.IsVerified, &u.Role,
			&u.VerificationToken, &u.ResetToken, &u.ResetTokenExpires,
			&u.DailyLimitMinutes, &u.NotificationsEnabled, &u.EmailReminders,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users
		WHERE is_active AND (username ILIKE $1 OR full_name ILIKE $1)
		ORDER BY username LIMIT $2`
	rows, err := r.pool.Query(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching users for %q: %w", query, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword,
			&u.FullName, &u.AvatarURL, &u.IsActive, &u.IsVerified, &u.Role,
			&u.VerificationToken, &u.ResetToken, &u.ResetTokenExpires,
			&u.DailyLimitMinutes, &u.NotificationsEnabled, &u.EmailReminders,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *userRepo) ListVerifiedWithEmailReminders(ctx context.Context) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users
		WHERE is_active AND is_verified AND email_reminders
		ORDER BY id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing reminder recipients: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword,
			&u.FullName, &u.AvatarURL, &u.IsActive, &u.IsVerified, &u.Role,
			&u.VerificationToken, &u.ResetToken, &u.ResetTokenExpires,
			&u.DailyLimitMinutes, &u.NotificationsEnabled, &u.EmailReminders,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
