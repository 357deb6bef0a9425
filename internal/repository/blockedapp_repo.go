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

// BlockedAppRepository persists per-user limit configurations. Deletes are
// soft: rows flip to active=false and stay queryable for history.
type BlockedAppRepository interface {
	Create(ctx context.Context, b *model.BlockedApp) error
	GetByID(ctx context.Context, id int64) (*model.BlockedApp, error)
	// GetActiveByUserAndApp returns the active configuration for one app, or
	// (nil, nil) when the user does not limit it.
	GetActiveByUserAndApp(ctx context.Context, userID int64, appName string) (*model.BlockedApp, error)
	ListByUser(ctx context.Context, userID int64, includeInactive bool) ([]model.BlockedApp, error)
	ListActive(ctx context.Context) ([]model.BlockedApp, error)
	Update(ctx context.Context, b *model.BlockedApp) error
	Deactivate(ctx context.Context, id int64) error
	MarkBlocked(ctx context.Context, id int64, at time.Time) error
	MarkReset(ctx context.Context, id int64, at time.Time) error
}

type blockedAppRepo struct {
	pool *pgxpool.Pool
}

// NewBlockedAppRepo creates a new BlockedAppRepository.
func NewBlockedAppRepo(pool *pgxpool.Pool) BlockedAppRepository {
	return &blockedAppRepo{pool: pool}
}

const blockedAppColumns = `id, user_id, app_name, app_package, app_category,
	daily_limit_minutes, active, block_start, block_end, block_weekdays,
	created_at, updated_at, last_blocked_at, last_reset_at`

func scanBlockedApp(row pgx.Row) (*model.BlockedApp, error) {
	var b model.BlockedApp
	err := row.Scan(&b.ID, &b.UserID, &b.AppName, &b.AppPackage, &b.AppCategory,
		&b.DailyLimitMinutes, &b.Active, &b.BlockStart, &b.BlockEnd,
		&b.BlockWeekdays, &b.CreatedAt, &b.UpdatedAt, &b.LastBlockedAt,
		&b.LastResetAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *blockedAppRepo) Create(ctx context.Context, b *model.BlockedApp) error {
	const q = `
		INSERT INTO blocked_apps (user_id, app_name, app_package, app_category,
			daily_limit_minutes, active, block_start, block_end, block_weekdays)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, b.UserID, b.AppName, b.AppPackage,
		b.AppCategory, b.DailyLimitMinutes, b.Active, b.BlockStart, b.BlockEnd,
		b.BlockWeekdays).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating blocked app %s for user %d: %w", b.AppName, b.UserID, err)
	}
	return nil
}

func (r *blockedAppRepo) GetByID(ctx context.Context, id int64) (*model.BlockedApp, error) {
	q := `SELECT ` + blockedAppColumns + ` FROM blocked_apps WHERE id = $1`
	return scanBlockedApp(r.pool.QueryRow(ctx, q, id))
}

func (r *blockedAppRepo) GetActiveByUserAndApp(ctx context.Context, userID int64, appName string) (*model.BlockedApp, error) {
	q := `SELECT ` + blockedAppColumns + ` FROM blocked_apps
		WHERE user_id = $1 AND app_name = $2 AND active`
	return scanBlockedApp(r.pool.QueryRow(ctx, q, userID, appName))
}

func (r *blockedAppRepo) ListByUser(ctx context.Context, userID int64, includeInactive bool) ([]model.BlockedApp, error) {
	q := `SELECT ` + blockedAppColumns + ` FROM blocked_apps WHERE user_id = $1`
	if !includeInactive {
		q += ` AND active`
	}
	q += ` ORDER BY app_name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing blocked apps for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectBlockedApps(rows)
}

func (r *blockedAppRepo) ListActive(ctx context.Context) ([]model.BlockedApp, error) {
	q := `SELECT ` + blockedAppColumns + ` FROM blocked_apps WHERE active ORDER BY user_id, app_name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing active blocked apps: %w", err)
	}
	defer rows.Close()
	return collectBlockedApps(rows)
}

func collectBlockedApps(rows pgx.Rows) ([]model.BlockedApp, error) {
	var apps []model.BlockedApp
	for rows.Next() {
		var b model.BlockedApp
		if err := rows.Scan(&b.ID, &b.UserID, &b.AppName, &b.AppPackage,
			&b.AppCategory, &b.DailyLimitMinutes, &b.Active, &b.BlockStart,
			&b.BlockEnd, &b.BlockWeekdays, &b.CreatedAt, &b.UpdatedAt,
			&b.LastBlockedAt, &b.LastResetAt); err != nil {
			return nil, fmt.Errorf("scanning blocked app row: %w", err)
		}
		apps = append(apps, b)
	}
	return apps, rows.Err()
}

func (r *blockedAppRepo) Update(ctx context.Context, b *model.BlockedApp) error {
	const q = `
		UPDATE blocked_apps SET
			app_name = $2, app_package = $3, app_category = $4,
			daily_limit_minutes = $5, active = $6, block_start = $7,
			block_end = $8, block_weekdays = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, q, b.ID, b.AppName, b.AppPackage, b.AppCategory,
		b.DailyLimitMinutes, b.Active, b.BlockStart, b.BlockEnd,
		b.BlockWeekdays).Scan(&b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating blocked app %d: %w", b.ID, err)
	}
	return nil
}

func (r *blockedAppRepo) Deactivate(ctx context.Context, id int64) error {
	const q = `UPDATE blocked_apps SET active = false, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deactivating blocked app %d: %w", id, err)
	}
	return nil
}

func (r *blockedAppRepo) MarkBlocked(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE blocked_apps SET last_blocked_at = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, at); err != nil {
		return fmt.Errorf("marking blocked app %d blocked: %w", id, err)
	}
	return nil
}

func (r *blockedAppRepo) MarkReset(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE blocked_apps SET last_reset_at = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, at); err != nil {
		return fmt.Errorf("marking blocked app %d reset: %w", id, err)
	}
	return nil
}
