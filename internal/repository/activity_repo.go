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

// ActivityRepository persists usage records and serves the aggregates the
// stats endpoints are built on.
type ActivityRepository interface {
	Create(ctx context.Context, a *model.Activity) error
	GetByID(ctx context.Context, id int64) (*model.Activity, error)
	ListByUser(ctx context.Context, userID int64, from, to time.Time, limit, offset int) ([]model.Activity, error)
	Delete(ctx context.Context, id int64) error
	// TotalMinutesInRange sums one user's usage over [from, to), optionally
	// restricted to a single app (empty appName means all apps).
	TotalMinutesInRange(ctx context.Context, userID int64, appName string, from, to time.Time) (float64, error)
	DailyStats(ctx context.Context, userID int64, day time.Time) (*model.DailyStats, error)
	WeeklyStats(ctx context.Context, userID int64, end time.Time) (*model.WeeklyStats, error)
	AppStats(ctx context.Context, userID int64, from, to time.Time, limit int) ([]model.AppStats, error)
	// GlobalAppStats aggregates across all users, for the admin overview.
	GlobalAppStats(ctx context.Context, from, to time.Time, limit int) ([]model.AppStats, error)
}

type activityRepo struct {
	pool *pgxpool.Pool
}

// NewActivityRepo creates a new ActivityRepository.
func NewActivityRepo(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepo{pool: pool}
}

const activityColumns = `id, user_id, app_name, app_package, app_category,
	duration_minutes, start_time, end_time, activity_date, device_type,
	session_id, created_at, updated_at`

func (r *activityRepo) Create(ctx context.Context, a *model.Activity) error {
	const q = `
		INSERT INTO activities (user_id, app_name, app_package, app_category,
			duration_minutes, start_time, end_time, activity_date, device_type, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, a.UserID, a.AppName, a.AppPackage,
		a.AppCategory, a.DurationMinutes, a.StartTime, a.EndTime, a.ActivityDate,
		a.DeviceType, a.SessionID).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating activity for user %d: %w", a.UserID, err)
	}
	return nil
}

func (r *activityRepo) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	var a model.Activity
	q := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.UserID, &a.AppName,
		&a.AppPackage, &a.AppCategory, &a.DurationMinutes, &a.StartTime,
		&a.EndTime, &a.ActivityDate, &a.DeviceType, &a.SessionID, &a.CreatedAt,
		&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *activityRepo) ListByUser(ctx context.Context, userID int64, from, to time.Time, limit, offset int) ([]model.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date < $3
		ORDER BY activity_date DESC, id DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, q, userID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing activities for user %d: %w", userID, err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.AppName, &a.AppPackage,
			&a.AppCategory, &a.DurationMinutes, &a.StartTime, &a.EndTime,
			&a.ActivityDate, &a.DeviceType, &a.SessionID, &a.CreatedAt,
			&a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM activities WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deleting activity %d: %w", id, err)
	}
	return nil
}

func (r *activityRepo) TotalMinutesInRange(ctx context.Context, userID int64, appName string, from, to time.Time) (float64, error) {
	q := `SELECT COALESCE(SUM(duration_minutes), 0) FROM activities
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date < $3`
	args := []any{userID, from, to}
	if appName != "" {
		q += ` AND app_name = $4`
		args = append(args, appName)
	}
	var total float64
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing activity minutes for user %d: %w", userID, err)
	}
	return total, nil
}

func (r *activityRepo) DailyStats(ctx context.Context, userID int64, day time.Time) (*model.DailyStats, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := &model.DailyStats{Date: dayStart}
	const totalsQ = `
		SELECT COALESCE(SUM(duration_minutes), 0), COUNT(DISTINCT app_name)
		FROM activities
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date < $3
	`
	if err := r.pool.QueryRow(ctx, totalsQ, userID, dayStart, dayEnd).Scan(&stats.TotalMinutes, &stats.AppsUsed); err != nil {
		return nil, fmt.Errorf("computing daily totals for user %d: %w", userID, err)
	}

	const topQ = `
		SELECT app_name, SUM(duration_minutes) AS minutes
		FROM activities
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date < $3
		GROUP BY app_name
		ORDER BY minutes DESC
		LIMIT 1
	`
	err := r.pool.QueryRow(ctx, topQ, userID, dayStart, dayEnd).Scan(&stats.MostUsedApp, &stats.MostUsedAppMinutes)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("finding most used app for user %d: %w", userID, err)
	}
	return stats, nil
}

func (r *activityRepo) WeeklyStats(ctx context.Context, userID int64, end time.Time) (*model.WeeklyStats, error) {
	dayEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)
	start := dayEnd.AddDate(0, 0, -7)

	stats := &model.WeeklyStats{StartDate: start, EndDate: dayEnd.AddDate(0, 0, -1)}
	const totalsQ = `
		SELECT COALESCE(SUM(duration_minutes), 0), COUNT(DISTINCT app_name)
		FROM activities
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date < $3
	`
	if err := r.pool.QueryRow(ctx, totalsQ, userID, start, dayEnd).Scan(&stats.TotalMinutes, &stats.AppsUsed); err != nil {
		return nil, fmt.Errorf("computing weekly totals for user %d: %w", userID, err)
	}
	stats.DailyAverageMinutes = stats.TotalMinutes / 7

	top, err := r.AppStats(ctx, userID, start, dayEnd, 5)
	if err != nil {
		return nil, err
	}
	stats.TopApps = top
	return stats, nil
}

func (r *activityRepo) AppStats(ctx context.Context, userID int64, from, to time.Time, limit int) ([]model.AppStats, error) {
	const q = `
		SELECT app_name,
		       SUM(duration_minutes) AS minutes,
		       COUNT(*) AS sessions,
		       AVG(duration_minutes) AS avg_minutes,
		       MAX(end_time) AS last_used
		FROM activities
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date < $3
		GROUP BY app_name
		ORDER BY minutes DESC
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, q, userID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("computing app stats for user %d: %w", userID, err)
	}
	defer rows.Close()

	var stats []model.AppStats
	for rows.Next() {
		var s model.AppStats
		if err := rows.Scan(&s.AppName, &s.TotalMinutes, &s.SessionCount,
			&s.AverageSessionMinutes, &s.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning app stats row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *activityRepo) GlobalAppStats(ctx context.Context, from, to time.Time, limit int) ([]model.AppStats, error) {
	const q = `
		SELECT app_name,
		       SUM(duration_minutes) AS minutes,
		       COUNT(*) AS sessions,
		       AVG(duration_minutes) AS avg_minutes,
		       MAX(end_time) AS last_used
		FROM activities
		WHERE activity_date >= $1 AND activity_date < $2
		GROUP BY app_name
		ORDER BY minutes DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, q, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("computing global app stats: %w", err)
	}
	defer rows.Close()

	var stats []model.AppStats
	for rows.Next() {
		var s model.AppStats
		if err := rows.Scan(&s.AppName, &s.TotalMinutes, &s.SessionCount,
			&s.AverageSessionMinutes, &s.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning app stats row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
