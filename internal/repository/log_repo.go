package repository

import (
	"context"
	"fmt"
	"time"

	"focus/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LogFilter narrows audit log queries. Zero values mean "any".
type LogFilter struct {
	UserID *int64
	Action model.LogAction
	Level  model.LogLevel
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// LogRepository is the append-only audit trail.
type LogRepository interface {
	Append(ctx context.Context, l *model.AuditLog) error
	List(ctx context.Context, f LogFilter) ([]model.AuditLog, error)
	CountSince(ctx context.Context, action model.LogAction, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type logRepo struct {
	pool *pgxpool.Pool
}

// NewLogRepo creates a new LogRepository.
func NewLogRepo(pool *pgxpool.Pool) LogRepository {
	return &logRepo{pool: pool}
}

func (r *logRepo) Append(ctx context.Context, l *model.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (user_id, action, level, message, details,
			ip_address, endpoint, resource_type, resource_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, q, l.UserID, l.Action, l.Level, l.Message,
		l.Details, l.IPAddress, l.Endpoint, l.ResourceType, l.ResourceID).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending audit log %s: %w", l.Action, err)
	}
	return nil
}

func (r *logRepo) List(ctx context.Context, f LogFilter) ([]model.AuditLog, error) {
	q := `SELECT id, user_id, action, level, message, details, ip_address,
		endpoint, resource_type, resource_id, created_at
		FROM audit_logs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != nil {
		q += ` AND user_id = ` + arg(*f.UserID)
	}
	if f.Action != "" {
		q += ` AND action = ` + arg(f.Action)
	}
	if f.Level != "" {
		q += ` AND level = ` + arg(f.Level)
	}
	if !f.From.IsZero() {
		q += ` AND created_at >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		q += ` AND created_at < ` + arg(f.To)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(f.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func collectLogs(rows pgx.Rows) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	for rows.Next() {
		var l model.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Level, &l.Message,
			&l.Details, &l.IPAddress, &l.Endpoint, &l.ResourceType,
			&l.ResourceID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *logRepo) CountSince(ctx context.Context, action model.LogAction, since time.Time) (int, error) {
	var count int
	const q = `SELECT COUNT(*) FROM audit_logs WHERE action = $1 AND created_at >= $2`
	if err := r.pool.QueryRow(ctx, q, action, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s logs: %w", action, err)
	}
	return count, nil
}

func (r *logRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
