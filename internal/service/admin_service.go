package service

import (
	"context"
	"time"

	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/ws"
)

// SystemStats is the admin dashboard overview.
type SystemStats struct {
	TotalUsers      int       `json:"total_users"`
	ConnectedUsers  int       `json:"connected_users"`
	LiveConnections int       `json:"live_connections"`
	LoginsToday     int       `json:"logins_today"`
	BlocksToday     int       `json:"blocks_today"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// AdminService exposes moderation and system-level views.
type AdminService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]model.User, error)
	SetUserActive(ctx context.Context, adminID, userID int64, active bool) error
	DeleteUser(ctx context.Context, adminID, userID int64) error
	Stats(ctx context.Context) (*SystemStats, error)
	// AppUsage reports the most used apps across all users for the last N days.
	AppUsage(ctx context.Context, days, limit int) ([]model.AppStats, error)
	Logs(ctx context.Context, f repository.LogFilter) ([]model.AuditLog, error)
	// PruneLogs removes audit entries older than the given age and reports how
	// many rows were removed.
	PruneLogs(ctx context.Context, olderThan time.Duration) (int64, error)
}

type adminService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	logs       repository.LogRepository
	registry   *ws.Registry
	audit      LogService
}

// NewAdminService creates a new AdminService.
func NewAdminService(users repository.UserRepository, activities repository.ActivityRepository, logs repository.LogRepository, registry *ws.Registry, audit LogService) AdminService {
	return &adminService{users: users, activities: activities, logs: logs, registry: registry, audit: audit}
}

func (s *adminService) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.users.ListUsers(ctx, limit, offset)
}

func (s *adminService) SetUserActive(ctx context.Context, adminID, userID int64, active bool) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return err
	}
	action := model.ActionUserSuspended
	msg := "user suspended"
	if active {
		action = model.ActionUserActivated
		msg = "user activated"
	}
	s.audit.RecordResource(ctx, adminID, action, msg, "user", userID)
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, adminID, userID int64) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.audit.RecordResource(ctx, adminID, model.ActionUserDeleted, "user removed by admin", "user", userID)
	return nil
}

func (s *adminService) Stats(ctx context.Context) (*SystemStats, error) {
	total, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	logins, err := s.logs.CountSince(ctx, model.ActionLogin, midnight)
	if err != nil {
		return nil, err
	}
	blocks, err := s.logs.CountSince(ctx, model.ActionAppBlocked, midnight)
	if err != nil {
		return nil, err
	}
	users, connections := s.registry.Stats()
	return &SystemStats{
		TotalUsers:      total,
		ConnectedUsers:  users,
		LiveConnections: connections,
		LoginsToday:     logins,
		BlocksToday:     blocks,
		GeneratedAt:     now,
	}, nil
}

func (s *adminService) AppUsage(ctx context.Context, days, limit int) ([]model.AppStats, error) {
	if days <= 0 || days > 365 {
		days = 7
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	to := time.Now()
	from := to.AddDate(0, 0, -days)
	return s.activities.GlobalAppStats(ctx, from, to, limit)
}

func (s *adminService) Logs(ctx context.Context, f repository.LogFilter) ([]model.AuditLog, error) {
	return s.logs.List(ctx, f)
}

func (s *adminService) PruneLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.audit.Prune(ctx, olderThan)
}
