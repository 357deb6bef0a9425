package service

import (
	"context"
	"encoding/json"
	"time"

	"focus/internal/model"
	"focus/internal/repository"

	"github.com/rs/zerolog"
)

// LogService writes the audit trail. Failures are logged and swallowed so a
// broken audit insert never fails the action it describes.
type LogService interface {
	Record(ctx context.Context, entry model.AuditLog)
	RecordAction(ctx context.Context, userID int64, action model.LogAction, message string)
	RecordResource(ctx context.Context, userID int64, action model.LogAction, message, resourceType string, resourceID int64)
	List(ctx context.Context, f repository.LogFilter) ([]model.AuditLog, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

type logService struct {
	repo   repository.LogRepository
	logger zerolog.Logger
}

// NewLogService creates a new LogService.
func NewLogService(repo repository.LogRepository, logger zerolog.Logger) LogService {
	return &logService{repo: repo, logger: logger}
}

func (s *logService) Record(ctx context.Context, entry model.AuditLog) {
	if entry.Level == "" {
		entry.Level = model.LogInfo
	}
	if err := s.repo.Append(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Str("action", string(entry.Action)).Msg("failed to write audit log")
	}
}

func (s *logService) RecordAction(ctx context.Context, userID int64, action model.LogAction, message string) {
	s.Record(ctx, model.AuditLog{UserID: &userID, Action: action, Message: message})
}

func (s *logService) RecordResource(ctx context.Context, userID int64, action model.LogAction, message, resourceType string, resourceID int64) {
	s.Record(ctx, model.AuditLog{
		UserID:       &userID,
		Action:       action,
		Message:      message,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
	})
}

func (s *logService) List(ctx context.Context, f repository.LogFilter) ([]model.AuditLog, error) {
	return s.repo.List(ctx, f)
}

func (s *logService) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-olderThan))
}

// detailsJSON renders structured details for an audit entry. Marshal errors
// collapse to an empty string.
func detailsJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
