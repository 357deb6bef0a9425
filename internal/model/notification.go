package model

import "time"

// EventKind classifies a push notification.
type EventKind string

const (
	EventWarning EventKind = "warning"
	EventBlocked EventKind = "blocked"
	EventInfo    EventKind = "info"
)

// NotificationEvent is an ephemeral push payload. It is constructed, delivered
// to live channels and discarded; nothing in this package persists it.
type NotificationEvent struct {
	UserID    int64          `json:"user_id"`
	Kind      EventKind      `json:"kind"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
