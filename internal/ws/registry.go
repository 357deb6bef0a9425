package ws

import (
	"errors"
	"sync"
	"time"

	"focus/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrChannelNotFound is returned for operations against an unknown channel id.
// Callers should treat the channel as already gone and drop their reference.
var ErrChannelNotFound = errors.New("channel_not_found")

// sendBuffer bounds the per-channel outbound queue. A consumer that falls this
// far behind starts losing events rather than blocking delivery.
const sendBuffer = 16

// Channel is one live push endpoint for a user. A user may hold several at
// once (multi-device).
type Channel struct {
	ID     string
	UserID int64

	kinds         map[model.EventKind]struct{}
	lastHeartbeat time.Time
	send          chan model.NotificationEvent
	done          chan struct{}
}

// Events is the outbound queue consumed by the transport writer.
func (c *Channel) Events() <-chan model.NotificationEvent {
	return c.send
}

// Done is closed when the channel is removed from the registry.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Registry tracks live channels for the whole process. A single coarse lock is
// enough: contention scales with connection churn, not message volume.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*Channel
	byUser   map[int64]map[string]*Channel
	logger   zerolog.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
		byUser:   make(map[int64]map[string]*Channel),
		logger:   logger,
	}
}

// Connect registers a new channel for the user, subscribed to every event
// kind, with its heartbeat initialised to now.
func (r *Registry) Connect(userID int64) *Channel {
	ch := &Channel{
		ID:     uuid.NewString(),
		UserID: userID,
		kinds: map[model.EventKind]struct{}{
			model.EventWarning: {},
			model.EventBlocked: {},
			model.EventInfo:    {},
		},
		lastHeartbeat: time.Now(),
		send:          make(chan model.NotificationEvent, sendBuffer),
		done:          make(chan struct{}),
	}

	r.mu.Lock()
	r.channels[ch.ID] = ch
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]*Channel)
	}
	r.byUser[userID][ch.ID] = ch
	r.mu.Unlock()

	r.logger.Debug().Int64("user_id", userID).Str("channel_id", ch.ID).Msg("channel connected")
	return ch
}

// Disconnect removes a channel. Removing an unknown or already-removed channel
// is a no-op.
func (r *Registry) Disconnect(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(channelID)
}

func (r *Registry) removeLocked(channelID string) {
	ch, ok := r.channels[channelID]
	if !ok {
		return
	}
	delete(r.channels, channelID)
	if userChans := r.byUser[ch.UserID]; userChans != nil {
		delete(userChans, channelID)
		if len(userChans) == 0 {
			delete(r.byUser, ch.UserID)
		}
	}
	close(ch.done)
	r.logger.Debug().Int64("user_id", ch.UserID).Str("channel_id", channelID).Msg("channel disconnected")
}

// Subscribe adds event kinds to the channel's filter.
func (r *Registry) Subscribe(channelID string, kinds ...model.EventKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[channelID]
	if !ok {
		return ErrChannelNotFound
	}
	for _, k := range kinds {
		ch.kinds[k] = struct{}{}
	}
	return nil
}

// Unsubscribe removes event kinds from the channel's filter.
func (r *Registry) Unsubscribe(channelID string, kinds ...model.EventKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[channelID]
	if !ok {
		return ErrChannelNotFound
	}
	for _, k := range kinds {
		delete(ch.kinds, k)
	}
	return nil
}

// Heartbeat refreshes the channel's liveness timestamp.
func (r *Registry) Heartbeat(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[channelID]
	if !ok {
		return ErrChannelNotFound
	}
	ch.lastHeartbeat = time.Now()
	return nil
}

// Deliver queues the event on every live channel of the user whose filter
// admits its kind and returns the number reached. An offline user yields 0;
// presence is racy, so that is not an error.
func (r *Registry) Deliver(userID int64, event model.NotificationEvent) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for _, ch := range r.byUser[userID] {
		if _, ok := ch.kinds[event.Kind]; !ok {
			continue
		}
		select {
		case ch.send <- event:
			delivered++
		default:
			r.logger.Warn().Str("channel_id", ch.ID).Int64("user_id", userID).Msg("channel queue full, dropping event")
		}
	}
	return delivered
}

// BroadcastAll queues the event on every live channel, ignoring per-channel
// filters, and returns the number reached.
func (r *Registry) BroadcastAll(event model.NotificationEvent) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for _, ch := range r.channels {
		select {
		case ch.send <- event:
			delivered++
		default:
			r.logger.Warn().Str("channel_id", ch.ID).Msg("channel queue full, dropping broadcast")
		}
	}
	return delivered
}

// SweepStale removes channels whose heartbeat is older than maxIdle and
// returns their ids. Removal reads each channel's current timestamp, so a
// channel connected or refreshed after the sweep started is never removed.
func (r *Registry) SweepStale(maxIdle time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, ch := range r.channels {
		if now.Sub(ch.lastHeartbeat) > maxIdle {
			removed = append(removed, id)
			r.removeLocked(id)
		}
	}
	if len(removed) > 0 {
		r.logger.Info().Int("count", len(removed)).Msg("swept stale channels")
	}
	return removed
}

// Stats returns the number of connected users and total live channels.
func (r *Registry) Stats() (users, connections int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser), len(r.channels)
}

// ConnectedUsers lists the ids of users with at least one live channel.
func (r *Registry) ConnectedUsers() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}
