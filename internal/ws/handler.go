package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"focus/internal/metrics"
	"focus/internal/model"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// clientMessage is what a connected client may send: heartbeats and filter
// changes.
type clientMessage struct {
	Action string   `json:"action"`
	Kinds  []string `json:"kinds,omitempty"`
}

// serverHello is the first frame sent after a successful upgrade.
type serverHello struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
}

// TokenAuthenticator resolves an access token to the account it belongs to.
// The auth service satisfies it.
type TokenAuthenticator interface {
	UserFromAccessToken(ctx context.Context, token string) (*model.User, error)
}

// Handler upgrades HTTP requests to websocket channels and bridges them to the
// registry.
type Handler struct {
	registry *Registry
	auth     TokenAuthenticator
	upgrader websocket.Upgrader
	// pongWait bounds how long a silent connection survives; heartbeats and
	// client messages both refresh it.
	pongWait     time.Duration
	pingInterval time.Duration
	logger       zerolog.Logger
}

// NewHandler creates a websocket handler. idleTimeout should match the
// registry sweep threshold and exceed pingInterval.
func NewHandler(registry *Registry, auth TokenAuthenticator, idleTimeout, pingInterval time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		auth:     auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers cannot set Authorization headers on websocket dials, so
			// origin checks are left to the CORS layer in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pongWait:     idleTimeout,
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// ServeHTTP authenticates via the token query parameter, upgrades the
// connection and runs the read and write pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token query parameter required", http.StatusUnauthorized)
		return
	}
	u, err := h.auth.UserFromAccessToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch := h.registry.Connect(u.ID)
	metrics.LiveConnections.Inc()

	go h.writePump(conn, ch)
	h.readPump(conn, ch)
}

// readPump consumes client frames until the connection dies, then removes the
// channel. It owns the connection's read side.
func (h *Handler) readPump(conn *websocket.Conn, ch *Channel) {
	defer func() {
		h.registry.Disconnect(ch.ID)
		metrics.LiveConnections.Dec()
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		_ = h.registry.Heartbeat(ch.ID)
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("channel_id", ch.ID).Msg("websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "ping":
			if err := h.registry.Heartbeat(ch.ID); err != nil {
				return
			}
		case "subscribe":
			if err := h.registry.Subscribe(ch.ID, toKinds(msg.Kinds)...); err != nil {
				return
			}
		case "unsubscribe":
			if err := h.registry.Unsubscribe(ch.ID, toKinds(msg.Kinds)...); err != nil {
				return
			}
		}
	}
}

// writePump pushes queued events to the client and pings it periodically. It
// owns the connection's write side.
func (h *Handler) writePump(conn *websocket.Conn, ch *Channel) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(serverHello{Type: "connected", ChannelID: ch.ID}); err != nil {
		_ = conn.Close()
		return
	}

	for {
		select {
		case event := <-ch.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-ch.Done():
			// Swept or disconnected elsewhere; tell the client and stop.
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "channel closed"))
			_ = conn.Close()
			return
		}
	}
}

func toKinds(names []string) []model.EventKind {
	kinds := make([]model.EventKind, 0, len(names))
	for _, n := range names {
		switch k := model.EventKind(n); k {
		case model.EventWarning, model.EventBlocked, model.EventInfo:
			kinds = append(kinds, k)
		}
	}
	return kinds
}
