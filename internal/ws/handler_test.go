package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"focus/internal/model"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type stubAuth struct {
	user *model.User
}

func (s stubAuth) UserFromAccessToken(_ context.Context, token string) (*model.User, error) {
	if s.user == nil || token != "good" {
		return nil, errors.New("invalid_token")
	}
	return s.user, nil
}

func newTestHandler(auth TokenAuthenticator) (*Handler, *Registry) {
	r := newTestRegistry()
	return NewHandler(r, auth, time.Minute, 30*time.Second, zerolog.Nop()), r
}

func TestHandlerRejectsMissingToken(t *testing.T) {
	h, _ := newTestHandler(stubAuth{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestHandlerRejectsInvalidToken(t *testing.T) {
	h, _ := newTestHandler(stubAuth{user: &model.User{ID: 1}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token=bad", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", rec.Code)
	}
}

func TestHandlerUpgradeAndDeliver(t *testing.T) {
	h, reg := newTestHandler(stubAuth{user: &model.User{ID: 7}})
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http")+"/?token=good", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// The hello frame confirms the channel is registered before we deliver.
	var hello serverHello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading hello frame: %v", err)
	}
	if hello.Type != "connected" || hello.ChannelID == "" {
		t.Fatalf("unexpected hello frame: %+v", hello)
	}

	if got := reg.Deliver(7, event(7, model.EventBlocked)); got != 1 {
		t.Fatalf("expected delivery to 1 channel, got %d", got)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev model.NotificationEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading delivered event: %v", err)
	}
	if ev.Kind != model.EventBlocked {
		t.Errorf("expected blocked event, got %v", ev.Kind)
	}
}
