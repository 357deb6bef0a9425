package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, 5*time.Minute, zerolog.Nop()), mr
}

type payload struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	if err := c.SetJSON(ctx, "stats:1", payload{Name: "instagram", Total: 42}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var got payload
	found, err := c.GetJSON(ctx, "stats:1", &got)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit")
	}
	if got.Name != "instagram" || got.Total != 42 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	c, _ := setupCache(t)

	var got payload
	found, err := c.GetJSON(context.Background(), "absent", &got)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if found {
		t.Error("expected miss for absent key")
	}
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := setupCache(t)
	mr.Set("bad", "{not json")

	var got payload
	found, err := c.GetJSON(context.Background(), "bad", &got)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if found {
		t.Error("corrupt entry should read as a miss")
	}
}

func TestDeleteInvalidatesEntry(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	if err := c.SetJSON(ctx, "k", payload{}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var got payload
	if found, _ := c.GetJSON(ctx, "k", &got); found {
		t.Error("expected miss after delete")
	}
}

func TestOnceClaimsExactlyOnce(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	first, err := c.Once(ctx, "notified:1:instagram:blocked", time.Hour)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	second, err := c.Once(ctx, "notified:1:instagram:blocked", time.Hour)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if !first || second {
		t.Errorf("expected first=true second=false, got %v/%v", first, second)
	}
}

func TestOnceExpires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	if _, err := c.Once(ctx, "marker", time.Minute); err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	again, err := c.Once(ctx, "marker", time.Minute)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if !again {
		t.Error("expected marker to be claimable after expiry")
	}
}
