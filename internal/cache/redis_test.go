package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisWithClient(client), mr
}

func TestRedisRoundTrip(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	if err := c.Put(ctx, "pr1", []byte(`{"files":[]}`), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, ok, err := c.Get(ctx, "pr1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(value) != `{"files":[]}` {
		t.Fatalf("unexpected payload %q (present=%t)", value, ok)
	}
}

func TestRedisMiss(t *testing.T) {
	c, _ := newTestRedis(t)

	value, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || value != nil {
		t.Fatalf("a miss must report absent, got %q", value)
	}
}

func TestRedisEntriesExpire(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	if err := c.Put(ctx, "pr1", []byte("payload"), 30*time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(time.Minute)

	_, ok, err := c.Get(ctx, "pr1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("entry must expire after its ttl")
	}
}

func TestRedisKeysArePrefixed(t *testing.T) {
	c, mr := newTestRedis(t)

	if err := c.Put(context.Background(), "pr1", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("conflictdiff:pr1") {
		t.Fatal("cache keys must carry the conflictdiff prefix")
	}
}

func TestNoopNeverStores(t *testing.T) {
	var c Noop
	ctx := context.Background()

	if err := c.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("noop cache must always miss")
	}
}
