package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLease(t *testing.T, ttl time.Duration) (*RedisLease, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLease(rdb, "", ttl), mr
}

func TestRedisLeaseExcludesSecondHolder(t *testing.T) {
	ctx := context.Background()
	lease, mr := newRedisLease(t, 90*time.Second)

	release, ok, err := lease.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(DefaultLeaseKey); ttl != 90*time.Second {
		t.Fatalf("expected lease ttl 90s, got %v", ttl)
	}

	if _, ok, err := lease.Acquire(ctx); err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}

	release()
	if mr.Exists(DefaultLeaseKey) {
		t.Fatal("release should delete the lease key")
	}
	release2, ok, err := lease.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
	release2()
}

func TestRedisLeaseReleaseKeepsOtherHolder(t *testing.T) {
	ctx := context.Background()
	lease, mr := newRedisLease(t, time.Minute)

	release, ok, err := lease.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	// The lease expired and another replica took it.
	mr.FastForward(time.Minute + time.Second)
	if err := mr.Set(DefaultLeaseKey, "other-replica"); err != nil {
		t.Fatalf("seed other holder: %v", err)
	}

	release()
	got, err := mr.Get(DefaultLeaseKey)
	if err != nil || got != "other-replica" {
		t.Fatalf("release removed another holder's lease: %q err=%v", got, err)
	}
}

func TestRedisLeaseUnavailable(t *testing.T) {
	lease, mr := newRedisLease(t, time.Minute)
	mr.SetError("READONLY You can't write against a read only replica")

	if _, ok, err := lease.Acquire(context.Background()); err == nil || ok {
		t.Fatalf("expected acquire error, got ok=%v err=%v", ok, err)
	}
}
