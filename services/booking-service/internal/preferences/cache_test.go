package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

type countingStore struct {
	Store
	reads int
}

func (c *countingStore) GetOrDefault(ctx context.Context, userID string) (model.NotificationPreference, error) {
	c.reads++
	return c.Store.GetOrDefault(ctx, userID)
}

func newCache(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	backing := &countingStore{Store: storage.NewMemoryPreferences()}
	return NewCachedStore(backing, rdb, time.Minute, testLogger()), backing, mr
}

func TestCacheServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	c, backing, mr := newCache(t)

	for i := 0; i < 3; i++ {
		pref, err := c.GetOrDefault(ctx, "user-1")
		if err != nil || !pref.Reminder24h {
			t.Fatalf("read %d: %+v err=%v", i, pref, err)
		}
	}
	if backing.reads != 1 {
		t.Fatalf("expected one store read, got %d", backing.reads)
	}
	if ttl := mr.TTL(cacheKey("user-1")); ttl != time.Minute {
		t.Fatalf("expected cache ttl 1m, got %v", ttl)
	}
}

func TestCacheSaveReplacesCachedValue(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCache(t)

	if _, err := c.GetOrDefault(ctx, "user-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	pref := model.DefaultPreference("user-1")
	pref.Reminder30m = false
	if err := c.Save(ctx, pref); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := c.GetOrDefault(ctx, "user-1")
	if err != nil {
		t.Fatalf("read after save: %v", err)
	}
	if got.Reminder30m {
		t.Fatalf("cache still serves the value from before Save: %+v", got)
	}
}

func TestCacheFillDoesNotOverwriteSave(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCache(t)

	stale := model.DefaultPreference("user-1")
	fresh := stale
	fresh.BookingNotifications = false
	if err := c.Save(ctx, fresh); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A read that loaded the row before the Save completes after it.
	c.fill(ctx, stale)

	got, err := c.GetOrDefault(ctx, "user-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.BookingNotifications {
		t.Fatalf("stale read replaced the saved preference: %+v", got)
	}
}

func TestCacheReadErrorFallsThrough(t *testing.T) {
	ctx := context.Background()
	c, backing, mr := newCache(t)

	off := model.DefaultPreference("user-1")
	off.CancellationNotifications = false
	if err := c.Save(ctx, off); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.SetError("LOADING redis is loading the dataset")
	got, err := c.GetOrDefault(ctx, "user-1")
	if err != nil {
		t.Fatalf("read should fall through to the store, got %v", err)
	}
	if got.CancellationNotifications {
		t.Fatalf("expected the stored preference, got %+v", got)
	}
	if backing.reads != 1 {
		t.Fatalf("expected one store read, got %d", backing.reads)
	}

	mr.SetError("")
	if _, err := c.GetOrDefault(ctx, "user-1"); err != nil {
		t.Fatalf("read after recovery: %v", err)
	}
	if backing.reads != 1 {
		t.Fatalf("expected the cached entry to be used after recovery, got %d store reads", backing.reads)
	}
}
