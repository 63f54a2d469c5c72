package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/reminders"
	"github.com/redis/go-redis/v9"
)

type fixedTicker struct {
	calls int
	now   time.Time
}

func (f *fixedTicker) Tick(_ context.Context, now time.Time) ([]reminders.Result, error) {
	f.calls++
	f.now = now
	return []reminders.Result{{Kind: model.Reminder24h, Matched: 2, Marked: 2}}, nil
}

func TestScanRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"scan", "--env-file", t.TempDir() + "/missing.env"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL is required") {
		t.Fatalf("expected missing DATABASE_URL error, got %v", err)
	}
}

func TestScanHonoursHeldLease(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	lease := reminders.NewRedisLease(rdb, "", time.Minute)
	at := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)

	inner := &fixedTicker{}
	rec := &recordingTicker{next: inner}
	sched := reminders.NewScheduler(rec, cliLogger(), reminders.SchedulerConfig{
		Lease: lease,
		Now:   func() time.Time { return at },
	})

	release, ok, err := lease.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if sched.RunOnce(context.Background()) {
		t.Fatal("expected the scan to be skipped while the service holds the lease")
	}
	if inner.calls != 0 || rec.results != nil {
		t.Fatalf("ticker ran under a held lease: calls=%d", inner.calls)
	}

	release()
	if !sched.RunOnce(context.Background()) {
		t.Fatal("expected the scan to run once the lease is free")
	}
	if inner.calls != 1 || !inner.now.Equal(at) {
		t.Fatalf("unexpected tick calls=%d now=%v", inner.calls, inner.now)
	}
	if len(rec.results) != 1 || rec.results[0].Marked != 2 {
		t.Fatalf("results not recorded: %+v", rec.results)
	}
}
