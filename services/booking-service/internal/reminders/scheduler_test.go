package reminders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type blockingTicker struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingTicker) Tick(ctx context.Context, _ time.Time) ([]Result, error) {
	b.calls.Add(1)
	b.entered <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil, nil
}

type countingTicker struct {
	calls atomic.Int32
}

func (c *countingTicker) Tick(context.Context, time.Time) ([]Result, error) {
	c.calls.Add(1)
	return nil, nil
}

type fakeLease struct {
	ok       bool
	err      error
	released atomic.Int32
}

func (l *fakeLease) Acquire(context.Context) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func() { l.released.Add(1) }, true, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOverlappingTickIsSkipped(t *testing.T) {
	ticker := &blockingTicker{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewScheduler(ticker, discardLogger(), SchedulerConfig{})

	done := make(chan bool)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-ticker.entered

	if s.RunOnce(context.Background()) {
		t.Fatalf("second tick must be skipped while the first runs")
	}
	close(ticker.release)
	if !<-done {
		t.Fatalf("first tick should report it ran")
	}
	if got := ticker.calls.Load(); got != 1 {
		t.Fatalf("expected 1 tick, got %d", got)
	}

	ticker.entered = make(chan struct{}, 1)
	if !s.RunOnce(context.Background()) {
		t.Fatalf("tick after completion should run")
	}
}

func TestLeaseHeldElsewhereSkipsTick(t *testing.T) {
	ticker := &countingTicker{}
	lease := &fakeLease{ok: false}
	s := NewScheduler(ticker, discardLogger(), SchedulerConfig{Lease: lease})
	if s.RunOnce(context.Background()) {
		t.Fatalf("tick should be skipped without the lease")
	}
	if ticker.calls.Load() != 0 {
		t.Fatalf("ticker must not run")
	}
}

func TestLeaseAcquiredAndReleased(t *testing.T) {
	ticker := &countingTicker{}
	lease := &fakeLease{ok: true}
	s := NewScheduler(ticker, discardLogger(), SchedulerConfig{Lease: lease})
	if !s.RunOnce(context.Background()) {
		t.Fatalf("tick should run")
	}
	if lease.released.Load() != 1 {
		t.Fatalf("lease should be released after the tick")
	}
}

func TestLeaseErrorStillScans(t *testing.T) {
	ticker := &countingTicker{}
	s := NewScheduler(ticker, discardLogger(), SchedulerConfig{Lease: &fakeLease{err: errors.New("redis down")}})
	if !s.RunOnce(context.Background()) || ticker.calls.Load() != 1 {
		t.Fatalf("tick should run when the lease backend fails")
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&countingTicker{}, discardLogger(), SchedulerConfig{Every: time.Minute})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("second start should fail")
	}
	s.Stop()
	s.Stop()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	s.Stop()
}
