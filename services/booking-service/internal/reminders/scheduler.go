package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Ticker is the work the scheduler runs each period.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) ([]Result, error)
}

type SchedulerConfig struct {
	// Every defaults to five minutes.
	Every time.Duration
	// Lease is optional. Without it only ticks within this process are serialised.
	Lease Lease
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler runs a Ticker on a fixed period. A tick that comes due while the
// previous one is still running is skipped.
type Scheduler struct {
	ticker Ticker
	logger *slog.Logger
	every  time.Duration
	lease  Lease
	now    func() time.Time

	running atomic.Bool

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewScheduler(ticker Ticker, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	if cfg.Every <= 0 {
		cfg.Every = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		ticker: ticker,
		logger: logger,
		every:  cfg.Every,
		lease:  cfg.Lease,
		now:    cfg.Now,
	}
}

// Start schedules ticks until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.every), func() { s.RunOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule reminder scan: %w", err)
	}
	c.Start()
	s.cron = c
	s.cancel = cancel
	s.logger.Info("reminder scheduler started", "every", s.every.String())
	return nil
}

// Stop halts scheduling, cancels a running tick and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
}

// RunOnce performs one tick now and reports whether it ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		metrics.ReminderTicksSkipped.WithLabelValues("overlap").Inc()
		s.logger.Warn("reminder tick skipped: previous tick still running")
		return false
	}
	defer s.running.Store(false)

	if s.lease != nil {
		release, ok, err := s.lease.Acquire(ctx)
		switch {
		case err != nil:
			// Per-record re-checks still prevent duplicate reminders.
			s.logger.Warn("reminder lease unavailable; scanning anyway", "err", err)
		case !ok:
			metrics.ReminderTicksSkipped.WithLabelValues("lease_held").Inc()
			s.logger.Info("reminder tick skipped: lease held elsewhere")
			return false
		default:
			defer release()
		}
	}

	start := time.Now()
	now := s.now().UTC()
	results, err := s.ticker.Tick(ctx, now)
	metrics.ReminderTickDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("reminder tick finished with errors", "err", err)
	}
	for _, r := range results {
		if r.Matched == 0 {
			continue
		}
		s.logger.Info("reminder scan",
			"kind", string(r.Kind),
			"matched", r.Matched,
			"marked", r.Marked,
			"skipped", r.Skipped,
			"failed", r.Failed,
		)
	}
	return true
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
