// Package reminders finds appointments entering a reminder window and sends
// each reminder kind at most once per appointment.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/storage"
)

type Store interface {
	FindDueForReminder(ctx context.Context, kind model.ReminderKind, from, to time.Time) ([]model.Appointment, error)
	UpdateTransition(ctx context.Context, id string, fn model.TransitionFunc) (model.Appointment, error)
}

// errStale marks a candidate that changed between the query and its lock.
var errStale = errors.New("reminder no longer due")

type Scanner struct {
	store    Store
	dir      directory.Directory
	notifier *dispatch.Notifier
	logger   *slog.Logger
	loc      *time.Location
}

func NewScanner(store Store, dir directory.Directory, notifier *dispatch.Notifier, logger *slog.Logger, loc *time.Location) *Scanner {
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{store: store, dir: dir, notifier: notifier, logger: logger, loc: loc}
}

// Result summarises one kind's scan within a tick.
type Result struct {
	Kind    model.ReminderKind
	Window  Window
	Matched int
	Marked  int
	Skipped int
	Failed  int
}

// Tick runs the three scans for the instant now. A failed query for one kind
// does not stop the others; the first such error is returned.
func (s *Scanner) Tick(ctx context.Context, now time.Time) ([]Result, error) {
	results := make([]Result, 0, len(Rules))
	var firstErr error
	for _, rule := range Rules {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.scan(ctx, rule, now)
		results = append(results, res)
		if err != nil {
			s.logger.Error("reminder scan failed", "kind", string(rule.Kind), "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return results, firstErr
}

// Due lists the candidates of every kind for now without changing anything.
func (s *Scanner) Due(ctx context.Context, now time.Time) (map[model.ReminderKind][]model.Appointment, error) {
	out := make(map[model.ReminderKind][]model.Appointment, len(Rules))
	for _, rule := range Rules {
		w := rule.Window(now)
		appts, err := s.store.FindDueForReminder(ctx, rule.Kind, w.From, w.To)
		if err != nil {
			return nil, fmt.Errorf("find due %s reminders: %w", rule.Kind, err)
		}
		out[rule.Kind] = appts
	}
	return out, nil
}

func (s *Scanner) scan(ctx context.Context, rule Rule, now time.Time) (Result, error) {
	w := rule.Window(now)
	res := Result{Kind: rule.Kind, Window: w}

	candidates, err := s.store.FindDueForReminder(ctx, rule.Kind, w.From, w.To)
	if err != nil {
		return res, fmt.Errorf("find due %s reminders: %w", rule.Kind, err)
	}
	res.Matched = len(candidates)

	for _, c := range candidates {
		appt, err := s.store.UpdateTransition(ctx, c.ID, func(a *model.Appointment) error {
			if a.Status != model.StatusConfirmed || a.ReminderSent(rule.Kind) || !w.Contains(a.ScheduledAt) {
				return errStale
			}
			a.MarkReminderSent(rule.Kind)
			return nil
		})
		switch {
		case errors.Is(err, errStale) || storage.IsNotFound(err):
			res.Skipped++
			metrics.RemindersProcessed.WithLabelValues(string(rule.Kind), "skipped").Inc()
			continue
		case err != nil:
			res.Failed++
			metrics.RemindersProcessed.WithLabelValues(string(rule.Kind), "error").Inc()
			s.logger.Error("mark reminder failed", "kind", string(rule.Kind), "appointment_id", c.ID, "err", err)
			continue
		}

		res.Marked++
		metrics.RemindersProcessed.WithLabelValues(string(rule.Kind), "marked").Inc()
		s.send(ctx, rule.Kind, appt)
	}
	return res, nil
}

// send runs after the flag is committed; nothing here can undo it.
func (s *Scanner) send(ctx context.Context, kind model.ReminderKind, appt model.Appointment) {
	r := s.recipients(ctx, appt)
	customer, owner := reminderPushes(kind, r, dispatch.FormatWhen(appt.ScheduledAt, s.loc))
	cat := kind.Category()
	s.notifier.Notify(ctx, cat, customer)
	s.notifier.Notify(ctx, cat, owner)
	s.logger.Info("reminder dispatched", "kind", string(kind), "appointment_id", appt.ID)
}

func (s *Scanner) recipients(ctx context.Context, appt model.Appointment) recipients {
	r := recipients{
		appt:         appt,
		businessName: "your business",
		customerName: "Customer",
		serviceName:  "an appointment",
	}
	if b, err := s.dir.ResolveBusiness(ctx, appt.BusinessID); err == nil {
		r.ownerID = b.OwnerID
		if b.Name != "" {
			r.businessName = b.Name
		}
	} else {
		s.logger.Warn("business lookup failed for reminder", "appointment_id", appt.ID, "err", err)
	}
	if c, err := s.dir.ResolveCustomer(ctx, appt.CustomerID); err == nil && c.DisplayName != "" {
		r.customerName = c.DisplayName
	}
	if svc, err := s.dir.ResolveService(ctx, appt.ServiceID); err == nil && svc.Name != "" {
		r.serviceName = svc.Name
	}
	return r
}
