package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_lifecycle_transitions_total",
		Help: "Appointment lifecycle operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	RemindersProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reminders_processed_total",
		Help: "Reminder candidates handled by the scan, by kind and result.",
	}, []string{"kind", "result"})

	ReminderTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_reminder_tick_duration_seconds",
		Help:    "Wall time of one reminder scan tick.",
		Buckets: prometheus.DefBuckets,
	})

	ReminderTicksSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reminder_ticks_skipped_total",
		Help: "Reminder ticks not run, by reason.",
	}, []string{"reason"})

	PushDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_push_dispatch_total",
		Help: "Push notification hand-offs to the gateway by result.",
	}, []string{"result"})
)
