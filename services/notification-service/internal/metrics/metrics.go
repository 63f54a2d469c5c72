package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_push_deliveries_total",
		Help: "Push delivery attempts by provider and result.",
	}, []string{"provider", "result"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_rejected_total",
		Help: "Consumed events dropped as malformed, by reason.",
	}, []string{"reason"})
)
