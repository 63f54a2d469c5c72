// Package dispatch hands push notifications to the delivery pipeline.
// Sends are fire-and-forget: callers never see delivery errors.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/metrics"
)

type Push struct {
	RecipientID string
	Title       string
	Body        string
	Metadata    map[string]string
}

type Gateway interface {
	Send(ctx context.Context, p Push)
}

// LogGateway only logs pushes. It is used when no broker is configured.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(_ context.Context, p Push) {
	metrics.PushDispatch.WithLabelValues("logged").Inc()
	g.logger.Info("push notification",
		"recipient_id", p.RecipientID,
		"title", p.Title,
		"type", p.Metadata["type"],
		"appointment_id", p.Metadata["appointmentId"],
	)
}
