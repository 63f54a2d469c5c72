package dispatch

import (
	"context"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// Gate answers whether a user accepts a notification category.
type Gate interface {
	Gate(ctx context.Context, userID string, cat model.Category) bool
}

// Notifier sends a push only when the recipient's preferences allow its category.
type Notifier struct {
	gate    Gate
	gateway Gateway
}

func NewNotifier(gate Gate, gateway Gateway) *Notifier {
	return &Notifier{gate: gate, gateway: gateway}
}

// Notify reports whether the push was handed to the gateway.
func (n *Notifier) Notify(ctx context.Context, cat model.Category, p Push) bool {
	if p.RecipientID == "" {
		return false
	}
	if !n.gate.Gate(ctx, p.RecipientID, cat) {
		metrics.PushDispatch.WithLabelValues("opted_out").Inc()
		return false
	}
	n.gateway.Send(ctx, p)
	return true
}
