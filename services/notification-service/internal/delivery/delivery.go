// Package delivery turns push-requested events into inbox entries and device pushes.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/metrics"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

// PushRequested mirrors the event booking-service publishes.
type PushRequested struct {
	EventID     string            `json:"event_id"`
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
	RequestedAt string            `json:"requested_at"`
}

type Inbox interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Tokens interface {
	Get(ctx context.Context, userID string) (storage.PushToken, error)
	Unregister(ctx context.Context, userID, token string) error
}

type Deliverer struct {
	inbox  Inbox
	tokens Tokens
	sender push.Sender
	logger *slog.Logger
	now    func() time.Time
}

func New(inbox Inbox, tokens Tokens, sender push.Sender, logger *slog.Logger) *Deliverer {
	return &Deliverer{inbox: inbox, tokens: tokens, sender: sender, logger: logger, now: time.Now}
}

// HandleMessage is a consumer.Handler. Malformed events are logged and
// acknowledged; only storage failures are returned so the event is retried.
func (d *Deliverer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var evt PushRequested
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		metrics.EventsRejected.WithLabelValues("invalid_json").Inc()
		d.logger.Error("invalid push payload", "err", err)
		return nil
	}
	evt.RecipientID = strings.TrimSpace(evt.RecipientID)
	if evt.RecipientID == "" || evt.Title == "" {
		metrics.EventsRejected.WithLabelValues("missing_fields").Inc()
		d.logger.Error("missing push fields", "event_id", evt.EventID)
		return nil
	}
	return d.Deliver(ctx, evt)
}

// Deliver records the notification in the recipient's inbox, then pushes it to
// their device when one is registered. Push failures are not returned.
func (d *Deliverer) Deliver(ctx context.Context, evt PushRequested) error {
	id := evt.EventID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := d.now().UTC()
	if t, err := time.Parse(time.RFC3339, evt.RequestedAt); err == nil {
		createdAt = t.UTC()
	}
	n := storage.Notification{
		ID:            id,
		UserID:        evt.RecipientID,
		Type:          evt.Data["type"],
		AppointmentID: evt.Data["appointmentId"],
		Title:         evt.Title,
		Body:          evt.Body,
		Data:          evt.Data,
		CreatedAt:     createdAt,
	}
	if err := d.inbox.Insert(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	token, err := d.tokens.Get(ctx, evt.RecipientID)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.PushDeliveries.WithLabelValues(d.sender.ProviderID(), "no_token").Inc()
		d.logger.Debug("no push token; stored in inbox only", "user_id", evt.RecipientID)
		return nil
	}
	if err != nil {
		d.logger.Error("push token lookup failed", "user_id", evt.RecipientID, "err", err)
		return nil
	}

	err = d.sender.Send(ctx, push.Message{To: token.Token, Title: evt.Title, Body: evt.Body, Data: evt.Data})
	switch {
	case errors.Is(err, push.ErrDeviceNotRegistered):
		metrics.PushDeliveries.WithLabelValues(d.sender.ProviderID(), "unregistered").Inc()
		d.logger.Warn("push token no longer registered; removing", "user_id", evt.RecipientID)
		if err := d.tokens.Unregister(ctx, evt.RecipientID, token.Token); err != nil {
			d.logger.Error("remove dead push token failed", "user_id", evt.RecipientID, "err", err)
		}
	case err != nil:
		metrics.PushDeliveries.WithLabelValues(d.sender.ProviderID(), "failed").Inc()
		d.logger.Error("push send failed", "user_id", evt.RecipientID, "type", n.Type, "err", err)
	default:
		metrics.PushDeliveries.WithLabelValues(d.sender.ProviderID(), "sent").Inc()
		d.logger.Info("push sent", "user_id", evt.RecipientID, "type", n.Type)
	}
	return nil
}
