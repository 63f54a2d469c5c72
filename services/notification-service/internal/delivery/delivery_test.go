package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []push.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg push.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *fakeSender) ProviderID() string { return "fake" }

func newDeliverer(sender push.Sender) (*Deliverer, *storage.Memory) {
	store := storage.NewMemory()
	return New(store, store, sender, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func message(t *testing.T, evt PushRequested) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Value: raw}
}

func TestDeliverStoresAndPushes(t *testing.T) {
	sender := &fakeSender{}
	d, store := newDeliverer(sender)
	ctx := context.Background()
	if err := store.Register(ctx, storage.PushToken{UserID: "u1", Token: "ExponentPushToken[x]"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := d.HandleMessage(ctx, message(t, PushRequested{
		EventID:     "evt-1",
		RecipientID: "u1",
		Title:       "Appointment Cancelled",
		Body:        "Your appointment for Haircut has been cancelled",
		Data:        map[string]string{"type": "cancelled", "appointmentId": "a1"},
		RequestedAt: "2025-01-09T10:03:00Z",
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "ExponentPushToken[x]" {
		t.Fatalf("unexpected pushes %+v", sender.sent)
	}
	list, _ := store.List(ctx, "u1", false, 10)
	if len(list) != 1 || list[0].ID != "evt-1" || list[0].Type != "cancelled" || list[0].AppointmentID != "a1" {
		t.Fatalf("unexpected inbox %+v", list)
	}
	if list[0].CreatedAt.Format("2006-01-02T15:04:05Z07:00") != "2025-01-09T10:03:00Z" {
		t.Fatalf("created_at should come from requested_at, got %s", list[0].CreatedAt)
	}
}

func TestDeliverWithoutTokenOnlyStores(t *testing.T) {
	sender := &fakeSender{}
	d, store := newDeliverer(sender)
	if err := d.Deliver(context.Background(), PushRequested{RecipientID: "u2", Title: "t", Body: "b"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should be pushed without a token")
	}
	if n, _ := store.UnreadCount(context.Background(), "u2"); n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
}

func TestDeadTokenIsRemoved(t *testing.T) {
	sender := &fakeSender{err: push.ErrDeviceNotRegistered}
	d, store := newDeliverer(sender)
	ctx := context.Background()
	_ = store.Register(ctx, storage.PushToken{UserID: "u1", Token: "dead"})

	if err := d.Deliver(ctx, PushRequested{RecipientID: "u1", Title: "t", Body: "b"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("dead token should be removed, got %v", err)
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("provider down")}
	d, store := newDeliverer(sender)
	ctx := context.Background()
	_ = store.Register(ctx, storage.PushToken{UserID: "u1", Token: "tok"})
	if err := d.Deliver(ctx, PushRequested{RecipientID: "u1", Title: "t", Body: "b"}); err != nil {
		t.Fatalf("send failures must not be returned: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); err != nil {
		t.Fatalf("token must be kept on transient failure: %v", err)
	}
}

func TestMalformedEventsAreAcknowledged(t *testing.T) {
	d, store := newDeliverer(&fakeSender{})
	ctx := context.Background()
	if err := d.HandleMessage(ctx, kafka.Message{Value: []byte("{")}); err != nil {
		t.Fatalf("invalid json should be dropped, got %v", err)
	}
	if err := d.HandleMessage(ctx, message(t, PushRequested{Title: "no recipient"})); err != nil {
		t.Fatalf("missing recipient should be dropped, got %v", err)
	}
	if n, _ := store.UnreadCount(ctx, ""); n != 0 {
		t.Fatalf("nothing should be stored")
	}
}
