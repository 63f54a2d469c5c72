package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	release chan struct{}
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.release != nil {
		select {
		case <-w.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaGatewaySendDoesNotBlock(t *testing.T) {
	w := &fakeWriter{release: make(chan struct{})}
	g := newKafkaGateway(w, discardLogger(), KafkaConfig{Timeout: 5 * time.Second})

	done := make(chan struct{})
	go func() {
		g.Send(context.Background(), Push{RecipientID: "user-1", Title: "t", Body: "b"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Send blocked on a slow writer")
	}

	close(w.release)
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(w.msgs) != 1 || !w.closed {
		t.Fatalf("expected one message and a closed writer, got %d closed=%v", len(w.msgs), w.closed)
	}
}

func TestKafkaGatewayMessageShape(t *testing.T) {
	w := &fakeWriter{}
	g := newKafkaGateway(w, discardLogger(), KafkaConfig{})

	g.Send(context.Background(), Push{
		RecipientID: "owner-1",
		Title:       "New Booking!",
		Body:        "Dana booked Haircut",
		Metadata:    map[string]string{"type": "new_booking", "appointmentId": "a1"},
	})
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "owner-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventType != DefaultPushTopic || meta.EventID == "" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	var evt PushRequested
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if evt.EventID != meta.EventID || evt.Data["type"] != "new_booking" || evt.Title != "New Booking!" {
		t.Fatalf("unexpected payload %+v", evt)
	}
}

func TestKafkaGatewaySwallowsFailuresAndDropsAfterClose(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	g := newKafkaGateway(w, discardLogger(), KafkaConfig{})

	g.Send(context.Background(), Push{RecipientID: "user-1"})
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	g.Send(context.Background(), Push{RecipientID: "user-2"})
	if len(w.msgs) != 1 {
		t.Fatalf("send after close should be dropped, got %d writes", len(w.msgs))
	}
}
