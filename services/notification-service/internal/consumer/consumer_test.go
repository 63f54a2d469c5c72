package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/md-rashed-zaman/localbook/libs/kafkax"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/inbox"
	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func event(id string, offset int64) kafka.Message {
	return kafka.Message{
		Offset:  offset,
		Headers: kafkax.EventMeta{EventID: id, EventType: "notification.push.requested.v1"}.Headers(),
	}
}

func TestConsumerDedupesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{
		msgs:   []kafka.Message{event("e1", 1), event("e1", 2), event("e2", 3), event("e3", 4)},
		cancel: cancel,
	}

	var handled []string
	c := &Consumer{
		reader: r,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:  inbox.NewMemory(),
		handler: func(_ context.Context, msg kafka.Message) error {
			id := kafkax.ExtractEventMeta(msg).EventID
			handled = append(handled, id)
			if id == "e3" {
				return errors.New("db down")
			}
			return nil
		},
	}
	c.Run(ctx)

	if len(handled) != 3 || handled[0] != "e1" || handled[1] != "e2" || handled[2] != "e3" {
		t.Fatalf("unexpected handled sequence %v", handled)
	}
	want := []int64{1, 2, 3}
	if len(r.committed) != len(want) {
		t.Fatalf("committed %v, want %v", r.committed, want)
	}
	for i := range want {
		if r.committed[i] != want[i] {
			t.Fatalf("committed %v, want %v", r.committed, want)
		}
	}
}

func TestConsumerRetriesFailedEventOnRedelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{
		msgs:   []kafka.Message{event("e1", 1), event("e1", 1), event("e1", 1)},
		cancel: cancel,
	}

	calls := 0
	store := inbox.NewMemory()
	c := &Consumer{
		reader: r,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:  store,
		handler: func(context.Context, kafka.Message) error {
			calls++
			if calls == 1 {
				return errors.New("push provider down")
			}
			return nil
		},
	}
	c.Run(ctx)

	if calls != 2 {
		t.Fatalf("expected the failed event to be handled again once, got %d calls", calls)
	}
	if len(r.committed) != 2 || r.committed[0] != 1 || r.committed[1] != 1 {
		t.Fatalf("expected commits only after success and for the duplicate, got %v", r.committed)
	}
	if seen, _ := store.Seen(context.Background(), "e1"); !seen {
		t.Fatal("expected e1 recorded after the successful retry")
	}
}
