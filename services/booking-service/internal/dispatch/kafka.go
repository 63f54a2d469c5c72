package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/localbook/libs/kafkax"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/metrics"
	"github.com/segmentio/kafka-go"
)

const DefaultPushTopic = "notification.push.requested.v1"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers string
	Topic   string
	Timeout time.Duration
}

// KafkaGateway publishes each push as one event for the notification service.
// Every Send runs on its own goroutine bounded by Timeout.
type KafkaGateway struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// PushRequested is the event payload consumed by the notification service.
type PushRequested struct {
	EventID     string            `json:"event_id"`
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	RequestedAt string            `json:"requested_at"`
}

func NewKafkaGateway(logger *slog.Logger, cfg KafkaConfig) (*KafkaGateway, error) {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("dispatch: no kafka brokers configured")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultPushTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaGateway(writer, logger, cfg), nil
}

func newKafkaGateway(w messageWriter, logger *slog.Logger, cfg KafkaConfig) *KafkaGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultPushTopic
	}
	return &KafkaGateway{writer: w, topic: cfg.Topic, timeout: cfg.Timeout, logger: logger}
}

func (g *KafkaGateway) Send(ctx context.Context, p Push) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		metrics.PushDispatch.WithLabelValues("dropped").Inc()
		g.logger.Warn("push dropped after gateway close", "recipient_id", p.RecipientID)
		return
	}
	g.wg.Add(1)
	g.mu.Unlock()

	// Detached from the caller's cancellation; trace context is kept.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	go func() {
		defer g.wg.Done()
		defer cancel()
		if err := g.publish(sendCtx, p); err != nil {
			metrics.PushDispatch.WithLabelValues("failed").Inc()
			g.logger.Error("push publish failed", "recipient_id", p.RecipientID, "type", p.Metadata["type"], "err", err)
			return
		}
		metrics.PushDispatch.WithLabelValues("published").Inc()
	}()
}

func (g *KafkaGateway) publish(ctx context.Context, p Push) error {
	evt := PushRequested{
		EventID:     uuid.NewString(),
		RecipientID: p.RecipientID,
		Title:       p.Title,
		Body:        p.Body,
		Data:        p.Metadata,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	meta := kafkax.EventMeta{EventID: evt.EventID, EventType: g.topic}
	return g.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(p.RecipientID),
		Value:   value,
		Headers: kafkax.InjectTraceHeaders(ctx, meta.Headers()),
	})
}

// Close waits for in-flight sends and closes the writer. Later sends are dropped.
func (g *KafkaGateway) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
	return g.writer.Close()
}
