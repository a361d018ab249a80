package bus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Headers carrying the message envelope. The NATS payload is the raw case
// event so other consumers can read it without unwrapping.
const (
	headerTopic     = "Cybertriage-Topic"
	headerTimestamp = "Cybertriage-Timestamp"
)

// NATSBus implements EventBus using NATS, so case events reach pipeline
// workers in other processes. Subscriptions join the configured queue group;
// each intake event is then triaged by exactly one worker.
type NATSBus struct {
	mu            sync.Mutex
	conn          *nats.Conn
	prefix        string
	queue         string
	subscriptions map[string]*natsSubscription
}

type natsSubscription struct {
	id    string
	topic string
	bus   *NATSBus
	sub   *nats.Subscription
}

// NewNATSBus connects to NATS, retrying up to NATSMaxReconnects times.
func NewNATSBus(cfg domain.EventBusConfig) (*NATSBus, error) {
	if cfg.NATSUrl == "" {
		cfg.NATSUrl = nats.DefaultURL
	}
	if cfg.NATSMaxReconnects == 0 {
		cfg.NATSMaxReconnects = 10
	}
	if cfg.NATSReconnectWait == 0 {
		cfg.NATSReconnectWait = 5
	}
	wait := time.Duration(cfg.NATSReconnectWait) * time.Second

	opts := []nats.Option{
		nats.Name("cybertriage"),
		nats.MaxReconnects(cfg.NATSMaxReconnects),
		nats.ReconnectWait(wait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err, "will_reconnect", !nc.IsClosed())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			slog.Error("NATS error", "error", err, "subject", subject)
		}),
	}
	if cfg.NATSToken != "" {
		opts = append(opts, nats.Token(cfg.NATSToken))
	}

	var conn *nats.Conn
	var err error
	for attempt := 1; attempt <= cfg.NATSMaxReconnects; attempt++ {
		if conn, err = nats.Connect(cfg.NATSUrl, opts...); err == nil {
			break
		}
		slog.Warn("NATS connection attempt failed",
			"attempt", attempt,
			"max_attempts", cfg.NATSMaxReconnects,
			"error", err,
		)
		if attempt < cfg.NATSMaxReconnects {
			time.Sleep(wait)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", cfg.NATSMaxReconnects, err)
	}

	slog.Info("NATS connected",
		"url", conn.ConnectedUrl(),
		"subject_prefix", cfg.NATSSubjectPrefix,
		"queue_group", cfg.NATSQueueGroup,
	)

	return &NATSBus{
		conn:          conn,
		prefix:        cfg.NATSSubjectPrefix,
		queue:         cfg.NATSQueueGroup,
		subscriptions: make(map[string]*natsSubscription),
	}, nil
}

// natsSubject places a lifecycle topic under an optional deployment prefix,
// so several environments can share one NATS cluster.
func natsSubject(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}

// newNATSMsg wraps a case event payload for publishing.
func newNATSMsg(subject, topic string, payload []byte, now time.Time) *nats.Msg {
	m := nats.NewMsg(subject)
	m.Data = payload
	m.Header.Set(nats.MsgIdHdr, uuid.New().String())
	m.Header.Set(headerTopic, topic)
	m.Header.Set(headerTimestamp, strconv.FormatInt(now.UnixNano(), 10))
	return m
}

// messageFromNATS restores the envelope written by newNATSMsg. Messages
// published by other clients without headers keep their subject as topic.
func messageFromNATS(m *nats.Msg) *domain.Message {
	msg := &domain.Message{
		ID:       m.Header.Get(nats.MsgIdHdr),
		Topic:    m.Header.Get(headerTopic),
		Payload:  m.Data,
		Metadata: make(map[string]string),
	}
	if msg.Topic == "" {
		msg.Topic = m.Subject
	}
	if ts, err := strconv.ParseInt(m.Header.Get(headerTimestamp), 10, 64); err == nil {
		msg.Timestamp = ts
	}
	return msg
}

// Publish sends a case event to the topic's subject.
func (b *NATSBus) Publish(ctx context.Context, topic string, payload []byte) error {
	m := newNATSMsg(natsSubject(b.prefix, topic), topic, payload, time.Now())
	if err := b.conn.PublishMsg(m); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic, joining the queue group when
// one is configured.
func (b *NATSBus) Subscribe(ctx context.Context, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	subject := natsSubject(b.prefix, topic)
	cb := func(m *nats.Msg) {
		msg := messageFromNATS(m)
		if err := handler(ctx, msg); err != nil {
			slog.Error("handler error",
				"subject", m.Subject,
				"message_id", msg.ID,
				"error", err,
			)
		}
	}

	var natsSub *nats.Subscription
	var err error
	if b.queue != "" {
		natsSub, err = b.conn.QueueSubscribe(subject, b.queue, cb)
	} else {
		natsSub, err = b.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	sub := &natsSubscription{
		id:    uuid.New().String(),
		topic: topic,
		bus:   b,
		sub:   natsSub,
	}
	b.mu.Lock()
	b.subscriptions[sub.id] = sub
	b.mu.Unlock()
	return sub, nil
}

// Ping flushes the connection to confirm the server is reachable.
func (b *NATSBus) Ping(ctx context.Context) error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}
	return b.conn.FlushWithContext(ctx)
}

// Close unsubscribes everything and closes the connection.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	subs := b.subscriptions
	b.subscriptions = make(map[string]*natsSubscription)
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.sub.Unsubscribe()
	}
	b.conn.Close()
	return nil
}

// Unsubscribe stops delivery and forgets the subscription.
func (s *natsSubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subscriptions, s.id)
	s.bus.mu.Unlock()
	return s.sub.Unsubscribe()
}

// Topic returns the subscribed topic.
func (s *natsSubscription) Topic() string {
	return s.topic
}
