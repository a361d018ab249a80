package domain

import (
	"context"
)

// EventBus carries case lifecycle events.
// Supports Go channels (single process) or NATS (distributed).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings
	ChannelBufferSize int

	// NATS settings
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds

	// NATSSubjectPrefix is prepended to every topic, e.g. "prod".
	NATSSubjectPrefix string

	// NATSQueueGroup load-balances each event across subscribers in the
	// group. Empty means every subscriber receives every event.
	NATSQueueGroup string
}

// Lifecycle topics.
const (
	TopicCaseIntake      = "cybertriage.case.intake"
	TopicCaseTriaged     = "cybertriage.case.triaged"
	TopicCaseRouted      = "cybertriage.case.routed"
	TopicCaseUpdated     = "cybertriage.case.updated"
	TopicReviewRequested = "cybertriage.case.review_requested"
)

// CaseEvent is the payload published on lifecycle topics.
type CaseEvent struct {
	CaseID    string `json:"caseId"`
	Status    string `json:"status"`
	Category  string `json:"category,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
