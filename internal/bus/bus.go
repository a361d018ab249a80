package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// New creates a new event bus based on configuration.
// "channel" keeps events inside the process; "nats" fans them out to
// other processes.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "", "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}

// PublishEvent encodes a case event and publishes it on topic.
func PublishEvent(ctx context.Context, b domain.EventBus, topic string, evt domain.CaseEvent) error {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixNano()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.Publish(ctx, topic, payload)
}

// DecodeEvent decodes the case event carried by msg.
func DecodeEvent(msg *domain.Message) (domain.CaseEvent, error) {
	var evt domain.CaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return evt, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return evt, nil
}
