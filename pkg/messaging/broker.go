package messaging

import (
	"context"
	"encoding/json"
	"time"
)

// Broker publishes messages on named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Message is the envelope published for every domain event.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ChannelPrefix namespaces event channels, e.g. "shelter.stay.opened".
const ChannelPrefix = "shelter."

func Channel(eventType string) string {
	return ChannelPrefix + eventType
}
