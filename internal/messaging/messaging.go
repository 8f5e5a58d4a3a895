package messaging

import "context"

// Topics the backend publishes to.
const (
	TopicOrdersPlaced       = "orders.placed"
	TopicOrderStatusChanged = "orders.status_changed"
	TopicStockChanged       = "catalog.stock_changed"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }
