// Package watermill publishes and consumes events through Watermill's Kafka transport (Sarama underneath).
package watermill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
)

// partitionKeyMetadata carries the event key so related events land on one partition.
const partitionKeyMetadata = "partition_key"

// Broker wraps a Watermill Kafka publisher and creates subscribers on demand.
type Broker struct {
	brokers       []string
	logger        watermill.LoggerAdapter
	publisher     *kafka.Publisher
	newSubscriber func(groupID string) (message.Subscriber, error)
	newBackoff    func() *messaging.Backoff
}

// NewBroker connects a synchronous publisher to brokers.
func NewBroker(brokers []string) (*Broker, error) {
	logger := watermill.NewSlogLogger(slog.Default())

	saramaCfg := kafka.DefaultSaramaSyncPublisherConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             kafka.NewWithPartitioningMarshaler(partitionKey),
		OverwriteSaramaConfig: saramaCfg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill publisher: %w", err)
	}

	b := &Broker{brokers: brokers, logger: logger, publisher: publisher, newBackoff: messaging.NewBackoff}
	b.newSubscriber = b.kafkaSubscriber
	return b, nil
}

func (b *Broker) kafkaSubscriber(groupID string) (message.Subscriber, error) {
	return kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               b.brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		ConsumerGroup:         groupID,
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
	}, b.logger)
}

func partitionKey(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(partitionKeyMetadata), nil
}

func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(partitionKeyMetadata, key)
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", topic, err)
	}
	return nil
}

// Consume subscribes to topic as groupID and calls handler for each message until ctx is cancelled.
// Messages are acknowledged after the handler runs; handler errors are logged, not redelivered.
// A failed or dropped subscription is re-established with a growing delay.
func (b *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	backoff := b.newBackoff()
	for {
		err := b.consumeOnce(ctx, topic, groupID, backoff, handler)
		if ctx.Err() != nil {
			slog.Info("Consumer shutting down", "topic", topic)
			return
		}
		if err != nil {
			slog.Error("Subscription failed, retrying", "topic", topic, "err", err)
		} else {
			slog.Warn("Subscription closed, reconnecting", "topic", topic)
		}
		if !backoff.Wait(ctx) {
			slog.Info("Consumer shutting down", "topic", topic)
			return
		}
	}
}

// consumeOnce runs one subscription until its message channel closes.
func (b *Broker) consumeOnce(
	ctx context.Context,
	topic, groupID string,
	backoff *messaging.Backoff,
	handler func(ctx context.Context, payload []byte) error,
) error {
	subscriber, err := b.newSubscriber(groupID)
	if err != nil {
		return fmt.Errorf("failed to create watermill subscriber: %w", err)
	}
	defer subscriber.Close()

	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	backoff.Reset()

	for msg := range messages {
		if err := handler(ctx, msg.Payload); err != nil {
			slog.Error("Error handling message", "topic", topic, "message_uuid", msg.UUID, "err", err)
		}
		msg.Ack()
	}
	return nil
}

func (b *Broker) Close() error {
	return b.publisher.Close()
}
