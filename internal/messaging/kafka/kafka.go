package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
)

// messageReader is the part of *kafkaGo.Reader the consume loop uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafkaGo.Message, error)
	Close() error
}

// Broker publishes and consumes JSON events with segmentio/kafka-go.
type Broker struct {
	writer     *kafkaGo.Writer
	newReader  func(topic, groupID string) messageReader
	newBackoff func() *messaging.Backoff
}

// NewKafkaBroker creates a Broker. A single writer is shared by all topics.
func NewKafkaBroker(brokers []string) *Broker {
	return &Broker{
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
		},
		newReader: func(topic, groupID string) messageReader {
			return kafkaGo.NewReader(kafkaGo.ReaderConfig{
				Brokers: brokers,
				Topic:   topic,
				GroupID: groupID,
			})
		},
		newBackoff: messaging.NewBackoff,
	}
}

func (k *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := k.writer.WriteMessages(ctx, kafkaGo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", topic, err)
	}
	return nil
}

// Consume reads messages in a loop and calls handler for each one. It blocks until ctx is cancelled.
// Read errors are retried with a growing delay.
func (k *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := k.newReader(topic, groupID)
	defer reader.Close()

	backoff := k.newBackoff()
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			slog.Error("Error reading message", "topic", topic, "err", err)
			if !backoff.Wait(ctx) {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			continue
		}
		backoff.Reset()

		if err := handler(ctx, msg.Value); err != nil {
			slog.Error("Error handling message", "topic", topic, "offset", msg.Offset, "err", err)
		}
	}
}

func (k *Broker) Close() error {
	return k.writer.Close()
}
