package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"shiptrack/internal/ledger"
)

// Broadcaster mirrors ledger transactions onto a Kafka topic so that
// external listeners (see cmd/ledger-tail) can follow the transaction
// stream without querying the store.
type Broadcaster struct {
	writer *kafka.Writer
}

// NewBroadcaster creates a broadcaster writing to the given brokers
// and topic.
func NewBroadcaster(brokers []string, topic string) *Broadcaster {
	return &Broadcaster{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
	}
}

var _ ledger.Broadcaster = (*Broadcaster)(nil)

// Broadcast publishes one transaction keyed by the ledger key, so all
// transactions of one shipment land on the same partition in order.
func (b *Broadcaster) Broadcast(ctx context.Context, key, payload string) error {
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: []byte(payload),
	})
	if err != nil {
		return fmt.Errorf("broadcast ledger transaction: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (b *Broadcaster) Close() error {
	return b.writer.Close()
}
