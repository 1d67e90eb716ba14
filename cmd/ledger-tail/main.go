package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/segmentio/kafka-go"

	"shiptrack/internal/config"
)

// ledger-tail follows the ledger broadcast topic and prints each
// transaction, one block per message. Useful for watching a shipment's
// transaction stream without querying the store.
func main() {
	cfg := config.Load()
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required for ledger-tail")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        "ledger-tail",
		Topic:          cfg.Kafka.Topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("error closing kafka reader: %v", err)
		}
	}()

	log.Printf("tailing ledger topic %q on brokers %v", cfg.Kafka.Topic, cfg.Kafka.Brokers)

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("error reading message: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		fmt.Printf("%s  shipment=%s  %s\n",
			m.Time.Format(time.RFC3339), string(m.Key), string(m.Value))
	}
}
