package messaging

import (
	"context"
	"fmt"

	"bar-booking/pkg/utils"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Producer is a thin synchronous wrapper around the franz-go client,
// used by the outbox worker to publish lifecycle events.
type Producer struct {
	client *kgo.Client
	topic  string
	log    *zap.Logger
}

func NewProducer(config utils.KafkaConfig, log *zap.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Producer{
		client: client,
		topic:  config.Topic,
		log:    log.With(zap.String("component", "kafka-producer")),
	}, nil
}

// Publish sends one record and waits for the broker ack. The outbox
// worker needs the synchronous result to mark the row published.
func (p *Producer) Publish(ctx context.Context, key string, payload []byte) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: payload,
	}

	results := p.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		p.log.Error("Failed to publish record",
			zap.Error(err),
			zap.String("key", key),
		)
		return fmt.Errorf("publish record %s: %w", key, err)
	}

	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
