// Package publisher streams recorded activity to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"keystone/internal/activity/models"
)

// KafkaPublisher produces one JSON record per activity entry, keyed by wallet
// so a wallet's entries stay ordered within a partition.
type KafkaPublisher struct {
	client            *kgo.Client
	topic             string
	logger            *slog.Logger
	partitions        int32
	replicationFactor int16
	produceTimeout    time.Duration
}

type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) { p.logger = logger }
}

// WithTopicLayout sets partitions and replication for topic creation. -1 uses
// the broker default.
func WithTopicLayout(partitions int32, replicationFactor int16) Option {
	return func(p *KafkaPublisher) {
		p.partitions = partitions
		p.replicationFactor = replicationFactor
	}
}

// NewKafkaPublisher connects to brokers and makes sure topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic, clientID string, opts ...Option) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	p := &KafkaPublisher{
		topic:             topic,
		logger:            slog.Default(),
		partitions:        -1,
		replicationFactor: -1,
		produceTimeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p.client = client

	if err := p.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *KafkaPublisher) ensureTopic(ctx context.Context) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopics(ctx, p.partitions, p.replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create kafka topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create kafka topic %s: %w", r.Topic, r.Err)
		}
	}
	p.logger.InfoContext(ctx, "activity topic ready", "topic", p.topic)
	return nil
}

// Publish produces a and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, a models.Activity) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.produceTimeout)
	defer cancel()

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(a.WalletAddress.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(a.Kind)},
		},
		Timestamp: a.Timestamp,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce activity %s: %w", a.ID, err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
