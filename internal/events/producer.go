package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Publisher interface defines the contract for publishing seat events
type Publisher interface {
	PublishSeatEvent(ctx context.Context, event *SeatEvent) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaPublisherConfig contains configuration for the Kafka seat event publisher
type KafkaPublisherConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaPublisherConfig returns a default publisher configuration
func DefaultKafkaPublisherConfig() *KafkaPublisherConfig {
	return &KafkaPublisherConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "seat-events",
		RetryMax:         3,
		TimeoutMs:        10000,             // 10 seconds
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// KafkaPublisher handles publishing seat events to Kafka
type KafkaPublisher struct {
	producer sarama.SyncProducer
	config   *KafkaPublisherConfig
}

// NewKafkaPublisher creates a new Kafka seat event publisher
func NewKafkaPublisher(config *KafkaPublisherConfig) (Publisher, error) {
	saramaConfig := sarama.NewConfig()

	// Producer configuration
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	// Enable idempotent producer
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps a chart's events on one partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("📤 Kafka seat event publisher created successfully")
	return &KafkaPublisher{
		producer: producer,
		config:   config,
	}, nil
}

// PublishSeatEvent publishes a single seat event to Kafka
func (kp *KafkaPublisher) PublishSeatEvent(ctx context.Context, event *SeatEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal seat event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     kp.config.Topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   kp.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := kp.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send seat event to Kafka: %w", err)
	}

	log.Printf("📤 Seat event published - Topic: %s, Partition: %d, Offset: %d, Type: %s, Chart: %s",
		kp.config.Topic, partition, offset, event.Type, event.ChartID)

	return nil
}

// createHeaders creates Kafka headers for seat events
func (kp *KafkaPublisher) createHeaders(event *SeatEvent) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("chart_id"), Value: []byte(event.ChartID)},
		{Key: []byte("version"), Value: []byte("1.0")},
		{Key: []byte("producer"), Value: []byte("seating-engine")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}

	if event.HoldID != "" {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("hold_id"),
			Value: []byte(event.HoldID),
		})
	}

	if event.SessionID != "" {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("session_id"),
			Value: []byte(event.SessionID),
		})
	}

	return headers
}

// Close closes the Kafka producer
func (kp *KafkaPublisher) Close() error {
	if kp.producer != nil {
		err := kp.producer.Close()
		if err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
		log.Printf("📤 Kafka seat event publisher closed")
	}
	return nil
}

// HealthCheck performs a health check on the Kafka publisher
func (kp *KafkaPublisher) HealthCheck(ctx context.Context) error {
	if kp.producer == nil {
		return fmt.Errorf("health check failed - producer is nil")
	}
	if kp.config.Topic == "" {
		return fmt.Errorf("health check failed - topic not configured")
	}
	return nil
}

// NoopPublisher is used when Kafka is disabled. All publishes succeed
// without doing anything, so callers never need to branch on whether
// eventing is on.
type NoopPublisher struct{}

func NewNoopPublisher() Publisher {
	return &NoopPublisher{}
}

func (np *NoopPublisher) PublishSeatEvent(ctx context.Context, event *SeatEvent) error {
	return nil
}

func (np *NoopPublisher) Close() error {
	return nil
}

func (np *NoopPublisher) HealthCheck(ctx context.Context) error {
	return nil
}
