package messaging

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/protocol"
)

// KafkaSinkConfig contains configuration for the Kafka outbound sink.
type KafkaSinkConfig struct {
	Brokers      []string      `json:"brokers"`
	Topic        string        `json:"topic"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BatchTimeout time.Duration `json:"batch_timeout"`
	RequiredAcks int           `json:"required_acks"`
}

// DefaultKafkaSinkConfig returns defaults suitable for a single connector
// process.
func DefaultKafkaSinkConfig() KafkaSinkConfig {
	return KafkaSinkConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "venuelink.events",
		WriteTimeout: 1 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: 1,
	}
}

// KafkaSink publishes outbound messages as JSON envelopes to a Kafka topic,
// keyed by transaction id so per-transaction event order survives
// partitioning.
type KafkaSink struct {
	config KafkaSinkConfig
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaSink creates a Kafka-backed sink. The writer is asynchronous, so
// delivery failures surface through its completion callback rather than the
// WriteMessages return value.
func NewKafkaSink(config KafkaSinkConfig, logger *zap.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: config.WriteTimeout,
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Async:        true,
	}
	writer.Completion = func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		logger.Error("kafka publish failed",
			zap.String("topic", config.Topic),
			zap.Int("messages", len(messages)),
			zap.Error(err))
	}
	return &KafkaSink{
		config: config,
		writer: writer,
		logger: logger,
	}
}

// Emit implements the sink contract. Publish failures are logged, not
// surfaced: the sink has no error channel back into the processor.
func (s *KafkaSink) Emit(msg protocol.Message) {
	data, ok := marshalEnvelope(msg, s.logger)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()

	// Async mode: this only fails when the message cannot be queued locally.
	err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(partitionKey(msg)),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		s.logger.Error("kafka enqueue failed",
			zap.String("topic", s.config.Topic),
			zap.String("kind", msg.MessageKind().String()),
			zap.Error(err))
	}
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
