package messaging

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/protocol"
)

// RedisSink publishes outbound messages on a Redis pub/sub channel. Redis is
// the low-latency option for consumers in the same deployment; Kafka is the
// durable one.
type RedisSink struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisSink creates a Redis-backed sink.
func NewRedisSink(addr, channel string, logger *zap.Logger) *RedisSink {
	return &RedisSink{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		timeout: 1 * time.Second,
		logger:  logger,
	}
}

// Emit implements the sink contract.
func (s *RedisSink) Emit(msg protocol.Message) {
	data, ok := marshalEnvelope(msg, s.logger)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		s.logger.Error("redis publish failed",
			zap.String("channel", s.channel),
			zap.String("kind", msg.MessageKind().String()),
			zap.Error(err))
	}
}

// Close releases the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
