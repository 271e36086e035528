// Package messaging provides outbound sink implementations that carry
// connector responses and events back toward the message bus. Every sink is
// safe for concurrent Emit calls from in-flight handlers.
package messaging

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/protocol"
)

// Envelope is the JSON wire form of an outbound message.
type Envelope struct {
	EventID       string           `json:"event_id"`
	Kind          protocol.Kind    `json:"kind"`
	TransactionID int64            `json:"transaction_id,omitempty"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Payload       protocol.Message `json:"payload"`
}

// NewEnvelope wraps an outbound message for publishing.
func NewEnvelope(msg protocol.Message) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		Kind:          msg.MessageKind(),
		TransactionID: msg.TransactionID(),
		EmittedAt:     time.Now().UTC(),
		Payload:       msg,
	}
}

// partitionKey keys published envelopes so all events of one transaction
// land on one partition.
func partitionKey(msg protocol.Message) string {
	if tx := msg.TransactionID(); tx != 0 {
		return strconv.FormatInt(tx, 10)
	}
	return msg.MessageKind().String()
}

func marshalEnvelope(msg protocol.Message, logger *zap.Logger) ([]byte, bool) {
	data, err := json.Marshal(NewEnvelope(msg))
	if err != nil {
		logger.Error("failed to marshal outbound message",
			zap.String("kind", msg.MessageKind().String()),
			zap.Error(err))
		return nil, false
	}
	return data, true
}

// ChannelSink delivers outbound messages to an in-process channel. Sends are
// non-blocking: when the consumer falls behind the message is dropped and
// counted in the log rather than stalling a handler.
type ChannelSink struct {
	logger *zap.Logger
	ch     chan protocol.Message
}

// NewChannelSink creates a channel sink with the given buffer capacity.
func NewChannelSink(capacity int, logger *zap.Logger) *ChannelSink {
	if capacity <= 0 {
		capacity = 1024
	}
	return &ChannelSink{
		logger: logger,
		ch:     make(chan protocol.Message, capacity),
	}
}

// Messages returns the consumer side of the sink.
func (s *ChannelSink) Messages() <-chan protocol.Message {
	return s.ch
}

// Emit implements the sink contract.
func (s *ChannelSink) Emit(msg protocol.Message) {
	select {
	case s.ch <- msg:
	default:
		s.logger.Warn("outbound channel full, dropping message",
			zap.String("kind", msg.MessageKind().String()),
			zap.Int64("transaction_id", msg.TransactionID()))
	}
}
