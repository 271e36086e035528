package messaging

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewKafkaSink(t *testing.T) {
	cfg := DefaultKafkaSinkConfig()
	cfg.Brokers = []string{"broker-1:9092"}
	cfg.Topic = "events.test"
	cfg.WriteTimeout = 2 * time.Second

	sink := NewKafkaSink(cfg, zaptest.NewLogger(t))
	defer sink.Close()

	assert.Equal(t, "events.test", sink.writer.Topic)
	assert.True(t, sink.writer.Async)
	assert.IsType(t, &kafka.Hash{}, sink.writer.Balancer)

	// Async writers report delivery outcome through the completion callback;
	// without one, failures would vanish.
	require.NotNil(t, sink.writer.Completion)
	sink.writer.Completion([]kafka.Message{{}}, assert.AnError)
}
