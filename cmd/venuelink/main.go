package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/venuelink/venuelink/internal/coinbase"
	"github.com/venuelink/venuelink/internal/connector"
	"github.com/venuelink/venuelink/internal/messaging"
	"github.com/venuelink/venuelink/internal/protocol"
	"github.com/venuelink/venuelink/internal/settings"
	"github.com/venuelink/venuelink/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the settings file")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := settings.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	zapLogger, err := logger.New(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	sink, closeSink := buildSink(cfg, zapLogger)
	defer closeSink()

	conn, err := coinbase.New(cfg, sink, zapLogger.Named("coinbase"))
	if err != nil {
		zapLogger.Fatal("Failed to build coinbase connector", zap.Error(err))
	}

	// Watch the outbound flow for the disconnect ack so shutdown can wait
	// for it; Close drops whatever is still queued.
	disconnected := make(chan struct{})
	var ackOnce sync.Once
	watched := connector.SinkFunc(func(msg protocol.Message) {
		if msg.MessageKind() == protocol.KindDisconnected {
			ackOnce.Do(func() { close(disconnected) })
		}
		sink.Emit(msg)
	})

	proc := connector.NewProcessor(conn.Adapter().Handle, watched, zapLogger.Named("processor"))
	if err := proc.Configure(cfg.MaxParallelMessages); err != nil {
		zapLogger.Fatal("Invalid processor configuration", zap.Error(err))
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				zapLogger.Error("Metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	proc.Enqueue(&protocol.ConnectMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindConnect},
	})

	zapLogger.Info("venuelink connector started",
		zap.Int("max_parallel_messages", cfg.MaxParallelMessages),
		zap.String("sink", cfg.Sink.Backend))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	if proc.Enqueue(&protocol.DisconnectMessage{
		BaseMessage: protocol.BaseMessage{Kind: protocol.KindDisconnect},
	}) {
		select {
		case <-disconnected:
		case <-time.After(10 * time.Second):
			zapLogger.Warn("no disconnect ack before shutdown deadline")
		}
	}
	proc.Close()
}

// buildSink constructs the outbound sink selected in the settings. The
// default channel sink gets a consumer goroutine that logs every outbound
// message, which keeps a standalone run observable.
func buildSink(cfg *settings.Settings, zapLogger *zap.Logger) (connector.Sink, func()) {
	switch cfg.Sink.Backend {
	case "kafka":
		kafkaCfg := messaging.DefaultKafkaSinkConfig()
		kafkaCfg.Brokers = cfg.Sink.KafkaBrokers
		kafkaCfg.Topic = cfg.Sink.KafkaTopic
		sink := messaging.NewKafkaSink(kafkaCfg, zapLogger.Named("kafka"))
		return sink, func() { _ = sink.Close() }
	case "redis":
		sink := messaging.NewRedisSink(cfg.Sink.RedisAddr, cfg.Sink.RedisChannel, zapLogger.Named("redis"))
		return sink, func() { _ = sink.Close() }
	default:
		sink := messaging.NewChannelSink(4096, zapLogger.Named("sink"))
		go func() {
			for msg := range sink.Messages() {
				zapLogger.Info("outbound",
					zap.String("kind", msg.MessageKind().String()),
					zap.Int64("transaction_id", msg.TransactionID()))
			}
		}()
		return sink, func() {}
	}
}
