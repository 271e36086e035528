package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MessagesProcessed counts processed protocol messages by kind and terminal outcome
// (success, error, finished).
var MessagesProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "venuelink_messages_processed_total",
		Help: "Total number of protocol messages processed by the connector",
	},
	[]string{"kind", "outcome"},
)

// HandlerLatency records latency distribution for message handler invocations
var HandlerLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "venuelink_handler_latency_seconds",
		Help:    "Latency in seconds of per-kind handler invocations",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// Processor queue metrics
var (
	PendingMessages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuelink_pending_messages",
			Help: "Number of messages waiting in the processor queue",
		},
	)

	InFlightMessages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuelink_in_flight_messages",
			Help: "Number of concurrently running data message handlers",
		},
	)

	RejectedMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "venuelink_rejected_messages_total",
			Help: "Number of messages rejected at enqueue",
		},
	)
)

// Venue gateway metrics
var (
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuelink_gateway_requests_total",
			Help: "Total number of venue gateway calls by operation and result",
		},
		[]string{"op", "result"},
	)

	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venuelink_gateway_latency_seconds",
			Help:    "Latency in seconds of venue gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(MessagesProcessed, HandlerLatency)
	prometheus.MustRegister(PendingMessages, InFlightMessages, RejectedMessages)
	prometheus.MustRegister(GatewayRequests, GatewayLatency)
}
