package relay

import "github.com/prometheus/client_golang/prometheus"

// Prometheus relay metrics.
var (
	relayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synapse_relay_requests_total",
			Help: "Total chat relay requests by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	relayStreamChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "synapse_relay_stream_chunks_total",
			Help: "Total streamed content chunks forwarded to clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(relayRequestsTotal)
	prometheus.MustRegister(relayStreamChunks)
}
