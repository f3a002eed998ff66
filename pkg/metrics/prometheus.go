package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SetupScanner/internal/domain/models"
)

const namespace = "setupscanner"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	streamMessages *prometheus.CounterVec
	stateChanges   *prometheus.CounterVec
	streamState    *prometheus.GaugeVec
	reconnects     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	scans          *prometheus.CounterVec
}

var trackedStates = []models.ConnectionState{
	models.StateDisconnected,
	models.StateConnecting,
	models.StateConnected,
	models.StateReconnecting,
	models.StateFailed,
	models.StateError,
}

// New creates a recorder whose collectors are registered on reg.
// A nil reg falls back to the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		streamMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_messages_total",
				Help:      "Total number of stream messages received",
			},
			[]string{"symbol"},
		),
		stateChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_state_changes_total",
				Help:      "Connection state transitions per symbol",
			},
			[]string{"symbol", "state"},
		),
		streamState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_state",
				Help:      "1 for the current connection state of a symbol, 0 otherwise",
			},
			[]string{"symbol", "state"},
		),
		reconnects: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_reconnects_total",
				Help:      "Reconnect attempts scheduled per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		scans: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Completed scans by symbol and grade",
			},
			[]string{"symbol", "grade"},
		),
	}
}

// RecordStreamMessage counts one raw stream message.
func (r *Recorder) RecordStreamMessage(symbol string) {
	r.streamMessages.WithLabelValues(symbol).Inc()
}

// RecordStateChange counts the transition and flips the state gauge.
func (r *Recorder) RecordStateChange(symbol string, state models.ConnectionState) {
	r.stateChanges.WithLabelValues(symbol, string(state)).Inc()
	for _, s := range trackedStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.streamState.WithLabelValues(symbol, string(s)).Set(v)
	}
}

func (r *Recorder) RecordReconnect(symbol string) {
	r.reconnects.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordScan(symbol, grade string) {
	r.scans.WithLabelValues(symbol, grade).Inc()
}
