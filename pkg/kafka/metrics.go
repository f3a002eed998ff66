package kafka

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "setupscanner"

// register adds c to reg, reusing the existing collector when an identical one is already there.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

type consumerMetrics struct {
	queueDepth    *prometheus.GaugeVec
	queueFullness *prometheus.GaugeVec
	handleLatency *prometheus.HistogramVec
	handled       *prometheus.CounterVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	return &consumerMetrics{
		queueDepth: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: metricsNamespace, Name: "kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		)),
		queueFullness: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: metricsNamespace, Name: "kafka_consumer_queue_fullness", Help: "Queue utilization ratio (len/cap)"},
			[]string{"topic"},
		)),
		handleLatency: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: metricsNamespace, Name: "kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)),
		handled: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)),
	}
}

type producerMetrics struct {
	msgsTotal   *prometheus.CounterVec
	errsTotal   *prometheus.CounterVec
	bytesTotal  *prometheus.CounterVec
	latencyHist *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	return &producerMetrics{
		msgsTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "kafka_producer_messages_total", Help: "Total messages published to Kafka"},
			[]string{"topic", "compression", "result"},
		)),
		errsTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "kafka_producer_errors_total", Help: "Total producer errors"},
			[]string{"topic"},
		)),
		bytesTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "kafka_producer_bytes_total", Help: "Total payload bytes published"},
			[]string{"topic", "compression"},
		)),
		latencyHist: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: metricsNamespace, Name: "kafka_producer_publish_seconds", Help: "Publish latency", Buckets: prometheus.DefBuckets},
			[]string{"topic"},
		)),
	}
}
