// Package metrics exposes Prometheus instrumentation for the irbridge daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	ReceivedCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irbridge_received_codes_total",
		Help: "The total number of decoded IR codes received",
	}, []string{"protocol"})

	SentCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irbridge_sent_codes_total",
		Help: "The total number of IR codes transmitted",
	}, []string{"protocol", "mode"})

	ForwardedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irbridge_forwarded_events_total",
		Help: "The total number of events pushed to the automation server",
	}, []string{"kind", "status"})

	ErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irbridge_errors_total",
		Help: "The total number of errors by type",
	}, []string{"type"})

	// Gauges
	Temperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irbridge_temperature_celsius",
		Help: "Last temperature reading from the climate sensor",
	})

	Humidity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irbridge_humidity_percent",
		Help: "Last relative humidity reading from the climate sensor",
	})
)

// Transmit mode constants
const (
	ModeProtocol = "protocol"
	ModeRaw      = "raw"
)

// Forward status constants
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// IncReceived increments the received-code counter.
func IncReceived(protocol string) {
	ReceivedCodes.WithLabelValues(protocol).Inc()
}

// IncSent increments the sent-code counter.
func IncSent(protocol, mode string) {
	SentCodes.WithLabelValues(protocol, mode).Inc()
}

// IncForwarded increments the forwarded-event counter.
func IncForwarded(kind, status string) {
	ForwardedEvents.WithLabelValues(kind, status).Inc()
}

// IncError increments the error counter.
func IncError(errType string) {
	ErrorCount.WithLabelValues(errType).Inc()
}

// SetClimate records the last sensor readings.
func SetClimate(temperature, humidity float64) {
	Temperature.Set(temperature)
	Humidity.Set(humidity)
}
