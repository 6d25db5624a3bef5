// Package sensor samples the temperature/humidity sensor and forwards
// readings to the automation server.
package sensor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hausnet/irbridge/pkg/logger"
	"github.com/hausnet/irbridge/pkg/metrics"
)

// Reading is one climate sample.
type Reading struct {
	TemperatureC float64
	Humidity     float64
}

// Sensor is the external temperature/humidity driver.
type Sensor interface {
	Read() (Reading, error)
}

// Forwarder pushes readings upstream. Values are pre-formatted; failed
// readings use the "-" placeholder.
type Forwarder interface {
	ForwardSensor(temperature, humidity string) error
}

// CounterForwarder pushes the received/transferred counters.
type CounterForwarder interface {
	ForwardCounters(received, transferred uint64) error
}

// Suppression thresholds: a reading within these deltas of the last
// forwarded one is not pushed again before MaxSilence elapses.
const (
	TemperatureDelta = 0.2
	HumidityDelta    = 0.5

	// MaxSilence is the longest the server goes without an update, even
	// when readings are unchanged or the sensor keeps failing.
	MaxSilence = 600000 * time.Millisecond
)

// Placeholder is forwarded in place of a failed reading.
const Placeholder = "-"

// Monitor periodically samples a sensor and forwards readings with
// delta-based suppression.
type Monitor struct {
	mu sync.Mutex

	sensor Sensor
	fwd    Forwarder
	log    *logger.Logger

	last        Reading
	haveLast    bool
	lastSent    Reading
	haveSent    bool
	lastForward time.Time

	counterSrc func() (received, transferred uint64)
	counterFwd CounterForwarder

	cron *cron.Cron
	now  func() time.Time
}

// NewMonitor creates a sensor monitor.
func NewMonitor(s Sensor, fwd Forwarder, log *logger.Logger) *Monitor {
	return &Monitor{
		sensor: s,
		fwd:    fwd,
		log:    log,
		now:    time.Now,
	}
}

// ReportCounters attaches a counter source. Counters ride along with every
// sensor push so the server's activity view stays current.
func (m *Monitor) ReportCounters(src func() (received, transferred uint64), fwd CounterForwarder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterSrc = src
	m.counterFwd = fwd
}

// Start schedules sampling at the given interval.
func (m *Monitor) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	m.mu.Lock()
	if m.lastForward.IsZero() {
		// Silence is measured from boot until the first push.
		m.lastForward = m.now()
	}
	m.mu.Unlock()

	m.cron = cron.New()
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", interval), m.Sample); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop cancels scheduled sampling.
func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Last returns the most recent successful reading, if any.
func (m *Monitor) Last() (Reading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.haveLast
}

// Sample takes one reading and forwards it when it differs enough from the
// last forwarded one, or when the server has not heard from us for
// MaxSilence. A failed read keeps the cached values; only the forced push
// fires then, with placeholders.
func (m *Monitor) Sample() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	reading, err := m.sensor.Read()
	if err != nil {
		m.log.Warn("sensor read failed", "error", err)
		metrics.IncError("sensor_read")
		if m.silenceExceeded(now) {
			m.forward(Placeholder, Placeholder, now)
		}
		return
	}

	m.last = reading
	m.haveLast = true
	metrics.SetClimate(reading.TemperatureC, reading.Humidity)

	changed := !m.haveSent ||
		math.Abs(reading.TemperatureC-m.lastSent.TemperatureC) >= TemperatureDelta ||
		math.Abs(reading.Humidity-m.lastSent.Humidity) >= HumidityDelta

	if !changed && !m.silenceExceeded(now) {
		return
	}

	m.forward(formatValue(reading.TemperatureC), formatValue(reading.Humidity), now)
	m.lastSent = reading
	m.haveSent = true
}

func (m *Monitor) silenceExceeded(now time.Time) bool {
	if m.lastForward.IsZero() {
		return false
	}
	return now.Sub(m.lastForward) >= MaxSilence
}

func (m *Monitor) forward(temperature, humidity string, now time.Time) {
	if err := m.fwd.ForwardSensor(temperature, humidity); err != nil {
		m.log.Warn("sensor forward failed", "error", err)
	}
	if m.counterSrc != nil && m.counterFwd != nil {
		received, transferred := m.counterSrc()
		if err := m.counterFwd.ForwardCounters(received, transferred); err != nil {
			m.log.Warn("counter forward failed", "error", err)
		}
	}
	m.lastForward = now
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
