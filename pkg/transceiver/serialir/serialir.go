// Package serialir drives a serial-attached IR transceiver dongle. The
// dongle owns all waveform generation and decoding; this driver speaks its
// newline-delimited text protocol:
//
//	device → host:  RX <type> <value> <bits> <addr> <cmd> <repeat> <overflow> [ticks,...]
//	                TH <temperature> <humidity>
//	host → device:  TX <protocol> <value> <bits> <addr>
//	                TXRAW <khz> <us,...>
//	                RESUME
//	                SENSOR
//
// Numeric RX fields are hexadecimal except <type>, <repeat> and <overflow>.
package serialir

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/hausnet/irbridge/pkg/ircode"
	"github.com/hausnet/irbridge/pkg/logger"
	"github.com/hausnet/irbridge/pkg/sensor"
)

// Common errors.
var (
	ErrPortNotOpen   = errors.New("serial port not open")
	ErrSensorTimeout = errors.New("sensor reply timeout")
)

// Config holds serial link settings.
type Config struct {
	// Port is the serial port path (e.g., "/dev/ttyUSB0").
	Port string

	// BaudRate is the link speed.
	BaudRate int

	// SensorTimeout bounds the wait for a TH reply.
	SensorTimeout time.Duration
}

// DefaultConfig returns default link settings.
func DefaultConfig() Config {
	return Config{
		BaudRate:      115200,
		SensorTimeout: 2 * time.Second,
	}
}

// Device is an open transceiver link. It implements the engine's Receiver,
// the registry's Emitter and the sensor driver contract.
type Device struct {
	mu   sync.Mutex
	cfg  Config
	port serial.Port
	log  *logger.Logger

	decodes chan *ircode.DecodeResult
	climate chan sensor.Reading
	done    chan struct{}
}

// Open opens the serial port and starts the read loop.
func Open(cfg Config, log *logger.Logger) (*Device, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultConfig().BaudRate
	}
	if cfg.SensorTimeout <= 0 {
		cfg.SensorTimeout = DefaultConfig().SensorTimeout
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}

	d := &Device{
		cfg:     cfg,
		port:    port,
		log:     log,
		decodes: make(chan *ircode.DecodeResult, 16),
		climate: make(chan sensor.Reading, 1),
		done:    make(chan struct{}),
	}

	go d.readLoop()
	return d, nil
}

// Close stops the read loop and closes the port.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}
	close(d.done)
	err := d.port.Close()
	d.port = nil
	return err
}

// Poll returns one pending decode, without blocking.
func (d *Device) Poll() (*ircode.DecodeResult, bool) {
	select {
	case res := <-d.decodes:
		return res, true
	default:
		return nil, false
	}
}

// Resume re-arms the dongle's decoder.
func (d *Device) Resume() {
	if err := d.writeLine("RESUME"); err != nil {
		d.log.Warn("resume failed", "error", err)
	}
}

// Emit transmits one protocol-framed code.
func (d *Device) Emit(protocol string, value uint64, bits int, address uint64) error {
	return d.writeLine(fmt.Sprintf("TX %s %X %d %X", protocol, value, bits, address))
}

// EmitRaw replays mark/space durations at the given carrier frequency.
func (d *Device) EmitRaw(samples []int, khz int) error {
	parts := make([]string, len(samples))
	for i, v := range samples {
		parts[i] = strconv.Itoa(v)
	}
	return d.writeLine(fmt.Sprintf("TXRAW %d %s", khz, strings.Join(parts, ",")))
}

// Read queries the dongle's climate sensor and waits for the reply.
func (d *Device) Read() (sensor.Reading, error) {
	// Drain a stale reply left over from a timed-out query.
	select {
	case <-d.climate:
	default:
	}

	if err := d.writeLine("SENSOR"); err != nil {
		return sensor.Reading{}, err
	}

	select {
	case r := <-d.climate:
		return r, nil
	case <-time.After(d.cfg.SensorTimeout):
		return sensor.Reading{}, ErrSensorTimeout
	}
}

func (d *Device) writeLine(line string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return ErrPortNotOpen
	}
	_, err := d.port.Write([]byte(line + "\n"))
	return err
}

func (d *Device) readLoop() {
	d.mu.Lock()
	port := d.port
	d.mu.Unlock()
	if port == nil {
		return
	}

	scanner := bufio.NewScanner(port)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	for scanner.Scan() {
		select {
		case <-d.done:
			return
		default:
		}
		d.handleLine(strings.TrimSpace(scanner.Text()))
	}

	select {
	case <-d.done:
	default:
		if err := scanner.Err(); err != nil {
			d.log.Error("serial read failed", "error", err)
		}
	}
}

func (d *Device) handleLine(line string) {
	if line == "" {
		return
	}
	fields := strings.Fields(line)

	switch fields[0] {
	case "RX":
		res, err := parseRX(fields[1:])
		if err != nil {
			d.log.Warn("bad RX line", "line", line, "error", err)
			return
		}
		select {
		case d.decodes <- res:
		default:
			d.log.Warn("decode queue full, event dropped")
		}

	case "TH":
		r, err := parseTH(fields[1:])
		if err != nil {
			d.log.Warn("bad TH line", "line", line, "error", err)
			return
		}
		select {
		case d.climate <- r:
		default:
		}

	default:
		d.log.Debug("unrecognized line from device", "line", line)
	}
}

func parseRX(fields []string) (*ircode.DecodeResult, error) {
	if len(fields) < 7 {
		return nil, fmt.Errorf("want at least 7 fields, got %d", len(fields))
	}

	typ, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}
	value, err := strconv.ParseUint(fields[1], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	bits, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("bits: %w", err)
	}
	addr, err := strconv.ParseUint(fields[3], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	cmd, err := strconv.ParseUint(fields[4], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("command: %w", err)
	}

	res := &ircode.DecodeResult{
		Type:     typ,
		Value:    value,
		Bits:     bits,
		Address:  addr,
		Command:  cmd,
		Repeat:   fields[5] == "1",
		Overflow: fields[6] == "1",
	}

	if len(fields) > 7 {
		for _, s := range strings.Split(fields[7], ",") {
			tick, err := strconv.ParseUint(s, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("raw tick %q: %w", s, err)
			}
			res.RawBuf = append(res.RawBuf, uint16(tick))
		}
	}

	return res, nil
}

func parseTH(fields []string) (sensor.Reading, error) {
	if len(fields) < 2 {
		return sensor.Reading{}, fmt.Errorf("want 2 fields, got %d", len(fields))
	}
	t, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return sensor.Reading{}, fmt.Errorf("temperature: %w", err)
	}
	h, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return sensor.Reading{}, fmt.Errorf("humidity: %w", err)
	}
	return sensor.Reading{TemperatureC: t, Humidity: h}, nil
}
