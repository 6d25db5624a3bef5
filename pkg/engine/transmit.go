package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hausnet/irbridge/pkg/ircode"
	"github.com/hausnet/irbridge/pkg/irproto"
	"github.com/hausnet/irbridge/pkg/metrics"
	"github.com/hausnet/irbridge/pkg/persistence"
)

// Timing defaults applied when a request supplies non-positive values.
const (
	DefaultPulse        = 1
	DefaultRepeat       = 1
	DefaultPulseDelayMs = 100
	DefaultRepeatDelay  = 1000
	DefaultCarrierKhz   = 38
)

// TransmitRequest describes one transmit operation. Type is a protocol name,
// "raw" for timing replay, or "delay" for a plain pause.
type TransmitRequest struct {
	Type    string `json:"type"`
	Data    string `json:"data"`
	Length  int    `json:"length"`
	Address uint64 `json:"address"`

	Repeat        int `json:"repeat"`
	Pulse         int `json:"pulse"`
	PulseDelayMs  int `json:"pdelay"`
	RepeatDelayMs int `json:"rdelay"`

	// Raw mode only.
	Raw []int `json:"raw,omitempty"`
	Khz int   `json:"khz,omitempty"`
}

// normalize applies defaults and unpacks the combined "data:type:length"
// form into its parts.
func (r *TransmitRequest) normalize() {
	if parts := strings.Split(r.Data, ":"); len(parts) == 3 {
		r.Data = parts[0]
		r.Type = parts[1]
		if n, err := strconv.Atoi(parts[2]); err == nil {
			r.Length = n
		}
	}

	if r.Pulse < 1 {
		r.Pulse = DefaultPulse
	}
	if r.Repeat < 1 {
		r.Repeat = DefaultRepeat
	}
	if r.PulseDelayMs < 1 {
		r.PulseDelayMs = DefaultPulseDelayMs
	}
	if r.RepeatDelayMs < 1 {
		r.RepeatDelayMs = DefaultRepeatDelay
	}
	if r.Khz < 1 {
		r.Khz = DefaultCarrierKhz
	}
}

// execTransmit runs one transmit request on the run loop. Reception is held
// for the duration of the burst and the receiver is explicitly resumed
// afterwards.
func (e *Engine) execTransmit(ctx context.Context, req TransmitRequest) error {
	req.normalize()

	if strings.EqualFold(req.Type, "delay") {
		e.sleep(ctx, time.Duration(req.RepeatDelayMs)*time.Millisecond)
		return nil
	}

	e.holding = true
	defer func() {
		e.holding = false
		e.receiver.Resume()
	}()

	if strings.EqualFold(req.Type, "raw") {
		return e.transmitRaw(ctx, req)
	}
	return e.transmitNamed(ctx, req)
}

// transmitNamed resolves the protocol and drives the registered transmit
// adapter repeat*pulse times.
//
// The delay guards compare the iteration index against the delay magnitude,
// not the pulse/repeat counts; with the default delays they fire after every
// iteration including the last. This matches the device's long-standing
// observable pacing, so it is kept as-is.
func (e *Engine) transmitNamed(ctx context.Context, req TransmitRequest) error {
	name := strings.ToLower(req.Type)

	fn, ok := irproto.LookupTransmit(name)
	if !ok {
		e.log.Warn("transmit rejected", "type", name, "reason", "unsupported protocol")
		metrics.IncError("unsupported_protocol")
		return ErrUnsupportedProtocol
	}

	value := ircode.ParseHex(req.Data)

	e.log.Info("transmitting code",
		"type", name, "data", req.Data, "length", req.Length,
		"repeat", req.Repeat, "pulse", req.Pulse)

	for r := 0; r < req.Repeat; r++ {
		for p := 0; p < req.Pulse; p++ {
			if err := fn(e.emitter, value, req.Length, req.Address); err != nil {
				e.log.Warn("emit failed", "type", name, "error", err)
				metrics.IncError("emit")
			}
			if p+1 < req.PulseDelayMs {
				e.sleep(ctx, time.Duration(req.PulseDelayMs)*time.Millisecond)
			}
		}
		if r+1 < req.RepeatDelayMs {
			e.sleep(ctx, time.Duration(req.RepeatDelayMs)*time.Millisecond)
		}
	}

	rec := ircode.Record{
		Kind:      ircode.KindKnown,
		Protocol:  name,
		Payload:   ircode.FormatHex(value),
		BitLength: req.Length,
		Address:   ircode.AddressPlaceholder + ircode.FormatHex(req.Address),
		Command:   ircode.AddressPlaceholder,
	}
	stored := e.sent.Insert(rec)

	metrics.IncSent(name, metrics.ModeProtocol)
	e.archiveRecord(persistence.DirectionSent, stored)
	e.publish(DirectionSent, stored)

	return nil
}

// transmitRaw replays the request's mark/space durations verbatim. Negative
// space values clamp to zero.
func (e *Engine) transmitRaw(ctx context.Context, req TransmitRequest) error {
	samples := make([]int, len(req.Raw))
	for i, v := range req.Raw {
		if v < 0 {
			v = 0
		}
		samples[i] = v
	}

	e.log.Info("transmitting raw timing",
		"samples", len(samples), "khz", req.Khz,
		"repeat", req.Repeat, "pulse", req.Pulse)

	for r := 0; r < req.Repeat; r++ {
		for p := 0; p < req.Pulse; p++ {
			if err := e.emitter.EmitRaw(samples, req.Khz); err != nil {
				e.log.Warn("raw emit failed", "error", err)
				metrics.IncError("emit")
			}
			if p+1 < req.PulseDelayMs {
				e.sleep(ctx, time.Duration(req.PulseDelayMs)*time.Millisecond)
			}
		}
		if r+1 < req.RepeatDelayMs {
			e.sleep(ctx, time.Duration(req.RepeatDelayMs)*time.Millisecond)
		}
	}

	rec := ircode.Record{
		Kind:      ircode.KindRaw,
		Protocol:  irproto.LabelRaw,
		BitLength: len(samples),
		Address:   ircode.AddressPlaceholder,
		Command:   ircode.AddressPlaceholder,
		RawBuf:    samples,
	}
	stored := e.sent.Insert(rec)

	metrics.IncSent(irproto.LabelRaw, metrics.ModeRaw)
	e.archiveRecord(persistence.DirectionSent, stored)
	e.publish(DirectionSent, stored)

	return nil
}
