package engine

import (
	"github.com/hausnet/irbridge/pkg/ircode"
	"github.com/hausnet/irbridge/pkg/irproto"
	"github.com/hausnet/irbridge/pkg/metrics"
	"github.com/hausnet/irbridge/pkg/persistence"
)

// pollReceiver consumes at most one decoded event from the receiver. Events
// arriving while the hold flag is set are left in the receiver; protocol
// repeats are logged and discarded without touching history or forwarding.
func (e *Engine) pollReceiver() {
	if e.holding || e.receiver == nil {
		return
	}

	res, ok := e.receiver.Poll()
	if !ok {
		return
	}

	if res.Repeat {
		e.log.Debug("repeat transmission ignored")
		e.receiver.Resume()
		return
	}

	if res.Overflow {
		e.log.Warn("receive buffer overflow, raw timing truncated")
		metrics.IncError("rx_overflow")
	}

	rec := ircode.Decode(*res)
	stored := e.received.Insert(rec)
	e.receiver.Resume()

	e.receivedCount.Add(1)
	metrics.IncReceived(stored.Protocol)

	e.log.Info("code received",
		"protocol", stored.Protocol, "data", stored.Payload,
		"length", stored.BitLength)

	e.archiveRecord(persistence.DirectionReceived, stored)
	e.publish(DirectionReceived, stored)

	e.maybeForward(stored)
}

// maybeForward pushes a received record upstream when forwarding is enabled
// and the protocol was recognized. Transport failures are logged only;
// forwarding never affects the reception path.
func (e *Engine) maybeForward(rec ircode.Record) {
	if e.fwd == nil || e.cfg == nil || !e.cfg.Forwarding().Enabled {
		return
	}

	if rec.Protocol == irproto.LabelUnknown {
		e.log.Debug("unknown protocol, not forwarded")
		return
	}

	if e.rules != nil {
		out, pass, err := e.rules.Execute(DirectionReceived, rec)
		if err != nil {
			e.log.Warn("rule hook failed", "error", err)
			metrics.IncError("rules")
			return
		}
		if !pass {
			e.log.Debug("event dropped by rule hook", "protocol", rec.Protocol)
			return
		}
		rec = out
	}

	if err := e.fwd.ForwardCode(rec); err != nil {
		e.log.Warn("code forward failed", "error", err)
	}
	e.transferredCount.Add(1)
}
