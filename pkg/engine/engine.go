// Package engine owns the IR bridge's runtime state: the sent/received
// history buffers, the reception-hold flag and the transfer counters. All
// state is mutated from a single run loop; transmit requests from other
// goroutines are handed over through a mailbox, which preserves the
// firmware's no-concurrent-mutation model on a multi-threaded host.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hausnet/irbridge/pkg/config"
	"github.com/hausnet/irbridge/pkg/history"
	"github.com/hausnet/irbridge/pkg/ircode"
	"github.com/hausnet/irbridge/pkg/irproto"
	"github.com/hausnet/irbridge/pkg/logger"
	"github.com/hausnet/irbridge/pkg/persistence"
	"github.com/hausnet/irbridge/pkg/rules"
)

// Common errors.
var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrEngineStopped       = errors.New("engine stopped")
)

// Receiver is the external IR receiver. Poll yields at most one decoded
// event per call without blocking; Resume re-arms the receiver for the next
// frame.
type Receiver interface {
	Poll() (*ircode.DecodeResult, bool)
	Resume()
}

// Forwarder pushes records to the automation server.
type Forwarder interface {
	ForwardCode(rec ircode.Record) error
}

// Event directions published to sinks.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Event is one history insertion, published to event sinks (WebSocket
// clients, MQTT mirror).
type Event struct {
	Direction string        `json:"direction"`
	Record    ircode.Record `json:"record"`
}

// EventSink receives events as they happen. Publish must not block.
type EventSink interface {
	Publish(ev Event)
}

// Options wires the engine's collaborators. Emitter and Receiver are
// required; the rest may be nil.
type Options struct {
	Config   *config.Runtime
	Log      *logger.Logger
	Emitter  irproto.Emitter
	Receiver Receiver
	Forward  Forwarder
	Rules    rules.Engine
	Archive  persistence.Store
	Sink     EventSink

	// HistoryCapacity sets both buffers' slot counts.
	HistoryCapacity int

	// PollInterval is the receiver polling cadence (default 20ms).
	PollInterval time.Duration
}

// Engine coordinates transmission, reception and forwarding.
type Engine struct {
	cfg      *config.Runtime
	log      *logger.Logger
	emitter  irproto.Emitter
	receiver Receiver
	fwd      Forwarder
	rules    rules.Engine
	archive  persistence.Store
	sink     EventSink

	sent     *history.Store
	received *history.Store

	// holding suppresses reception while a transmit burst runs. It is
	// only toggled from the run loop.
	holding bool

	requests     chan txJob
	pollInterval time.Duration

	// sleep is context-aware so a shutdown can interrupt a burst's
	// inter-pulse delays. Tests substitute a recording stub.
	sleep func(ctx context.Context, d time.Duration)

	receivedCount    atomic.Uint64
	transferredCount atomic.Uint64
	startedAt        time.Time
}

type txJob struct {
	req   TransmitRequest
	reply chan error
}

// New creates an engine from options.
func New(opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = logger.Global()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 20 * time.Millisecond
	}

	return &Engine{
		cfg:          opts.Config,
		log:          log,
		emitter:      opts.Emitter,
		receiver:     opts.Receiver,
		fwd:          opts.Forward,
		rules:        opts.Rules,
		archive:      opts.Archive,
		sink:         opts.Sink,
		sent:         history.New(opts.HistoryCapacity),
		received:     history.New(opts.HistoryCapacity),
		requests:     make(chan txJob),
		pollInterval: pollInterval,
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run drives the engine until ctx is cancelled. Transmit requests and
// receiver polls are serviced from this single goroutine; a transmit burst
// runs to completion before the next poll, so reception can never observe a
// half-finished burst.
func (e *Engine) Run(ctx context.Context) {
	e.startedAt = time.Now()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-e.requests:
			job.reply <- e.execTransmit(ctx, job.req)
		case <-ticker.C:
			e.pollReceiver()
		}
	}
}

// Transmit validates and executes a transmit request on the run loop,
// returning once the burst completes.
func (e *Engine) Transmit(ctx context.Context, req TransmitRequest) error {
	job := txJob{req: req, reply: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e.requests <- job:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-job.reply:
		return err
	}
}

// ListSent returns the sent history, most recent first.
func (e *Engine) ListSent() []ircode.Record {
	return e.sent.List()
}

// ListReceived returns the received history, most recent first.
func (e *Engine) ListReceived() []ircode.Record {
	return e.received.List()
}

// GetReceived returns the received record in slot n (1-based).
func (e *Engine) GetReceived(n int) (ircode.Record, bool) {
	return e.received.Get(n)
}

// Status is a point-in-time engine snapshot.
type Status struct {
	Received        uint64        `json:"received"`
	Transferred     uint64        `json:"transferred"`
	HistoryCapacity int           `json:"history_capacity"`
	Uptime          time.Duration `json:"uptime"`
}

// Status returns counters and uptime.
func (e *Engine) Status() Status {
	var uptime time.Duration
	if !e.startedAt.IsZero() {
		uptime = time.Since(e.startedAt)
	}
	return Status{
		Received:        e.receivedCount.Load(),
		Transferred:     e.transferredCount.Load(),
		HistoryCapacity: e.received.Capacity(),
		Uptime:          uptime,
	}
}

// Counters returns the received and transferred counts.
func (e *Engine) Counters() (received, transferred uint64) {
	return e.receivedCount.Load(), e.transferredCount.Load()
}

func (e *Engine) publish(direction string, rec ircode.Record) {
	if e.sink != nil {
		e.sink.Publish(Event{Direction: direction, Record: rec})
	}
}

func (e *Engine) archiveRecord(direction string, rec ircode.Record) {
	if e.archive == nil {
		return
	}
	err := e.archive.Save(&persistence.Event{
		ID:        rec.ID,
		Direction: direction,
		Protocol:  rec.Protocol,
		Payload:   rec.Payload,
		BitLength: rec.BitLength,
		RawBuf:    rec.RawJoined(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		e.log.Warn("archive write failed", "error", err)
	}
}
