package ircode

import (
	"github.com/hausnet/irbridge/pkg/irproto"
)

// RawTickMicros converts the receiver's raw timing ticks to microseconds.
const RawTickMicros = 50

// DecodeResult is one decoded event as reported by the external IR receiver.
type DecodeResult struct {
	// Type is the decoder's protocol enumeration value.
	Type int

	// Value is the decoded payload.
	Value uint64

	// Bits is the number of significant payload bits.
	Bits int

	// Address and Command are payload sub-fields for protocols that
	// decompose the payload; zero otherwise.
	Address uint64
	Command uint64

	// RawBuf holds the raw timing samples in receiver ticks. The first
	// entry is the inter-frame gap and is not part of the signal.
	RawBuf []uint16

	// Overflow reports that the receiver truncated the timing buffer.
	Overflow bool

	// Repeat reports a protocol-level repeat transmission.
	Repeat bool
}

// Decode converts a raw decoder result into a Record. The timestamp is left
// empty; it is assigned when the record enters a history store.
func Decode(res DecodeResult) Record {
	label := irproto.DecodeLabel(res.Type)

	rec := Record{
		Protocol:  label,
		Payload:   FormatHex(res.Value),
		BitLength: res.Bits,
	}

	if label != irproto.LabelUnknown {
		rec.Kind = KindKnown
		rec.Address = AddressPlaceholder + FormatHex(res.Address)
		rec.Command = AddressPlaceholder + FormatHex(res.Command)
		return rec
	}

	rec.Kind = KindRaw
	rec.Address = AddressPlaceholder
	rec.Command = AddressPlaceholder

	// Skip the leading gap sample; remaining ticks become microseconds.
	if len(res.RawBuf) > 1 {
		rec.RawBuf = make([]int, 0, len(res.RawBuf)-1)
		for _, tick := range res.RawBuf[1:] {
			rec.RawBuf = append(rec.RawBuf, int(tick)*RawTickMicros)
		}
	}

	return rec
}
