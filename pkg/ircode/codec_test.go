package ircode

import (
	"reflect"
	"testing"

	"github.com/hausnet/irbridge/pkg/irproto"
)

func TestDecodeKnownProtocol(t *testing.T) {
	res := DecodeResult{
		Type:    irproto.TypeNEC,
		Value:   0x20DF10EF,
		Bits:    32,
		Address: 0x4,
		Command: 0x8,
		// Ticks are present on every decode but must not leak into a
		// protocol-framed record.
		RawBuf: []uint16{3895, 9, 45, 9},
	}

	rec := Decode(res)

	if rec.Kind != KindKnown {
		t.Errorf("Kind = %v, want KindKnown", rec.Kind)
	}
	if rec.Protocol != "NEC" {
		t.Errorf("Protocol = %q, want %q", rec.Protocol, "NEC")
	}
	if rec.Payload != "20DF10EF" {
		t.Errorf("Payload = %q, want %q", rec.Payload, "20DF10EF")
	}
	if rec.BitLength != 32 {
		t.Errorf("BitLength = %d, want 32", rec.BitLength)
	}
	if rec.Address != "0x4" {
		t.Errorf("Address = %q, want %q", rec.Address, "0x4")
	}
	if rec.Command != "0x8" {
		t.Errorf("Command = %q, want %q", rec.Command, "0x8")
	}
	if rec.RawBuf != nil {
		t.Errorf("RawBuf = %v, want nil", rec.RawBuf)
	}
	if !rec.Empty() {
		t.Error("decoded record should not carry a timestamp yet")
	}
}

func TestDecodeUnknownProtocol(t *testing.T) {
	res := DecodeResult{
		Type:  irproto.TypeUnknown,
		Value: 0,
		Bits:  0,
		// The first sample is the inter-frame gap and is dropped; the
		// rest convert from 50us ticks to microseconds.
		RawBuf: []uint16{3895, 9, 45, 9},
	}

	rec := Decode(res)

	if rec.Kind != KindRaw {
		t.Errorf("Kind = %v, want KindRaw", rec.Kind)
	}
	if rec.Protocol != irproto.LabelUnknown {
		t.Errorf("Protocol = %q, want %q", rec.Protocol, irproto.LabelUnknown)
	}
	if rec.Address != AddressPlaceholder || rec.Command != AddressPlaceholder {
		t.Errorf("placeholders = %q/%q, want %q", rec.Address, rec.Command, AddressPlaceholder)
	}
	want := []int{450, 2250, 450}
	if !reflect.DeepEqual(rec.RawBuf, want) {
		t.Errorf("RawBuf = %v, want %v", rec.RawBuf, want)
	}
}

func TestDecodeUnknownGapOnly(t *testing.T) {
	rec := Decode(DecodeResult{Type: 99, RawBuf: []uint16{3895}})

	if rec.Protocol != irproto.LabelUnknown {
		t.Errorf("Protocol = %q, want %q", rec.Protocol, irproto.LabelUnknown)
	}
	if rec.RawLen() != 0 {
		t.Errorf("RawLen() = %d, want 0", rec.RawLen())
	}
}

func TestRecordRawJoined(t *testing.T) {
	tests := []struct {
		name string
		raw  []int
		want string
	}{
		{name: "Empty", raw: nil, want: ""},
		{name: "Single", raw: []int{450}, want: "450"},
		{name: "Multiple", raw: []int{450, 2250, 450}, want: "450,2250,450"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{RawBuf: tt.raw}
			if got := rec.RawJoined(); got != tt.want {
				t.Errorf("RawJoined() = %q, want %q", got, tt.want)
			}
		})
	}
}
