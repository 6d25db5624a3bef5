// Package irproto maps between the IR decoder's protocol enumeration, the
// symbolic protocol labels used in records and wire pushes, and the transmit
// adapters that drive the IR emitter for each supported protocol name.
package irproto

import (
	"sort"
	"strings"
)

// Labels for records that carry no protocol framing.
const (
	LabelUnknown = "UNKNOWN"
	LabelRaw     = "RAW"
)

// Decoder protocol enumeration, mirroring the receiver library's decode
// type values.
const (
	TypeUnknown     = -1
	TypeUnused      = 0
	TypeRC5         = 1
	TypeRC6         = 2
	TypeNEC         = 3
	TypeSony        = 4
	TypePanasonic   = 5
	TypeJVC         = 6
	TypeSamsung     = 7
	TypeWhynter     = 8
	TypeAiwaRCT501  = 9
	TypeLG          = 10
	TypeSanyo       = 11
	TypeMitsubishi  = 12
	TypeDish        = 13
	TypeSharp       = 14
	TypeCoolix      = 15
	TypeDenon       = 17
	TypeSanyoLC7461 = 21
)

// DecodeLabel maps a decoder protocol value to its symbolic label.
// Unrecognized values map to UNKNOWN rather than an error.
func DecodeLabel(decodeType int) string {
	switch decodeType {
	case TypeNEC:
		return "NEC"
	case TypeSony:
		return "SONY"
	case TypeRC5:
		return "RC5"
	case TypeRC6:
		return "RC6"
	case TypeDish:
		return "DISH"
	case TypeSharp:
		return "SHARP"
	case TypeJVC:
		return "JVC"
	case TypeSanyo:
		return "SANYO"
	case TypeSanyoLC7461:
		return "SANYO_LC7461"
	case TypeMitsubishi:
		return "MITSUBISHI"
	case TypeSamsung:
		return "SAMSUNG"
	case TypeLG:
		return "LG"
	case TypeWhynter:
		return "WHYNTER"
	case TypeAiwaRCT501:
		return "AIWA_RC_T501"
	case TypePanasonic:
		return "PANASONIC"
	case TypeDenon:
		return "DENON"
	case TypeCoolix:
		return "COOLIX"
	default:
		return LabelUnknown
	}
}

// Emitter is the narrow contract of the external IR transmitter. The
// implementation owns all bit-level waveform framing; callers supply only
// the protocol label, payload, bit count and optional address.
type Emitter interface {
	// Emit transmits one protocol-framed code.
	Emit(protocol string, value uint64, bits int, address uint64) error

	// EmitRaw replays a sequence of alternating mark/space durations
	// (microseconds) at the given carrier frequency (kHz).
	EmitRaw(samples []int, khz int) error
}

// TransmitFunc invokes the emitter with protocol-specific framing parameters.
type TransmitFunc func(tx Emitter, value uint64, bits int, address uint64) error

// framed builds a TransmitFunc for a protocol with a fixed canonical label
// and a default bit length applied when the caller supplies none.
func framed(label string, defaultBits int) TransmitFunc {
	return func(tx Emitter, value uint64, bits int, address uint64) error {
		if bits <= 0 {
			bits = defaultBits
		}
		return tx.Emit(label, value, bits, address)
	}
}

var transmitters = map[string]TransmitFunc{
	"nec":       framed("NEC", 32),
	"sony":      framed("SONY", 12),
	"coolix":    framed("COOLIX", 24),
	"whynter":   framed("WHYNTER", 32),
	"panasonic": framed("PANASONIC", 48),
	"jvc":       framed("JVC", 16),
	"samsung":   framed("SAMSUNG", 32),
	"sharpraw":  framed("SHARP_RAW", 15),
	"dish":      framed("DISH", 16),
	"rc5":       framed("RC5", 12),
	"rc6":       framed("RC6", 20),
	"denon":     framed("DENON", 14),
	"lg":        framed("LG", 28),
	"sharp":     framed("SHARP", 15),
	"rcmm":      framed("RCMM", 24),
}

// LookupTransmit resolves a transmit adapter by protocol name. The match is
// case-insensitive. The second return value reports whether the name is
// supported.
func LookupTransmit(name string) (TransmitFunc, bool) {
	fn, ok := transmitters[strings.ToLower(name)]
	return fn, ok
}

// TransmitNames returns the supported transmit protocol names, sorted.
func TransmitNames() []string {
	names := make([]string, 0, len(transmitters))
	for name := range transmitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
