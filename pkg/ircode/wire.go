package ircode

import "fmt"

// WireFormat selects between the two automation-server request encodings.
type WireFormat int

const (
	// WireStructured renders a bracketed key/value object list.
	WireStructured WireFormat = iota
	// WireFlat renders space-separated key/value pairs.
	WireFlat
)

// ParseWireFormat maps a configuration string to a WireFormat.
// Anything other than "flat" selects the structured form.
func ParseWireFormat(s string) WireFormat {
	if s == "flat" {
		return WireFlat
	}
	return WireStructured
}

// RenderWire produces the automation server's request tail for a record.
// Spaces are pre-encoded as %20 since the result is appended verbatim to a
// query string. The field order and separators are a wire contract; raw
// records substitute rawlen/rawbuf for the address/command/data fields.
func RenderWire(rec Record, format WireFormat) string {
	raw := rec.Kind == KindRaw

	if format == WireFlat {
		if raw {
			return fmt.Sprintf("type:%%20%s%%20length:%%20%d%%20rawlen:%%20%d%%20rawbuf:%%20%s&XHR=1",
				rec.Protocol, rec.BitLength, rec.RawLen(), rec.RawJoined())
		}
		return fmt.Sprintf("type:%%20%s%%20length:%%20%d%%20address:%%20%s%%20command:%%20%s%%20data:%%20%s&XHR=1",
			rec.Protocol, rec.BitLength, rec.Address, rec.Command, rec.Payload)
	}

	if raw {
		return fmt.Sprintf("[{'type':'%s',%%20'length':%d',%%20'rawlen':%d,%%20'rawbuf':'%s'}]&XHR=1",
			rec.Protocol, rec.BitLength, rec.RawLen(), rec.RawJoined())
	}
	return fmt.Sprintf("[{'type':'%s',%%20'length':%d',%%20'address':'%s',%%20'command':'%s',%%20'data':'%s'}]&XHR=1",
		rec.Protocol, rec.BitLength, rec.Address, rec.Command, rec.Payload)
}
