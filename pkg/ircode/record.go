// Package ircode defines the record type for one transmitted or received IR
// event and the codec that converts raw decoder results into records and
// records into the automation server's wire forms.
package ircode

import (
	"strconv"
	"strings"
)

// Kind discriminates between protocol-framed and raw-timing records.
type Kind int

const (
	// KindKnown is a record decoded against (or sent with) a known protocol.
	KindKnown Kind = iota
	// KindRaw is a record that carries only raw mark/space timing.
	KindRaw
)

// AddressPlaceholder is the address/command value of records whose protocol
// does not decompose the payload.
const AddressPlaceholder = "0x"

// Record represents one IR event, sent or received.
//
// A record with an empty Timestamp has never been stored and marks an unused
// history slot. Timestamp is assigned when the record enters a history store
// and is never mutated afterward.
type Record struct {
	ID        string `json:"id,omitempty"`
	Kind      Kind   `json:"-"`
	Protocol  string `json:"protocol"`
	Payload   string `json:"data,omitempty"`
	BitLength int    `json:"length"`
	Address   string `json:"address,omitempty"`
	Command   string `json:"command,omitempty"`
	RawBuf    []int  `json:"rawbuf,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Empty reports whether the record marks an unused history slot.
func (r Record) Empty() bool {
	return r.Timestamp == ""
}

// RawLen returns the number of raw timing samples.
func (r Record) RawLen() int {
	return len(r.RawBuf)
}

// RawJoined renders the raw samples as a comma-separated decimal sequence.
func (r Record) RawJoined() string {
	if len(r.RawBuf) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range r.RawBuf {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
