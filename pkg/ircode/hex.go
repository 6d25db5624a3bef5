package ircode

import (
	"strconv"
	"strings"
)

// FormatHex renders an unsigned value as uppercase hexadecimal text without
// leading zeros ("0" when the value is zero).
func FormatHex(v uint64) string {
	return strings.ToUpper(strconv.FormatUint(v, 16))
}

// ParseHex parses hexadecimal text permissively. Every byte contributes one
// nibble; a byte that is not a hex digit contributes its low four bits rather
// than raising an error. Callers are expected to validate input ahead of
// time when strictness matters.
func ParseHex(s string) uint64 {
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint64(c-'A') + 10
		default:
			v |= uint64(c) & 0x0F
		}
	}
	return v
}
