package hip

import (
	"strings"
)

// unreserved is the fixed set of bytes transmitted without escaping.
// Unlike RFC 3986 it keeps the path and query delimiters, so a whole
// "path?k=v&k=v" line can be encoded in one pass.
const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789-._~/?=&"

const hexUpper = "0123456789ABCDEF"

var unreservedSet = buildUnreservedSet()

func buildUnreservedSet() [256]bool {
	var set [256]bool
	for i := 0; i < len(unreserved); i++ {
		set[unreserved[i]] = true
	}
	return set
}

// Encode percent-encodes every byte outside the unreserved set as
// uppercase %XX. Space is always %20, never '+'.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedSet[c] {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexUpper[c>>4])
		b.WriteByte(hexUpper[c&0x0F])
	}
	return b.String()
}

// Decode reverses Encode. Malformed escapes are passed through
// verbatim rather than rejected; the protocol has no error frame for
// bad input so leniency matches the wire behaviour.
func Decode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
