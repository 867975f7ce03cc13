// Package annexb splits Annex-B byte streams into units that each begin
// with a start code.
package annexb

import "bytes"

var startCode = []byte{0, 0, 1}

// FindStartCode returns the offset of the first start code in b, or -1.
// A 00 00 01 sequence preceded by a zero byte is reported at the zero,
// making it a four-byte start code. Only one leading zero is absorbed.
func FindStartCode(b []byte) int {
	k := bytes.Index(b, startCode)
	if k < 0 {
		return -1
	}
	if k > 0 && b[k-1] == 0 {
		return k - 1
	}
	return k
}

// prefixLength reports whether b begins with a start code. When b is too
// short to tell, decided is false.
func prefixLength(b []byte) (n int, decided bool) {
	if len(b) >= 3 && b[0] == 0 && b[1] == 0 && b[2] == 1 {
		return 3, true
	}
	if len(b) >= 4 && b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 1 {
		return 4, true
	}
	if len(b) < 4 {
		for _, c := range b {
			if c != 0 {
				return 0, true
			}
		}
		return 0, false
	}
	return 0, true
}
