package binenc

import "fmt"

// Order selects the byte order of a multi-byte integer on the wire.
type Order uint8

const (
	// LittleEndian stores the least significant byte first (SMB, SMB2, NTLM).
	LittleEndian Order = iota

	// BigEndian stores the most significant byte first (NetBIOS, DNS).
	BigEndian
)

// String returns "le" or "be".
func (o Order) String() string {
	switch o {
	case LittleEndian:
		return "le"
	case BigEndian:
		return "be"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// ValidWidth reports whether width is an integer size the codecs support.
func ValidWidth(width int) bool {
	switch width {
	case 1, 2, 3, 4, 8:
		return true
	}
	return false
}

// decode interprets b (len(b) == width) as an unsigned integer.
func decode(b []byte, order Order) uint64 {
	var v uint64
	if order == BigEndian {
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// encode stores the low len(b) bytes of v into b.
func encode(b []byte, order Order, v uint64) {
	n := len(b)
	for i := 0; i < n; i++ {
		c := byte(v >> (8 * uint(i)))
		if order == BigEndian {
			b[n-1-i] = c
		} else {
			b[i] = c
		}
	}
}
