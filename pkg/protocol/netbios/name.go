// Package netbios defines the NetBIOS over TCP/IP wire formats: encoded
// names, session service framing and datagram service headers.
package netbios

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// EncodedNameSize is the length of the first-level encoding of a 16-byte
// NetBIOS name.
const EncodedNameSize = 32

// Name is a NetBIOS name in its second-level (DNS label) encoding: one label
// carrying the nibble-encoded name, then the scope id labels, then a NUL.
type Name struct {
	labels [][]byte
}

// NameType is the binstruct Type of names.
var NameType binstruct.Type = func() binstruct.Value { return &Name{} }

// NewName encodes name, optionally followed by a dotted scope id
// ("FRED.NETBIOS.COM").
func NewName(name string) *Name {
	n := &Name{}
	n.SetString(name)
	return n
}

// EncodeName returns the first-level encoding of name: each byte split into
// two nibbles offset by 'A', padded to 32 characters with "CA" (a space).
func EncodeName(name string) []byte {
	out := make([]byte, 0, EncodedNameSize)
	for i := 0; i < len(name); i++ {
		out = append(out, name[i]>>4+'A', name[i]&0x0f+'A')
	}
	for len(out) < EncodedNameSize {
		out = append(out, 'C', 'A')
	}
	return out
}

// DecodeName reverses EncodeName and strips the space padding.
func DecodeName(encoded []byte) string {
	out := make([]byte, 0, len(encoded)/2)
	for i := 0; i+1 < len(encoded); i += 2 {
		hi := (encoded[i] - 'A') & 0x0f
		lo := (encoded[i+1] - 'A') & 0x0f
		out = append(out, hi<<4|lo)
	}
	return strings.TrimSpace(string(out))
}

func (n *Name) Read(data []byte) (int, error) {
	n.labels = nil
	pos := 0
	for {
		if pos >= len(data) {
			return 0, fmt.Errorf("%w: unterminated NetBIOS name", binstruct.ErrTruncated)
		}
		l := int(data[pos])
		if l == 0 {
			return pos + 1, nil
		}
		if l&0xc0 != 0 {
			return 0, fmt.Errorf("%w: compressed NetBIOS name label", binstruct.ErrBadValue)
		}
		if pos+1+l > len(data) {
			return 0, fmt.Errorf("%w: label of %d bytes", binstruct.ErrTruncated, l)
		}
		n.labels = append(n.labels, bytes.Clone(data[pos+1:pos+1+l]))
		pos += 1 + l
	}
}

func (n *Name) Write(w *binenc.Writer) {
	for _, l := range n.labels {
		w.WriteUint8(uint8(len(l)))
		w.WriteBytes(l)
	}
	w.WriteUint8(0)
}

func (n *Name) Size() int {
	size := 1
	for _, l := range n.labels {
		size += 1 + len(l)
	}
	return size
}

// Name returns the decoded NetBIOS name without scope.
func (n *Name) Name() string {
	if len(n.labels) == 0 {
		return ""
	}
	return DecodeName(n.labels[0])
}

// Scope returns the dotted scope id, or "".
func (n *Name) Scope() string {
	if len(n.labels) < 2 {
		return ""
	}
	parts := make([]string, len(n.labels)-1)
	for i, l := range n.labels[1:] {
		parts[i] = string(l)
	}
	return strings.Join(parts, ".")
}

// String returns the name followed by its scope id, dot separated.
func (n *Name) String() string {
	if scope := n.Scope(); scope != "" {
		return n.Name() + "." + scope
	}
	return n.Name()
}

// SetString encodes "NAME[.scope.id]". The empty string still encodes a
// blank 32-character name.
func (n *Name) SetString(s string) {
	base, scope, _ := strings.Cut(s, ".")
	n.labels = [][]byte{EncodeName(base)}
	if scope == "" {
		return
	}
	for _, l := range strings.Split(scope, ".") {
		n.labels = append(n.labels, []byte(l))
	}
}

// Set accepts a string.
func (n *Name) Set(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: %T assigned to NetBIOS name", binstruct.ErrBadValue, v)
	}
	n.SetString(s)
	return nil
}

func (n *Name) Human() string { return n.String() }
