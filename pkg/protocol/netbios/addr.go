package netbios

import (
	"fmt"
	"net/netip"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// IPv4 is a 4-byte address field.
type IPv4 struct {
	addr [4]byte
}

// IPv4Type is the binstruct Type of IPv4 addresses.
var IPv4Type binstruct.Type = func() binstruct.Value { return &IPv4{} }

func (a *IPv4) Read(data []byte) (int, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes, have %d", binstruct.ErrTruncated, len(data))
	}
	copy(a.addr[:], data)
	return 4, nil
}

func (a *IPv4) Write(w *binenc.Writer) { w.WriteBytes(a.addr[:]) }

func (a *IPv4) Size() int { return 4 }

// Addr returns the address.
func (a *IPv4) Addr() netip.Addr { return netip.AddrFrom4(a.addr) }

// Set accepts a netip.Addr or its text form.
func (a *IPv4) Set(v any) error {
	var addr netip.Addr
	switch x := v.(type) {
	case netip.Addr:
		addr = x
	case string:
		var err error
		if addr, err = netip.ParseAddr(x); err != nil {
			return fmt.Errorf("%w: %w", binstruct.ErrBadValue, err)
		}
	default:
		return fmt.Errorf("%w: %T assigned to IPv4 address", binstruct.ErrBadValue, v)
	}
	if !addr.Is4() {
		return fmt.Errorf("%w: %s is not IPv4", binstruct.ErrBadValue, addr)
	}
	a.addr = addr.As4()
	return nil
}

func (a *IPv4) Human() string { return a.Addr().String() }
