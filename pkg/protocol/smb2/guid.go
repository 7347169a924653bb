package smb2

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// GUIDSize is the encoded size of a GUID.
const GUIDSize = 16

// GUID is a mixed-endian GUID: data1 (32-bit), data2 and data3 (16-bit) are
// little-endian, data4 is stored as is. Its text form is the usual
// 8-4-4-4-12 hex notation.
type GUID struct {
	wire [GUIDSize]byte
}

// GUIDType is the Type of GUID fields.
var GUIDType binstruct.Type = func() binstruct.Value { return &GUID{} }

// swapGroups converts between the wire layout and RFC 4122 byte order.
func swapGroups(b [GUIDSize]byte) [GUIDSize]byte {
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return b
}

// ParseGUID parses the text form.
func ParseGUID(s string) (*GUID, error) {
	g := &GUID{}
	if err := g.SetString(s); err != nil {
		return nil, err
	}
	return g, nil
}

// NewRandomGUID returns a random (version 4) GUID.
func NewRandomGUID() (*GUID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	g := &GUID{}
	g.SetUUID(u)
	return g, nil
}

func (g *GUID) Read(data []byte) (int, error) {
	if len(data) < GUIDSize {
		return 0, fmt.Errorf("%w: guid needs %d bytes, have %d", binstruct.ErrTruncated, GUIDSize, len(data))
	}
	copy(g.wire[:], data)
	return GUIDSize, nil
}

func (g *GUID) Write(w *binenc.Writer) { w.WriteBytes(g.wire[:]) }

func (g *GUID) Size() int { return GUIDSize }

// UUID returns the GUID in RFC 4122 byte order.
func (g *GUID) UUID() uuid.UUID { return uuid.UUID(swapGroups(g.wire)) }

// SetUUID assigns from RFC 4122 byte order.
func (g *GUID) SetUUID(u uuid.UUID) { g.wire = swapGroups(u) }

// String returns the text form.
func (g *GUID) String() string { return g.UUID().String() }

// SetString parses the text form.
func (g *GUID) SetString(s string) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: guid %q: %v", binstruct.ErrBadValue, s, err)
	}
	g.SetUUID(u)
	return nil
}

// Set accepts a text form, a uuid.UUID or 16 wire bytes.
func (g *GUID) Set(v any) error {
	switch x := v.(type) {
	case string:
		return g.SetString(x)
	case uuid.UUID:
		g.SetUUID(x)
	case []byte:
		if len(x) != GUIDSize {
			return fmt.Errorf("%w: guid of %d bytes", binstruct.ErrBadValue, len(x))
		}
		copy(g.wire[:], x)
	default:
		return fmt.Errorf("%w: %T assigned to guid", binstruct.ErrBadValue, v)
	}
	return nil
}

func (g *GUID) Human() string { return g.String() }
