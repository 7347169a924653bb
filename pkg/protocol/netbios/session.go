package netbios

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Session service TCP ports.
const (
	SessionPort       = 139
	DirectHostingPort = 445
)

// Session packet types.
const (
	SessionMessage          = 0x00
	SessionRequest          = 0x81
	SessionPositiveResponse = 0x82
	SessionNegativeResponse = 0x83
	SessionRetargetResponse = 0x84
	SessionKeepAlive        = 0x85
)

// SessionTypes names the session packet types.
var SessionTypes = binstruct.NewEnum(map[string]uint64{
	"message":           SessionMessage,
	"request":           SessionRequest,
	"positive_response": SessionPositiveResponse,
	"negative_response": SessionNegativeResponse,
	"retarget_response": SessionRetargetResponse,
	"keep_alive":        SessionKeepAlive,
})

// SessionHeaderSize is the size of the type and length fields.
const SessionHeaderSize = 4

// Session is the session service frame: a type, a 24-bit big-endian length
// and a body of that length.
var Session = binstruct.MustDefine("netbios_session", []binstruct.Field{
	binstruct.Def("type", binstruct.EnumOf(1, binenc.BigEndian, SessionTypes)),
	binstruct.Def("length", binstruct.U24BE),
	binstruct.Def("body", binstruct.BytesType).Build(binstruct.BoundedBy("length")),
}, binstruct.WithRecompute(func(s *binstruct.Struct) error {
	return s.SetUint("length", uint64(s.Get("body").Size()))
}))

// NewSession returns a session message frame carrying body.
func NewSession(body []byte) (*binstruct.Struct, error) {
	s := Session.New()
	if err := s.Set("body", body); err != nil {
		return nil, err
	}
	if err := s.Recompute(); err != nil {
		return nil, err
	}
	return s, nil
}

func init() {
	binstruct.Register(Session, Datagram)
}
