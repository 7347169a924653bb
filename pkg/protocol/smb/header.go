// Package smb declares SMB1 (CIFS) messages: the 32-byte header, the
// generic parameter/data blocks and the bodies of NEGOTIATE, CLOSE,
// NT_CREATE_ANDX and TRANSACTION, plus the browser announcements carried
// over the \MAILSLOT\BROWSE transaction.
//
// All integers are little-endian. Body offsets count from the first byte of
// the SMB header, so body schemas are anchored at HeaderSize. Strings in
// bodies are UTF-16LE when the header sets flags2_unicode; a body without a
// header treats its strings as unicode.
package smb

import (
	"bytes"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// Marker starts every SMB1 message.
const Marker = "\xffSMB"

// HeaderSize is the size of the SMB1 header.
const HeaderSize = 32

// Commands used by this package.
const (
	CommandClose         = 0x04
	CommandTrans         = 0x25
	CommandNegotiate     = 0x72
	CommandNtCreateAndX  = 0xa2
	CommandSessionSetup  = 0x73
	CommandTreeConnect   = 0x75
	CommandEcho          = 0x2b
	CommandNoAndXCommand = 0xff
)

// Commands names the SMB1 commands.
var Commands = binstruct.NewEnum(map[string]uint64{
	"delete_dir":          0x01,
	"close":               CommandClose,
	"delete":              0x06,
	"query_info2":         0x23,
	"trans":               CommandTrans,
	"echo":                CommandEcho,
	"open_and_x":          0x2d,
	"read_and_x":          0x2e,
	"write_and_x":         0x2f,
	"trans2":              0x32,
	"tree_disconnect":     0x71,
	"negotiate":           CommandNegotiate,
	"session_setup_and_x": CommandSessionSetup,
	"tree_connect_and_x":  CommandTreeConnect,
	"nt_trans":            0xa0,
	"nt_create_and_x":     CommandNtCreateAndX,
})

// HeaderFlags splits the 8-bit flags field. flags_reply marks responses.
var HeaderFlags = bitfield.MustNew(8,
	bitfield.Bit("flags_reply"),
	bitfield.Bit("flags_opbatch"),
	bitfield.Bit("flags_oplock"),
	bitfield.Bit("flags_canon_paths"),
	bitfield.Bit("flags_case_insensitive"),
	bitfield.Bit("flags_reserved"),
	bitfield.Bit("flags_buf_avail"),
	bitfield.Bit("flags_locknread"),
)

// HeaderFlags2 splits the 16-bit flags2 field.
var HeaderFlags2 = bitfield.MustNew(16,
	bitfield.Bit("flags2_unicode"),
	bitfield.Bit("flags2_ntstatus"),
	bitfield.Bit("flags2_paging_io"),
	bitfield.Bit("flags2_dfs"),
	bitfield.Bit("flags2_extended_security"),
	bitfield.Bit("flags2_reparse_path"),
	bitfield.Bits("flags2_reserved", 3),
	bitfield.Bit("flags2_is_long_name"),
	bitfield.Bit("flags2_rsv"),
	bitfield.Bit("flags2_security_signature_required"),
	bitfield.Bit("flags2_compressed"),
	bitfield.Bit("flags2_signature"),
	bitfield.Bit("flags2_eas"),
	bitfield.Bit("flags2_long_names"),
)

// Header is the SMB1 header followed by the raw body.
var Header = binstruct.MustDefine("smb", []binstruct.Field{
	binstruct.Def("protocol", binstruct.StaticBytes(4)).Default(Marker),
	binstruct.Def("command", binstruct.EnumOf(1, binenc.LittleEndian, Commands)),
	binstruct.Def("status", binstruct.U32LE),
	binstruct.Def("flags", binstruct.U8),
	binstruct.Def("flags2", binstruct.U16LE),
	binstruct.Def("pid_high", binstruct.U16LE),
	binstruct.Def("sec_features", binstruct.U64LE),
	binstruct.Def("reserved", binstruct.U16LE),
	binstruct.Def("tid", binstruct.U16LE),
	binstruct.Def("pid", binstruct.U16LE),
	binstruct.Def("uid", binstruct.U16LE),
	binstruct.Def("mid", binstruct.U16LE),
	binstruct.Def("body", binstruct.BytesType),
},
	binstruct.WithBits("flags", HeaderFlags),
	binstruct.WithBits("flags2", HeaderFlags2),
)

// IsMessage reports whether data starts with the SMB1 marker.
func IsMessage(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Marker))
}

type bodyKey struct {
	command uint8
	reply   bool
}

var bodies = map[bodyKey]*binstruct.Schema{}

// BodySchema returns the body schema of command in the given direction.
// Commands without a dedicated schema use Blocks.
func BodySchema(command uint8, reply bool) *binstruct.Schema {
	if s, ok := bodies[bodyKey{command, reply}]; ok {
		return s
	}
	return Blocks
}

// NewHeader returns a header for command with flags_reply set for replies.
func NewHeader(command uint8, reply bool) (*binstruct.Struct, error) {
	h := Header.New()
	if err := h.SetUint("command", uint64(command)); err != nil {
		return nil, err
	}
	if err := h.SetFlag("flags_reply", reply); err != nil {
		return nil, err
	}
	return h, nil
}

// unicode reports whether body strings are UTF-16LE: the enclosing header
// sets flags2_unicode, or there is no header.
func unicode(v binstruct.View) bool {
	outer := v.Outer()
	return outer == nil || outer.Flag("flags2_unicode")
}

// unicodeOf is unicode for a whole body.
func unicodeOf(s *binstruct.Struct) bool {
	return s.Outer() == nil || s.Outer().Flag("flags2_unicode")
}

// textBuilder builds a NUL-terminated string encoded after the header.
var textBuilder = binstruct.BuilderFunc(func(v binstruct.View, _ binstruct.Type) binstruct.Value {
	return binstruct.NewWideString(binstruct.Unicode(unicode(v)), binstruct.NulTerminated())
})

// syncText re-encodes a string field after the header and returns its size.
func syncText(s *binstruct.Struct, name string) int {
	str, ok := s.Get(name).(*binstruct.WideString)
	if !ok {
		return 0
	}
	str.SetUnicode(unicodeOf(s))
	return str.Size()
}

func init() {
	bodies[bodyKey{CommandNegotiate, false}] = NegotiateRequest
	bodies[bodyKey{CommandNegotiate, true}] = NegotiateResponse
	bodies[bodyKey{CommandClose, false}] = CloseRequest
	bodies[bodyKey{CommandClose, true}] = CloseResponse
	bodies[bodyKey{CommandNtCreateAndX, false}] = NtCreateAndXRequest
	bodies[bodyKey{CommandNtCreateAndX, true}] = NtCreateAndXResponse
	bodies[bodyKey{CommandTrans, false}] = TransRequest
	bodies[bodyKey{CommandTrans, true}] = TransResponse
	binstruct.Register(Header, Blocks, Dialect, NegotiateRequest, NegotiateResponse,
		CloseRequest, CloseResponse, NtCreateAndXRequest, NtCreateAndXResponse,
		TransRequest, TransResponse, Browser, HostAnnouncement, DomainAnnouncement,
		LocalMasterAnnouncement)
}
