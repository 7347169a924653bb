package smb2

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
	"github.com/marmos91/smbwire/pkg/protocol/gssapi"
)

// SessionSetupRequestFlags splits the request flags byte.
var SessionSetupRequestFlags = bitfield.MustNew(8,
	bitfield.Bits("flags_rsv", 7),
	bitfield.Bit("binding"),
)

// SessionSetupRequestCaps splits the request capabilities. Only DFS is
// defined for session setup.
var SessionSetupRequestCaps = bitfield.MustNew(32,
	bitfield.Bits("cap_rsv", 31),
	bitfield.Bit("dfs"),
)

// SessionFlags splits the response session flags.
var SessionFlags = bitfield.MustNew(16,
	bitfield.Bits("flags_rsv", 13),
	bitfield.Bit("encrypt_data"),
	bitfield.Bit("is_null"),
	bitfield.Bit("is_guest"),
)

// SessionSetupRequest is the SESSION_SETUP request body. [MS-SMB2] 2.2.5
// The security buffer is absent when buffer_offset is zero.
var SessionSetupRequest = binstruct.MustDefine("smb2_session_setup_request", []binstruct.Field{
	binstruct.Def("structure_size", binstruct.U16LE).Default(25),
	binstruct.Def("flags", binstruct.U8),
	binstruct.Def("security_mode", binstruct.EnumOf(1, binenc.LittleEndian, SecurityModes)),
	binstruct.Def("capabilities", binstruct.U32LE),
	binstruct.Def("channel", binstruct.U32LE),
	binstruct.Def("buffer_offset", binstruct.U16LE).Default(HeaderSize + 24),
	binstruct.Def("buffer_length", binstruct.U16LE),
	binstruct.Def("prev_session_id", binstruct.U64LE),
	binstruct.Def("buffer", gssapi.TokenType).
		Build(gssapi.BoundedBy("buffer_length")).
		When(binstruct.NonZero("buffer_offset")),
},
	binstruct.WithBits("flags", SessionSetupRequestFlags),
	binstruct.WithBits("capabilities", SessionSetupRequestCaps),
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		n := s.Get("buffer").Size()
		if err := s.SetUint("buffer_length", uint64(n)); err != nil {
			return err
		}
		offset := 0
		if n > 0 {
			offset = s.Anchor() + s.MustOffsetOf("buffer")
		}
		return s.SetUint("buffer_offset", uint64(offset))
	}),
)

// SessionSetupResponse is the SESSION_SETUP response body. [MS-SMB2] 2.2.6
var SessionSetupResponse = binstruct.MustDefine("smb2_session_setup_response", []binstruct.Field{
	binstruct.Def("structure_size", binstruct.U16LE).Default(9),
	binstruct.Def("flags", binstruct.U16LE),
	binstruct.Def("buffer_offset", binstruct.U16LE).Default(HeaderSize + 8),
	binstruct.Def("buffer_length", binstruct.U16LE),
	binstruct.Def("buffer", gssapi.TokenType).Build(gssapi.BoundedBy("buffer_length")),
},
	binstruct.WithBits("flags", SessionFlags),
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		return s.SetUint("buffer_length", uint64(s.Get("buffer").Size()))
	}),
)

// SecurityBuffer returns the GSSAPI token of a session setup or negotiate
// body, or nil.
func SecurityBuffer(body *binstruct.Struct) *gssapi.Token {
	if body == nil || !body.Present("buffer") {
		return nil
	}
	t, _ := body.Get("buffer").(*gssapi.Token)
	return t
}
