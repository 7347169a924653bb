package smb2

import (
	"bytes"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// HeaderFlags splits the 32-bit flags field, most significant bits first.
// The low byte carries response (0x01), async (0x02), related_op (0x04),
// signed (0x08) and the 3-bit SMB3 priority (0x70).
var HeaderFlags = bitfield.MustNew(32,
	bitfield.Bits("rsv1", 2),
	bitfield.Bit("replay_op"),
	bitfield.Bit("dfs_op"),
	bitfield.Bits("rsv2", 21),
	bitfield.Bits("priority", 3),
	bitfield.Bit("signed"),
	bitfield.Bit("related_op"),
	bitfield.Bit("async"),
	bitfield.Bit("response"),
)

// Header is the SMB2 header followed by the raw command body. Decoders put
// the decoded body struct in place of the raw bytes.
var Header = binstruct.MustDefine("smb2", []binstruct.Field{
	binstruct.Def("protocol", binstruct.StaticBytes(4)).Default(Marker),
	binstruct.Def("structure_size", binstruct.U16LE).Default(HeaderSize),
	binstruct.Def("credit_charge", binstruct.U16LE),
	binstruct.Def("status", StatusType),
	binstruct.Def("command", binstruct.EnumOf(2, binenc.LittleEndian, Commands)),
	binstruct.Def("credit", binstruct.U16LE),
	binstruct.Def("flags", binstruct.U32LE),
	binstruct.Def("next_command", binstruct.U32LE),
	binstruct.Def("message_id", binstruct.U64LE),
	binstruct.Def("async_id", binstruct.U64LE).When(binstruct.FlagSet("async")),
	binstruct.Def("reserved", binstruct.U32LE).When(binstruct.FlagClear("async")),
	binstruct.Def("tree_id", binstruct.U32LE).When(binstruct.FlagClear("async")),
	binstruct.Def("session_id", binstruct.U64LE),
	binstruct.Def("signature", binstruct.StaticBytes(16)),
	binstruct.Def("body", binstruct.BytesType),
}, binstruct.WithBits("flags", HeaderFlags))

// IsMessage reports whether data starts with the SMB2 marker.
func IsMessage(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Marker))
}

// NewHeader returns a header for command. response sets the response flag.
func NewHeader(command uint16, response bool) (*binstruct.Struct, error) {
	h := Header.New()
	if err := h.SetUint("command", uint64(command)); err != nil {
		return nil, err
	}
	if err := h.SetFlag("response", response); err != nil {
		return nil, err
	}
	return h, nil
}

// BodySchema returns the body schema for a command, the response flag and
// the status. Error statuses other than STATUS_MORE_PROCESSING_REQUIRED
// select ErrorResponse.
func BodySchema(command uint16, response bool, status Status) (*binstruct.Schema, bool) {
	if response && status.IsError() && status != StatusMoreProcessingRequired {
		return ErrorResponse, true
	}
	s, ok := bodies[bodyKey{command, response}]
	return s, ok
}

// BodyOf returns the schema of h's body.
func BodyOf(h *binstruct.Struct) (*binstruct.Schema, bool) {
	return BodySchema(uint16(h.Uint("command")), h.Flag("response"), Status(h.Uint("status")))
}

type bodyKey struct {
	command  uint16
	response bool
}

var bodies = map[bodyKey]*binstruct.Schema{
	{CommandNegotiate, false}:    NegotiateRequest,
	{CommandNegotiate, true}:     NegotiateResponse,
	{CommandSessionSetup, false}: SessionSetupRequest,
	{CommandSessionSetup, true}:  SessionSetupResponse,
}

func init() {
	binstruct.Register(Header, ErrorResponse,
		NegotiateContext, PreauthIntegrityCap, EncryptionCap,
		NegotiateRequest, NegotiateResponse,
		SessionSetupRequest, SessionSetupResponse)
}
