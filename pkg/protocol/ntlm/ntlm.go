// Package ntlm declares the NTLM authentication messages (MS-NLMP):
// NEGOTIATE, CHALLENGE and AUTHENTICATE.
//
// Every message starts with the 8-byte "NTLMSSP\0" signature and a 32-bit
// message type. Variable content (names, responses, target info) lives in a
// trailing payload addressed by length, max-length and offset triples;
// offsets count from the first byte of the message. Recompute lays the
// payload items out in declaration order and fills the triples.
//
// Payload strings are UTF-16LE when the unicode negotiate flag (flags_a) is
// set and OEM otherwise; NEGOTIATE strings are always OEM. AV pair strings
// are always UTF-16LE.
package ntlm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// Signature starts every NTLM message.
const Signature = "NTLMSSP\x00"

// Message types.
const (
	TypeNegotiate    = 1
	TypeChallenge    = 2
	TypeAuthenticate = 3
)

// Types names the message types.
var Types = binstruct.NewEnum(map[string]uint64{
	"negotiate":    TypeNegotiate,
	"challenge":    TypeChallenge,
	"authenticate": TypeAuthenticate,
})

// ErrNotNTLM is returned by Read for data without the NTLM signature.
var ErrNotNTLM = errors.New("ntlm: missing NTLMSSP signature")

// Negotiate flag sub-fields of the flags field. [MS-NLMP] 2.2.2.5
const (
	FlagUnicode                = "flags_a"
	FlagOEM                    = "flags_b"
	FlagRequestTarget          = "flags_c"
	FlagSign                   = "flags_d"
	FlagSeal                   = "flags_e"
	FlagDatagram               = "flags_f"
	FlagLMKey                  = "flags_g"
	FlagNTLM                   = "flags_h"
	FlagAnonymous              = "flags_j"
	FlagOEMDomainSupplied      = "flags_k"
	FlagOEMWorkstationSupplied = "flags_l"
	FlagAlwaysSign             = "flags_m"
	FlagTargetTypeDomain       = "flags_n"
	FlagTargetTypeServer       = "flags_o"
	FlagExtSessionSecurity     = "flags_p"
	FlagIdentify               = "flags_q"
	FlagNonNTSessionKey        = "flags_r"
	FlagTargetInfo             = "flags_s"
	FlagVersion                = "flags_t"
	Flag128                    = "flags_u"
	FlagKeyExch                = "flags_v"
	Flag56                     = "flags_w"
)

// NegotiateFlags splits the 32-bit negotiate flags, most significant bit
// first: flags_w is 0x80000000 and flags_a is 0x00000001.
var NegotiateFlags = bitfield.MustNew(32,
	bitfield.Bit("flags_w"), bitfield.Bit("flags_v"), bitfield.Bit("flags_u"),
	bitfield.Bits("flags_r13", 3),
	bitfield.Bit("flags_t"), bitfield.Bit("flags_r4"), bitfield.Bit("flags_s"), bitfield.Bit("flags_r"),
	bitfield.Bit("flags_r5"), bitfield.Bit("flags_q"), bitfield.Bit("flags_p"), bitfield.Bit("flags_r6"),
	bitfield.Bit("flags_o"), bitfield.Bit("flags_n"), bitfield.Bit("flags_m"), bitfield.Bit("flags_r7"),
	bitfield.Bit("flags_l"), bitfield.Bit("flags_k"), bitfield.Bit("flags_j"), bitfield.Bit("flags_r8"),
	bitfield.Bit("flags_h"), bitfield.Bit("flags_r9"), bitfield.Bit("flags_g"), bitfield.Bit("flags_f"),
	bitfield.Bit("flags_e"), bitfield.Bit("flags_d"), bitfield.Bit("flags_r10"), bitfield.Bit("flags_c"),
	bitfield.Bit("flags_b"), bitfield.Bit("flags_a"),
)

// Message is the generic message: signature, type and raw payload. It
// decodes types this package does not know.
var Message = binstruct.MustDefine("ntlm", []binstruct.Field{
	binstruct.Def("signature", binstruct.StaticBytes(8)).Default(Signature),
	binstruct.Def("type", binstruct.EnumOf(4, binenc.LittleEndian, Types)),
	binstruct.Def("payload", binstruct.BytesType),
})

// HeaderSize is the size of signature and type.
const HeaderSize = 12

// triple declares the length, max-length and offset fields of item name.
func triple(name string) []binstruct.Field {
	return []binstruct.Field{
		binstruct.Def(name+"_len", binstruct.U16LE),
		binstruct.Def(name+"_maxlen", binstruct.U16LE),
		binstruct.Def(name+"_offset", binstruct.U32LE),
	}
}

// ref addresses item name through its triple.
func ref(name string, t binstruct.Type) binstruct.PayloadRef {
	return binstruct.PayloadRef{
		Name:      name,
		Type:      t,
		Length:    name + "_len",
		MaxLength: name + "_maxlen",
		Offset:    name + "_offset",
	}
}

// textRef addresses a string item encoded after the unicode flag.
func textRef(name string) binstruct.PayloadRef {
	r := ref(name, binstruct.WideStringType(binstruct.ASCII()))
	r.Pick = func(v binstruct.View) binstruct.Type {
		return binstruct.WideStringType(binstruct.Unicode(v.Flag(FlagUnicode)))
	}
	r.Sync = func(v binstruct.View, item binstruct.Value) {
		if s, ok := item.(*binstruct.WideString); ok {
			s.SetUnicode(v.Flag(FlagUnicode))
		}
	}
	return r
}

// fields concatenates field groups.
func fields(groups ...[]binstruct.Field) []binstruct.Field {
	var out []binstruct.Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func one(name string, t binstruct.Type) []binstruct.Field {
	return []binstruct.Field{binstruct.Def(name, t)}
}

var schemas = map[uint64]*binstruct.Schema{}

// IsMessage reports whether data starts with the NTLM signature.
func IsMessage(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Signature))
}

// Read decodes an NTLM message with the schema of its type. Unknown types
// decode as Message.
func Read(data []byte) (*binstruct.Struct, error) {
	if !IsMessage(data) {
		return nil, ErrNotNTLM
	}
	r := binenc.NewReader(data)
	r.Skip(len(Signature))
	typ := r.ReadUint32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("ntlm: %w: %v", binstruct.ErrTruncated, err)
	}
	schema, ok := schemas[uint64(typ)]
	if !ok {
		schema = Message
	}
	s := schema.New()
	if _, err := s.Read(data); err != nil {
		return nil, err
	}
	return s, nil
}

func init() {
	schemas[TypeNegotiate] = Negotiate
	schemas[TypeChallenge] = Challenge
	schemas[TypeAuthenticate] = Authenticate
	binstruct.Register(Message, Negotiate, Challenge, Authenticate,
		AvPair, StringAvPair, TimestampAvPair, FlagsAvPair, EOLAvPair, Ntlmv2Response)
}
