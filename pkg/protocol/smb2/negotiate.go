package smb2

import (
	"encoding/binary"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
	"github.com/marmos91/smbwire/pkg/protocol/gssapi"
)

// Negotiate context types [MS-SMB2] 2.2.3.1
const (
	ContextPreauthIntegrity = 0x0001
	ContextEncryption       = 0x0002
	ContextCompression      = 0x0003
	ContextNetname          = 0x0005
	ContextTransport        = 0x0006
	ContextRDMATransform    = 0x0007
	ContextSigning          = 0x0008
)

// ContextTypes names the negotiate context types.
var ContextTypes = binstruct.NewEnum(map[string]uint64{
	"preauth_integrity_cap": ContextPreauthIntegrity,
	"encryption_cap":        ContextEncryption,
	"compression_cap":       ContextCompression,
	"netname_context_id":    ContextNetname,
	"transport_cap":         ContextTransport,
	"rdma_transform_cap":    ContextRDMATransform,
	"signing_cap":           ContextSigning,
})

// HashAlgorithms names the preauth integrity hash algorithms.
var HashAlgorithms = binstruct.NewEnum(map[string]uint64{"sha512": 1})

// Ciphers names the encryption ciphers.
var Ciphers = binstruct.NewEnum(map[string]uint64{
	"aes128_ccm": 1,
	"aes128_gcm": 2,
	"aes256_ccm": 3,
	"aes256_gcm": 4,
})

// ContextHeaderSize is the size of type, data_length and reserved.
const ContextHeaderSize = 8

// NegotiateContext is the generic negotiate context: an 8-byte header, data
// and the padding that aligns the next context on 8 bytes.
var NegotiateContext = binstruct.MustDefine("smb2_negotiate_context", []binstruct.Field{
	binstruct.Def("type", binstruct.EnumOf(2, binenc.LittleEndian, ContextTypes)),
	binstruct.Def("data_length", binstruct.U16LE),
	binstruct.Def("reserved", binstruct.U32LE),
	binstruct.Def("data", binstruct.BytesType).Build(binstruct.BoundedBy("data_length")),
	binstruct.Def("pad", binstruct.PaddingTo(8)),
}, binstruct.WithRecompute(setDataLength))

// setDataLength sets data_length to the bytes between the context header and
// the padding.
func setDataLength(s *binstruct.Struct) error {
	return s.SetUint("data_length", uint64(s.MustOffsetOf("pad")-ContextHeaderSize))
}

// PreauthIntegrityCap is SMB2_PREAUTH_INTEGRITY_CAPABILITIES.
var PreauthIntegrityCap = NegotiateContext.MustDerive("smb2_preauth_integrity_cap",
	binstruct.OverrideDefault("type", ContextPreauthIntegrity),
	binstruct.Remove("data"),
	binstruct.InsertBefore("pad",
		binstruct.Def("hash_alg_count", binstruct.U16LE),
		binstruct.Def("salt_length", binstruct.U16LE),
		binstruct.Def("hash_alg", binstruct.ArrayOf(binstruct.ArraySpec{
			Element: binstruct.EnumOf(2, binenc.LittleEndian, HashAlgorithms),
		})).Build(binstruct.CountedBy("hash_alg_count")),
		binstruct.Def("salt", binstruct.BytesType).Build(binstruct.BoundedBy("salt_length")),
	),
	binstruct.SetRecompute(func(s *binstruct.Struct) error {
		if err := s.SetUint("hash_alg_count", uint64(s.Array("hash_alg").Len())); err != nil {
			return err
		}
		if err := s.SetUint("salt_length", uint64(s.Get("salt").Size())); err != nil {
			return err
		}
		return setDataLength(s)
	}),
)

// EncryptionCap is SMB2_ENCRYPTION_CAPABILITIES.
var EncryptionCap = NegotiateContext.MustDerive("smb2_encryption_cap",
	binstruct.OverrideDefault("type", ContextEncryption),
	binstruct.Remove("data"),
	binstruct.InsertBefore("pad",
		binstruct.Def("cipher_count", binstruct.U16LE),
		binstruct.Def("ciphers", binstruct.ArrayOf(binstruct.ArraySpec{
			Element: binstruct.EnumOf(2, binenc.LittleEndian, Ciphers),
		})).Build(binstruct.CountedBy("cipher_count")),
	),
	binstruct.SetRecompute(func(s *binstruct.Struct) error {
		if err := s.SetUint("cipher_count", uint64(s.Array("ciphers").Len())); err != nil {
			return err
		}
		return setDataLength(s)
	}),
)

// contextList dispatches each context on its type.
var contextList = binstruct.ArraySpec{
	Element: NegotiateContext.Type(),
	Discriminant: func(peek []byte) (uint64, bool) {
		if len(peek) < 2 {
			return 0, false
		}
		return uint64(binary.LittleEndian.Uint16(peek)), true
	},
	Variants: map[uint64]binstruct.Type{
		ContextPreauthIntegrity: PreauthIntegrityCap.Type(),
		ContextEncryption:       EncryptionCap.Type(),
	},
}

// Capabilities splits the capabilities field. Reserved bits are cap_rsv.
var Capabilities = bitfield.MustNew(32,
	bitfield.Bits("cap_rsv", 25),
	bitfield.Bit("encryption"),
	bitfield.Bit("dir_leasing"),
	bitfield.Bit("persistent_handles"),
	bitfield.Bit("multi_channel"),
	bitfield.Bit("large_mtu"),
	bitfield.Bit("leasing"),
	bitfield.Bit("dfs"),
)

// NegotiateRequest is the NEGOTIATE request body. [MS-SMB2] 2.2.3
var NegotiateRequest = binstruct.MustDefine("smb2_negotiate_request", []binstruct.Field{
	binstruct.Def("structure_size", binstruct.U16LE).Default(36),
	binstruct.Def("dialect_count", binstruct.U16LE),
	binstruct.Def("security_mode", binstruct.EnumOf(2, binenc.LittleEndian, SecurityModes)),
	binstruct.Def("reserved", binstruct.U16LE),
	binstruct.Def("capabilities", binstruct.U32LE),
	binstruct.Def("client_guid", GUIDType),
	binstruct.Def("context_offset", binstruct.U32LE),
	binstruct.Def("context_count", binstruct.U16LE),
	binstruct.Def("reserved2", binstruct.U16LE),
	binstruct.Def("dialects", binstruct.ArrayOf(binstruct.ArraySpec{Element: DialectType})).
		Build(binstruct.CountedBy("dialect_count")),
	binstruct.Def("pad", binstruct.PaddingTo(8)),
	binstruct.Def("context_list", binstruct.ArrayOf(contextList)).Build(binstruct.CountedBy("context_count")),
},
	binstruct.WithBits("capabilities", Capabilities),
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		if err := s.SetUint("dialect_count", uint64(s.Array("dialects").Len())); err != nil {
			return err
		}
		return setContextFields(s)
	}),
)

// NegotiateResponse is the NEGOTIATE response body. [MS-SMB2] 2.2.4
var NegotiateResponse = binstruct.MustDefine("smb2_negotiate_response", []binstruct.Field{
	binstruct.Def("structure_size", binstruct.U16LE).Default(65),
	binstruct.Def("security_mode", binstruct.EnumOf(2, binenc.LittleEndian, SecurityModes)),
	binstruct.Def("dialect", DialectType),
	binstruct.Def("context_count", binstruct.U16LE),
	binstruct.Def("server_guid", GUIDType),
	binstruct.Def("capabilities", binstruct.U32LE),
	binstruct.Def("max_trans_size", binstruct.U32LE),
	binstruct.Def("max_read_size", binstruct.U32LE),
	binstruct.Def("max_write_size", binstruct.U32LE),
	binstruct.Def("system_time", binstruct.FiletimeType),
	binstruct.Def("start_time", binstruct.FiletimeType),
	binstruct.Def("buffer_offset", binstruct.U16LE),
	binstruct.Def("buffer_length", binstruct.U16LE),
	binstruct.Def("context_offset", binstruct.U32LE),
	binstruct.Def("buffer", gssapi.TokenType).Build(gssapi.BoundedBy("buffer_length")),
	binstruct.Def("pad", binstruct.PaddingTo(8)),
	binstruct.Def("context_list", binstruct.ArrayOf(contextList)).Build(binstruct.CountedBy("context_count")),
},
	binstruct.WithBits("capabilities", Capabilities),
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		if err := s.SetUint("buffer_offset", uint64(s.Anchor()+s.MustOffsetOf("buffer"))); err != nil {
			return err
		}
		if err := s.SetUint("buffer_length", uint64(s.Get("buffer").Size())); err != nil {
			return err
		}
		return setContextFields(s)
	}),
)

// setContextFields sets context_count and context_offset. The offset is
// measured from the start of the SMB2 header and is zero when no contexts
// follow.
func setContextFields(s *binstruct.Struct) error {
	n := s.Array("context_list").Len()
	if err := s.SetUint("context_count", uint64(n)); err != nil {
		return err
	}
	offset := 0
	if n > 0 {
		offset = s.Anchor() + s.MustOffsetOf("context_list")
	}
	return s.SetUint("context_offset", uint64(offset))
}
