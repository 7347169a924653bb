package ntlm

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
)

// Negotiate is the NEGOTIATE_MESSAGE. Its strings are OEM. [MS-NLMP] 2.2.1.1
var Negotiate = Message.MustDerive("ntlm_negotiate",
	binstruct.OverrideDefault("type", uint64(TypeNegotiate)),
	binstruct.InsertBefore("payload", fields(
		one("flags", binstruct.U32LE),
		triple("domain_name"),
		triple("workstation"),
		one("version", binstruct.StaticBytes(8)),
	)...),
	binstruct.Replace(binstruct.Def("payload", binstruct.PayloadOf(binstruct.PayloadSpec{
		Refs: []binstruct.PayloadRef{
			ref("domain_name", binstruct.WideStringType(binstruct.ASCII())),
			ref("workstation", binstruct.WideStringType(binstruct.ASCII())),
		},
	})).Build(binstruct.Locate)),
	binstruct.AddBits("flags", NegotiateFlags),
)

// Challenge is the CHALLENGE_MESSAGE. [MS-NLMP] 2.2.1.2
var Challenge = Message.MustDerive("ntlm_challenge",
	binstruct.OverrideDefault("type", uint64(TypeChallenge)),
	binstruct.InsertBefore("payload", fields(
		triple("target_name"),
		one("flags", binstruct.U32LE),
		one("challenge", binstruct.StaticBytes(8)),
		one("reserved", binstruct.U64LE),
		triple("target_info"),
		one("version", binstruct.StaticBytes(8)),
	)...),
	binstruct.Replace(binstruct.Def("payload", binstruct.PayloadOf(binstruct.PayloadSpec{
		Refs: []binstruct.PayloadRef{
			textRef("target_name"),
			ref("target_info", binstruct.ArrayOf(AvPairs)),
		},
	})).Build(binstruct.Locate)),
	binstruct.AddBits("flags", NegotiateFlags),
)

// Authenticate is the AUTHENTICATE_MESSAGE. [MS-NLMP] 2.2.1.3
var Authenticate = Message.MustDerive("ntlm_authenticate",
	binstruct.OverrideDefault("type", uint64(TypeAuthenticate)),
	binstruct.InsertBefore("payload", fields(
		triple("lm_response"),
		triple("nt_response"),
		triple("domain_name"),
		triple("user_name"),
		triple("workstation"),
		triple("session_key"),
		one("flags", binstruct.U32LE),
		one("version", binstruct.StaticBytes(8)),
		one("mic", binstruct.StaticBytes(16)),
	)...),
	binstruct.Replace(binstruct.Def("payload", binstruct.PayloadOf(binstruct.PayloadSpec{
		Refs: []binstruct.PayloadRef{
			ref("lm_response", binstruct.BytesType),
			func() binstruct.PayloadRef {
				r := ref("nt_response", binstruct.BytesType)
				r.Pick = pickNTResponse
				return r
			}(),
			textRef("domain_name"),
			textRef("user_name"),
			textRef("workstation"),
			ref("session_key", binstruct.BytesType),
		},
	})).Build(binstruct.Locate)),
	binstruct.AddBits("flags", NegotiateFlags),
)

// Payload returns the payload of a message, or nil for Message.
func Payload(m *binstruct.Struct) *binstruct.Payload {
	p, _ := m.Get("payload").(*binstruct.Payload)
	return p
}

// Text returns the string of a payload item, or "" when the item is not a
// string.
func Text(m *binstruct.Struct, item string) string {
	p := Payload(m)
	if p == nil {
		return ""
	}
	if s, ok := p.Item(item).(*binstruct.WideString); ok {
		return s.String()
	}
	return ""
}
