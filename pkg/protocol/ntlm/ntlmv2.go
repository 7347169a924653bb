package ntlm

import "github.com/marmos91/smbwire/pkg/binstruct"

// Ntlmv2Response is the NTLMv2 response: the NTProofStr followed by the
// client challenge blob. Bytes after the EOL pair are kept in trailer.
// [MS-NLMP] 2.2.2.8
var Ntlmv2Response = binstruct.MustDefine("ntlmv2_response", []binstruct.Field{
	binstruct.Def("response", binstruct.StaticBytes(16)),
	binstruct.Def("type", binstruct.U8).Default(1),
	binstruct.Def("hi_type", binstruct.U8).Default(1),
	binstruct.Def("reserved1", binstruct.U16LE),
	binstruct.Def("reserved2", binstruct.U32LE),
	binstruct.Def("timestamp", binstruct.FiletimeType),
	binstruct.Def("client_challenge", binstruct.StaticBytes(8)),
	binstruct.Def("reserved3", binstruct.U32LE),
	binstruct.Def("avpairs", binstruct.ArrayOf(AvPairs)),
	binstruct.Def("trailer", binstruct.BytesType),
})

// NTLMv1ResponseSize is the length of LM and NTLMv1 responses. Longer NT
// responses are NTLMv2.
const NTLMv1ResponseSize = 24

// pickNTResponse decodes NT responses longer than NTLMv1 as NTLMv2.
func pickNTResponse(v binstruct.View) binstruct.Type {
	if v.Uint("nt_response_len") > NTLMv1ResponseSize {
		return Ntlmv2Response.Type()
	}
	return binstruct.BytesType
}
