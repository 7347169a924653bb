package smb2

import "github.com/marmos91/smbwire/pkg/binstruct"

// ErrorResponse is the body of responses carrying an error status.
// [MS-SMB2] 2.2.2
var ErrorResponse = binstruct.MustDefine("smb2_error_response", []binstruct.Field{
	binstruct.Def("structure_size", binstruct.U16LE).Default(9),
	binstruct.Def("context_count", binstruct.U8),
	binstruct.Def("reserved", binstruct.U8),
	binstruct.Def("byte_count", binstruct.U32LE),
	binstruct.Def("data", binstruct.BytesType),
}, binstruct.WithAnchor(HeaderSize))
