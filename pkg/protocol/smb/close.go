package smb

import "github.com/marmos91/smbwire/pkg/binstruct"

// CloseRequest closes a file id.
var CloseRequest = binstruct.MustDefine("smb_close_request", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8).Default(3),
	binstruct.Def("fid", binstruct.U16LE),
	binstruct.Def("last_modified", binstruct.U32LE),
	binstruct.Def("byte_count", binstruct.U16LE),
}, binstruct.WithAnchor(HeaderSize))

// CloseResponse acknowledges a close.
var CloseResponse = binstruct.MustDefine("smb_close_response", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8),
	binstruct.Def("byte_count", binstruct.U16LE),
}, binstruct.WithAnchor(HeaderSize))
