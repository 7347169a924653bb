package smb

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// AndXCommands names the commands an ANDX request may chain.
var AndXCommands = binstruct.NewEnum(map[string]uint64{
	"read":                0x0a,
	"ioctl":               0x27,
	"read_andx":           0x2e,
	"no_further_commands": CommandNoAndXCommand,
})

// OplockLevels names the granted oplock levels.
var OplockLevels = binstruct.NewEnum(map[string]uint64{
	"none":      0,
	"exclusive": 1,
	"batch":     2,
	"level_ii":  3,
})

// NtCreateAndXRequest opens or creates a file or pipe. The one-byte pad
// before the file name is present when strings are unicode.
var NtCreateAndXRequest = binstruct.MustDefine("smb_nt_create_and_x_request", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8).Default(24),
	binstruct.Def("and_x_command", binstruct.EnumOf(1, binenc.LittleEndian, AndXCommands)).Default(CommandNoAndXCommand),
	binstruct.Def("rsv1", binstruct.U8),
	binstruct.Def("and_x_offset", binstruct.U16LE),
	binstruct.Def("rsv2", binstruct.U8),
	binstruct.Def("filename_len", binstruct.U16LE),
	binstruct.Def("flags", binstruct.U32LE),
	binstruct.Def("root_dir_fid", binstruct.U32LE),
	binstruct.Def("access_mask", binstruct.U32LE),
	binstruct.Def("alloc_size", binstruct.U64LE),
	binstruct.Def("attributes", binstruct.U32LE),
	binstruct.Def("share_access", binstruct.U32LE),
	binstruct.Def("disposition", binstruct.U32LE),
	binstruct.Def("options", binstruct.U32LE),
	binstruct.Def("impersonation", binstruct.U32LE),
	binstruct.Def("sec_flags", binstruct.U8),
	binstruct.Def("byte_count", binstruct.U16LE),
	binstruct.Def("pad1", binstruct.U8).When(unicode),
	binstruct.Def("filename", binstruct.WideStringType(binstruct.NulTerminated())).Build(textBuilder),
	binstruct.Def("extra_bytes", binstruct.BytesType).Build(binstruct.BoundedFunc(func(v binstruct.View) int {
		n := int(v.Uint("byte_count")) - v.Value("filename").Size()
		if v.Has("pad1") {
			n--
		}
		return max(n, 0)
	})),
},
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		name := syncText(s, "filename")
		if err := s.SetUint("filename_len", uint64(name)); err != nil {
			return err
		}
		count := name + s.Get("extra_bytes").Size()
		if s.Present("pad1") {
			count++
		}
		return s.SetUint("byte_count", uint64(count))
	}),
)

// NtCreateAndXResponse reports the opened file.
var NtCreateAndXResponse = binstruct.MustDefine("smb_nt_create_and_x_response", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8).Default(34),
	binstruct.Def("and_x_command", binstruct.EnumOf(1, binenc.LittleEndian, AndXCommands)).Default(CommandNoAndXCommand),
	binstruct.Def("rsv1", binstruct.U8),
	binstruct.Def("and_x_offset", binstruct.U16LE),
	binstruct.Def("oplock_level", binstruct.EnumOf(1, binenc.LittleEndian, OplockLevels)),
	binstruct.Def("fid", binstruct.U16LE),
	binstruct.Def("disposition", binstruct.U32LE),
	binstruct.Def("create_time", binstruct.FiletimeType),
	binstruct.Def("access_time", binstruct.FiletimeType),
	binstruct.Def("write_time", binstruct.FiletimeType),
	binstruct.Def("change_time", binstruct.FiletimeType),
	binstruct.Def("attributes", binstruct.U32LE),
	binstruct.Def("alloc_size", binstruct.U64LE),
	binstruct.Def("end_of_file", binstruct.U64LE),
	binstruct.Def("res_type", binstruct.U16LE),
	binstruct.Def("pipe_status", binstruct.U16LE),
	binstruct.Def("directory", binstruct.U8),
	binstruct.Def("byte_count", binstruct.U16LE),
}, binstruct.WithAnchor(HeaderSize))
