package smb

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
)

var words = binstruct.ArraySpec{Element: binstruct.U16LE}

// Blocks is the generic SMB1 body: a parameter block of 16-bit words and a
// data block of bytes, each preceded by its count.
var Blocks = binstruct.MustDefine("smb_blocks", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8),
	binstruct.Def("words", binstruct.ArrayOf(words)).Build(binstruct.CountedBy("word_count")),
	binstruct.Def("byte_count", binstruct.U16LE),
	binstruct.Def("bytes", binstruct.BytesType).Build(binstruct.BoundedBy("byte_count")),
},
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		if err := s.SetUint("word_count", uint64(s.Array("words").Len())); err != nil {
			return err
		}
		return s.SetUint("byte_count", uint64(s.Get("bytes").Size()))
	}),
)

// Words returns the parameter words of a Blocks body.
func Words(s *binstruct.Struct) []uint16 {
	a := s.Array("words")
	if a == nil {
		return nil
	}
	out := make([]uint16, a.Len())
	for i := range out {
		out[i] = uint16(a.At(i).(binstruct.Unsigned).Uint())
	}
	return out
}
