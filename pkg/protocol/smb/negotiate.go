package smb

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
)

// DialectFormat is the buffer format byte preceding each dialect string.
const DialectFormat = 2

// Dialect is one dialect string offered by a NEGOTIATE request.
var Dialect = binstruct.MustDefine("smb_dialect", []binstruct.Field{
	binstruct.Def("format", binstruct.U8).Default(DialectFormat),
	binstruct.Def("dialect", binstruct.CStringType),
})

// NegotiateRequest lists the dialects the client understands.
var NegotiateRequest = binstruct.MustDefine("smb_negotiate_request", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8),
	binstruct.Def("byte_count", binstruct.U16LE),
	binstruct.Def("dialects", binstruct.ArrayOf(binstruct.ArraySpec{Element: Dialect.Type()})),
},
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		return s.SetUint("byte_count", uint64(s.Get("dialects").Size()))
	}),
)

// NegotiateResponse carries the selected dialect index in its first word.
var NegotiateResponse = Blocks.MustDerive("smb_negotiate_response")

// AddDialect appends a dialect string to a NEGOTIATE request.
func AddDialect(req *binstruct.Struct, name string) error {
	d := Dialect.New()
	if err := d.Set("dialect", name); err != nil {
		return err
	}
	req.Array("dialects").Append(d)
	return nil
}

// Dialects returns the dialect strings of a NEGOTIATE request.
func Dialects(req *binstruct.Struct) []string {
	a := req.Array("dialects")
	if a == nil {
		return nil
	}
	out := make([]string, 0, a.Len())
	for _, v := range a.Elements() {
		out = append(out, binstruct.Human(v.(*binstruct.Struct).Get("dialect")))
	}
	return out
}

// DialectIndex returns the index of the dialect selected by a NEGOTIATE
// response, and false when the response carries no words.
func DialectIndex(resp *binstruct.Struct) (uint16, bool) {
	w := Words(resp)
	if len(w) == 0 {
		return 0, false
	}
	return w[0], true
}
