package smb

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
)

// BrowseMailslot is the transaction name of browser announcements.
const BrowseMailslot = `\MAILSLOT\BROWSE`

// transAlign aligns the start of transaction data.
const transAlign = 4

// padToData builds the pad between the current position and data_offset.
var padToData = binstruct.BoundedFunc(func(v binstruct.View) int {
	return max(int(v.Uint("data_offset"))-v.Offset(), 0)
})

// TransRequest is the TRANSACTION request. Parameters and data follow the
// name after pad1; data_offset locates them from the SMB header.
var TransRequest = binstruct.MustDefine("smb_trans_request", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8).Default(14),
	binstruct.Def("total_param_count", binstruct.U16LE),
	binstruct.Def("total_data_count", binstruct.U16LE),
	binstruct.Def("max_param_count", binstruct.U16LE),
	binstruct.Def("max_data_count", binstruct.U16LE),
	binstruct.Def("max_setup_count", binstruct.U8),
	binstruct.Def("rsv1", binstruct.U8),
	binstruct.Def("flags", binstruct.U16LE),
	binstruct.Def("timeout", binstruct.U32LE),
	binstruct.Def("rsv2", binstruct.U16LE),
	binstruct.Def("param_count", binstruct.U16LE),
	binstruct.Def("param_offset", binstruct.U16LE),
	binstruct.Def("data_count", binstruct.U16LE),
	binstruct.Def("data_offset", binstruct.U16LE),
	binstruct.Def("setup_count", binstruct.U8),
	binstruct.Def("rsv3", binstruct.U8),
	binstruct.Def("setup", binstruct.ArrayOf(words)).Build(binstruct.CountedBy("setup_count")),
	binstruct.Def("byte_count", binstruct.U16LE),
	binstruct.Def("padname", binstruct.U8).When(unicode),
	binstruct.Def("name", binstruct.WideStringType(binstruct.NulTerminated())).Build(textBuilder),
	binstruct.Def("pad1", binstruct.BytesType).Build(padToData),
	binstruct.Def("body", binstruct.BytesType),
},
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		syncText(s, "name")
		return setTransCounts(s, 14, "padname", "name")
	}),
)

// TransResponse is the TRANSACTION response.
var TransResponse = binstruct.MustDefine("smb_trans_response", []binstruct.Field{
	binstruct.Def("word_count", binstruct.U8).Default(10),
	binstruct.Def("total_param_count", binstruct.U16LE),
	binstruct.Def("total_data_count", binstruct.U16LE),
	binstruct.Def("rsv1", binstruct.U16LE),
	binstruct.Def("param_count", binstruct.U16LE),
	binstruct.Def("param_offset", binstruct.U16LE),
	binstruct.Def("param_displacement", binstruct.U16LE),
	binstruct.Def("data_count", binstruct.U16LE),
	binstruct.Def("data_offset", binstruct.U16LE),
	binstruct.Def("data_displacement", binstruct.U16LE),
	binstruct.Def("setup_count", binstruct.U8),
	binstruct.Def("rsv2", binstruct.U8),
	binstruct.Def("setup", binstruct.ArrayOf(words)).Build(binstruct.CountedBy("setup_count")),
	binstruct.Def("byte_count", binstruct.U16LE),
	binstruct.Def("pad1", binstruct.BytesType).Build(padToData),
	binstruct.Def("body", binstruct.BytesType),
},
	binstruct.WithAnchor(HeaderSize),
	binstruct.WithRecompute(func(s *binstruct.Struct) error {
		return setTransCounts(s, 10, "", "")
	}),
)

// setTransCounts sets the setup and byte counts. Without parameters it also
// aligns the data on four bytes and points the parameter and data offsets at
// it; otherwise pad1 and the offsets are left as they are.
func setTransCounts(s *binstruct.Struct, baseWords int, padName, name string) error {
	setup := s.Array("setup").Len()
	if err := s.SetUint("setup_count", uint64(setup)); err != nil {
		return err
	}
	if err := s.SetUint("word_count", uint64(baseWords+setup)); err != nil {
		return err
	}
	body := s.Get("body").Size()
	if s.Uint("param_count") == 0 {
		at := s.Anchor() + s.MustOffsetOf("pad1")
		pad, err := binstruct.PadLen(at, transAlign)
		if err != nil {
			return err
		}
		if err := s.Set("pad1", make([]byte, pad)); err != nil {
			return err
		}
		for _, f := range []string{"param_offset", "data_offset"} {
			if err := s.SetUint(f, uint64(at+pad)); err != nil {
				return err
			}
		}
		for _, f := range []string{"data_count", "total_data_count"} {
			if err := s.SetUint(f, uint64(body)); err != nil {
				return err
			}
		}
	}
	count := s.Get("pad1").Size() + body
	if name != "" {
		count += s.Get(name).Size()
	}
	if padName != "" && s.Present(padName) {
		count++
	}
	return s.SetUint("byte_count", uint64(count))
}

// TransName returns the transaction name of a TRANSACTION request.
func TransName(req *binstruct.Struct) string {
	if s, ok := req.Get("name").(*binstruct.WideString); ok {
		return s.String()
	}
	return ""
}
