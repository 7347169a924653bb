package netbios

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// DatagramPort is the datagram service UDP port.
const DatagramPort = 138

// Datagram message types.
const (
	DatagramDirectUnique      = 0x10
	DatagramDirectGroup       = 0x11
	DatagramBroadcast         = 0x12
	DatagramError             = 0x13
	DatagramQueryRequest      = 0x14
	DatagramPositiveQueryResp = 0x15
	DatagramNegativeQueryResp = 0x16
)

// DatagramTypes names the datagram message types.
var DatagramTypes = binstruct.NewEnum(map[string]uint64{
	"direct_unique":       DatagramDirectUnique,
	"direct_group":        DatagramDirectGroup,
	"broadcast":           DatagramBroadcast,
	"error":               DatagramError,
	"query_request":       DatagramQueryRequest,
	"positive_query_resp": DatagramPositiveQueryResp,
	"negative_query_resp": DatagramNegativeQueryResp,
})

// DatagramFlags splits the flags byte: node type (snt), first fragment (f)
// and more fragments (m).
var DatagramFlags = bitfield.MustNew(8,
	bitfield.Bits("rsv", 4),
	bitfield.Bits("snt", 2),
	bitfield.Bit("f"),
	bitfield.Bit("m"),
)

func carriesData(v binstruct.View) bool {
	t := v.Uint("type")
	return t >= DatagramDirectUnique && t <= DatagramBroadcast
}

func notError(v binstruct.View) bool { return v.Uint("type") != DatagramError }

func isError(v binstruct.View) bool { return v.Uint("type") == DatagramError }

// Datagram is the datagram service header. Error datagrams carry an error
// code instead of length and offset; only data datagrams carry a source
// name and a body.
var Datagram = binstruct.MustDefine("netbios_datagram", []binstruct.Field{
	binstruct.Def("type", binstruct.EnumOf(1, binenc.BigEndian, DatagramTypes)).Default(DatagramDirectGroup),
	binstruct.Def("flags", binstruct.U8),
	binstruct.Def("dgm_id", binstruct.U16BE),
	binstruct.Def("src_ip", IPv4Type),
	binstruct.Def("src_port", binstruct.U16BE).Default(DatagramPort),
	binstruct.Def("dgm_length", binstruct.U16BE).When(notError),
	binstruct.Def("packet_offset", binstruct.U16BE).When(notError),
	binstruct.Def("error_code", binstruct.U16BE).When(isError),
	binstruct.Def("src_name", NameType).When(carriesData).Default(""),
	binstruct.Def("dst_name", NameType).When(notError).Default(""),
	binstruct.Def("body", binstruct.BytesType).When(carriesData),
},
	binstruct.WithBits("flags", DatagramFlags),
	binstruct.WithRecompute(recomputeDatagram),
)

// recomputeDatagram sets dgm_length to the bytes following the header:
// the present names and the body.
func recomputeDatagram(s *binstruct.Struct) error {
	length := 0
	for _, name := range []string{"src_name", "dst_name", "body"} {
		if s.Present(name) {
			length += s.Get(name).Size()
		}
	}
	return s.SetUint("dgm_length", uint64(length))
}
