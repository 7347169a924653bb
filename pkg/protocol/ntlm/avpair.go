package ntlm

import (
	"encoding/binary"
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// AV pair identifiers. [MS-NLMP] 2.2.2.1
const (
	AvEOL             = 0
	AvNbComputerName  = 1
	AvNbDomainName    = 2
	AvDNSComputerName = 3
	AvDNSDomainName   = 4
	AvDNSTreeName     = 5
	AvFlags           = 6
	AvTimestamp       = 7
	AvSingleHost      = 8
	AvTargetName      = 9
	AvChannelBindings = 10
)

// AvTypes names the AV pair identifiers.
var AvTypes = binstruct.NewEnum(map[string]uint64{
	"eol":               AvEOL,
	"nb_computer_name":  AvNbComputerName,
	"nb_domain_name":    AvNbDomainName,
	"dns_computer_name": AvDNSComputerName,
	"dns_domain_name":   AvDNSDomainName,
	"dns_tree_name":     AvDNSTreeName,
	"flags":             AvFlags,
	"timestamp":         AvTimestamp,
	"single_host":       AvSingleHost,
	"target_name":       AvTargetName,
	"channel_bindings":  AvChannelBindings,
})

// setAvLength sets length to the size of the value.
func setAvLength(s *binstruct.Struct) error {
	return s.SetUint("length", uint64(s.Size()-4))
}

// AvPair is the generic attribute-value pair with a raw value.
var AvPair = binstruct.MustDefine("ntlm_avpair", []binstruct.Field{
	binstruct.Def("type", binstruct.EnumOf(2, binenc.LittleEndian, AvTypes)),
	binstruct.Def("length", binstruct.U16LE),
	binstruct.Def("value", binstruct.BytesType).Build(binstruct.BoundedBy("length")),
}, binstruct.WithRecompute(setAvLength))

// StringAvPair carries a UTF-16LE name.
var StringAvPair = AvPair.MustDerive("ntlm_string_avpair",
	binstruct.Replace(binstruct.Def("value", binstruct.WideStringType(binstruct.Unicode(true))).
		Build(binstruct.BuilderFunc(func(v binstruct.View, _ binstruct.Type) binstruct.Value {
			return binstruct.NewWideString(binstruct.Unicode(true), binstruct.Bound(int(v.Uint("length"))))
		}))),
)

// TimestampAvPair carries a FILETIME.
var TimestampAvPair = AvPair.MustDerive("ntlm_timestamp_avpair",
	binstruct.OverrideDefault("type", uint64(AvTimestamp)),
	binstruct.Replace(binstruct.Def("value", binstruct.FiletimeType)),
)

// FlagsAvPair carries the 32-bit MsvAvFlags.
var FlagsAvPair = AvPair.MustDerive("ntlm_flags_avpair",
	binstruct.OverrideDefault("type", uint64(AvFlags)),
	binstruct.Replace(binstruct.Def("value", binstruct.U32LE)),
)

// EOLAvPair ends an AV pair list.
var EOLAvPair = AvPair.MustDerive("ntlm_eol_avpair", binstruct.Remove("value"))

// AvPairs is the list shape of target info: pairs dispatched on their
// identifier, ending at the EOL pair.
var AvPairs = binstruct.ArraySpec{
	Element: AvPair.Type(),
	Discriminant: func(peek []byte) (uint64, bool) {
		if len(peek) < 2 {
			return 0, false
		}
		return uint64(binary.LittleEndian.Uint16(peek)), true
	},
	Variants: map[uint64]binstruct.Type{
		AvEOL:             EOLAvPair.Type(),
		AvNbComputerName:  StringAvPair.Type(),
		AvNbDomainName:    StringAvPair.Type(),
		AvDNSComputerName: StringAvPair.Type(),
		AvDNSDomainName:   StringAvPair.Type(),
		AvDNSTreeName:     StringAvPair.Type(),
		AvTargetName:      StringAvPair.Type(),
		AvFlags:           FlagsAvPair.Type(),
		AvTimestamp:       TimestampAvPair.Type(),
	},
	Sentinel: func(v binstruct.Value) bool {
		s, ok := v.(*binstruct.Struct)
		return ok && s.Schema() == EOLAvPair
	},
}

// NewAvPair builds the pair for kind holding value, with its length set.
// Pass no value for the EOL pair.
func NewAvPair(kind uint64, value any) (*binstruct.Struct, error) {
	var schema *binstruct.Schema
	switch kind {
	case AvEOL:
		schema = EOLAvPair
	case AvNbComputerName, AvNbDomainName, AvDNSComputerName, AvDNSDomainName, AvDNSTreeName, AvTargetName:
		schema = StringAvPair
	case AvFlags:
		schema = FlagsAvPair
	case AvTimestamp:
		schema = TimestampAvPair
	default:
		schema = AvPair
	}
	s := schema.New()
	if err := s.SetUint("type", kind); err != nil {
		return nil, err
	}
	if value != nil {
		if err := s.Set("value", value); err != nil {
			return nil, fmt.Errorf("ntlm: av pair %d: %w", kind, err)
		}
	}
	if err := s.Recompute(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewAvPairs returns an empty AV pair list.
func NewAvPairs() *binstruct.Array {
	return binstruct.NewArray(AvPairs)
}
