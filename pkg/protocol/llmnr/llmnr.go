// Package llmnr declares Link-Local Multicast Name Resolution messages
// (RFC 4795). The fixed header is a binstruct schema with the LLMNR flag
// names; question and resource sections share the DNS wire format and are
// decoded and built with golang.org/x/net/dns/dnsmessage.
package llmnr

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/dns/dnsmessage"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// Port is the LLMNR UDP and TCP port.
const Port = 5355

// HeaderSize is the size of the fixed header.
const HeaderSize = 12

var (
	// MulticastIPv4 is the IPv4 query group.
	MulticastIPv4 = netip.MustParseAddr("224.0.0.252")
	// MulticastIPv6 is the IPv6 query group.
	MulticastIPv6 = netip.MustParseAddr("ff02::1:3")
	// MulticastMAC is the Ethernet address of the IPv4 group.
	MulticastMAC = net.HardwareAddr{0x01, 0x00, 0x5e, 0x00, 0x00, 0xfc}
	// MulticastMAC6 is the Ethernet address of the IPv6 group.
	MulticastMAC6 = net.HardwareAddr{0x33, 0x33, 0x00, 0x01, 0x00, 0x03}
)

// ErrMalformed wraps section decoding errors.
var ErrMalformed = errors.New("llmnr: malformed message")

// Flags splits the 16-bit flags word: query/response, opcode, conflict,
// truncation, tentative, reserved and response code.
var Flags = bitfield.MustNew(16,
	bitfield.Bit("qr"),
	bitfield.Bits("opcode", 4),
	bitfield.Bit("c"),
	bitfield.Bit("tc"),
	bitfield.Bit("t"),
	bitfield.Bits("z", 4),
	bitfield.Bits("rcode", 4),
)

// Header is the LLMNR header followed by the raw sections.
var Header = binstruct.MustDefine("llmnr", []binstruct.Field{
	binstruct.Def("id", binstruct.U16BE),
	binstruct.Def("flags", binstruct.U16BE),
	binstruct.Def("qdcount", binstruct.U16BE),
	binstruct.Def("ancount", binstruct.U16BE),
	binstruct.Def("nscount", binstruct.U16BE),
	binstruct.Def("arcount", binstruct.U16BE),
	binstruct.Def("sections", binstruct.BytesType),
}, binstruct.WithBits("flags", Flags))

// Message is a decoded LLMNR message.
type Message struct {
	Header      *binstruct.Struct
	Questions   []dnsmessage.Question
	Answers     []dnsmessage.Resource
	Authorities []dnsmessage.Resource
	Additionals []dnsmessage.Resource
}

// IsResponse reports whether the qr flag is set.
func (m *Message) IsResponse() bool { return m.Header.Flag("qr") }

// Decode reads the header and all sections of an LLMNR message.
func Decode(data []byte) (*Message, error) {
	h := Header.New()
	if _, err := h.Read(data); err != nil {
		return nil, err
	}
	m := &Message{Header: h}
	var p dnsmessage.Parser
	if _, err := p.Start(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var err error
	if m.Questions, err = p.AllQuestions(); err != nil {
		return nil, fmt.Errorf("%w: questions: %v", ErrMalformed, err)
	}
	if m.Answers, err = p.AllAnswers(); err != nil {
		return nil, fmt.Errorf("%w: answers: %v", ErrMalformed, err)
	}
	if m.Authorities, err = p.AllAuthorities(); err != nil {
		return nil, fmt.Errorf("%w: authorities: %v", ErrMalformed, err)
	}
	if m.Additionals, err = p.AllAdditionals(); err != nil {
		return nil, fmt.Errorf("%w: additionals: %v", ErrMalformed, err)
	}
	return m, nil
}

func question(name string, qtype dnsmessage.Type) (dnsmessage.Question, error) {
	n, err := dnsmessage.NewName(fqdn(name))
	if err != nil {
		return dnsmessage.Question{}, err
	}
	return dnsmessage.Question{Name: n, Type: qtype, Class: dnsmessage.ClassINET}, nil
}

func fqdn(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

// NewQuery builds a query for name.
func NewQuery(id uint16, name string, qtype dnsmessage.Type) ([]byte, error) {
	q, err := question(name, qtype)
	if err != nil {
		return nil, err
	}
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{ID: id})
	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	if err := b.Question(q); err != nil {
		return nil, err
	}
	return b.Finish()
}

// NewResponse builds a response resolving name to addr.
func NewResponse(id uint16, name string, addr netip.Addr, ttl uint32) ([]byte, error) {
	qtype := dnsmessage.TypeA
	if addr.Is6() && !addr.Is4In6() {
		qtype = dnsmessage.TypeAAAA
	}
	q, err := question(name, qtype)
	if err != nil {
		return nil, err
	}
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{ID: id, Response: true})
	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	if err := b.Question(q); err != nil {
		return nil, err
	}
	if err := b.StartAnswers(); err != nil {
		return nil, err
	}
	rh := dnsmessage.ResourceHeader{Name: q.Name, Class: dnsmessage.ClassINET, TTL: ttl}
	if qtype == dnsmessage.TypeA {
		err = b.AResource(rh, dnsmessage.AResource{A: addr.Unmap().As4()})
	} else {
		err = b.AAAAResource(rh, dnsmessage.AAAAResource{AAAA: addr.As16()})
	}
	if err != nil {
		return nil, err
	}
	return b.Finish()
}

// Address returns the address carried by an A or AAAA resource.
func Address(r dnsmessage.Resource) (netip.Addr, bool) {
	switch body := r.Body.(type) {
	case *dnsmessage.AResource:
		return netip.AddrFrom4(body.A), true
	case *dnsmessage.AAAAResource:
		return netip.AddrFrom16(body.AAAA), true
	}
	return netip.Addr{}, false
}

// Route returns the IP TTL and link-layer destination a message sent to dst
// should use. Multicast queries are link-local: TTL 1 and the group MAC
// address. Unicast destinations keep the caller's TTL and a nil
// MAC.
func Route(dst netip.Addr, ttl uint8) (uint8, net.HardwareAddr) {
	if !dst.IsMulticast() {
		return ttl, nil
	}
	if dst.Is4() {
		return 1, MulticastMAC
	}
	return 1, MulticastMAC6
}

func init() {
	binstruct.Register(Header)
}
