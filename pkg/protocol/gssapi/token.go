package gssapi

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/spnego"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// ErrInvalidToken is returned when an unbounded token is not a DER element.
var ErrInvalidToken = errors.New("gssapi: invalid token")

// Kind classifies a token.
type Kind uint8

const (
	// KindEmpty is a zero-length token.
	KindEmpty Kind = iota
	// KindInit is a GSS-API wrapped NegTokenInit.
	KindInit
	// KindResp is a NegTokenResp.
	KindResp
	// KindRaw is any other content, kept as is.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInit:
		return "init"
	case KindResp:
		return "resp"
	default:
		return "raw"
	}
}

// Token is a SPNEGO token value. Unbounded tokens take the length of their
// outer DER element; bounded ones take exactly the length given by an
// earlier field.
type Token struct {
	bound int
	kind  Kind
	raw   []byte
	init  spnego.NegTokenInit
	resp  spnego.NegTokenResp
}

// NewToken returns an empty unbounded token.
func NewToken() *Token { return &Token{bound: -1} }

// TokenType is the Type of unbounded tokens.
var TokenType binstruct.Type = func() binstruct.Value { return NewToken() }

// BoundedBy returns a builder that reads the token over exactly the number
// of bytes held by an earlier integer field.
func BoundedBy(lengthField string) binstruct.Builder {
	return binstruct.BuilderFunc(func(v binstruct.View, _ binstruct.Type) binstruct.Value {
		return &Token{bound: int(v.Uint(lengthField))}
	})
}

// NewInit builds a wrapped NegTokenInit offering mechs, with an optional
// first mechanism token.
func NewInit(mechs []asn1.ObjectIdentifier, mechToken []byte) (*Token, error) {
	st := spnego.SPNEGOToken{
		Init: true,
		NegTokenInit: spnego.NegTokenInit{
			MechTypes:      mechs,
			MechTokenBytes: mechToken,
		},
	}
	b, err := st.Marshal()
	if err != nil {
		return nil, fmt.Errorf("gssapi: marshal init: %w", err)
	}
	t := NewToken()
	t.decode(b)
	return t, nil
}

// NewResp builds a NegTokenResp. mech may be nil.
func NewResp(state NegState, mech asn1.ObjectIdentifier, responseToken []byte) (*Token, error) {
	resp := spnego.NegTokenResp{
		NegState:      asn1.Enumerated(state),
		SupportedMech: mech,
		ResponseToken: responseToken,
	}
	b, err := resp.Marshal()
	if err != nil {
		return nil, fmt.Errorf("gssapi: marshal resp: %w", err)
	}
	t := NewToken()
	t.decode(b)
	return t, nil
}

// decode classifies raw and parses it when it is SPNEGO. Parse failures
// leave the token raw.
func (t *Token) decode(raw []byte) {
	t.raw = raw
	t.init = spnego.NegTokenInit{}
	t.resp = spnego.NegTokenResp{}
	if len(raw) == 0 {
		t.kind = KindEmpty
		return
	}
	t.kind = KindRaw
	if raw[0] != 0x60 && raw[0] != 0xa1 {
		return
	}
	var st spnego.SPNEGOToken
	if err := st.Unmarshal(raw); err != nil {
		return
	}
	switch {
	case st.Init:
		t.kind = KindInit
		t.init = st.NegTokenInit
	case st.Resp:
		t.kind = KindResp
		t.resp = st.NegTokenResp
	}
}

func (t *Token) Read(data []byte) (int, error) {
	n := t.bound
	if n < 0 {
		if len(data) == 0 {
			t.decode(nil)
			return 0, nil
		}
		var rv asn1.RawValue
		if _, err := asn1.Unmarshal(data, &rv); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		n = len(rv.FullBytes)
	}
	if n > len(data) {
		return 0, fmt.Errorf("%w: token needs %d bytes, have %d", binstruct.ErrTruncated, n, len(data))
	}
	t.decode(bytes.Clone(data[:n]))
	return n, nil
}

func (t *Token) Write(w *binenc.Writer) { w.WriteBytes(t.raw) }

func (t *Token) Size() int { return len(t.raw) }

// Set replaces the token with raw bytes or another token's content.
func (t *Token) Set(v any) error {
	switch x := v.(type) {
	case []byte:
		t.decode(bytes.Clone(x))
	case *Token:
		t.decode(bytes.Clone(x.raw))
	default:
		return fmt.Errorf("%w: %T assigned to gssapi token", binstruct.ErrBadValue, v)
	}
	if t.bound >= 0 {
		t.bound = len(t.raw)
	}
	return nil
}

// Kind returns the token classification.
func (t *Token) Kind() Kind { return t.kind }

// Raw returns the encoded token.
func (t *Token) Raw() []byte { return t.raw }

// MechTypes returns the mechanisms offered by an init token.
func (t *Token) MechTypes() []asn1.ObjectIdentifier {
	if t.kind != KindInit {
		return nil
	}
	return t.init.MechTypes
}

// HasMech reports whether an init token offers oid.
func (t *Token) HasMech(oid asn1.ObjectIdentifier) bool {
	for _, m := range t.MechTypes() {
		if m.Equal(oid) {
			return true
		}
	}
	return false
}

// NegState returns the state of a response token.
func (t *Token) NegState() (NegState, bool) {
	if t.kind != KindResp {
		return 0, false
	}
	return NegState(t.resp.NegState), true
}

// SupportedMech returns the mechanism selected by a response token.
func (t *Token) SupportedMech() asn1.ObjectIdentifier {
	if t.kind != KindResp {
		return nil
	}
	return t.resp.SupportedMech
}

// MechToken returns the inner mechanism token: the init mechToken, the
// response token, or the raw bytes of a non-SPNEGO token.
func (t *Token) MechToken() []byte {
	switch t.kind {
	case KindInit:
		return t.init.MechTokenBytes
	case KindResp:
		return t.resp.ResponseToken
	case KindRaw:
		return t.raw
	}
	return nil
}

func (t *Token) Human() string {
	switch t.kind {
	case KindInit:
		names := make([]string, 0, len(t.init.MechTypes))
		for _, m := range t.init.MechTypes {
			names = append(names, MechName(m))
		}
		return fmt.Sprintf("negTokenInit [%s] mechToken=%d bytes", strings.Join(names, ","), len(t.init.MechTokenBytes))
	case KindResp:
		s := fmt.Sprintf("negTokenResp %s", NegState(t.resp.NegState))
		if len(t.resp.SupportedMech) > 0 {
			s += " " + MechName(t.resp.SupportedMech)
		}
		return fmt.Sprintf("%s responseToken=%d bytes", s, len(t.resp.ResponseToken))
	case KindRaw:
		return fmt.Sprintf("raw %d bytes", len(t.raw))
	}
	return "empty"
}
