package binstruct

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUTF16 encodes s as UTF-16LE without terminator.
func EncodeUTF16(s string) []byte {
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return out
}

// DecodeUTF16 decodes UTF-16LE bytes. A trailing odd byte is ignored.
func DecodeUTF16(b []byte) string {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

// WideString is an SMB string: UTF-16LE when unicode, 8-bit otherwise,
// optionally NUL-terminated (a 16-bit NUL on an even boundary in unicode mode).
// The encoded bytes are kept verbatim so reads re-serialize exactly.
type WideString struct {
	unicode    bool
	terminated bool
	static     int
	bound      int
	raw        []byte
}

// WideOption configures a WideString.
type WideOption func(*WideString)

// ASCII selects 8-bit encoding.
func ASCII() WideOption { return func(s *WideString) { s.unicode = false } }

// Unicode selects UTF-16LE when on is true, 8-bit otherwise.
func Unicode(on bool) WideOption { return func(s *WideString) { s.unicode = on } }

// NulTerminated appends a terminator on write and stops at it on read.
func NulTerminated() WideOption { return func(s *WideString) { s.terminated = true } }

// StaticLength fixes the encoded size in bytes.
func StaticLength(n int) WideOption { return func(s *WideString) { s.static = n } }

// Bound limits a read to exactly n bytes.
func Bound(n int) WideOption { return func(s *WideString) { s.bound = n } }

// NewWideString returns an empty unicode string. A terminated or
// static-length string starts out as its encoded empty value.
func NewWideString(opts ...WideOption) *WideString {
	s := &WideString{unicode: true, bound: -1}
	for _, opt := range opts {
		opt(s)
	}
	if s.static < 0 {
		panic(fmt.Errorf("%w: static length %d", ErrInvalidConfig, s.static))
	}
	if s.bound < -1 {
		s.bound = 0
	}
	if s.terminated || s.static > 0 {
		s.raw = s.encode("")
	}
	return s
}

// WideStringType returns a Type of wide strings.
func WideStringType(opts ...WideOption) Type {
	NewWideString(opts...)
	return func() Value { return NewWideString(opts...) }
}

func (s *WideString) termLen() int {
	if s.unicode {
		return 2
	}
	return 1
}

// terminator returns the index of the terminator in b, or -1.
func (s *WideString) terminator(b []byte) int {
	if !s.unicode {
		return bytes.IndexByte(b, 0)
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return -1
}

func (s *WideString) Read(data []byte) (int, error) {
	n := len(data)
	switch {
	case s.static > 0:
		n = s.static
	case s.bound >= 0:
		n = s.bound
	case s.terminated:
		idx := s.terminator(data)
		if idx < 0 {
			return 0, fmt.Errorf("%w: unterminated string", ErrTruncated)
		}
		n = idx + s.termLen()
	}
	if len(data) < n {
		return 0, truncated(n, len(data))
	}
	s.raw = bytes.Clone(data[:n])
	return n, nil
}

func (s *WideString) Write(w *binenc.Writer) {
	w.WriteBytes(s.raw)
}

func (s *WideString) Size() int { return len(s.raw) }

// SetUnicode switches the encoding, re-encoding the current content.
func (s *WideString) SetUnicode(on bool) {
	if on == s.unicode {
		return
	}
	str := s.String()
	s.unicode = on
	s.SetString(str)
}

// IsUnicode reports whether the string is UTF-16LE encoded.
func (s *WideString) IsUnicode() bool { return s.unicode }

// Raw returns the encoded bytes.
func (s *WideString) Raw() []byte { return s.raw }

// String decodes the content up to the first terminator.
func (s *WideString) String() string {
	b := s.raw
	if idx := s.terminator(b); idx >= 0 {
		b = b[:idx]
	}
	if s.unicode {
		return DecodeUTF16(b)
	}
	return string(b)
}

// SetString encodes str, appends the terminator when configured and fits
// the result to the static length.
func (s *WideString) SetString(str string) {
	s.raw = s.encode(str)
	if s.bound >= 0 {
		s.bound = len(s.raw)
	}
}

func (s *WideString) encode(str string) []byte {
	var enc []byte
	if s.unicode {
		enc = EncodeUTF16(str)
	} else {
		enc = []byte(str)
	}
	if s.terminated {
		enc = append(enc, make([]byte, s.termLen())...)
	}
	if s.static > 0 {
		if len(enc) > s.static {
			enc = enc[:s.static]
		} else {
			enc = append(enc, make([]byte, s.static-len(enc))...)
		}
	}
	return enc
}

// Set accepts a string, or a []byte taken as already encoded.
func (s *WideString) Set(v any) error {
	switch str := v.(type) {
	case string:
		s.SetString(str)
	case []byte:
		s.raw = bytes.Clone(str)
	default:
		return fmt.Errorf("%w: %T assigned to string", ErrBadValue, v)
	}
	return nil
}

func (s *WideString) Human() string { return s.String() }
