package binstruct

import (
	"bytes"
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// CString is a NUL-terminated 8-bit string. With a static length it always
// occupies exactly that many bytes and the terminator must lie inside them.
type CString struct {
	static int
	s      []byte
	raw    []byte
}

// NewCString returns an empty string. static is 0 for a variable-length string.
func NewCString(static int) *CString {
	if static < 0 {
		panic(fmt.Errorf("%w: static length %d", ErrInvalidConfig, static))
	}
	return &CString{static: static}
}

// CStringType is a variable-length NUL-terminated string.
var CStringType Type = func() Value { return NewCString(0) }

// StaticCString returns a Type of fixed-length NUL-terminated strings.
func StaticCString(n int) Type {
	NewCString(n)
	return func() Value { return NewCString(n) }
}

func (c *CString) Read(data []byte) (int, error) {
	window := data
	if c.static > 0 {
		if len(data) < c.static {
			return 0, truncated(c.static, len(data))
		}
		window = data[:c.static]
	}
	idx := bytes.IndexByte(window, 0)
	if idx < 0 {
		return 0, fmt.Errorf("%w: unterminated string", ErrTruncated)
	}
	c.s = bytes.Clone(window[:idx])
	if c.static > 0 {
		c.raw = bytes.Clone(window)
		return c.static, nil
	}
	c.raw = nil
	return idx + 1, nil
}

func (c *CString) Write(w *binenc.Writer) {
	if c.raw != nil {
		w.WriteBytes(c.raw)
		return
	}
	if c.static == 0 {
		w.WriteBytes(c.s)
		w.WriteUint8(0)
		return
	}
	s := c.s
	if len(s) > c.static-1 {
		s = s[:c.static-1]
	}
	w.WriteBytes(s)
	w.WriteZeros(c.static - len(s))
}

func (c *CString) Size() int {
	if c.static > 0 {
		return c.static
	}
	return len(c.s) + 1
}

// String returns the content without terminator.
func (c *CString) String() string { return string(c.s) }

// SetString replaces the content.
func (c *CString) SetString(s string) {
	c.s = []byte(s)
	c.raw = nil
}

// Set accepts a string or a []byte.
func (c *CString) Set(v any) error {
	switch s := v.(type) {
	case string:
		c.SetString(s)
	case []byte:
		c.SetString(string(s))
	default:
		return fmt.Errorf("%w: %T assigned to string", ErrBadValue, v)
	}
	return nil
}

func (c *CString) Human() string { return c.String() }
