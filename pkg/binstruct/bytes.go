package binstruct

import (
	"bytes"
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

type bytesMode uint8

const (
	bytesRest bytesMode = iota
	bytesStatic
	bytesBounded
)

// Bytes is a raw byte string. A rest-mode value consumes all remaining input,
// a static value always occupies exactly n bytes (zero-padded or truncated on
// write), and a bounded value consumes a length supplied when it is built.
type Bytes struct {
	mode bytesMode
	n    int
	data []byte
}

// NewBytes returns an empty rest-of-input byte string.
func NewBytes() *Bytes { return &Bytes{mode: bytesRest} }

// NewStaticBytes returns a byte string of exactly n bytes.
func NewStaticBytes(n int) *Bytes {
	if n < 0 {
		panic(fmt.Errorf("%w: static length %d", ErrInvalidConfig, n))
	}
	return &Bytes{mode: bytesStatic, n: n}
}

// NewBoundedBytes returns a byte string that reads exactly n bytes.
func NewBoundedBytes(n int) *Bytes {
	if n < 0 {
		n = 0
	}
	return &Bytes{mode: bytesBounded, n: n}
}

// BytesType reads the rest of the input.
var BytesType Type = func() Value { return NewBytes() }

// StaticBytes returns a Type of fixed-length byte strings.
func StaticBytes(n int) Type {
	NewStaticBytes(n)
	return func() Value { return NewStaticBytes(n) }
}

// BoundedBy returns a builder producing byte strings whose length is the
// value of an earlier integer field.
func BoundedBy(lengthField string) Builder {
	return BuilderFunc(func(v View, _ Type) Value {
		return NewBoundedBytes(int(v.Uint(lengthField)))
	})
}

// BoundedFunc returns a builder producing byte strings whose length is
// computed from earlier fields.
func BoundedFunc(length func(View) int) Builder {
	return BuilderFunc(func(v View, _ Type) Value {
		return NewBoundedBytes(length(v))
	})
}

func (b *Bytes) Read(data []byte) (int, error) {
	n := len(data)
	if b.mode != bytesRest {
		if len(data) < b.n {
			return 0, truncated(b.n, len(data))
		}
		n = b.n
	}
	b.data = bytes.Clone(data[:n])
	return n, nil
}

func (b *Bytes) Write(w *binenc.Writer) {
	if b.mode != bytesStatic {
		w.WriteBytes(b.data)
		return
	}
	if len(b.data) >= b.n {
		w.WriteBytes(b.data[:b.n])
		return
	}
	w.WriteBytes(b.data)
	w.WriteZeros(b.n - len(b.data))
}

func (b *Bytes) Size() int {
	if b.mode == bytesStatic {
		return b.n
	}
	return len(b.data)
}

// Data returns the stored bytes. The slice must not be modified.
func (b *Bytes) Data() []byte { return b.data }

// SetData replaces the content.
func (b *Bytes) SetData(data []byte) {
	b.data = bytes.Clone(data)
	if b.mode == bytesBounded {
		b.n = len(b.data)
	}
}

// Set accepts a []byte or a string.
func (b *Bytes) Set(v any) error {
	switch d := v.(type) {
	case []byte:
		b.SetData(d)
	case string:
		b.SetData([]byte(d))
	default:
		return fmt.Errorf("%w: %T assigned to bytes", ErrBadValue, v)
	}
	return nil
}

func (b *Bytes) Human() string {
	return fmt.Sprintf("%x", b.data)
}
