package binstruct

import (
	"bytes"
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// PadLen returns the number of filler bytes that bring offset to a multiple
// of align: zero when already aligned, never align itself.
func PadLen(offset, align int) (int, error) {
	if align <= 0 {
		return 0, fmt.Errorf("%w: alignment %d", ErrAlignment, align)
	}
	if offset < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrAlignment, offset)
	}
	return (align - offset%align) % align, nil
}

// Padding is alignment filler. Its length is derived from its anchor-relative
// position whenever it is read or recomputed. A padding read at the end of the
// input may be shorter than required; it keeps that length until its anchor
// moves or something is serialized after it.
type Padding struct {
	align    int
	anchor   int
	n        int
	raw      []byte
	trailing bool
	readAt   int
}

// NewPadding returns filler aligning to align bytes.
func NewPadding(align int) *Padding {
	if align <= 0 {
		panic(fmt.Errorf("%w: alignment %d", ErrAlignment, align))
	}
	return &Padding{align: align}
}

// PaddingTo returns a Type of filler aligning to align bytes.
func PaddingTo(align int) Type {
	NewPadding(align)
	return func() Value { return NewPadding(align) }
}

func (p *Padding) Read(data []byte) (int, error) {
	n, err := PadLen(p.anchor, p.align)
	if err != nil {
		return 0, err
	}
	p.trailing = false
	p.readAt = p.anchor
	if len(data) < n {
		n = len(data)
		p.trailing = true
	}
	p.n = n
	p.raw = bytes.Clone(data[:n])
	return n, nil
}

func (p *Padding) Write(w *binenc.Writer) {
	if len(p.raw) == p.n {
		w.WriteBytes(p.raw)
		return
	}
	w.WriteZeros(p.n)
}

func (p *Padding) Size() int { return p.n }

func (p *Padding) Anchor() int { return p.anchor }

func (p *Padding) SetAnchor(at int) { p.anchor = at }

// Align returns the alignment.
func (p *Padding) Align() int { return p.align }

func (p *Padding) relayout(_ *Struct, at int) error {
	n, err := PadLen(at, p.align)
	if err != nil {
		return err
	}
	if p.trailing && at == p.readAt {
		return nil
	}
	p.anchor = at
	p.trailing = false
	if n != p.n {
		p.n = n
		p.raw = nil
	}
	return nil
}

func (p *Padding) untrail() { p.trailing = false }

func (p *Padding) Human() string {
	return fmt.Sprintf("%d bytes", p.n)
}
