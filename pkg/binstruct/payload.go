package binstruct

import (
	"bytes"
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// PayloadRef names one offset-addressed item of a payload and the earlier
// integer fields that locate it.
type PayloadRef struct {
	Name string
	// Type is the item type. Pick, when set, may override it from earlier
	// fields.
	Type Type
	Pick func(v View) Type
	// Sync, when set, adjusts the item to the owner's current fields before
	// Recompute lays it out.
	Sync      func(v View, item Value)
	Length    string
	MaxLength string
	Offset    string
}

// PayloadSpec describes a payload: the variable-content tail of a message
// whose items are addressed by length/offset fields declared earlier.
type PayloadSpec struct {
	Refs []PayloadRef
	// Align, when positive, aligns each item's offset on recompute.
	Align int
}

type location struct {
	offset int
	length int
}

// Payload holds offset-addressed items. A read payload keeps its raw bytes
// and re-serializes them verbatim until Recompute lays the items out again
// in declaration order.
type Payload struct {
	spec   *PayloadSpec
	anchor int
	items  []Value
	locs   []location
	pads   []int
	raw    []byte
	isRaw  bool
}

// NewPayload returns a payload with empty items.
func NewPayload(spec PayloadSpec) *Payload {
	names := make(map[string]bool, len(spec.Refs))
	for _, r := range spec.Refs {
		if r.Name == "" || names[r.Name] {
			panic(fmt.Errorf("%w: payload item %q", ErrInvalidConfig, r.Name))
		}
		if r.Type == nil {
			panic(fmt.Errorf("%w: payload item %q has no type", ErrInvalidConfig, r.Name))
		}
		if r.Length == "" || r.Offset == "" {
			panic(fmt.Errorf("%w: payload item %q needs length and offset fields", ErrInvalidConfig, r.Name))
		}
		names[r.Name] = true
	}
	if spec.Align < 0 {
		panic(fmt.Errorf("%w: payload alignment %d", ErrAlignment, spec.Align))
	}
	p := &Payload{
		spec:  &spec,
		items: make([]Value, len(spec.Refs)),
		locs:  make([]location, len(spec.Refs)),
		pads:  make([]int, len(spec.Refs)),
	}
	for i, r := range spec.Refs {
		p.items[i] = r.Type()
	}
	return p
}

// PayloadOf returns the Type of a payload. Fields of this type must use
// Locate as builder so that reads find their items.
func PayloadOf(spec PayloadSpec) Type {
	NewPayload(spec)
	return func() Value { return NewPayload(spec) }
}

// Locate is the builder for payload fields: it captures each item's length
// and offset from the earlier fields and picks item types.
var Locate Builder = BuilderFunc(func(v View, declared Type) Value {
	p, ok := declared().(*Payload)
	if !ok {
		panic(fmt.Errorf("%w: Locate on a non-payload field", ErrInvalidConfig))
	}
	p.anchor = v.Offset()
	for i, r := range p.spec.Refs {
		p.locs[i] = location{offset: int(v.Uint(r.Offset)), length: int(v.Uint(r.Length))}
		if r.Pick != nil {
			if t := r.Pick(v); t != nil {
				p.items[i] = t()
			}
		}
	}
	return p
})

func (p *Payload) index(name string) int {
	for i, r := range p.spec.Refs {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Read takes the rest of the input and decodes each located item from it.
// An item whose declared range falls outside the payload fails with
// ErrTruncated.
func (p *Payload) Read(data []byte) (int, error) {
	p.raw = bytes.Clone(data)
	p.isRaw = true
	for i, r := range p.spec.Refs {
		loc := p.locs[i]
		if loc.length == 0 {
			continue
		}
		rel := loc.offset - p.anchor
		if rel < 0 || rel+loc.length > len(p.raw) {
			return 0, fmt.Errorf("%s: %w: range [%d,%d) outside payload of %d bytes at %d",
				r.Name, ErrTruncated, loc.offset, loc.offset+loc.length, len(p.raw), p.anchor)
		}
		if _, err := p.items[i].Read(p.raw[rel : rel+loc.length]); err != nil {
			return 0, fmt.Errorf("%s: %w", r.Name, err)
		}
	}
	return len(data), nil
}

func (p *Payload) Write(w *binenc.Writer) {
	if p.isRaw {
		w.WriteBytes(p.raw)
		return
	}
	for i, v := range p.items {
		w.WriteZeros(p.pads[i])
		v.Write(w)
	}
}

func (p *Payload) Size() int {
	if p.isRaw {
		return len(p.raw)
	}
	n := 0
	for i, v := range p.items {
		n += p.pads[i] + v.Size()
	}
	return n
}

func (p *Payload) Anchor() int { return p.anchor }

func (p *Payload) SetAnchor(at int) { p.anchor = at }

// Recompute recomputes nested items.
func (p *Payload) Recompute() error {
	for i, v := range p.items {
		if r, ok := v.(Recomputer); ok {
			if err := r.Recompute(); err != nil {
				return fmt.Errorf("%s: %w", p.spec.Refs[i].Name, err)
			}
		}
	}
	return nil
}

// relayout drops the raw bytes, places items in declaration order from at and
// writes each item's length, max-length and offset into the owner.
func (p *Payload) relayout(owner *Struct, at int) error {
	if owner == nil {
		return fmt.Errorf("%w: payload outside a struct", ErrInvalidConfig)
	}
	p.anchor = at
	p.isRaw = false
	p.raw = nil
	var view View
	cursor := at
	for i, r := range p.spec.Refs {
		if r.Sync != nil {
			if view == nil {
				view = owner.View()
			}
			r.Sync(view, p.items[i])
		}
		p.pads[i] = 0
		if p.spec.Align > 0 {
			pad, err := PadLen(cursor, p.spec.Align)
			if err != nil {
				return err
			}
			p.pads[i] = pad
			cursor += pad
		}
		size := p.items[i].Size()
		if err := owner.SetUint(r.Length, uint64(size)); err != nil {
			return err
		}
		if r.MaxLength != "" {
			if err := owner.SetUint(r.MaxLength, uint64(size)); err != nil {
				return err
			}
		}
		if err := owner.SetUint(r.Offset, uint64(cursor)); err != nil {
			return err
		}
		p.locs[i] = location{offset: cursor, length: size}
		cursor += size
	}
	return nil
}

// Item returns the named item, or nil.
func (p *Payload) Item(name string) Value {
	if i := p.index(name); i >= 0 {
		return p.items[i]
	}
	return nil
}

// SetItem assigns a plain Go value to the named item.
func (p *Payload) SetItem(name string, v any) error {
	i := p.index(name)
	if i < 0 {
		return fmt.Errorf("%w: payload item %q", ErrUnknownField, name)
	}
	if err := assign(p.items[i], v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p.detach()
	return nil
}

// PutItem replaces the named item's value instance.
func (p *Payload) PutItem(name string, v Value) error {
	i := p.index(name)
	if i < 0 {
		return fmt.Errorf("%w: payload item %q", ErrUnknownField, name)
	}
	p.items[i] = v
	p.detach()
	return nil
}

// detach switches a read payload to item serialization, keeping items in
// their read order.
func (p *Payload) detach() {
	if !p.isRaw {
		return
	}
	p.isRaw = false
	p.raw = nil
	for i := range p.pads {
		p.pads[i] = 0
	}
}

// Names returns the item names in declaration order.
func (p *Payload) Names() []string {
	names := make([]string, len(p.spec.Refs))
	for i, r := range p.spec.Refs {
		names[i] = r.Name
	}
	return names
}

func (p *Payload) Human() string {
	return fmt.Sprintf("%d bytes", p.Size())
}
