package binstruct

import (
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// RecomputeHook sets a schema's length, offset and count fields from the
// struct's current content. It runs after nested values, paddings and
// payloads have been laid out, and may only assign fixed-width fields.
type RecomputeHook func(s *Struct) error

type bitsDecl struct {
	backing string
	layout  *bitfield.Layout
}

type bitRef struct {
	field  int
	layout *bitfield.Layout
}

// Schema is an immutable ordered field list. Schemas are built once with
// Define or Derive and shared by every struct instance.
type Schema struct {
	name    string
	fields  []Field
	index   map[string]int
	bits    []bitsDecl
	subs    map[string]bitRef
	layouts map[string]*bitfield.Layout
	hook    RecomputeHook
	anchor  int
}

// Option configures Define.
type Option func(*draft)

// WithBits splits the integer field backing into the sub-fields of layout.
// The layout width must match the integer width.
func WithBits(backing string, layout *bitfield.Layout) Option {
	return func(d *draft) { d.bits = append(d.bits, bitsDecl{backing, layout}) }
}

// WithRecompute installs the schema's length hook.
func WithRecompute(hook RecomputeHook) Option {
	return func(d *draft) { d.hook = hook }
}

// WithAnchor sets the default anchor of new instances: the distance from the
// top-level header start to the struct's first byte.
func WithAnchor(at int) Option {
	return func(d *draft) { d.anchor = at }
}

type draft struct {
	name   string
	fields []Field
	bits   []bitsDecl
	hook   RecomputeHook
	anchor int
	err    error
}

// Define validates and freezes a schema.
func Define(name string, fields []Field, opts ...Option) (*Schema, error) {
	d := &draft{name: name, fields: append([]Field(nil), fields...)}
	for _, opt := range opts {
		opt(d)
	}
	return d.build()
}

// MustDefine is like Define but panics. Intended for package-level schemas.
func MustDefine(name string, fields []Field, opts ...Option) *Schema {
	s, err := Define(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (d *draft) build() (*Schema, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.name == "" {
		return nil, fmt.Errorf("%w: schema without name", ErrInvalidConfig)
	}
	s := &Schema{
		name:    d.name,
		fields:  d.fields,
		index:   make(map[string]int, len(d.fields)),
		bits:    d.bits,
		subs:    make(map[string]bitRef),
		layouts: make(map[string]*bitfield.Layout),
		hook:    d.hook,
		anchor:  d.anchor,
	}
	for i, f := range d.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: %s: field %d has no name", ErrInvalidConfig, d.name, i)
		}
		if f.Type == nil {
			return nil, fmt.Errorf("%w: %s.%s has no type", ErrInvalidConfig, d.name, f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidConfig, d.name, f.Name)
		}
		s.index[f.Name] = i
	}
	for _, b := range d.bits {
		i, ok := s.index[b.backing]
		if !ok {
			return nil, fmt.Errorf("%w: %s: bit-fields on unknown field %q", ErrInvalidConfig, d.name, b.backing)
		}
		if _, dup := s.layouts[b.backing]; dup {
			return nil, fmt.Errorf("%w: %s: field %q already has bit-fields", ErrInvalidConfig, d.name, b.backing)
		}
		n, ok := s.fields[i].Type().(*Int)
		if !ok {
			return nil, fmt.Errorf("%w: %s: bit-fields on non-integer field %q", ErrInvalidConfig, d.name, b.backing)
		}
		if uint(8*n.Width()) != b.layout.Width() {
			return nil, fmt.Errorf("%w: %s: %d-bit layout on %d-byte field %q", ErrInvalidConfig, d.name, b.layout.Width(), n.Width(), b.backing)
		}
		s.layouts[b.backing] = b.layout
		for _, sub := range b.layout.Fields() {
			if _, clash := s.index[sub.Name]; clash {
				return nil, fmt.Errorf("%w: %s: sub-field %q shadows a field", ErrInvalidConfig, d.name, sub.Name)
			}
			if _, clash := s.subs[sub.Name]; clash {
				return nil, fmt.Errorf("%w: %s: duplicate sub-field %q", ErrInvalidConfig, d.name, sub.Name)
			}
			s.subs[sub.Name] = bitRef{field: i, layout: b.layout}
		}
	}
	return s, nil
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether name is a field or bit sub-field.
func (s *Schema) Has(name string) bool {
	if _, ok := s.index[name]; ok {
		return true
	}
	_, ok := s.subs[name]
	return ok
}

// Bits returns the layout declared on a backing field, or nil.
func (s *Schema) Bits(backing string) *bitfield.Layout { return s.layouts[backing] }

// Anchor returns the default anchor of new instances.
func (s *Schema) Anchor() int { return s.anchor }

// New constructs an instance with defaults applied.
func (s *Schema) New() *Struct { return NewStruct(s) }

// Type returns a Type constructing instances of s.
func (s *Schema) Type() Type { return func() Value { return NewStruct(s) } }

// Edit changes a draft during Derive.
type Edit func(*draft)

// Derive builds a new schema from s by applying edits in order. s is left
// untouched.
func (s *Schema) Derive(name string, edits ...Edit) (*Schema, error) {
	d := &draft{
		name:   name,
		fields: append([]Field(nil), s.fields...),
		bits:   append([]bitsDecl(nil), s.bits...),
		hook:   s.hook,
		anchor: s.anchor,
	}
	for _, e := range edits {
		e(d)
	}
	return d.build()
}

// MustDerive is like Derive but panics.
func (s *Schema) MustDerive(name string, edits ...Edit) *Schema {
	out, err := s.Derive(name, edits...)
	if err != nil {
		panic(err)
	}
	return out
}

func (d *draft) find(name string) int {
	for i, f := range d.fields {
		if f.Name == name {
			return i
		}
	}
	d.fail("%s: no field %q", d.name, name)
	return -1
}

func (d *draft) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}
}

// Remove drops a field and any bit-fields declared on it.
func Remove(name string) Edit {
	return func(d *draft) {
		i := d.find(name)
		if i < 0 {
			return
		}
		d.fields = append(d.fields[:i:i], d.fields[i+1:]...)
		bits := d.bits[:0:0]
		for _, b := range d.bits {
			if b.backing != name {
				bits = append(bits, b)
			}
		}
		d.bits = bits
	}
}

// InsertBefore inserts fields before the named field.
func InsertBefore(name string, fields ...Field) Edit {
	return func(d *draft) {
		i := d.find(name)
		if i < 0 {
			return
		}
		out := make([]Field, 0, len(d.fields)+len(fields))
		out = append(out, d.fields[:i]...)
		out = append(out, fields...)
		d.fields = append(out, d.fields[i:]...)
	}
}

// Append adds fields at the end.
func Append(fields ...Field) Edit {
	return func(d *draft) { d.fields = append(d.fields, fields...) }
}

// OverrideDefault changes a field's construction-time value.
func OverrideDefault(name string, v any) Edit {
	return func(d *draft) {
		if i := d.find(name); i >= 0 {
			d.fields[i].Initial = v
		}
	}
}

// Replace swaps the field carrying f.Name for f.
func Replace(f Field) Edit {
	return func(d *draft) {
		if i := d.find(f.Name); i >= 0 {
			d.fields[i] = f
		}
	}
}

// AddBits declares bit-fields on an existing integer field.
func AddBits(backing string, layout *bitfield.Layout) Edit {
	return func(d *draft) { d.bits = append(d.bits, bitsDecl{backing, layout}) }
}

// SetRecompute replaces the length hook. A nil hook removes it.
func SetRecompute(hook RecomputeHook) Edit {
	return func(d *draft) { d.hook = hook }
}

// SetAnchor changes the default anchor.
func SetAnchor(at int) Edit {
	return func(d *draft) { d.anchor = at }
}
