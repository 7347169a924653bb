// Package bitfield maps a single backing integer onto an ordered list of
// named sub-fields of arbitrary bit width.
//
// Sub-fields are always declared from the most significant bit to the least
// significant bit of the backing integer's numeric value. The wire byte order
// of the backing integer does not change this: a little-endian 32-bit flags
// word whose lowest bit is "unicode" declares "unicode" last. A width-1
// sub-field is a flag and unpacks to a bool; wider sub-fields unpack to
// unsigned integers.
package bitfield

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// ErrInvalidLayout is returned when a layout's widths do not add up to the
// backing width, a name is empty or repeated, or a value does not fit.
var ErrInvalidLayout = errors.New("bitfield: invalid layout")

// ErrUnknownField is returned when a sub-field name is not part of the layout.
var ErrUnknownField = errors.New("bitfield: unknown sub-field")

// Field declares one sub-field.
type Field struct {
	Name  string
	Width uint
}

// Bit declares a one-bit flag.
func Bit(name string) Field {
	return Field{Name: name, Width: 1}
}

// Bits declares a multi-bit sub-field.
func Bits(name string, width uint) Field {
	return Field{Name: name, Width: width}
}

// Layout is an immutable bit-field description over a backing integer.
type Layout struct {
	width  uint
	fields []Field
	shifts []uint
	index  map[string]int
}

// New validates fields against the backing width (8, 16, 24, 32 or 64 bits) and
// returns the layout.
func New(width uint, fields ...Field) (*Layout, error) {
	switch width {
	case 8, 16, 24, 32, 64:
	default:
		return nil, fmt.Errorf("%w: backing width %d", ErrInvalidLayout, width)
	}

	l := &Layout{
		width:  width,
		fields: make([]Field, len(fields)),
		shifts: make([]uint, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(l.fields, fields)

	remaining := width
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: sub-field %d has no name", ErrInvalidLayout, i)
		}
		if _, dup := l.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate sub-field %q", ErrInvalidLayout, f.Name)
		}
		if f.Width == 0 || f.Width > remaining {
			return nil, fmt.Errorf("%w: sub-field %q width %d exceeds remaining %d bits", ErrInvalidLayout, f.Name, f.Width, remaining)
		}
		remaining -= f.Width
		l.shifts[i] = remaining
		l.index[f.Name] = i
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%w: sub-fields cover %d of %d bits", ErrInvalidLayout, width-remaining, width)
	}
	return l, nil
}

// MustNew is like New but panics on an invalid layout. Intended for
// package-level schema tables.
func MustNew(width uint, fields ...Field) *Layout {
	l, err := New(width, fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Width returns the backing width in bits.
func (l *Layout) Width() uint { return l.width }

// Fields returns a copy of the declared sub-fields in declaration order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Has reports whether name is a sub-field of the layout.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// FieldWidth returns the width of the named sub-field, or 0 if unknown.
func (l *Layout) FieldWidth(name string) uint {
	i, ok := l.index[name]
	if !ok {
		return 0
	}
	return l.fields[i].Width
}

// Get extracts the named sub-field from x.
func (l *Layout) Get(x uint64, name string) (uint64, error) {
	i, ok := l.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return Extract(x, l.shifts[i], l.fields[i].Width), nil
}

// Set stores v into the named sub-field of x and returns the new backing value.
func (l *Layout) Set(x uint64, name string, v uint64) (uint64, error) {
	i, ok := l.index[name]
	if !ok {
		return x, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	w := l.fields[i].Width
	if v > mask(w) {
		return x, fmt.Errorf("%w: value %d does not fit %d-bit sub-field %q", ErrInvalidLayout, v, w, name)
	}
	return Insert(x, l.shifts[i], w, v), nil
}

// Flag reports whether the named one-bit sub-field is set. Wider sub-fields
// report whether any bit is set.
func (l *Layout) Flag(x uint64, name string) bool {
	v, err := l.Get(x, name)
	return err == nil && v != 0
}

// SetFlag sets or clears the named sub-field. For wider sub-fields true stores 1.
func (l *Layout) SetFlag(x uint64, name string, on bool) (uint64, error) {
	var v uint64
	if on {
		v = 1
	}
	return l.Set(x, name, v)
}

// Value is one unpacked sub-field.
type Value struct {
	Name  string
	Width uint
	Raw   uint64
}

// Bool reports whether the sub-field is non-zero.
func (v Value) Bool() bool { return v.Raw != 0 }

// Interface returns a bool for one-bit sub-fields and a uint64 otherwise.
func (v Value) Interface() any {
	if v.Width == 1 {
		return v.Raw != 0
	}
	return v.Raw
}

func (v Value) String() string {
	if v.Width == 1 {
		return fmt.Sprintf("%s=%t", v.Name, v.Raw != 0)
	}
	return fmt.Sprintf("%s=%d", v.Name, v.Raw)
}

// Unpack splits x into its sub-fields, in declaration order.
func (l *Layout) Unpack(x uint64) []Value {
	out := make([]Value, len(l.fields))
	for i, f := range l.fields {
		out[i] = Value{Name: f.Name, Width: f.Width, Raw: Extract(x, l.shifts[i], f.Width)}
	}
	return out
}

// Pack reassembles a backing integer from unpacked sub-fields. Pack(Unpack(x))
// returns x for every x representable in the backing width.
func (l *Layout) Pack(values []Value) (uint64, error) {
	var x uint64
	var err error
	for _, v := range values {
		if x, err = l.Set(x, v.Name, v.Raw); err != nil {
			return 0, err
		}
	}
	return x, nil
}

// PackMap reassembles a backing integer from a name to value map. Missing
// sub-fields are zero.
func (l *Layout) PackMap(values map[string]uint64) (uint64, error) {
	var x uint64
	var err error
	for name, v := range values {
		if x, err = l.Set(x, name, v); err != nil {
			return 0, err
		}
	}
	return x, nil
}

// SetNames returns the names of the non-zero one-bit sub-fields of x, in
// declaration order.
func (l *Layout) SetNames(x uint64) []string {
	var names []string
	for i, f := range l.fields {
		if f.Width == 1 && Extract(x, l.shifts[i], 1) != 0 {
			names = append(names, f.Name)
		}
	}
	return names
}

// Describe renders the set flags of x, e.g. "response,signed".
func (l *Layout) Describe(x uint64) string {
	return strings.Join(l.SetNames(x), ",")
}

// Extract returns the width bits of store starting at bit shift.
func Extract[U constraints.Unsigned](store U, shift, width uint) U {
	return U((uint64(store) >> shift) & mask(width))
}

// Insert clears the width bits of store at shift and stores v there.
func Insert[U constraints.Unsigned](store U, shift, width uint, v U) U {
	m := mask(width) << shift
	return U((uint64(store) &^ m) | ((uint64(v) << shift) & m))
}

// mask returns width low one-bits.
func mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}
