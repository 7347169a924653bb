package binstruct

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Enum is an immutable name table for an enumerated integer.
type Enum struct {
	names  map[uint64]string
	values map[string]uint64
}

// NewEnum builds an enum table. Two names mapping to the same value keep the
// lexically smallest name for display.
func NewEnum(table map[string]uint64) *Enum {
	e := &Enum{
		names:  make(map[uint64]string, len(table)),
		values: make(map[string]uint64, len(table)),
	}
	for name, v := range table {
		e.values[name] = v
		if prev, ok := e.names[v]; !ok || name < prev {
			e.names[v] = name
		}
	}
	return e
}

// Name returns the name of v.
func (e *Enum) Name(v uint64) (string, bool) {
	name, ok := e.names[v]
	return name, ok
}

// Value returns the value registered for name.
func (e *Enum) Value(name string) (uint64, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Names returns all names ordered by value.
func (e *Enum) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := e.values[names[i]], e.values[names[j]]
		if vi != vj {
			return vi < vj
		}
		return names[i] < names[j]
	})
	return names
}

// Int is a fixed-width integer of 1, 2, 3, 4 or 8 bytes in either byte order,
// optionally signed and optionally enumerated. Unknown enum values are kept
// numerically and render as "<unknown:N>".
type Int struct {
	width  int
	order  binenc.Order
	signed bool
	enum   *Enum
	v      uint64
}

// IntOption configures an Int.
type IntOption func(*Int)

// Signed makes the integer two's-complement signed.
func Signed() IntOption {
	return func(i *Int) { i.signed = true }
}

// WithEnum attaches a name table.
func WithEnum(e *Enum) IntOption {
	return func(i *Int) { i.enum = e }
}

// NewInt returns a zero integer. An unsupported width panics with
// ErrInvalidConfig.
func NewInt(width int, order binenc.Order, opts ...IntOption) *Int {
	if !binenc.ValidWidth(width) {
		panic(fmt.Errorf("%w: integer width %d", ErrInvalidConfig, width))
	}
	i := &Int{width: width, order: order}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IntType returns a Type for integers of the given shape. The shape is
// validated immediately.
func IntType(width int, order binenc.Order, opts ...IntOption) Type {
	NewInt(width, order, opts...)
	return func() Value { return NewInt(width, order, opts...) }
}

// EnumOf returns a Type for an enumerated unsigned integer.
func EnumOf(width int, order binenc.Order, e *Enum) Type {
	return IntType(width, order, WithEnum(e))
}

// Common integer types.
var (
	U8    = IntType(1, binenc.LittleEndian)
	U16LE = IntType(2, binenc.LittleEndian)
	U16BE = IntType(2, binenc.BigEndian)
	U24BE = IntType(3, binenc.BigEndian)
	U32LE = IntType(4, binenc.LittleEndian)
	U32BE = IntType(4, binenc.BigEndian)
	U64LE = IntType(8, binenc.LittleEndian)
	U64BE = IntType(8, binenc.BigEndian)
	I64LE = IntType(8, binenc.LittleEndian, Signed())
)

func (i *Int) mask() uint64 {
	if i.width >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*i.width) - 1
}

func (i *Int) Read(data []byte) (int, error) {
	r := binenc.NewReader(data)
	v := r.ReadUint(i.width, i.order)
	if r.Err() != nil {
		return 0, truncated(i.width, len(data))
	}
	i.v = v
	return i.width, nil
}

func (i *Int) Write(w *binenc.Writer) {
	w.WriteUint(i.width, i.order, i.v)
}

func (i *Int) Size() int { return i.width }

// Width returns the width in bytes.
func (i *Int) Width() int { return i.width }

// Order returns the byte order.
func (i *Int) Order() binenc.Order { return i.order }

// Enum returns the attached name table, or nil.
func (i *Int) Enum() *Enum { return i.enum }

// Uint returns the raw unsigned value.
func (i *Int) Uint() uint64 { return i.v }

// SetUint stores v truncated to the integer's width.
func (i *Int) SetUint(v uint64) { i.v = v & i.mask() }

// Int returns the value sign-extended when the integer is signed.
func (i *Int) Int() int64 {
	if !i.signed || i.width >= 8 {
		return int64(i.v)
	}
	shift := 64 - 8*uint(i.width)
	return int64(i.v<<shift) >> shift
}

// Set accepts any Go integer, a bool, or an enum name.
func (i *Int) Set(v any) error {
	if s, ok := v.(string); ok {
		if i.enum == nil {
			return fmt.Errorf("%w: %q assigned to non-enumerated integer", ErrBadValue, s)
		}
		n, ok := i.enum.Value(s)
		if !ok {
			return fmt.Errorf("%w: unknown enum name %q", ErrBadValue, s)
		}
		i.SetUint(n)
		return nil
	}
	n, ok := toUint64(v)
	if !ok {
		return fmt.Errorf("%w: %T assigned to integer", ErrBadValue, v)
	}
	i.SetUint(n)
	return nil
}

// Human returns the enum name, "<unknown:N>" for unmapped enum values, or the
// decimal value.
func (i *Int) Human() string {
	if i.enum != nil {
		if name, ok := i.enum.Name(i.v); ok {
			return name
		}
		return fmt.Sprintf("<unknown:%d>", i.v)
	}
	if i.signed {
		return strconv.FormatInt(i.Int(), 10)
	}
	return strconv.FormatUint(i.v, 10)
}
