package binstruct

import (
	"fmt"
	"strings"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// ArraySpec describes a homogeneous or polymorphic array.
type ArraySpec struct {
	// Element is the default element type. It is also the fallback for
	// discriminants missing from Variants; nil makes them an error.
	Element Type
	// Discriminant peeks the tag of the next element from the unread bytes.
	Discriminant func(peek []byte) (uint64, bool)
	// Variants maps discriminants to element types.
	Variants map[uint64]Type
	// Sentinel reports whether an element ends the sequence. The sentinel
	// element itself is kept.
	Sentinel func(v Value) bool
}

// Array is an ordered sequence of elements. Its length is either a count
// supplied by an earlier field or bounded by the end of the input.
type Array struct {
	spec   *ArraySpec
	count  int
	elems  []Value
	anchor int
	outer  *Struct
}

// NewArray returns an empty unbounded array.
func NewArray(spec ArraySpec) *Array {
	if spec.Element == nil && len(spec.Variants) == 0 {
		panic(fmt.Errorf("%w: array without element type", ErrInvalidConfig))
	}
	return &Array{spec: &spec, count: -1}
}

// ArrayOf returns a Type of unbounded arrays.
func ArrayOf(spec ArraySpec) Type {
	NewArray(spec)
	return func() Value { return NewArray(spec) }
}

// CountedBy returns a builder that bounds the declared array type by the
// value of an earlier integer field.
func CountedBy(countField string) Builder {
	return BuilderFunc(func(v View, declared Type) Value {
		a, ok := declared().(*Array)
		if !ok {
			panic(fmt.Errorf("%w: CountedBy(%q) on a non-array field", ErrInvalidConfig, countField))
		}
		a.count = int(v.Uint(countField))
		return a
	})
}

// Counted reports whether the array length comes from a count field.
func (a *Array) Counted() bool { return a.count >= 0 }

func (a *Array) typeFor(peek []byte) (Type, error) {
	if a.spec.Discriminant != nil && len(a.spec.Variants) > 0 {
		if d, ok := a.spec.Discriminant(peek); ok {
			if t, ok := a.spec.Variants[d]; ok {
				return t, nil
			}
			if a.spec.Element == nil {
				return nil, fmt.Errorf("%w: %d", ErrUnknownDiscriminant, d)
			}
		}
	}
	if a.spec.Element == nil {
		return nil, fmt.Errorf("%w: no discriminant", ErrUnknownDiscriminant)
	}
	return a.spec.Element, nil
}

func (a *Array) link(v Value) {
	if a.outer == nil {
		return
	}
	if l, ok := v.(outerLinker); ok {
		l.setOuter(a.outer)
	}
}

// Read decodes elements until the count is reached, the input ends or a
// sentinel element has been read. A count larger than the remaining input is
// rejected before anything is allocated.
func (a *Array) Read(data []byte) (int, error) {
	if a.count > len(data) {
		return 0, fmt.Errorf("%w: count %d exceeds %d remaining bytes", ErrTruncated, a.count, len(data))
	}
	a.elems = nil
	pos := 0
	for {
		if a.count >= 0 && len(a.elems) == a.count {
			break
		}
		if a.count < 0 && pos >= len(data) {
			break
		}
		t, err := a.typeFor(data[pos:])
		if err != nil {
			return pos, fmt.Errorf("element %d: %w", len(a.elems), err)
		}
		v := t()
		a.link(v)
		if an, ok := v.(Anchorer); ok {
			an.SetAnchor(a.anchor + pos)
		}
		n, err := v.Read(data[pos:])
		if err != nil {
			return pos, fmt.Errorf("element %d: %w", len(a.elems), err)
		}
		pos += n
		a.elems = append(a.elems, v)
		if a.spec.Sentinel != nil && a.spec.Sentinel(v) {
			break
		}
		if n == 0 && a.count < 0 {
			break
		}
	}
	return pos, nil
}

func (a *Array) Write(w *binenc.Writer) {
	for _, v := range a.elems {
		v.Write(w)
	}
}

func (a *Array) Size() int {
	n := 0
	for _, v := range a.elems {
		n += v.Size()
	}
	return n
}

// Recompute positions each element after its predecessors and recomputes it.
func (a *Array) Recompute() error {
	pos := 0
	for i, v := range a.elems {
		if i < len(a.elems)-1 {
			untrail(v)
		}
		if err := recomputeAt(nil, v, a.anchor+pos); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		pos += v.Size()
	}
	return nil
}

func (a *Array) untrail() {
	if len(a.elems) > 0 {
		untrail(a.elems[len(a.elems)-1])
	}
}

func (a *Array) Anchor() int { return a.anchor }

func (a *Array) SetAnchor(at int) { a.anchor = at }

func (a *Array) setOuter(s *Struct) {
	a.outer = s
	for _, v := range a.elems {
		a.link(v)
	}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// At returns element i.
func (a *Array) At(i int) Value { return a.elems[i] }

// Elements returns a copy of the element list.
func (a *Array) Elements() []Value { return append([]Value(nil), a.elems...) }

// Append adds elements at the end.
func (a *Array) Append(vs ...Value) {
	for _, v := range vs {
		a.link(v)
		a.elems = append(a.elems, v)
	}
}

// AppendNew constructs an element of the type registered for discriminant,
// or the default element type, appends it and returns it.
func (a *Array) AppendNew(discriminant uint64) (Value, error) {
	t, ok := a.spec.Variants[discriminant]
	if !ok {
		if a.spec.Element == nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownDiscriminant, discriminant)
		}
		t = a.spec.Element
	}
	v := t()
	a.Append(v)
	return v, nil
}

// Clear removes every element.
func (a *Array) Clear() { a.elems = nil }

// Human joins the element renderings.
func (a *Array) Human() string {
	parts := make([]string, len(a.elems))
	for i, v := range a.elems {
		parts[i] = Human(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
