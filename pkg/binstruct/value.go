package binstruct

import (
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Value is the codec contract shared by primitives, structs, arrays and
// choices. Size must equal the number of bytes Write appends and must not
// mutate the value.
type Value interface {
	// Read decodes a prefix of data and returns the number of bytes consumed.
	Read(data []byte) (int, error)
	Write(w *binenc.Writer)
	Size() int
}

// Type constructs a fresh value of one codec type.
type Type func() Value

// Setter is implemented by values that accept assignment from plain Go
// values (integers, strings, byte slices, enum names, times).
type Setter interface {
	Set(v any) error
}

// Humanizer renders a value for display.
type Humanizer interface {
	Human() string
}

// Unsigned is implemented by integer values.
type Unsigned interface {
	Uint() uint64
	SetUint(v uint64)
}

// Recomputer is implemented by containers whose length, offset or padding
// fields depend on their content.
type Recomputer interface {
	Recompute() error
}

// Anchorer is implemented by values whose encoding depends on their position
// relative to the top-level header.
type Anchorer interface {
	Anchor() int
	SetAnchor(at int)
}

// outerLinker is implemented by containers that expose their enclosing
// struct to builders and predicates.
type outerLinker interface {
	setOuter(s *Struct)
}

// relayouter is implemented by values laid out by their owning struct during
// Recompute (paddings, payloads).
type relayouter interface {
	relayout(owner *Struct, at int) error
}

// trailer is implemented by values that may end with a padding read short
// at the end of the input. untrail is called once something follows them.
type trailer interface {
	untrail()
}

func untrail(v Value) {
	if t, ok := v.(trailer); ok {
		t.untrail()
	}
}

// Encode serializes v into a new byte slice.
func Encode(v Value) []byte {
	w := binenc.NewWriter(v.Size())
	v.Write(w)
	return w.Bytes()
}

// Human renders v with its Humanizer, falling back to fmt.
func Human(v Value) string {
	if v == nil {
		return ""
	}
	if h, ok := v.(Humanizer); ok {
		return h.Human()
	}
	return fmt.Sprintf("%x", Encode(v))
}

// recomputeAt positions v at the anchor-relative offset at and recomputes it.
// The owner is the struct holding v, nil for array and choice members.
func recomputeAt(owner *Struct, v Value, at int) error {
	if a, ok := v.(Anchorer); ok {
		a.SetAnchor(at)
	}
	if r, ok := v.(Recomputer); ok {
		if err := r.Recompute(); err != nil {
			return err
		}
	}
	if l, ok := v.(relayouter); ok {
		return l.relayout(owner, at)
	}
	return nil
}

// toUint64 converts Go integer kinds to uint64.
func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int:
		return uint64(n), true
	case int8:
		return uint64(n), true
	case int16:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case int64:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
