package binstruct

import (
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

// State is the lifecycle stage of a struct instance.
type State uint8

const (
	StateEmpty State = iota
	StateBuildingDefaults
	StateReady
	StateReading
	StateRead
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuildingDefaults:
		return "building-defaults"
	case StateReady:
		return "ready"
	case StateReading:
		return "reading"
	case StateRead:
		return "read"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Struct is an instance of a schema: one value per declared field, in order.
// Every field is materialized; presence is evaluated on each Read, Write,
// Size and Recompute and absent fields contribute no bytes.
//
// A Struct is not safe for concurrent mutation. Concurrent reads of a fully
// parsed struct are safe.
type Struct struct {
	schema *Schema
	values []Value
	anchor int
	outer  *Struct
	state  State
}

// NewStruct constructs an instance of schema. Builders run against the
// defaults of earlier fields and each field's default is then applied. An
// unassignable default is a schema bug and panics with ErrInvalidConfig.
func NewStruct(schema *Schema) *Struct {
	s := &Struct{
		schema: schema,
		values: make([]Value, len(schema.fields)),
		anchor: schema.anchor,
		state:  StateBuildingDefaults,
	}
	p := s.newPass()
	for i, f := range schema.fields {
		v := s.instantiate(p, i)
		s.install(i, v)
		if f.Initial == nil {
			continue
		}
		if err := assign(v, f.Initial); err != nil {
			panic(fmt.Errorf("%w: %s.%s default: %w", ErrInvalidConfig, schema.name, f.Name, err))
		}
	}
	s.state = StateReady
	return s
}

// pass memoizes presence for one traversal.
type pass struct {
	s       *Struct
	present []int8
}

const (
	presenceUnknown int8 = iota
	presenceYes
	presenceNo
)

func (s *Struct) newPass() *pass {
	return &pass{s: s, present: make([]int8, len(s.schema.fields))}
}

func (p *pass) isPresent(i int) bool {
	switch p.present[i] {
	case presenceYes:
		return true
	case presenceNo:
		return false
	}
	ok := true
	if pred := p.s.schema.fields[i].Present; pred != nil {
		ok = pred(&view{p: p, limit: i})
	}
	if ok {
		p.present[i] = presenceYes
	} else {
		p.present[i] = presenceNo
	}
	return ok
}

// offset returns the struct-relative position of field limit.
func (p *pass) offset(limit int) int {
	pos := 0
	for j := 0; j < limit; j++ {
		if p.isPresent(j) {
			pos += p.s.values[j].Size()
		}
	}
	return pos
}

func (s *Struct) instantiate(p *pass, i int) Value {
	f := s.schema.fields[i]
	if f.Builder == nil {
		return f.Type()
	}
	if v := f.Builder.Build(&view{p: p, limit: i}, f.Type); v != nil {
		return v
	}
	return f.Type()
}

func (s *Struct) install(i int, v Value) {
	s.values[i] = v
	if l, ok := v.(outerLinker); ok {
		l.setOuter(s)
	}
}

// Read decodes the struct from data. Presence predicates and builders see
// only the fields already read.
func (s *Struct) Read(data []byte) (int, error) {
	s.state = StateReading
	p := s.newPass()
	pos := 0
	for i, f := range s.schema.fields {
		if !p.isPresent(i) {
			continue
		}
		v := s.instantiate(p, i)
		s.install(i, v)
		if a, ok := v.(Anchorer); ok {
			a.SetAnchor(s.anchor + pos)
		}
		n, err := v.Read(data[pos:])
		if err != nil {
			s.state = StateEmpty
			return pos, &FieldError{Schema: s.schema.name, Field: f.Name, Offset: pos, Err: err}
		}
		pos += n
	}
	s.state = StateRead
	return pos, nil
}

// Write appends every present field in order.
func (s *Struct) Write(w *binenc.Writer) {
	p := s.newPass()
	for i, v := range s.values {
		if p.isPresent(i) {
			v.Write(w)
		}
	}
}

// Size returns the sum of the present fields' sizes.
func (s *Struct) Size() int {
	return s.newPass().offset(len(s.values))
}

// Bytes serializes the struct.
func (s *Struct) Bytes() []byte { return Encode(s) }

// Recompute recomputes nested containers first, then lays out paddings and
// payloads from their anchor-relative positions, then runs the schema hook.
// Calling it twice without an intervening mutation changes nothing.
func (s *Struct) Recompute() error {
	p := s.newPass()
	last := s.lastFilled(p)
	pos := 0
	for i, v := range s.values {
		if !p.isPresent(i) {
			continue
		}
		if i < last {
			untrail(v)
		}
		if err := recomputeAt(s, v, s.anchor+pos); err != nil {
			return &FieldError{Schema: s.schema.name, Field: s.schema.fields[i].Name, Offset: pos, Err: err}
		}
		pos += v.Size()
	}
	if s.schema.hook != nil {
		if err := s.schema.hook(s); err != nil {
			return fmt.Errorf("%s: %w", s.schema.name, err)
		}
	}
	return nil
}

// lastFilled returns the last present field that serializes to at least one
// byte, or -1.
func (s *Struct) lastFilled(p *pass) int {
	for i := len(s.values) - 1; i >= 0; i-- {
		if p.isPresent(i) && s.values[i].Size() > 0 {
			return i
		}
	}
	return -1
}

func (s *Struct) lastPresent(p *pass) int {
	for i := len(s.values) - 1; i >= 0; i-- {
		if p.isPresent(i) {
			return i
		}
	}
	return -1
}

func (s *Struct) untrail() {
	if i := s.lastPresent(s.newPass()); i >= 0 {
		untrail(s.values[i])
	}
}

// Schema returns the instance's schema.
func (s *Struct) Schema() *Schema { return s.schema }

// State returns the lifecycle state.
func (s *Struct) State() State { return s.state }

// Anchor returns the distance from the top-level header to this struct.
func (s *Struct) Anchor() int { return s.anchor }

// SetAnchor moves the struct. Offsets computed by Recompute follow it.
func (s *Struct) SetAnchor(at int) { s.anchor = at }

// Outer returns the enclosing struct, or nil.
func (s *Struct) Outer() *Struct { return s.outer }

// SetOuter links s to the struct that carries it, typically the header of the
// layer a body belongs to. Builders reach it through View.Outer.
func (s *Struct) SetOuter(o *Struct) { s.outer = o }

func (s *Struct) setOuter(o *Struct) { s.outer = o }

// View returns a view of all present fields.
func (s *Struct) View() View {
	return &view{p: s.newPass(), limit: len(s.values)}
}

// Get returns the named field's value, or nil.
func (s *Struct) Get(name string) Value {
	i, ok := s.schema.index[name]
	if !ok {
		return nil
	}
	return s.values[i]
}

// Struct returns a nested struct field, or nil.
func (s *Struct) Struct(name string) *Struct {
	st, _ := s.Get(name).(*Struct)
	return st
}

// Array returns an array field, or nil.
func (s *Struct) Array(name string) *Array {
	a, _ := s.Get(name).(*Array)
	return a
}

// Put replaces the named field's value instance.
func (s *Struct) Put(name string, v Value) error {
	i, ok := s.schema.index[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.schema.name, name)
	}
	s.install(i, v)
	return nil
}

// Uint returns an integer field or bit sub-field, 0 when unknown.
func (s *Struct) Uint(name string) uint64 {
	if i, ok := s.schema.index[name]; ok {
		if u, ok := s.values[i].(Unsigned); ok {
			return u.Uint()
		}
		return 0
	}
	if ref, ok := s.schema.subs[name]; ok {
		x, _ := ref.layout.Get(s.values[ref.field].(Unsigned).Uint(), name)
		return x
	}
	return 0
}

// SetUint assigns an integer field or bit sub-field.
func (s *Struct) SetUint(name string, v uint64) error {
	if i, ok := s.schema.index[name]; ok {
		u, ok := s.values[i].(Unsigned)
		if !ok {
			return fmt.Errorf("%w: %s.%s is not an integer", ErrBadValue, s.schema.name, name)
		}
		u.SetUint(v)
		return nil
	}
	if ref, ok := s.schema.subs[name]; ok {
		u := s.values[ref.field].(Unsigned)
		x, err := ref.layout.Set(u.Uint(), name, v)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %w", ErrBadValue, s.schema.name, name, err)
		}
		u.SetUint(x)
		return nil
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.schema.name, name)
}

// Set assigns a plain Go value to a field or bit sub-field.
func (s *Struct) Set(name string, v any) error {
	if i, ok := s.schema.index[name]; ok {
		if err := assign(s.values[i], v); err != nil {
			return fmt.Errorf("%s.%s: %w", s.schema.name, name, err)
		}
		return nil
	}
	if _, ok := s.schema.subs[name]; ok {
		n, ok := toUint64(v)
		if !ok {
			return fmt.Errorf("%w: %T assigned to %s.%s", ErrBadValue, v, s.schema.name, name)
		}
		return s.SetUint(name, n)
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.schema.name, name)
}

// Flag reports whether an integer field or bit sub-field is non-zero.
func (s *Struct) Flag(name string) bool { return s.Uint(name) != 0 }

// SetFlag sets a bit sub-field to 1 or 0.
func (s *Struct) SetFlag(name string, on bool) error {
	var v uint64
	if on {
		v = 1
	}
	return s.SetUint(name, v)
}

// BitsOf unpacks the sub-fields declared on backing.
func (s *Struct) BitsOf(backing string) []bitfield.Value {
	l := s.schema.layouts[backing]
	if l == nil {
		return nil
	}
	return l.Unpack(s.Uint(backing))
}

// SetBits replaces backing with the packed sub-field values. Missing
// sub-fields become zero.
func (s *Struct) SetBits(backing string, values map[string]uint64) error {
	l := s.schema.layouts[backing]
	if l == nil {
		return fmt.Errorf("%w: %s.%s has no bit-fields", ErrUnknownField, s.schema.name, backing)
	}
	x, err := l.PackMap(values)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %w", ErrBadValue, s.schema.name, backing, err)
	}
	return s.SetUint(backing, x)
}

// Present reports whether the named field is currently serialized.
func (s *Struct) Present(name string) bool {
	i, ok := s.schema.index[name]
	if !ok {
		return false
	}
	return s.newPass().isPresent(i)
}

// PresentFields lists the present fields in order.
func (s *Struct) PresentFields() []string {
	p := s.newPass()
	names := make([]string, 0, len(s.values))
	for i, f := range s.schema.fields {
		if p.isPresent(i) {
			names = append(names, f.Name)
		}
	}
	return names
}

// OffsetOf returns the struct-relative position of a field, counting only
// present fields before it.
func (s *Struct) OffsetOf(name string) (int, bool) {
	i, ok := s.schema.index[name]
	if !ok {
		return 0, false
	}
	return s.newPass().offset(i), true
}

// MustOffsetOf is OffsetOf for names known to exist; it panics otherwise.
func (s *Struct) MustOffsetOf(name string) int {
	off, ok := s.OffsetOf(name)
	if !ok {
		panic(fmt.Errorf("%w: %s.%s", ErrUnknownField, s.schema.name, name))
	}
	return off
}

// Human returns the schema name.
func (s *Struct) Human() string { return s.schema.name }

func assign(dst Value, v any) error {
	if st, ok := dst.(Setter); ok {
		return st.Set(v)
	}
	if u, ok := dst.(Unsigned); ok {
		n, ok := toUint64(v)
		if !ok {
			return fmt.Errorf("%w: %T assigned to integer", ErrBadValue, v)
		}
		u.SetUint(n)
		return nil
	}
	return fmt.Errorf("%w: %T is not assignable", ErrBadValue, dst)
}
