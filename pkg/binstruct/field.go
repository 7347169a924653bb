package binstruct

// View is the read-only window a builder or presence predicate has on the
// struct being read or built. Only fields declared before the current one are
// visible, and only when present.
type View interface {
	// Has reports whether name is a visible, present field or a bit sub-field
	// of one.
	Has(name string) bool
	// Value returns a visible field value, or nil.
	Value(name string) Value
	// Uint returns a visible integer field or bit sub-field, or 0.
	Uint(name string) uint64
	// Flag reports whether a visible integer field or bit sub-field is non-zero.
	Flag(name string) bool
	// Offset returns the anchor-relative position of the field being built.
	Offset() int
	// Outer returns a view of the enclosing struct, or nil at top level.
	Outer() View
}

// Predicate decides whether a field is present.
type Predicate func(v View) bool

// Builder produces the value instance for a field from the fields before it.
// Builders run on construction and again on every read.
type Builder interface {
	Build(v View, declared Type) Value
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(v View, declared Type) Value

func (f BuilderFunc) Build(v View, declared Type) Value { return f(v, declared) }

// Field describes one named member of a schema.
type Field struct {
	Name    string
	Type    Type
	Builder Builder
	Present Predicate
	// Initial is assigned through Setter when a struct is constructed.
	Initial any
}

// Def declares a field of type t.
func Def(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// When makes the field conditional.
func (f Field) When(p Predicate) Field {
	f.Present = p
	return f
}

// Build attaches a builder.
func (f Field) Build(b Builder) Field {
	f.Builder = b
	return f
}

// Default sets the construction-time value.
func (f Field) Default(v any) Field {
	f.Initial = v
	return f
}

// Common predicates.

// FlagSet is true when an earlier flag is set.
func FlagSet(name string) Predicate {
	return func(v View) bool { return v.Flag(name) }
}

// FlagClear is true when an earlier flag is clear.
func FlagClear(name string) Predicate {
	return func(v View) bool { return !v.Flag(name) }
}

// UintIs is true when an earlier integer equals one of values.
func UintIs(name string, values ...uint64) Predicate {
	return func(v View) bool {
		x := v.Uint(name)
		for _, want := range values {
			if x == want {
				return true
			}
		}
		return false
	}
}

// UintIsNot is true when an earlier integer differs from every value.
func UintIsNot(name string, values ...uint64) Predicate {
	in := UintIs(name, values...)
	return func(v View) bool { return !in(v) }
}

// NonZero is true when an earlier integer is not zero.
func NonZero(name string) Predicate {
	return func(v View) bool { return v.Uint(name) != 0 }
}
