package binstruct

// view exposes the fields before limit during one traversal.
type view struct {
	p     *pass
	limit int
}

func (v *view) field(name string) (int, bool) {
	i, ok := v.p.s.schema.index[name]
	if !ok || i >= v.limit || !v.p.isPresent(i) {
		return 0, false
	}
	return i, true
}

func (v *view) Has(name string) bool {
	if _, ok := v.field(name); ok {
		return true
	}
	ref, ok := v.p.s.schema.subs[name]
	if !ok {
		return false
	}
	return ref.field < v.limit && v.p.isPresent(ref.field)
}

func (v *view) Value(name string) Value {
	i, ok := v.field(name)
	if !ok {
		return nil
	}
	return v.p.s.values[i]
}

func (v *view) Uint(name string) uint64 {
	if i, ok := v.field(name); ok {
		if u, ok := v.p.s.values[i].(Unsigned); ok {
			return u.Uint()
		}
		return 0
	}
	ref, ok := v.p.s.schema.subs[name]
	if !ok || ref.field >= v.limit || !v.p.isPresent(ref.field) {
		return 0
	}
	x, _ := ref.layout.Get(v.p.s.values[ref.field].(Unsigned).Uint(), name)
	return x
}

func (v *view) Flag(name string) bool { return v.Uint(name) != 0 }

func (v *view) Offset() int { return v.p.s.anchor + v.p.offset(v.limit) }

func (v *view) Outer() View {
	if v.p.s.outer == nil {
		return nil
	}
	return v.p.s.outer.View()
}
