package binstruct

import (
	"errors"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/binstruct/bitfield"
)

var headerFlags = bitfield.MustNew(8,
	bitfield.Bits("rsv", 6),
	bitfield.Bit("async"),
	bitfield.Bit("response"),
)

func testHeaderSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Define("test_header", []Field{
		Def("magic", StaticBytes(2)).Default("TH"),
		Def("flags", U8),
		Def("async_id", U64LE).When(FlagSet("async")),
		Def("reserved", U32LE).When(FlagClear("async")),
		Def("tree_id", U32LE).When(FlagClear("async")).Default(7),
		Def("session_id", U32LE),
	}, WithBits("flags", headerFlags))
	require.NoError(t, err)
	return s
}

func TestStructDefaults(t *testing.T) {
	h := testHeaderSchema(t).New()
	assert.Equal(t, StateReady, h.State())
	assert.Equal(t, uint64(7), h.Uint("tree_id"))
	assert.Equal(t, []string{"magic", "flags", "reserved", "tree_id", "session_id"}, h.PresentFields())
	assert.Equal(t, 2+1+4+4+4, h.Size())
	assert.Equal(t, h.Size(), len(h.Bytes()))
}

func TestStructConditionalFieldsSameSize(t *testing.T) {
	sync := testHeaderSchema(t).New()
	async := testHeaderSchema(t).New()
	require.NoError(t, async.SetFlag("async", true))

	assert.True(t, async.Present("async_id"))
	assert.False(t, async.Present("reserved"))
	assert.False(t, async.Present("tree_id"))
	assert.False(t, sync.Present("async_id"))
	assert.Equal(t, sync.Size(), async.Size())
	assert.NotEqual(t, sync.PresentFields(), async.PresentFields())
}

func TestStructReadWriteRoundTrip(t *testing.T) {
	input := []byte{
		'T', 'H',
		0x03, // async, response
		1, 2, 3, 4, 5, 6, 7, 8,
		0xaa, 0xbb, 0xcc, 0xdd,
	}
	h := testHeaderSchema(t).New()
	n, err := h.Read(input)
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	assert.Equal(t, StateRead, h.State())
	assert.True(t, h.Flag("response"))
	assert.Equal(t, uint64(0x0807060504030201), h.Uint("async_id"))
	assert.Equal(t, input, h.Bytes())

	// Presence is deterministic: re-evaluating after the read yields the
	// set used while reading.
	assert.Equal(t, []string{"magic", "flags", "async_id", "session_id"}, h.PresentFields())
}

func TestStructDefaultRoundTrip(t *testing.T) {
	schema := testHeaderSchema(t)
	orig := schema.New()
	require.NoError(t, orig.Set("session_id", 42))

	back := schema.New()
	_, err := back.Read(orig.Bytes())
	require.NoError(t, err)

	if diff := pretty.Compare(Rows(orig), Rows(back)); diff != "" {
		t.Errorf("round trip mismatch (-orig +back):\n%s", diff)
	}
}

func TestStructTruncatedFieldError(t *testing.T) {
	h := testHeaderSchema(t).New()
	_, err := h.Read([]byte{'T', 'H', 0x00, 1, 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "test_header", fe.Schema)
	assert.Equal(t, "reserved", fe.Field)
	assert.Equal(t, 3, fe.Offset)
}

func TestStructSetAndBits(t *testing.T) {
	h := testHeaderSchema(t).New()

	require.NoError(t, h.SetBits("flags", map[string]uint64{"response": 1, "async": 1}))
	assert.Equal(t, uint64(3), h.Uint("flags"))
	bits := h.BitsOf("flags")
	require.Len(t, bits, 3)
	assert.Equal(t, true, bits[2].Interface())

	require.NoError(t, h.Set("async", false))
	assert.Equal(t, uint64(1), h.Uint("flags"))

	assert.ErrorIs(t, h.Set("nope", 1), ErrUnknownField)
	assert.ErrorIs(t, h.Set("rsv", 64), ErrBadValue)
	assert.ErrorIs(t, h.Set("session_id", "x"), ErrBadValue)
}

func TestStructOffsetOf(t *testing.T) {
	h := testHeaderSchema(t).New()
	off, ok := h.OffsetOf("tree_id")
	require.True(t, ok)
	assert.Equal(t, 7, off)

	require.NoError(t, h.SetFlag("async", true))
	assert.Equal(t, 11, h.MustOffsetOf("session_id"))

	_, ok = h.OffsetOf("missing")
	assert.False(t, ok)
}

func TestViewHidesLaterFields(t *testing.T) {
	var sawLater, sawEarlier bool
	var offset int
	s := MustDefine("probe", []Field{
		Def("a", U8).Default(5),
		Def("b", BytesType).Build(BuilderFunc(func(v View, declared Type) Value {
			sawEarlier = v.Has("a") && v.Uint("a") == 5
			sawLater = v.Has("c")
			offset = v.Offset()
			return declared()
		})),
		Def("c", U8),
	}, WithAnchor(10))

	s.New()
	assert.True(t, sawEarlier)
	assert.False(t, sawLater)
	assert.Equal(t, 11, offset)
}

func TestViewOuter(t *testing.T) {
	outer := testHeaderSchema(t).New()
	require.NoError(t, outer.SetFlag("response", true))

	var isResponse bool
	body := MustDefine("body", []Field{
		Def("data", BytesType).Build(BuilderFunc(func(v View, declared Type) Value {
			if o := v.Outer(); o != nil {
				isResponse = o.Flag("response")
			}
			return declared()
		})),
	}).New()
	body.SetOuter(outer)

	_, err := body.Read([]byte("xyz"))
	require.NoError(t, err)
	assert.True(t, isResponse)
	assert.Same(t, outer, body.Outer())
}

func TestNestedStructGetsOuterAndAnchor(t *testing.T) {
	inner := MustDefine("inner", []Field{
		Def("len", U8),
		Def("pad", PaddingTo(4)),
		Def("tail", U8),
	})
	outer := MustDefine("outer", []Field{
		Def("lead", U8),
		Def("in", inner.Type()),
	})

	o := outer.New()
	require.NoError(t, o.Recompute())
	in := o.Struct("in")
	require.NotNil(t, in)
	assert.Same(t, o, in.Outer())
	assert.Equal(t, 1, in.Anchor())
	assert.Equal(t, 2, in.Get("pad").Size(), "1 (lead) + 1 (len) aligns to 4 with 2 bytes")
	assert.Equal(t, 5, o.Size())
}

func TestDefineValidation(t *testing.T) {
	_, err := Define("dup", []Field{Def("a", U8), Def("a", U8)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Define("", []Field{Def("a", U8)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Define("nil type", []Field{{Name: "a"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Define("bits width", []Field{Def("a", U16LE)}, WithBits("a", headerFlags))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Define("bits on bytes", []Field{Def("a", StaticBytes(1))}, WithBits("a", headerFlags))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Define("shadow", []Field{Def("a", U8), Def("async", U8)}, WithBits("a", headerFlags))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Panics(t, func() {
		MustDefine("bad default", []Field{Def("a", U8).Default("not-an-enum")}).New()
	})
}

func TestDerive(t *testing.T) {
	base := testHeaderSchema(t)
	derived, err := base.Derive("derived",
		Remove("session_id"),
		InsertBefore("flags", Def("version", U8).Default(2)),
		Append(Def("trailer", U16LE)),
		OverrideDefault("tree_id", 9),
	)
	require.NoError(t, err)

	names := func(s *Schema) []string {
		var out []string
		for _, f := range s.Fields() {
			out = append(out, f.Name)
		}
		return out
	}
	assert.Equal(t, []string{"magic", "version", "flags", "async_id", "reserved", "tree_id", "trailer"}, names(derived))
	assert.Equal(t, []string{"magic", "flags", "async_id", "reserved", "tree_id", "session_id"}, names(base), "base schema is untouched")

	d := derived.New()
	assert.Equal(t, uint64(9), d.Uint("tree_id"))
	assert.Equal(t, uint64(2), d.Uint("version"))
	assert.True(t, derived.Has("async"))

	dropped, err := base.Derive("no flags", Remove("flags"))
	require.NoError(t, err)
	assert.False(t, dropped.Has("async"))

	_, err = base.Derive("bad", Remove("missing"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = base.Derive("bad", InsertBefore("missing", Def("x", U8)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRecomputeHookAndIdempotence(t *testing.T) {
	s := MustDefine("sized", []Field{
		Def("length", U32LE),
		Def("offset", U32LE),
		Def("content", BytesType).Build(BoundedBy("length")),
		Def("pad", PaddingTo(8)),
		Def("trailer", U32LE).Default(0xdeadbeef),
	}, WithRecompute(func(s *Struct) error {
		if err := s.SetUint("length", uint64(s.Get("content").Size())); err != nil {
			return err
		}
		return s.SetUint("offset", uint64(s.Anchor()+s.MustOffsetOf("content")))
	}))

	for _, tt := range []struct {
		content string
		pad     int
	}{
		{"12345", 3},
		{"12345678", 0},
		{"", 0},
		{"1", 7},
	} {
		st := s.New()
		require.NoError(t, st.Set("content", tt.content))
		require.NoError(t, st.Recompute())
		first := st.Bytes()
		assert.Equal(t, tt.pad, st.Get("pad").Size(), "content %q", tt.content)
		assert.Equal(t, uint64(len(tt.content)), st.Uint("length"))
		assert.Equal(t, uint64(8), st.Uint("offset"))
		assert.Equal(t, st.Size(), len(first))
		assert.Zero(t, (8+len(tt.content)+tt.pad)%8)

		require.NoError(t, st.Recompute())
		assert.Equal(t, first, st.Bytes(), "recompute is idempotent")

		back := s.New()
		_, err := back.Read(first)
		require.NoError(t, err)
		assert.Equal(t, first, back.Bytes())
		assert.Equal(t, tt.content, string(back.Get("content").(*Bytes).Data()))
	}
}
