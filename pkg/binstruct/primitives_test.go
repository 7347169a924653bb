package binstruct

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

func TestIntReadWrite(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		input []byte
		want  uint64
	}{
		{"u8", U8, []byte{0x7f}, 0x7f},
		{"u16le", U16LE, []byte{0x34, 0x12}, 0x1234},
		{"u16be", U16BE, []byte{0x12, 0x34}, 0x1234},
		{"u24be", U24BE, []byte{0x01, 0x02, 0x03}, 0x010203},
		{"u32le", U32LE, []byte{0x78, 0x56, 0x34, 0x12}, 0x12345678},
		{"u64le", U64LE, []byte{1, 0, 0, 0, 0, 0, 0, 0x80}, 0x8000000000000001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.typ().(*Int)
			n, err := v.Read(tt.input)
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.want, v.Uint())
			assert.Equal(t, tt.input, Encode(v))
		})
	}
}

func TestIntTruncated(t *testing.T) {
	_, err := U32LE().Read([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestIntSigned(t *testing.T) {
	v := IntType(2, binenc.LittleEndian, Signed())().(*Int)
	_, err := v.Read([]byte{0xfe, 0xff})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v.Int())
	assert.Equal(t, "-2", v.Human())
}

func TestIntInvalidWidth(t *testing.T) {
	assert.Panics(t, func() { NewInt(5, binenc.LittleEndian) })
}

func TestEnumLenient(t *testing.T) {
	e := NewEnum(map[string]uint64{"negotiate": 1, "challenge": 2})
	v := EnumOf(4, binenc.LittleEndian, e)().(*Int)

	require.NoError(t, v.Set("challenge"))
	assert.Equal(t, uint64(2), v.Uint())
	assert.Equal(t, "challenge", v.Human())

	v.SetUint(9)
	assert.Equal(t, "<unknown:9>", v.Human())
	assert.Equal(t, []byte{9, 0, 0, 0}, Encode(v))

	assert.ErrorIs(t, v.Set("bogus"), ErrBadValue)
	assert.Equal(t, []string{"negotiate", "challenge"}, e.Names())
}

func TestBytesModes(t *testing.T) {
	rest := NewBytes()
	n, err := rest.Read([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	static := NewStaticBytes(4)
	static.SetData([]byte("ab"))
	assert.Equal(t, []byte("ab\x00\x00"), Encode(static))
	static.SetData([]byte("abcdef"))
	assert.Equal(t, []byte("abcd"), Encode(static))
	_, err = static.Read([]byte("ab"))
	assert.ErrorIs(t, err, ErrTruncated)

	bounded := NewBoundedBytes(2)
	n, err = bounded.Read([]byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("xy"), bounded.Data())
	_, err = NewBoundedBytes(5).Read([]byte("xyz"))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestCString(t *testing.T) {
	c := NewCString(0)
	n, err := c.Read([]byte("NT LM 0.12\x00rest"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "NT LM 0.12", c.String())

	_, err = NewCString(0).Read([]byte("abc"))
	assert.ErrorIs(t, err, ErrTruncated)

	static := NewCString(16)
	input := []byte("SERVER\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09")
	n, err = static.Read(input)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, "SERVER", static.String())
	assert.Equal(t, input, Encode(static), "garbage after the terminator is preserved")

	static.SetString("A-VERY-LONG-SERVER-NAME")
	out := Encode(static)
	assert.Len(t, out, 16)
	assert.Equal(t, byte(0), out[15])

	_, err = NewCString(4).Read([]byte("abcd"))
	assert.ErrorIs(t, err, ErrTruncated, "terminator must be inside the static length")
}

func TestWideStringUnicode(t *testing.T) {
	s := NewWideString(NulTerminated())
	s.SetString("PC1")
	assert.Equal(t, []byte{'P', 0, 'C', 0, '1', 0, 0, 0}, Encode(s))

	r := NewWideString(NulTerminated())
	n, err := r.Read([]byte{'P', 0, 'C', 0, '1', 0, 0, 0, 0xff})
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "PC1", r.String())
}

func TestWideStringEmptyDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts []WideOption
		want []byte
	}{
		{"unicode terminated", []WideOption{NulTerminated()}, []byte{0, 0}},
		{"ascii terminated", []WideOption{ASCII(), NulTerminated()}, []byte{0}},
		{"static", []WideOption{StaticLength(4)}, []byte{0, 0, 0, 0}},
		{"unterminated", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWideString(tt.opts...)
			assert.Equal(t, len(tt.want), s.Size())
			assert.Equal(t, tt.want, Encode(s))
			assert.Empty(t, s.String())

			back := NewWideString(tt.opts...)
			n, err := back.Read(Encode(s))
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}

	s := NewWideString(NulTerminated())
	s.SetUnicode(false)
	assert.Equal(t, []byte{0}, Encode(s))
}

func TestWideStringTerminatorAlignment(t *testing.T) {
	// 0x0100 0x0041: the zero pair straddling code units is not a terminator.
	s := NewWideString(NulTerminated())
	n, err := s.Read([]byte{0x00, 0x01, 0x00, 0x41, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestWideStringASCIIAndBounds(t *testing.T) {
	s := NewWideString(ASCII(), NulTerminated())
	n, err := s.Read([]byte("abc\x00def"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abc", s.String())

	b := NewWideString(Bound(4))
	n, err = b.Read([]byte{'h', 0, 'i', 0, 'x', 0})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "hi", b.String())

	_, err = NewWideString(Bound(8)).Read([]byte{'h', 0})
	assert.ErrorIs(t, err, ErrTruncated)

	st := NewWideString(StaticLength(6))
	st.SetString("abcdef")
	assert.Len(t, Encode(st), 6)
	assert.Equal(t, "abc", st.String())
}

func TestFiletime(t *testing.T) {
	f := &Filetime{}
	assert.Equal(t, "no time", f.Human())

	_, err := f.Read([]byte{0x7d, 0x7d, 0xdd, 0xe4, 0x0d, 0x5c, 0xd4, 0x01})
	require.NoError(t, err)
	assert.Equal(t, "2018-10-04T18:13:04.4638077Z", f.Human())

	now := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)
	g, err := NewFiletime(WithTime(now))
	require.NoError(t, err)
	assert.True(t, g.Time().Equal(now.Truncate(100*time.Nanosecond)))

	_, err = NewFiletime(WithTime(now), WithFiletime(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPadLen(t *testing.T) {
	tests := []struct {
		offset, align, want int
	}{
		{5, 8, 3},
		{8, 8, 0},
		{0, 8, 0},
		{100, 8, 4},
		{102, 8, 2},
		{106, 8, 6},
		{7, 4, 1},
	}
	for _, tt := range tests {
		got, err := PadLen(tt.offset, tt.align)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "PadLen(%d, %d)", tt.offset, tt.align)
		assert.Less(t, got, tt.align)
	}

	_, err := PadLen(3, 0)
	assert.ErrorIs(t, err, ErrAlignment)
	_, err = PadLen(-1, 8)
	assert.ErrorIs(t, err, ErrAlignment)
	assert.Panics(t, func() { NewPadding(0) })
}

func TestPaddingTrailingShort(t *testing.T) {
	p := NewPadding(8)
	p.SetAnchor(6)
	n, err := p.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, p.relayout(nil, 6))
	assert.Equal(t, 0, p.Size(), "a short trailing padding keeps its read length")

	require.NoError(t, p.relayout(nil, 5))
	assert.Equal(t, 3, p.Size())
}

func TestWideStringSetUnicode(t *testing.T) {
	s := NewWideString(ASCII())
	s.SetString("PC1")
	assert.Equal(t, []byte("PC1"), s.Raw())
	s.SetUnicode(true)
	assert.Equal(t, []byte{'P', 0, 'C', 0, '1', 0}, s.Raw())
	assert.Equal(t, "PC1", s.String())
	s.SetUnicode(true)
	assert.Equal(t, 6, s.Size())
}
