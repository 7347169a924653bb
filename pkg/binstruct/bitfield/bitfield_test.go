package bitfield

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smb2Flags(t *testing.T) *Layout {
	t.Helper()
	l, err := New(32,
		Bits("reserved1", 2),
		Bit("replay_operation"),
		Bit("dfs_operation"),
		Bits("reserved2", 21),
		Bits("priority", 3),
		Bit("signed"),
		Bit("related_operations"),
		Bit("async_command"),
		Bit("response"),
	)
	require.NoError(t, err)
	return l
}

func TestNewValidatesWidths(t *testing.T) {
	tests := []struct {
		name   string
		width  uint
		fields []Field
	}{
		{"short", 8, []Field{Bits("a", 7)}},
		{"long", 8, []Field{Bits("a", 7), Bits("b", 2)}},
		{"zero", 8, []Field{Bits("a", 0), Bits("b", 8)}},
		{"duplicate", 8, []Field{Bits("a", 4), Bits("a", 4)}},
		{"unnamed", 8, []Field{Bits("", 8)}},
		{"bad backing", 12, []Field{Bits("a", 12)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.width, tt.fields...)
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew(8, Bits("a", 3)) })
}

func TestSMB2FlagsMSBFirst(t *testing.T) {
	l := smb2Flags(t)

	assert.True(t, l.Flag(0x19, "response"))
	assert.True(t, l.Flag(0x19, "signed"))
	assert.False(t, l.Flag(0x19, "async_command"))
	prio, err := l.Get(0x19, "priority")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), prio)
	assert.Equal(t, "signed,response", l.Describe(0x19))

	x, err := l.PackMap(map[string]uint64{"response": 1, "signed": 1, "priority": 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x19), x)
}

func TestNTLMFlagsEndpoints(t *testing.T) {
	fields := []Field{Bit("w")}
	for i := 0; i < 30; i++ {
		fields = append(fields, Bit(string(rune('B'+i))))
	}
	fields = append(fields, Bit("a"))
	l, err := New(32, fields...)
	require.NoError(t, err)

	x, err := l.SetFlag(0, "a", true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1), x)

	x, err = l.SetFlag(0, "w", true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x80000000), x)
}

func TestPackUnpackInverse(t *testing.T) {
	l := smb2Flags(t)
	for _, x := range []uint64{0, 1, 0x19, 0x30000000, 0xdeadbeef, 0xffffffff} {
		got, err := l.Pack(l.Unpack(x))
		require.NoError(t, err)
		assert.Equal(t, x, got, "x=%#x", x)
	}
}

func TestUnpackTypes(t *testing.T) {
	l := MustNew(8, Bits("high", 4), Bit("flag"), Bits("low", 3))
	vals := l.Unpack(0xab)
	require.Len(t, vals, 3)

	assert.Equal(t, uint64(0xa), vals[0].Interface())
	assert.Equal(t, true, vals[1].Interface())
	assert.Equal(t, uint64(3), vals[2].Interface())
	assert.Equal(t, "flag=true", vals[1].String())
}

func TestSetRejectsOverflowAndUnknown(t *testing.T) {
	l := MustNew(8, Bits("high", 4), Bits("low", 4))

	_, err := l.Set(0, "low", 16)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = l.Set(0, "missing", 1)
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = l.Get(0, "missing")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.False(t, l.Flag(0xff, "missing"))
}

func TestSetPreservesOtherBits(t *testing.T) {
	l := MustNew(16, Bits("a", 4), Bits("b", 8), Bits("c", 4))
	x, err := l.Set(0xffff, "b", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xf00f), x)
}

func TestGenericHelpers(t *testing.T) {
	assert.Equal(t, uint8(0x5), Extract(uint8(0xa5), 0, 4))
	assert.Equal(t, uint8(0xa), Extract(uint8(0xa5), 4, 4))
	assert.Equal(t, uint16(0x0ff0), Insert(uint16(0), 4, 8, 0xff))
	assert.Equal(t, uint64(0xffffffffffffffff), Extract(^uint64(0), 0, 64))
}
