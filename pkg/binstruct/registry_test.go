package binstruct

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFreezesOnLookup(t *testing.T) {
	r := NewRegistry()
	a := MustDefine("a", []Field{Def("x", U8)})
	b := MustDefine("b", []Field{Def("x", U8)})

	require.NoError(t, r.Register(a))
	assert.ErrorIs(t, r.Register(a), ErrInvalidConfig, "duplicate name")
	assert.False(t, r.Frozen())

	got, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.True(t, r.Frozen())

	assert.ErrorIs(t, r.Register(b), ErrInvalidConfig)
	assert.Panics(t, func() { r.MustRegister(b) })
	assert.Equal(t, []string{"a"}, r.Names())

	_, ok = r.Lookup("b")
	assert.False(t, ok)
}

func TestInspect(t *testing.T) {
	h := testHeaderSchema(t).New()
	require.NoError(t, h.SetBits("flags", map[string]uint64{"response": 1}))

	var buf bytes.Buffer
	require.NoError(t, Inspect(&buf, h))
	out := buf.String()
	assert.Contains(t, out, "tree_id")
	assert.Contains(t, out, "UInt32le")
	assert.Contains(t, out, "response (0x01)")
	assert.NotContains(t, out, "async_id")

	rows := Rows(h)
	require.NotEmpty(t, rows)
	assert.Equal(t, "magic", rows[0][0])
}

func TestInspectNested(t *testing.T) {
	a := NewArray(testPairs)
	_, err := a.AppendNew(2)
	require.NoError(t, err)
	s := MustDefine("holder", []Field{Def("pairs", ArrayOf(testPairs))}).New()
	require.NoError(t, s.Put("pairs", a))

	rows := Rows(s)
	require.Len(t, rows, 5)
	assert.Equal(t, "pairs", rows[0][0])
	assert.True(t, strings.HasPrefix(rows[1][0], "  [0]"))
	assert.Equal(t, "name_pair", rows[1][1])
	assert.Equal(t, "    id", rows[2][0])
}
