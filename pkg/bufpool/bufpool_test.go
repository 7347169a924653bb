package bufpool

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SizeClasses(t *testing.T) {
	p := NewPool(&Config{SmallSize: 16, MediumSize: 64, LargeSize: 256})

	tests := []struct {
		size    int
		wantCap int
	}{
		{0, 16},
		{16, 16},
		{17, 64},
		{64, 64},
		{200, 256},
		{257, 257},
	}
	for _, tt := range tests {
		buf := p.Get(tt.size)
		assert.Len(t, buf, tt.size)
		assert.Equal(t, tt.wantCap, cap(buf), "size %d", tt.size)
		p.Put(buf)
	}
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(&Config{MediumSize: 100})
	assert.Equal(t, DefaultSmallSize, cap(p.Get(1)))
	assert.Equal(t, 100, cap(p.Get(DefaultSmallSize+1)))
	assert.Equal(t, DefaultLargeSize, cap(p.Get(101)))
}

func TestPut_IgnoresForeignBuffers(t *testing.T) {
	p := NewPool(&Config{SmallSize: 16, MediumSize: 64, LargeSize: 256})
	p.Put(nil)
	p.Put(make([]byte, 10))
	assert.Equal(t, 16, cap(p.Get(1)))
}

func TestReadAll(t *testing.T) {
	p := NewPool(&Config{SmallSize: 8, MediumSize: 32, LargeSize: 128})
	data := bytes.Repeat([]byte("smb2"), 20)

	tests := []struct {
		name string
		r    io.Reader
	}{
		{"whole", bytes.NewReader(data)},
		{"one byte at a time", iotest.OneByteReader(bytes.NewReader(data))},
		{"data with EOF", iotest.DataErrReader(bytes.NewReader(data))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ReadAll(tt.r, 1024)
			require.NoError(t, err)
			assert.Equal(t, data, got)
			assert.Equal(t, 128, cap(got))
			p.Put(got)
		})
	}
}

func TestReadAll_Limits(t *testing.T) {
	p := NewPool(&Config{SmallSize: 8, MediumSize: 32, LargeSize: 128})

	got, err := p.ReadAll(bytes.NewReader(make([]byte, 40)), 40)
	require.NoError(t, err)
	assert.Len(t, got, 40)

	_, err = p.ReadAll(bytes.NewReader(make([]byte, 41)), 40)
	assert.ErrorIs(t, err, ErrLimit)

	_, err = p.ReadAll(iotest.ErrReader(errors.New("boom")), 40)
	assert.EqualError(t, err, "boom")

	got, err = p.ReadAll(bytes.NewReader(make([]byte, 300)), 1000)
	require.NoError(t, err)
	assert.Len(t, got, 300, "beyond the large class buffers are allocated directly")
}

func TestGlobalPool(t *testing.T) {
	buf := Get(10)
	assert.Len(t, buf, 10)
	Put(buf)

	got, err := ReadAll(bytes.NewReader([]byte("NTLMSSP\x00")), 64)
	require.NoError(t, err)
	assert.Equal(t, []byte("NTLMSSP\x00"), got)
	Put(got)
}
