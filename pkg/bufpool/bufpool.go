// Package bufpool recycles the buffers captured messages are read into.
//
// Buffers come in three size classes sized after the traffic smbwire sees:
// small for NTLM, LLMNR and browser datagrams, medium for typical SMB2
// requests and large for READ/WRITE-sized frames. Larger requests are
// allocated directly and never pooled.
//
// A buffer handed to the dissector must not be returned to the pool until
// every decoded value referencing it has been rendered.
package bufpool

import (
	"errors"
	"io"
	"sync"
)

const (
	DefaultSmallSize  = 4 << 10
	DefaultMediumSize = 64 << 10
	DefaultLargeSize  = 1 << 20
)

// ErrLimit is returned by ReadAll when the input exceeds its limit.
var ErrLimit = errors.New("bufpool: input exceeds limit")

// Pool is a set of sync.Pools, one per size class.
type Pool struct {
	classes [3]class
}

type class struct {
	size int
	pool sync.Pool
}

// Config sets the size classes. Zero values take the defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// NewPool returns a pool. A nil cfg uses the default sizes.
func NewPool(cfg *Config) *Pool {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	sizes := [3]int{c.SmallSize, c.MediumSize, c.LargeSize}
	defaults := [3]int{DefaultSmallSize, DefaultMediumSize, DefaultLargeSize}

	p := &Pool{}
	for i := range p.classes {
		size := sizes[i]
		if size <= 0 {
			size = defaults[i]
		}
		p.classes[i].size = size
		p.classes[i].pool.New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

// Get returns a slice of length size. Its capacity is that of the smallest
// class that fits; sizes above the large class are allocated directly.
func (p *Pool) Get(size int) []byte {
	for i := range p.classes {
		if size <= p.classes[i].size {
			buf := *p.classes[i].pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put recycles buf. Slices whose capacity matches no class are dropped.
func (p *Pool) Put(buf []byte) {
	for i := range p.classes {
		if cap(buf) == p.classes[i].size {
			full := buf[:cap(buf)]
			p.classes[i].pool.Put(&full)
			return
		}
	}
}

// ReadAll reads r to the end into a pooled buffer, growing through the size
// classes as needed. Reading more than limit bytes fails with ErrLimit. The
// caller owns the result and should Put it when done.
func (p *Pool) ReadAll(r io.Reader, limit int64) ([]byte, error) {
	buf := p.Get(0)
	for {
		if len(buf) == cap(buf) {
			grown := p.Get(cap(buf) + 1)[:len(buf)]
			copy(grown, buf)
			p.Put(buf)
			buf = grown
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if int64(len(buf)) > limit {
			p.Put(buf)
			return nil, ErrLimit
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			p.Put(buf)
			return nil, err
		}
	}
}

var globalPool = NewPool(nil)

// Get takes a buffer from the package pool.
func Get(size int) []byte { return globalPool.Get(size) }

// Put returns a buffer to the package pool.
func Put(buf []byte) { globalPool.Put(buf) }

// ReadAll is Pool.ReadAll on the package pool.
func ReadAll(r io.Reader, limit int64) ([]byte, error) { return globalPool.ReadAll(r, limit) }
