package binstruct

import (
	"fmt"
	"time"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// filetimeUnixDiff is the number of 100ns intervals between 1601-01-01 and
// 1970-01-01.
const filetimeUnixDiff = 116444736000000000

// Filetime is a signed little-endian count of 100ns intervals since
// 1601-01-01 UTC. Zero means "no time".
type Filetime struct {
	v int64
}

// FiletimeOption configures NewFiletime.
type FiletimeOption func(*filetimeInit)

type filetimeInit struct {
	t   *time.Time
	raw *int64
}

// WithTime initializes the value from a time.
func WithTime(t time.Time) FiletimeOption {
	return func(fi *filetimeInit) { fi.t = &t }
}

// WithFiletime initializes the value from a raw filetime.
func WithFiletime(v int64) FiletimeOption {
	return func(fi *filetimeInit) { fi.raw = &v }
}

// NewFiletime returns a filetime. Supplying both a time and a raw value is
// ErrInvalidConfig.
func NewFiletime(opts ...FiletimeOption) (*Filetime, error) {
	var fi filetimeInit
	for _, opt := range opts {
		opt(&fi)
	}
	if fi.t != nil && fi.raw != nil {
		return nil, fmt.Errorf("%w: filetime given both a time and a raw value", ErrInvalidConfig)
	}
	f := &Filetime{}
	switch {
	case fi.t != nil:
		f.SetTime(*fi.t)
	case fi.raw != nil:
		f.v = *fi.raw
	}
	return f, nil
}

// FiletimeType is the Type of zero filetimes.
var FiletimeType Type = func() Value { return &Filetime{} }

// FiletimeFromTime converts t to a filetime count.
func FiletimeFromTime(t time.Time) int64 {
	return t.UnixNano()/100 + filetimeUnixDiff
}

// TimeFromFiletime converts a filetime count to UTC time.
func TimeFromFiletime(v int64) time.Time {
	return time.Unix(0, (v-filetimeUnixDiff)*100).UTC()
}

func (f *Filetime) Read(data []byte) (int, error) {
	r := binenc.NewReader(data)
	v := r.ReadUint64()
	if r.Err() != nil {
		return 0, truncated(8, len(data))
	}
	f.v = int64(v)
	return 8, nil
}

func (f *Filetime) Write(w *binenc.Writer) { w.WriteUint64(uint64(f.v)) }

func (f *Filetime) Size() int { return 8 }

// Filetime returns the raw count.
func (f *Filetime) Filetime() int64 { return f.v }

// SetFiletime stores a raw count.
func (f *Filetime) SetFiletime(v int64) { f.v = v }

// IsZero reports whether the value is "no time".
func (f *Filetime) IsZero() bool { return f.v == 0 }

// Time returns the UTC time, or the zero time for "no time".
func (f *Filetime) Time() time.Time {
	if f.v == 0 {
		return time.Time{}
	}
	return TimeFromFiletime(f.v)
}

// SetTime stores t. The zero time stores "no time".
func (f *Filetime) SetTime(t time.Time) {
	if t.IsZero() {
		f.v = 0
		return
	}
	f.v = FiletimeFromTime(t)
}

// Uint returns the raw count as unsigned.
func (f *Filetime) Uint() uint64 { return uint64(f.v) }

// SetUint stores a raw count.
func (f *Filetime) SetUint(v uint64) { f.v = int64(v) }

// Set accepts a time.Time or a raw integer count.
func (f *Filetime) Set(v any) error {
	if t, ok := v.(time.Time); ok {
		f.SetTime(t)
		return nil
	}
	n, ok := toUint64(v)
	if !ok {
		return fmt.Errorf("%w: %T assigned to filetime", ErrBadValue, v)
	}
	f.v = int64(n)
	return nil
}

// Human returns "no time" or the RFC 3339 UTC time with nanoseconds.
func (f *Filetime) Human() string {
	if f.v == 0 {
		return "no time"
	}
	return f.Time().Format(time.RFC3339Nano)
}
