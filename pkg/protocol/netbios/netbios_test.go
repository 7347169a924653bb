package netbios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/binstruct"
)

func TestNameEncoding(t *testing.T) {
	tests := []struct {
		name string
		wire string
	}{
		{"FRED", "\x20EGFCEFEECACACACACACACACACACACACA\x00"},
		{"The NetBIOS name", "\x20FEGIGFCAEOGFHEECEJEPFDCAGOGBGNGF\x00"},
		{"FRED.NETBIOS.COM", "\x20EGFCEFEECACACACACACACACACACACACA\x07NETBIOS\x03COM\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewName(tt.name)
			assert.Equal(t, []byte(tt.wire), binstruct.Encode(n))
			assert.Equal(t, len(tt.wire), n.Size())

			back := &Name{}
			consumed, err := back.Read([]byte(tt.wire + "trailing"))
			require.NoError(t, err)
			assert.Equal(t, len(tt.wire), consumed)
			assert.Equal(t, tt.name, back.String())
		})
	}
}

func TestNameScope(t *testing.T) {
	n := NewName("FRED.NETBIOS.COM")
	assert.Equal(t, "FRED", n.Name())
	assert.Equal(t, "NETBIOS.COM", n.Scope())
	assert.Equal(t, "", NewName("FRED").Scope())
}

func TestNameTruncated(t *testing.T) {
	_, err := (&Name{}).Read([]byte("\x20EGFC"))
	assert.ErrorIs(t, err, binstruct.ErrTruncated)
	_, err = (&Name{}).Read([]byte("\x20EGFCEFEECACACACACACACACACACACACA"))
	assert.ErrorIs(t, err, binstruct.ErrTruncated)
}

func TestSession(t *testing.T) {
	s, err := NewSession([]byte("\xfeSMB"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x04, 0xfe, 'S', 'M', 'B'}, s.Bytes())

	back := Session.New()
	_, err = back.Read([]byte{0x85, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "keep_alive", binstruct.Human(back.Get("type")))

	_, err = Session.New().Read([]byte{0x00, 0x00, 0x01, 0x00, 0xaa})
	assert.ErrorIs(t, err, binstruct.ErrTruncated)
}

func TestDatagramPresence(t *testing.T) {
	d := Datagram.New()
	assert.Equal(t, []string{
		"type", "flags", "dgm_id", "src_ip", "src_port",
		"dgm_length", "packet_offset", "src_name", "dst_name", "body",
	}, d.PresentFields())

	require.NoError(t, d.Set("type", "error"))
	assert.Equal(t, []string{
		"type", "flags", "dgm_id", "src_ip", "src_port", "error_code",
	}, d.PresentFields())

	require.NoError(t, d.Set("type", "query_request"))
	assert.True(t, d.Present("dst_name"))
	assert.False(t, d.Present("src_name"))
	assert.False(t, d.Present("body"))
}

func TestDatagramRecomputeRoundTrip(t *testing.T) {
	d := Datagram.New()
	require.NoError(t, d.Set("src_ip", "192.168.1.10"))
	require.NoError(t, d.Set("src_name", "HOST"))
	require.NoError(t, d.Set("dst_name", "WORKGROUP"))
	require.NoError(t, d.Set("body", []byte{0xff, 'S', 'M', 'B'}))
	require.NoError(t, d.SetBits("flags", map[string]uint64{"snt": 2, "f": 1}))
	require.NoError(t, d.Recompute())

	assert.Equal(t, uint64(34+34+4), d.Uint("dgm_length"))
	assert.Equal(t, uint64(0x0a), d.Uint("flags"))

	wire := d.Bytes()
	back := Datagram.New()
	n, err := back.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	assert.Equal(t, wire, back.Bytes())
	assert.Equal(t, "192.168.1.10", binstruct.Human(back.Get("src_ip")))
	assert.Equal(t, "WORKGROUP", back.Get("dst_name").(*Name).String())
	assert.Equal(t, "direct_group", binstruct.Human(back.Get("type")))
}
