package ntlm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/binstruct"
)

func TestNegotiateDomainName(t *testing.T) {
	m := Negotiate.New()
	assert.Equal(t, 0x28, m.Size())
	require.NoError(t, Payload(m).SetItem("domain_name", "DOMAIN"))
	require.NoError(t, m.Recompute())

	assert.Equal(t, uint64(0x28), m.Uint("domain_name_offset"))
	assert.Equal(t, uint64(6), m.Uint("domain_name_len"))
	assert.Equal(t, uint64(6), m.Uint("domain_name_maxlen"))
	assert.Equal(t, uint64(0x2e), m.Uint("workstation_offset"))
	assert.Equal(t, uint64(0), m.Uint("workstation_len"))
	wire := m.Bytes()
	assert.True(t, bytes.HasSuffix(wire, []byte("DOMAIN")))
	assert.Equal(t, []byte(Signature), wire[:8])
	assert.Equal(t, []byte{1, 0, 0, 0}, wire[8:12])

	back, err := Read(wire)
	require.NoError(t, err)
	assert.Same(t, Negotiate, back.Schema())
	assert.Equal(t, "DOMAIN", Text(back, "domain_name"))
	assert.Equal(t, wire, back.Bytes())
}

func TestNegotiateWorkstationOnly(t *testing.T) {
	m := Negotiate.New()
	require.NoError(t, Payload(m).SetItem("workstation", "WORKSTATION"))
	require.NoError(t, m.Recompute())
	assert.Equal(t, uint64(0x28), m.Uint("domain_name_offset"))
	assert.Equal(t, uint64(0x28), m.Uint("workstation_offset"))
	assert.Equal(t, uint64(11), m.Uint("workstation_len"))
	assert.Equal(t, "WORKSTATION", string(m.Bytes()[0x28:]))
}

func TestNegotiateFlags(t *testing.T) {
	m := Negotiate.New()
	require.NoError(t, m.SetFlag(FlagUnicode, true))
	assert.Equal(t, uint64(1), m.Uint("flags"))
	require.NoError(t, m.SetFlag(FlagUnicode, false))
	require.NoError(t, m.SetFlag(Flag56, true))
	assert.Equal(t, uint64(0x80000000), m.Uint("flags"))

	require.NoError(t, m.SetUint("flags", 0x62088215))
	for _, f := range []string{FlagUnicode, FlagRequestTarget, FlagSign, FlagNTLM, FlagAlwaysSign,
		FlagExtSessionSecurity, FlagVersion, Flag128, FlagKeyExch} {
		assert.True(t, m.Flag(f), f)
	}
	for _, f := range []string{FlagOEM, FlagSeal, FlagAnonymous, FlagTargetInfo, Flag56} {
		assert.False(t, m.Flag(f), f)
	}
}

func TestChallengeDefault(t *testing.T) {
	m := Challenge.New()
	want := append([]byte(Signature), 2, 0, 0, 0)
	want = append(want, make([]byte, 44)...)
	assert.Equal(t, want, m.Bytes())
}

func TestChallengeTargetNameAndInfo(t *testing.T) {
	m := Challenge.New()
	require.NoError(t, m.SetFlag(FlagUnicode, true))
	require.NoError(t, m.Set("challenge", []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	p := Payload(m)
	require.NoError(t, p.SetItem("target_name", "MYNAME"))
	info := NewAvPairs()
	domain, err := NewAvPair(AvNbDomainName, "DESKTOP")
	require.NoError(t, err)
	eol, err := NewAvPair(AvEOL, nil)
	require.NoError(t, err)
	info.Append(domain, eol)
	require.NoError(t, p.PutItem("target_info", info))
	require.NoError(t, m.Recompute())

	assert.Equal(t, uint64(56), m.Uint("target_name_offset"))
	assert.Equal(t, uint64(12), m.Uint("target_name_len"))
	assert.Equal(t, uint64(68), m.Uint("target_info_offset"))
	assert.Equal(t, uint64(22), m.Uint("target_info_len"))
	assert.Equal(t, uint64(14), domain.Uint("length"))

	wire := m.Bytes()
	require.Len(t, wire, 90)
	assert.Equal(t, binstruct.EncodeUTF16("MYNAME"), wire[56:68])
	assert.True(t, bytes.HasSuffix(wire, append(binstruct.EncodeUTF16("DESKTOP"), 0, 0, 0, 0)))

	back, err := Read(wire)
	require.NoError(t, err)
	assert.Same(t, Challenge, back.Schema())
	assert.Equal(t, "MYNAME", Text(back, "target_name"))
	pairs, ok := Payload(back).Item("target_info").(*binstruct.Array)
	require.True(t, ok)
	require.Equal(t, 2, pairs.Len())
	first := pairs.At(0).(*binstruct.Struct)
	assert.Same(t, StringAvPair, first.Schema())
	assert.Equal(t, "DESKTOP", binstruct.Human(first.Get("value")))
	assert.Same(t, EOLAvPair, pairs.At(1).(*binstruct.Struct).Schema())
	assert.Equal(t, wire, back.Bytes())
}

func TestChallengeOEMTargetName(t *testing.T) {
	m := Challenge.New()
	require.NoError(t, Payload(m).SetItem("target_name", "MYNAME"))
	require.NoError(t, m.Recompute())
	assert.Equal(t, uint64(6), m.Uint("target_name_len"))

	// Switching to unicode re-encodes on the next layout.
	require.NoError(t, m.SetFlag(FlagUnicode, true))
	require.NoError(t, m.Recompute())
	assert.Equal(t, uint64(12), m.Uint("target_name_len"))
	assert.Equal(t, "MYNAME", Text(m, "target_name"))
}

func buildAuthenticate(t *testing.T) *binstruct.Struct {
	t.Helper()
	nt := Ntlmv2Response.New()
	require.NoError(t, nt.Set("response", bytes.Repeat([]byte{0xaa}, 16)))
	require.NoError(t, nt.Set("timestamp", uint64(131831503844638077)))
	require.NoError(t, nt.Set("client_challenge", []byte("CLIENTCH")))
	pairs := nt.Array("avpairs")
	for _, kv := range []struct {
		kind  uint64
		value any
	}{
		{AvNbDomainName, "WORKGROUP"},
		{AvTimestamp, uint64(131831503844638077)},
		{AvFlags, uint64(2)},
		{AvEOL, nil},
	} {
		pair, err := NewAvPair(kv.kind, kv.value)
		require.NoError(t, err)
		pairs.Append(pair)
	}

	m := Authenticate.New()
	require.NoError(t, m.SetUint("flags", 0x62088215))
	p := Payload(m)
	require.NoError(t, p.SetItem("lm_response", bytes.Repeat([]byte{0x11}, 24)))
	require.NoError(t, p.PutItem("nt_response", nt))
	require.NoError(t, p.SetItem("domain_name", "WORKGROUP"))
	require.NoError(t, p.SetItem("user_name", "sylvain"))
	require.NoError(t, p.SetItem("workstation", "LANFEUST"))
	require.NoError(t, p.SetItem("session_key", bytes.Repeat([]byte{0x22}, 16)))
	require.NoError(t, m.Recompute())
	return m
}

func TestAuthenticateLayout(t *testing.T) {
	m := buildAuthenticate(t)

	offsets := []struct {
		item        string
		offset, len uint64
	}{
		{"lm_response", 88, 24},
		{"nt_response", 112, 90},
		{"domain_name", 202, 18},
		{"user_name", 220, 14},
		{"workstation", 234, 16},
		{"session_key", 250, 16},
	}
	for _, o := range offsets {
		assert.Equal(t, o.offset, m.Uint(o.item+"_offset"), o.item)
		assert.Equal(t, o.len, m.Uint(o.item+"_len"), o.item)
		assert.Equal(t, o.len, m.Uint(o.item+"_maxlen"), o.item)
	}
	wire := m.Bytes()
	require.Len(t, wire, 266)
	assert.Equal(t, binstruct.EncodeUTF16("sylvain"), wire[220:234])
}

func TestAuthenticateRoundTrip(t *testing.T) {
	wire := buildAuthenticate(t).Bytes()

	back, err := Read(wire)
	require.NoError(t, err)
	assert.Same(t, Authenticate, back.Schema())
	assert.Equal(t, "WORKGROUP", Text(back, "domain_name"))
	assert.Equal(t, "sylvain", Text(back, "user_name"))
	assert.Equal(t, "LANFEUST", Text(back, "workstation"))

	nt, ok := Payload(back).Item("nt_response").(*binstruct.Struct)
	require.True(t, ok)
	assert.Same(t, Ntlmv2Response, nt.Schema())
	assert.Equal(t, "2018-10-04T18:13:04.4638077Z", binstruct.Human(nt.Get("timestamp")))
	pairs := nt.Array("avpairs")
	require.Equal(t, 4, pairs.Len())
	assert.Same(t, TimestampAvPair, pairs.At(1).(*binstruct.Struct).Schema())
	assert.Equal(t, uint64(2), pairs.At(2).(*binstruct.Struct).Uint("value"))
	assert.Equal(t, 0, nt.Get("trailer").Size())

	assert.Equal(t, wire, back.Bytes())
	require.NoError(t, back.Recompute())
	assert.Equal(t, wire, back.Bytes())
}

func TestAuthenticateNTLMv1Response(t *testing.T) {
	m := Authenticate.New()
	require.NoError(t, Payload(m).SetItem("nt_response", bytes.Repeat([]byte{0x33}, 24)))
	require.NoError(t, m.Recompute())

	back, err := Read(m.Bytes())
	require.NoError(t, err)
	nt, ok := Payload(back).Item("nt_response").(*binstruct.Bytes)
	require.True(t, ok)
	assert.Equal(t, bytes.Repeat([]byte{0x33}, 24), nt.Data())
}

func TestNtlmv2ResponseKeepsTrailer(t *testing.T) {
	nt := Ntlmv2Response.New()
	eol, err := NewAvPair(AvEOL, nil)
	require.NoError(t, err)
	nt.Array("avpairs").Append(eol)
	wire := append(nt.Bytes(), 0, 0, 0, 0)

	back := Ntlmv2Response.New()
	n, err := back.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	assert.Equal(t, 1, back.Array("avpairs").Len())
	assert.Equal(t, 4, back.Get("trailer").Size())
	assert.Equal(t, wire, back.Bytes())
}

func TestReadDispatch(t *testing.T) {
	_, err := Read([]byte("not ntlm at all"))
	assert.ErrorIs(t, err, ErrNotNTLM)

	_, err = Read([]byte(Signature + "\x01"))
	assert.ErrorIs(t, err, binstruct.ErrTruncated)

	unknown := append([]byte(Signature), 9, 0, 0, 0, 0xde, 0xad)
	m, err := Read(unknown)
	require.NoError(t, err)
	assert.Same(t, Message, m.Schema())
	assert.Equal(t, "<unknown:9>", binstruct.Human(m.Get("type")))
	assert.Equal(t, unknown, m.Bytes())
}

func TestUnknownAvPairFallsBack(t *testing.T) {
	pair, err := NewAvPair(AvChannelBindings, bytes.Repeat([]byte{0x44}, 16))
	require.NoError(t, err)
	assert.Same(t, AvPair, pair.Schema())
	assert.Equal(t, uint64(16), pair.Uint("length"))
	assert.Equal(t, "channel_bindings", binstruct.Human(pair.Get("type")))
}
