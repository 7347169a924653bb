package smb2

import (
	"bytes"
	"testing"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/protocol/gssapi"
)

func TestHeaderDefaults(t *testing.T) {
	h := Header.New()
	assert.Equal(t, HeaderSize, h.Size())
	assert.Equal(t, []byte(Marker), h.Get("protocol").(*binstruct.Bytes).Data())
	assert.Equal(t, uint64(64), h.Uint("structure_size"))
	assert.Equal(t, "negotiate", binstruct.Human(h.Get("command")))
	assert.False(t, h.Present("async_id"))
	assert.True(t, h.Present("reserved"))
	assert.True(t, h.Present("tree_id"))
	assert.True(t, IsMessage(h.Bytes()))
	assert.False(t, IsMessage([]byte("\xffSMB")))
}

func TestHeaderAsyncVariant(t *testing.T) {
	sync := Header.New()
	async := Header.New()
	require.NoError(t, async.SetFlag("async", true))
	require.NoError(t, async.SetUint("async_id", 0x1122334455667788))

	assert.Equal(t, sync.Size(), async.Size())
	assert.Contains(t, async.PresentFields(), "async_id")
	assert.NotContains(t, async.PresentFields(), "tree_id")
	assert.NotContains(t, async.PresentFields(), "reserved")
	assert.NotContains(t, sync.PresentFields(), "async_id")

	wire := async.Bytes()
	assert.Equal(t, []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, wire[32:40])

	back := Header.New()
	_, err := back.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), back.Uint("async_id"))
	assert.False(t, back.Present("tree_id"))
}

func TestHeaderReadSequentialBytes(t *testing.T) {
	wire := make([]byte, HeaderSize)
	for i := range wire {
		wire[i] = byte(i)
	}
	h := Header.New()
	n, err := h.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize, n)
	assert.Equal(t, uint64(0x0504), h.Uint("structure_size"))
	assert.Equal(t, uint64(0x0706), h.Uint("credit_charge"))
	assert.Equal(t, uint64(0x0b0a0908), h.Uint("status"))
	assert.Equal(t, uint64(0x0d0c), h.Uint("command"))
	assert.Equal(t, uint64(0x0f0e), h.Uint("credit"))
	assert.Equal(t, uint64(0x13121110), h.Uint("flags"))
	assert.Equal(t, uint64(0x17161514), h.Uint("next_command"))
	assert.Equal(t, uint64(0x1f1e1d1c1b1a1918), h.Uint("message_id"))
	assert.Equal(t, uint64(0x23222120), h.Uint("reserved"))
	assert.Equal(t, uint64(0x27262524), h.Uint("tree_id"))
	assert.Equal(t, uint64(0x2f2e2d2c2b2a2928), h.Uint("session_id"))
	assert.Equal(t, wire[48:], h.Get("signature").(*binstruct.Bytes).Data())
	assert.Equal(t, wire, h.Bytes())
}

func TestHeaderFlags(t *testing.T) {
	h := Header.New()
	require.NoError(t, h.SetUint("flags", 0x19))
	assert.True(t, h.Flag("response"))
	assert.True(t, h.Flag("signed"))
	assert.False(t, h.Flag("async"))
	assert.Equal(t, uint64(1), h.Uint("priority"))
	assert.Equal(t, "signed,response", HeaderFlags.Describe(0x19))
	assert.Equal(t, "replay_op,dfs_op,signed,related_op,async,response", HeaderFlags.Describe(0xffffffff))
}

func TestGUID(t *testing.T) {
	const text = "7aedb437-01b9-41d4-a5f7-9e6c06e16c8a"
	wire := []byte{0x37, 0xb4, 0xed, 0x7a, 0xb9, 0x01, 0xd4, 0x41,
		0xa5, 0xf7, 0x9e, 0x6c, 0x06, 0xe1, 0x6c, 0x8a}

	g, err := ParseGUID(text)
	require.NoError(t, err)
	assert.Equal(t, wire, binstruct.Encode(g))

	back := &GUID{}
	n, err := back.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, GUIDSize, n)
	assert.Equal(t, text, back.String())

	_, err = back.Read(wire[:10])
	assert.ErrorIs(t, err, binstruct.ErrTruncated)
	assert.ErrorIs(t, back.Set("not-a-guid"), binstruct.ErrBadValue)

	r, err := NewRandomGUID()
	require.NoError(t, err)
	assert.Equal(t, byte(4), r.UUID()[6]>>4)
}

func appendDialects(t *testing.T, a *binstruct.Array, dialects ...uint16) {
	t.Helper()
	for _, d := range dialects {
		v, err := a.AppendNew(0)
		require.NoError(t, err)
		v.(binstruct.Unsigned).SetUint(uint64(d))
	}
}

func TestNegotiateRequestContextOffset(t *testing.T) {
	req := NegotiateRequest.New()
	require.NoError(t, req.Recompute())
	assert.Equal(t, uint64(0), req.Uint("context_offset"))

	_, err := req.Array("context_list").AppendNew(ContextEncryption)
	require.NoError(t, err)
	require.NoError(t, req.Recompute())
	assert.Equal(t, uint64(104), req.Uint("context_offset"))
	assert.Equal(t, uint64(HeaderSize+req.MustOffsetOf("context_list")), req.Uint("context_offset"))
	assert.Equal(t, uint64(1), req.Uint("context_count"))

	req.Array("context_list").Clear()
	require.NoError(t, req.Recompute())
	assert.Equal(t, uint64(0), req.Uint("context_offset"))
	assert.Equal(t, uint64(0), req.Uint("context_count"))
}

func TestNegotiateRequestPad(t *testing.T) {
	req := NegotiateRequest.New()
	for i := 0; i < 6; i++ {
		if i > 0 {
			appendDialects(t, req.Array("dialects"), uint16(i))
		}
		require.NoError(t, req.Recompute())
		assert.Equal(t, ((4-i*2)%8+8)%8, req.Get("pad").Size(), "dialects=%d", i)
		assert.Equal(t, uint64(i), req.Uint("dialect_count"))
	}
}

func TestNegotiateContextLengths(t *testing.T) {
	req := NegotiateRequest.New()
	list := req.Array("context_list")
	preauth, err := list.AppendNew(ContextPreauthIntegrity)
	require.NoError(t, err)
	enc, err := list.AppendNew(ContextEncryption)
	require.NoError(t, err)
	require.NoError(t, req.Recompute())

	assert.Equal(t, uint64(4), preauth.(*binstruct.Struct).Uint("data_length"))
	assert.Equal(t, uint64(2), enc.(*binstruct.Struct).Uint("data_length"))

	alg, err := preauth.(*binstruct.Struct).Array("hash_alg").AppendNew(0)
	require.NoError(t, err)
	alg.(binstruct.Unsigned).SetUint(1)
	require.NoError(t, req.Recompute())
	assert.Equal(t, uint64(6), preauth.(*binstruct.Struct).Uint("data_length"))
	assert.Equal(t, uint64(1), preauth.(*binstruct.Struct).Uint("hash_alg_count"))

	generic := NegotiateContext.New()
	require.NoError(t, generic.Set("type", "encryption_cap"))
	require.NoError(t, generic.Set("data", "abcd"))
	require.NoError(t, generic.Recompute())
	assert.Equal(t, uint64(4), generic.Uint("data_length"))
	assert.Equal(t, "encryption_cap", binstruct.Human(generic.Get("type")))
}

// buildNegotiateRequest mirrors a Windows 10 SMB 3.1.1 negotiate request.
func buildNegotiateRequest(t *testing.T) *binstruct.Struct {
	t.Helper()
	req := NegotiateRequest.New()
	require.NoError(t, req.Set("security_mode", "signing_enabled"))
	require.NoError(t, req.SetUint("capabilities", 0x7f))
	require.NoError(t, req.Set("client_guid", "7aedb437-01b9-41d4-a5f7-9e6c06e16c8a"))
	appendDialects(t, req.Array("dialects"),
		Dialect0202, Dialect0210, Dialect0222, Dialect0224, Dialect0300, Dialect0302, Dialect0310, Dialect0311)

	list := req.Array("context_list")
	v, err := list.AppendNew(ContextPreauthIntegrity)
	require.NoError(t, err)
	preauth := v.(*binstruct.Struct)
	alg, err := preauth.Array("hash_alg").AppendNew(0)
	require.NoError(t, err)
	alg.(binstruct.Unsigned).SetUint(1)
	require.NoError(t, preauth.Set("salt", bytes.Repeat([]byte{0xd5}, 32)))

	v, err = list.AppendNew(ContextEncryption)
	require.NoError(t, err)
	ciphers := v.(*binstruct.Struct).Array("ciphers")
	for _, c := range []uint64{1, 2} {
		e, err := ciphers.AppendNew(0)
		require.NoError(t, err)
		e.(binstruct.Unsigned).SetUint(c)
	}
	require.NoError(t, req.Recompute())
	return req
}

func TestNegotiateRequestLayout(t *testing.T) {
	req := buildNegotiateRequest(t)
	assert.Equal(t, uint64(8), req.Uint("dialect_count"))
	assert.Equal(t, uint64(0x78), req.Uint("context_offset"))
	assert.Equal(t, uint64(2), req.Uint("context_count"))
	assert.Equal(t, 4, req.Get("pad").Size())

	list := req.Array("context_list")
	preauth := list.At(0).(*binstruct.Struct)
	assert.Equal(t, uint64(38), preauth.Uint("data_length"))
	assert.Equal(t, uint64(32), preauth.Uint("salt_length"))
	assert.Equal(t, 2, preauth.Get("pad").Size())
	enc := list.At(1).(*binstruct.Struct)
	assert.Equal(t, uint64(6), enc.Uint("data_length"))
	assert.Equal(t, "[aes128_ccm, aes128_gcm]", binstruct.Human(enc.Get("ciphers")))

	for _, name := range []string{"encryption", "dir_leasing", "persistent_handles", "multi_channel", "large_mtu", "leasing", "dfs"} {
		assert.True(t, req.Flag(name), name)
	}
}

func TestNegotiateRequestRoundTripWithShortTrailingPad(t *testing.T) {
	full := buildNegotiateRequest(t).Bytes()
	// The last context of a capture carries no padding.
	wire := full[:len(full)-2]

	back := NegotiateRequest.New()
	n, err := back.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	assert.Equal(t, "7aedb437-01b9-41d4-a5f7-9e6c06e16c8a", binstruct.Human(back.Get("client_guid")))
	assert.Equal(t, "signing_enabled", binstruct.Human(back.Get("security_mode")))

	list := back.Array("context_list")
	require.Equal(t, 2, list.Len())
	assert.Equal(t, PreauthIntegrityCap, list.At(0).(*binstruct.Struct).Schema())
	assert.Equal(t, EncryptionCap, list.At(1).(*binstruct.Struct).Schema())
	assert.Equal(t, 0, list.At(1).(*binstruct.Struct).Get("pad").Size())
	assert.Equal(t, "[smb_2.0.2, smb_2.1, smb_2.2.2, smb_2.2.4, smb_3.0, smb_3.0.2, smb_3.1, smb_3.1.1]",
		binstruct.Human(back.Get("dialects")))

	assert.Equal(t, wire, back.Bytes())

	// Recompute keeps the short trailing padding while nothing moves.
	require.NoError(t, back.Recompute())
	assert.Equal(t, wire, back.Bytes())

	// Appending a context moves the former last one's padding to its
	// aligned length.
	_, err = list.AppendNew(ContextEncryption)
	require.NoError(t, err)
	require.NoError(t, back.Recompute())
	assert.Equal(t, 2, list.At(1).(*binstruct.Struct).Get("pad").Size())
	contexts := 0x78 - HeaderSize
	assert.Equal(t, full[contexts:], back.Bytes()[contexts:len(full)])
	assert.Equal(t, uint64(3), back.Uint("context_count"))
}

func TestNegotiateUnknownContextFallsBack(t *testing.T) {
	req := NegotiateRequest.New()
	v, err := req.Array("context_list").AppendNew(ContextNetname)
	require.NoError(t, err)
	ctx := v.(*binstruct.Struct)
	require.NoError(t, ctx.Set("type", ContextNetname))
	require.NoError(t, ctx.Set("data", []byte{'s', 0, 'r', 0, 'v', 0}))
	require.NoError(t, req.Recompute())

	back := NegotiateRequest.New()
	_, err = back.Read(req.Bytes())
	require.NoError(t, err)
	got := back.Array("context_list").At(0).(*binstruct.Struct)
	assert.Equal(t, NegotiateContext, got.Schema())
	assert.Equal(t, "netname_context_id", binstruct.Human(got.Get("type")))
	assert.Equal(t, uint64(6), got.Uint("data_length"))
	assert.Equal(t, 2, got.Get("pad").Size())
}

func TestNegotiateResponseRecompute(t *testing.T) {
	resp := NegotiateResponse.New()
	require.NoError(t, resp.Recompute())
	assert.Equal(t, uint64(128), resp.Uint("buffer_offset"))
	assert.Equal(t, uint64(0), resp.Uint("context_offset"))

	for i := 0; i < 12; i++ {
		require.NoError(t, resp.Set("buffer", bytes.Repeat([]byte{'a'}, i)))
		require.NoError(t, resp.Recompute())
		assert.Equal(t, uint64(i), resp.Uint("buffer_length"))
		assert.Equal(t, (8-i%8)%8, resp.Get("pad").Size(), "buffer=%d", i)
	}

	require.NoError(t, resp.Set("buffer", []byte("abcdef")))
	_, err := resp.Array("context_list").AppendNew(ContextEncryption)
	require.NoError(t, err)
	require.NoError(t, resp.Recompute())
	assert.Equal(t, uint64(6), resp.Uint("buffer_length"))
	assert.Equal(t, uint64(136), resp.Uint("context_offset"))
	assert.Equal(t, uint64(HeaderSize+resp.MustOffsetOf("context_list")), resp.Uint("context_offset"))
}

func TestNegotiateResponseRoundTrip(t *testing.T) {
	init, err := gssapi.NewInit([]asn1.ObjectIdentifier{gssapi.OIDMSKerberosV5, gssapi.OIDNTLMSSP}, nil)
	require.NoError(t, err)

	resp := NegotiateResponse.New()
	require.NoError(t, resp.Set("security_mode", SigningEnabled))
	require.NoError(t, resp.Set("dialect", "smb_3.1.1"))
	require.NoError(t, resp.Set("server_guid", "f9a55f79-6266-4a4c-86bc-989430e8d43f"))
	require.NoError(t, resp.SetUint("capabilities", 0x2f))
	require.NoError(t, resp.SetUint("max_trans_size", 0x800000))
	require.NoError(t, resp.Set("system_time", int64(131831503844638077)))
	require.NoError(t, resp.Put("buffer", init))
	_, err = resp.Array("context_list").AppendNew(ContextPreauthIntegrity)
	require.NoError(t, err)
	require.NoError(t, resp.Recompute())

	assert.False(t, resp.Flag("encryption"))
	assert.True(t, resp.Flag("dir_leasing"))
	assert.False(t, resp.Flag("persistent_handles"))

	wire := resp.Bytes()
	back := NegotiateResponse.New()
	_, err = back.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, wire, back.Bytes())
	assert.Equal(t, "smb_3.1.1", binstruct.Human(back.Get("dialect")))
	assert.Equal(t, "2018-10-04T18:13:04.4638077Z", binstruct.Human(back.Get("system_time")))
	assert.Equal(t, "no time", binstruct.Human(back.Get("start_time")))
	tok := SecurityBuffer(back)
	require.NotNil(t, tok)
	assert.Equal(t, gssapi.KindInit, tok.Kind())
	assert.True(t, tok.HasMech(gssapi.OIDNTLMSSP))
}

func TestSessionSetupRequest(t *testing.T) {
	req := SessionSetupRequest.New()
	require.NoError(t, req.Recompute())
	assert.Equal(t, uint64(0), req.Uint("buffer_offset"))
	assert.False(t, req.Present("buffer"))
	assert.Equal(t, 24, req.Size())

	tok, err := gssapi.NewInit([]asn1.ObjectIdentifier{gssapi.OIDNTLMSSP}, []byte("NTLMSSP\x00\x01\x00\x00\x00"))
	require.NoError(t, err)
	require.NoError(t, req.Put("buffer", tok))
	require.NoError(t, req.SetUint("buffer_offset", 1))
	require.NoError(t, req.Set("security_mode", "signing_enabled"))
	require.NoError(t, req.SetFlag("dfs", true))
	require.NoError(t, req.Recompute())
	assert.Equal(t, uint64(0x58), req.Uint("buffer_offset"))
	assert.Equal(t, uint64(tok.Size()), req.Uint("buffer_length"))
	assert.Equal(t, uint64(1), req.Uint("capabilities"))

	back := SessionSetupRequest.New()
	_, err = back.Read(req.Bytes())
	require.NoError(t, err)
	assert.Equal(t, req.Bytes(), back.Bytes())
	assert.Equal(t, []byte("NTLMSSP\x00\x01\x00\x00\x00"), SecurityBuffer(back).MechToken())
}

func TestSessionSetupResponse(t *testing.T) {
	tok, err := gssapi.NewResp(gssapi.NegStateAcceptIncomplete, gssapi.OIDNTLMSSP, []byte("NTLMSSP\x00\x02\x00\x00\x00"))
	require.NoError(t, err)
	resp := SessionSetupResponse.New()
	require.NoError(t, resp.Put("buffer", tok))
	require.NoError(t, resp.SetFlag("is_guest", true))
	require.NoError(t, resp.Recompute())
	assert.Equal(t, uint64(0x48), resp.Uint("buffer_offset"))
	assert.Equal(t, uint64(tok.Size()), resp.Uint("buffer_length"))
	assert.Equal(t, uint64(1), resp.Uint("flags"))

	back := SessionSetupResponse.New()
	_, err = back.Read(resp.Bytes())
	require.NoError(t, err)
	state, ok := SecurityBuffer(back).NegState()
	require.True(t, ok)
	assert.Equal(t, gssapi.NegStateAcceptIncomplete, state)
}

func TestBodySchema(t *testing.T) {
	s, ok := BodySchema(CommandSessionSetup, true, StatusMoreProcessingRequired)
	require.True(t, ok)
	assert.Equal(t, SessionSetupResponse, s)

	s, ok = BodySchema(CommandSessionSetup, true, StatusLogonFailure)
	require.True(t, ok)
	assert.Equal(t, ErrorResponse, s)

	s, ok = BodySchema(CommandNegotiate, false, StatusSuccess)
	require.True(t, ok)
	assert.Equal(t, NegotiateRequest, s)

	_, ok = BodySchema(CommandRead, false, StatusSuccess)
	assert.False(t, ok)
}

func TestNewHeader(t *testing.T) {
	for _, response := range []bool{false, true} {
		h, err := NewHeader(CommandTreeConnect, response)
		require.NoError(t, err)
		assert.Equal(t, uint64(CommandTreeConnect), h.Uint("command"))
		assert.Equal(t, response, h.Flag("response"))
		assert.Equal(t, HeaderSize, len(h.Bytes()))
	}
}

func TestHeaderCarriesBody(t *testing.T) {
	h, err := NewHeader(CommandSessionSetup, true)
	require.NoError(t, err)
	require.NoError(t, h.Set("status", uint32(StatusMoreProcessingRequired)))
	body := SessionSetupResponse.New()
	require.NoError(t, h.Put("body", body))
	require.NoError(t, h.Recompute())
	assert.Equal(t, h, body.Outer())
	assert.Equal(t, HeaderSize, body.Anchor())

	wire := h.Bytes()
	assert.Equal(t, HeaderSize+8, len(wire))

	back := Header.New()
	_, err = back.Read(wire)
	require.NoError(t, err)
	schema, ok := BodyOf(back)
	require.True(t, ok)
	assert.Equal(t, SessionSetupResponse, schema)
	assert.Equal(t, "STATUS_MORE_PROCESSING_REQUIRED", binstruct.Human(back.Get("status")))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "STATUS_ACCESS_DENIED", StatusAccessDenied.String())
	assert.Equal(t, "STATUS_0xC0001234", Status(0xC0001234).String())
	assert.True(t, StatusAccessDenied.IsError())
	assert.True(t, StatusBufferOverflow.IsWarning())
	assert.True(t, StatusPending.IsSuccess())
	assert.Equal(t, 3, StatusLogonFailure.Severity())
}

func TestErrorResponse(t *testing.T) {
	wire := []byte{0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	e := ErrorResponse.New()
	n, err := e.Read(wire)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, uint64(9), e.Uint("structure_size"))
	assert.Equal(t, wire, e.Bytes())
}
