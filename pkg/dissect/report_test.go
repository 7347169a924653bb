package dissect

import (
	"context"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/metrics"
	"github.com/marmos91/smbwire/pkg/protocol/llmnr"
	"github.com/marmos91/smbwire/pkg/protocol/netbios"
	"github.com/marmos91/smbwire/pkg/protocol/ntlm"
)

func TestNewReport_SessionSetupStack(t *testing.T) {
	wire := sessionFrame(t, smb2SessionSetup(t, ntlmNegotiate(t)))
	res, err := New(DefaultConfig(), nil).Dissect(context.Background(), wire, Auto)
	require.NoError(t, err)

	rep := NewReport(res)
	assert.Equal(t, metrics.OutcomeComplete, rep.Outcome)
	assert.Empty(t, rep.Error)
	require.Len(t, rep.Layers, len(res.Layers))

	for i, l := range rep.Layers {
		assert.Equal(t, res.Layers[i].Name, l.Name)
		assert.Equal(t, res.Layers[i].Offset, l.Offset)
		assert.Equal(t, res.Layers[i].Depth, l.Depth)
	}

	// The header lists its own fields; the body has a node of its own.
	hdr := rep.Layers[1]
	require.NotEmpty(t, hdr.Fields)
	for _, row := range hdr.Fields {
		assert.NotEqual(t, "body", row.Field)
		assert.False(t, strings.HasPrefix(row.Field, " "), row.Field)
	}

	gss := rep.Layers[3]
	assert.Equal(t, "gssapi", gss.Name)
	assert.Empty(t, gss.Fields)
	assert.NotEmpty(t, gss.Summary)

	inner := rep.Layers[4]
	assert.Equal(t, "ntlm_negotiate", inner.Name)
	require.NotEmpty(t, inner.Fields)
	assert.Equal(t, "signature", inner.Fields[0].Field)
}

func TestNewReport_CarriesError(t *testing.T) {
	wire := smb2SessionSetup(t, ntlmNegotiate(t))
	res, err := New(DefaultConfig(), nil).Dissect(context.Background(), wire[:80], SMB2)
	require.NoError(t, err)

	rep := NewReport(res)
	assert.Equal(t, metrics.OutcomeTruncated, rep.Outcome)
	assert.Contains(t, rep.Error, "truncated")
	require.Len(t, rep.Layers, 1)
}

func TestNewReport_LLMNRNames(t *testing.T) {
	wire, err := llmnr.NewResponse(7, "wpad", netip.MustParseAddr("10.0.0.1"), 30)
	require.NoError(t, err)
	res, err := New(DefaultConfig(), nil).Dissect(context.Background(), wire, LLMNR)
	require.NoError(t, err)

	rep := NewReport(res)
	require.Len(t, rep.Layers, 1)
	assert.Equal(t, []string{"wpad."}, rep.Layers[0].Names)
}

func TestDescribeSchema(t *testing.T) {
	info := DescribeSchema(netbios.Session)
	assert.Equal(t, "netbios_session", info.Name)
	assert.Equal(t, []SchemaField{
		{Name: "type"},
		{Name: "length"},
		{Name: "body", Computed: true},
	}, info.Fields)
	require.Len(t, info.Template, 3)
	assert.Equal(t, "UInt24be", info.Template[1].Type)

	for _, name := range binstruct.DefaultRegistry.Names() {
		s, ok := binstruct.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, DescribeSchema(s).Name)
	}

	neg := DescribeSchema(ntlm.Negotiate)
	assert.Equal(t, "signature", neg.Fields[0].Name)
}
