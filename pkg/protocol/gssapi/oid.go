// Package gssapi decodes and encodes the SPNEGO tokens (RFC 4178) carried in
// SMB session setup buffers.
//
// Init tokens arrive wrapped in the GSS-API application header (0x60) with
// the SPNEGO OID; response tokens are bare NegTokenResp elements (0xa1).
// A Token always keeps the DER bytes it was read from so that a decoded
// message re-encodes byte for byte. Tokens that are not SPNEGO (a raw
// Kerberos AP-REQ, a bare NTLMSSP message) are kept raw.
package gssapi

import (
	"github.com/jcmturner/gofork/encoding/asn1"
)

// Mechanism OIDs seen in SPNEGO mechanism lists.
var (
	// OIDMSKerberosV5 is Microsoft's Kerberos 5 OID (1.2.840.48018.1.2.2).
	OIDMSKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 48018, 1, 2, 2}

	// OIDKerberosV5 is the standard Kerberos 5 OID (1.2.840.113554.1.2.2).
	OIDKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 113554, 1, 2, 2}

	// OIDNTLMSSP is the NTLM Security Support Provider OID (1.3.6.1.4.1.311.2.2.10).
	OIDNTLMSSP = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 2, 2, 10}

	// OIDSPNEGO identifies the outer GSS-API wrapper (1.3.6.1.5.5.2).
	OIDSPNEGO = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 2}
)

var mechNames = []struct {
	oid  asn1.ObjectIdentifier
	name string
}{
	{OIDMSKerberosV5, "ms-krb5"},
	{OIDKerberosV5, "krb5"},
	{OIDNTLMSSP, "ntlmssp"},
	{OIDSPNEGO, "spnego"},
}

// MechName returns a short name for a mechanism OID, or its dotted form.
func MechName(oid asn1.ObjectIdentifier) string {
	for _, m := range mechNames {
		if m.oid.Equal(oid) {
			return m.name
		}
	}
	return oid.String()
}

// NegState is the negotiation state of a NegTokenResp.
// [RFC 4178] Section 4.2.2
type NegState int

const (
	NegStateAcceptCompleted  NegState = 0
	NegStateAcceptIncomplete NegState = 1
	NegStateReject           NegState = 2
	NegStateRequestMIC       NegState = 3
)

func (s NegState) String() string {
	switch s {
	case NegStateAcceptCompleted:
		return "accept-completed"
	case NegStateAcceptIncomplete:
		return "accept-incomplete"
	case NegStateReject:
		return "reject"
	case NegStateRequestMIC:
		return "request-mic"
	default:
		return "unknown"
	}
}
