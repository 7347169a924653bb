package dissect

import (
	"fmt"
	"strings"

	"github.com/marmos91/smbwire/pkg/protocol/netbios"
	"github.com/marmos91/smbwire/pkg/protocol/ntlm"
	"github.com/marmos91/smbwire/pkg/protocol/smb"
	"github.com/marmos91/smbwire/pkg/protocol/smb2"
)

// Layer names the protocol a buffer starts with.
type Layer string

const (
	Auto            Layer = "auto"
	NetBIOSSession  Layer = "netbios_session"
	NetBIOSDatagram Layer = "netbios_datagram"
	SMB             Layer = "smb"
	SMB2            Layer = "smb2"
	Browser         Layer = "browser"
	GSSAPI          Layer = "gssapi"
	NTLM            Layer = "ntlm"
	LLMNR           Layer = "llmnr"
)

// Layers lists the layers accepted as an entry point, Auto first.
var Layers = []Layer{Auto, NetBIOSSession, NetBIOSDatagram, SMB, SMB2, Browser, GSSAPI, NTLM, LLMNR}

// ParseLayer maps a name to a Layer. Matching ignores case; the empty string
// is Auto.
func ParseLayer(s string) (Layer, error) {
	if s == "" {
		return Auto, nil
	}
	for _, l := range Layers {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// Detect guesses the outermost layer from the leading bytes. NetBIOS
// datagrams and LLMNR have no marker and must be named explicitly.
func Detect(data []byte) (Layer, bool) {
	switch {
	case smb2.IsMessage(data):
		return SMB2, true
	case smb.IsMessage(data):
		return SMB, true
	case ntlm.IsMessage(data):
		return NTLM, true
	case isSessionFrame(data):
		return NetBIOSSession, true
	case len(data) > 0 && (data[0] == 0x60 || data[0] == 0xa1):
		return GSSAPI, true
	}
	return "", false
}

// isSessionFrame reports whether data is exactly one session service frame
// of a known type.
func isSessionFrame(data []byte) bool {
	if len(data) < netbios.SessionHeaderSize {
		return false
	}
	if _, ok := netbios.SessionTypes.Name(uint64(data[0])); !ok {
		return false
	}
	length := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	return length == len(data)-netbios.SessionHeaderSize
}
