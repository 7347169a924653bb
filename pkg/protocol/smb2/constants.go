package smb2

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Marker is the protocol field of every SMB2 header.
const Marker = "\xfeSMB"

// ProtocolID is Marker read as a little-endian uint32.
const ProtocolID uint32 = 0x424D53FE

// HeaderSize is the size of the SMB2 header, sync or async.
const HeaderSize = 64

// Command codes [MS-SMB2] 2.2.1
const (
	CommandNegotiate      uint16 = 0x0000
	CommandSessionSetup   uint16 = 0x0001
	CommandLogoff         uint16 = 0x0002
	CommandTreeConnect    uint16 = 0x0003
	CommandTreeDisconnect uint16 = 0x0004
	CommandCreate         uint16 = 0x0005
	CommandClose          uint16 = 0x0006
	CommandFlush          uint16 = 0x0007
	CommandRead           uint16 = 0x0008
	CommandWrite          uint16 = 0x0009
	CommandLock           uint16 = 0x000A
	CommandIoctl          uint16 = 0x000B
	CommandCancel         uint16 = 0x000C
	CommandEcho           uint16 = 0x000D
	CommandQueryDirectory uint16 = 0x000E
	CommandChangeNotify   uint16 = 0x000F
	CommandQueryInfo      uint16 = 0x0010
	CommandSetInfo        uint16 = 0x0011
	CommandOplockBreak    uint16 = 0x0012
)

// Commands names the command codes.
var Commands = binstruct.NewEnum(map[string]uint64{
	"negotiate":       uint64(CommandNegotiate),
	"session_setup":   uint64(CommandSessionSetup),
	"logoff":          uint64(CommandLogoff),
	"tree_connect":    uint64(CommandTreeConnect),
	"tree_disconnect": uint64(CommandTreeDisconnect),
	"create":          uint64(CommandCreate),
	"close":           uint64(CommandClose),
	"flush":           uint64(CommandFlush),
	"read":            uint64(CommandRead),
	"write":           uint64(CommandWrite),
	"lock":            uint64(CommandLock),
	"ioctl":           uint64(CommandIoctl),
	"cancel":          uint64(CommandCancel),
	"echo":            uint64(CommandEcho),
	"query_directory": uint64(CommandQueryDirectory),
	"change_notify":   uint64(CommandChangeNotify),
	"query_info":      uint64(CommandQueryInfo),
	"set_info":        uint64(CommandSetInfo),
	"oplock_break":    uint64(CommandOplockBreak),
})

// Dialects [MS-SMB2] 2.2.3
const (
	Dialect0202 uint16 = 0x0202
	Dialect0210 uint16 = 0x0210
	Dialect0222 uint16 = 0x0222
	Dialect0224 uint16 = 0x0224
	Dialect0300 uint16 = 0x0300
	Dialect0302 uint16 = 0x0302
	Dialect0310 uint16 = 0x0310
	Dialect0311 uint16 = 0x0311
	DialectWild uint16 = 0x02FF
)

// Dialects names the dialect revisions.
var Dialects = binstruct.NewEnum(map[string]uint64{
	"smb_2.0.2": uint64(Dialect0202),
	"smb_2.1":   uint64(Dialect0210),
	"smb_2.2.2": uint64(Dialect0222),
	"smb_2.2.4": uint64(Dialect0224),
	"smb_3.0":   uint64(Dialect0300),
	"smb_3.0.2": uint64(Dialect0302),
	"smb_3.1":   uint64(Dialect0310),
	"smb_3.1.1": uint64(Dialect0311),
	"smb_2.???": uint64(DialectWild),
})

// DialectType is a 16-bit dialect revision.
var DialectType = binstruct.EnumOf(2, binenc.LittleEndian, Dialects)

// Security modes [MS-SMB2] 2.2.3
const (
	SigningEnabled  = 0x01
	SigningRequired = 0x02
)

// SecurityModes names the security mode values.
var SecurityModes = binstruct.NewEnum(map[string]uint64{
	"signing_enabled":  SigningEnabled,
	"signing_required": SigningRequired,
})

// Capabilities [MS-SMB2] 2.2.3
const (
	CapDFS               uint32 = 0x00000001
	CapLeasing           uint32 = 0x00000002
	CapLargeMTU          uint32 = 0x00000004
	CapMultiChannel      uint32 = 0x00000008
	CapPersistentHandles uint32 = 0x00000010
	CapDirectoryLeasing  uint32 = 0x00000020
	CapEncryption        uint32 = 0x00000040
)
