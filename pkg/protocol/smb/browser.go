package smb

import (
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Browser opcodes.
const (
	OpHostAnnouncement        = 1
	OpHostAnnouncementReq     = 2
	OpRequestElection         = 8
	OpGetBackupListReq        = 9
	OpGetBackupListResp       = 10
	OpBecomeBackup            = 11
	OpDomainAnnouncement      = 12
	OpMasterAnnouncement      = 13
	OpResetStateRequest       = 14
	OpLocalMasterAnnouncement = 15
)

// BrowserOpcodes names the browser opcodes.
var BrowserOpcodes = binstruct.NewEnum(map[string]uint64{
	"host_announcement":         OpHostAnnouncement,
	"host_announcement_req":     OpHostAnnouncementReq,
	"request_election":          OpRequestElection,
	"get_backup_list_req":       OpGetBackupListReq,
	"get_backup_list_resp":      OpGetBackupListResp,
	"become_backup":             OpBecomeBackup,
	"domain_announcement":       OpDomainAnnouncement,
	"master_announcement":       OpMasterAnnouncement,
	"reset_state_request":       OpResetStateRequest,
	"local_master_announcement": OpLocalMasterAnnouncement,
})

// BrowserSignature is the announcement signature constant.
const BrowserSignature = 0xaa55

// Browser is a browser protocol frame with an opcode this package does not
// decode further.
var Browser = binstruct.MustDefine("smb_browser", []binstruct.Field{
	binstruct.Def("opcode", binstruct.EnumOf(1, binenc.LittleEndian, BrowserOpcodes)),
	binstruct.Def("body", binstruct.BytesType),
})

// HostAnnouncement advertises a server.
var HostAnnouncement = Browser.MustDerive("smb_browser_host_announcement",
	binstruct.Remove("body"),
	binstruct.OverrideDefault("opcode", OpHostAnnouncement),
	binstruct.Append(
		binstruct.Def("update_count", binstruct.U8),
		binstruct.Def("periodicity", binstruct.U32LE),
		binstruct.Def("server_name", binstruct.StaticCString(16)),
		binstruct.Def("os_ver_maj", binstruct.U8),
		binstruct.Def("os_ver_min", binstruct.U8),
		binstruct.Def("server_type", binstruct.U32LE),
		binstruct.Def("browser_ver_maj", binstruct.U8).Default(15),
		binstruct.Def("browser_ver_min", binstruct.U8).Default(1),
		binstruct.Def("signature", binstruct.U16LE).Default(BrowserSignature),
		binstruct.Def("comment", binstruct.CStringType),
	),
)

// DomainAnnouncement advertises a workgroup. Its server_name holds the
// machine group, os_ver_* the browser configuration version and comment the
// local master name.
var DomainAnnouncement = HostAnnouncement.MustDerive("smb_browser_domain_announcement",
	binstruct.OverrideDefault("opcode", OpDomainAnnouncement),
)

// LocalMasterAnnouncement is sent by a local master browser.
var LocalMasterAnnouncement = HostAnnouncement.MustDerive("smb_browser_local_master_announcement",
	binstruct.OverrideDefault("opcode", OpLocalMasterAnnouncement),
)

// Announcements dispatches a browser frame on its opcode. Other opcodes
// decode as Browser.
var Announcements = binstruct.ChoiceSpec{
	Alternatives: []binstruct.Alternative{
		{Name: "host_announcement", Tag: OpHostAnnouncement, Type: HostAnnouncement.Type()},
		{Name: "domain_announcement", Tag: OpDomainAnnouncement, Type: DomainAnnouncement.Type()},
		{Name: "local_master_announcement", Tag: OpLocalMasterAnnouncement, Type: LocalMasterAnnouncement.Type()},
	},
	Select: func(peek []byte) (uint64, bool) {
		if len(peek) == 0 {
			return 0, false
		}
		return uint64(peek[0]), true
	},
	Fallback: Browser.Type(),
}

// ReadBrowser decodes a browser frame carried by a \MAILSLOT\BROWSE
// transaction.
func ReadBrowser(data []byte) (*binstruct.Struct, error) {
	c := binstruct.NewChoice(Announcements)
	if _, err := c.Read(data); err != nil {
		return nil, err
	}
	return c.Active().(*binstruct.Struct), nil
}
